package pipeline

import (
	"context"
	"fmt"
	"mime"
	"net/url"
	"path"
	"strings"
	"sync"
	"time"

	"pixivarc/pkg/archive"
	"pixivarc/pkg/pixiv"
)

// coverFilename is the fixed name for a text work's cover image
const coverFilename = "cover.jpg"

// coverWidth and coverHeight are the platform's cover render dimensions
const (
	coverWidth  = 427
	coverHeight = 600
)

// resolveArtworks is the heart of the pipeline: each artwork id becomes a
// sync unit with its file batch handed to the download stage. One task
// per artwork; already-archived sources are skipped, which makes repeated
// runs resumable.
func (p *Pipeline) resolveArtworks(ctx context.Context, artworks <-chan pixiv.ArtworkID, files chan<- FileBatch, units chan<- SyncUnit) {
	var wg sync.WaitGroup

	for id := range artworks {
		wg.Add(1)
		p.artworkStage.AddTotal(1)

		go func(id pixiv.ArtworkID) {
			defer wg.Done()
			defer p.artworkStage.Inc()
			p.resolveArtwork(ctx, id, files, units)
		}(id)
	}

	wg.Wait()
	p.logger.Debug("artwork resolution finished")
}

func (p *Pipeline) resolveArtwork(ctx context.Context, id pixiv.ArtworkID, files chan<- FileBatch, units chan<- SyncUnit) {
	source := id.SourceURL()

	if _, exists, err := p.store.FindPost(source); err != nil {
		p.logger.WithError(err).WithField("artwork", id.String()).Error("failed to check archive for post")
		return
	} else if exists {
		p.logger.DebugWithFields("already archived, skipping", map[string]interface{}{"artwork": id.String()})
		return
	}

	artwork, err := p.api.ArtworkMeta(ctx, id)
	if err != nil {
		p.logger.WithError(err).WithField("artwork", id.String()).Error("failed to fetch artwork")
		return
	}

	contents := []ContentItem{{Text: blockquote(artwork.Description)}}
	var thumb *FileItem

	switch {
	case artwork.Content.Illust != nil:
		items, err := p.resolveIllustFiles(ctx, artwork)
		if err != nil {
			p.logger.WithError(err).WithField("artwork", id.String()).Error("failed to resolve illust files")
			return
		}
		if len(items) > 0 {
			first := items[0]
			thumb = &first
		}

		if artwork.Content.Illust.Type == pixiv.IllustTypeUgoira {
			ugoira, err := p.resolveUgoiraFile(ctx, artwork)
			if err != nil {
				p.logger.WithError(err).WithField("artwork", id.String()).Error("failed to resolve ugoira")
				return
			}
			contents = append(contents, ContentItem{File: ugoira})
		} else {
			for i := range items {
				contents = append(contents, ContentItem{File: &items[i]})
			}
		}

	case artwork.Content.Text != nil:
		contents = append(contents, ContentItem{Text: artwork.Content.Text.Body})
		cover := coverFileItem(artwork.Content.Text.CoverURL)
		thumb = &cover
	}

	var comments []archive.Comment
	if artwork.AllowsComments() {
		comments = p.fetchComments(ctx, artwork.ID, artwork.Content.Text != nil)
	}

	var collection *archive.Collection
	if artwork.SeriesNav != nil {
		collection = &archive.Collection{
			Name:   artwork.SeriesNav.Title,
			Source: artwork.SeriesNav.CollectionURL(artwork.UserID),
		}
	}

	pending := NewPendingFiles()
	files <- FileBatch{Requests: collectRequests(contents, thumb), Pending: pending}

	units <- SyncUnit{
		Source:     source,
		Title:      artwork.Title,
		AuthorID:   artwork.UserID,
		AuthorName: artwork.UserName,
		Published:  parseDate(artwork.CreateDate),
		Updated:    parseDate(artwork.UploadDate),
		Contents:   contents,
		Thumb:      thumb,
		Comments:   comments,
		Tags:       artwork.Tags.Normalized(),
		Collection: collection,
		Files:      pending,
	}

	p.logger.InfoWithFields("resolved artwork", map[string]interface{}{"artwork": id.String()})
}

// resolveIllustFiles fetches the page list and builds one file item per
// page at original resolution
func (p *Pipeline) resolveIllustFiles(ctx context.Context, artwork *pixiv.Artwork) ([]FileItem, error) {
	pages, err := p.api.IllustPages(ctx, artwork.ID)
	if err != nil {
		return nil, err
	}

	items := make([]FileItem, 0, len(pages))
	for _, page := range pages {
		filename := filenameFromURL(page.URLs.Original)
		items = append(items, FileItem{
			Meta: archive.FileMeta{
				Filename: filename,
				Mime:     mimeByFilename(filename),
				Extra:    archive.ImageDimensions(page.Width, page.Height),
			},
			Request: ImageRequest(page.URLs.Original),
		})
	}
	return items, nil
}

// resolveUgoiraFile fetches the frame metadata and builds the single
// animation file item
func (p *Pipeline) resolveUgoiraFile(ctx context.Context, artwork *pixiv.Artwork) (*FileItem, error) {
	meta, err := p.api.Ugoira(ctx, artwork.ID)
	if err != nil {
		return nil, err
	}

	return &FileItem{
		Meta:    archive.FileMeta{Filename: "ugoira.webm", Mime: "video/webm"},
		Request: AnimationRequest(meta.OriginalSrc, meta.Frames),
	}, nil
}

func coverFileItem(coverURL string) FileItem {
	return FileItem{
		Meta: archive.FileMeta{
			Filename: coverFilename,
			Mime:     "image/jpeg",
			Extra:    archive.ImageDimensions(coverWidth, coverHeight),
		},
		Request: SizedImageRequest(coverURL, coverWidth, coverHeight),
	}
}

// fetchComments builds the comment tree: one unbounded root page, then a
// reply fetch for every comment flagged as having replies, recursively.
// The novel flag is preserved through the recursion so the right endpoint
// family is used.
func (p *Pipeline) fetchComments(ctx context.Context, artworkID string, novel bool) []archive.Comment {
	page, err := p.api.CommentRoots(ctx, artworkID, novel)
	if err != nil {
		p.logger.WithError(err).WithField("artwork", artworkID).Error("failed to fetch comments")
		return nil
	}
	return p.collectComments(ctx, page.Comments, novel)
}

func (p *Pipeline) collectComments(ctx context.Context, entries []pixiv.CommentEntry, novel bool) []archive.Comment {
	comments := make([]archive.Comment, 0, len(entries))
	for _, entry := range entries {
		var replies []archive.Comment
		if entry.HasReplies {
			page, err := p.api.CommentReplies(ctx, entry.ID, novel)
			if err != nil {
				p.logger.WithError(err).WithField("comment", entry.ID).Error("failed to fetch replies")
			} else {
				replies = p.collectComments(ctx, page.Comments, novel)
			}
		}

		comments = append(comments, archive.Comment{
			User:    entry.UserName,
			Text:    entry.Text(),
			Replies: replies,
		})
	}
	return comments
}

// collectRequests gathers every file request of the unit, thumb included,
// deduplicated by URL
func collectRequests(contents []ContentItem, thumb *FileItem) []FileRequest {
	var requests []FileRequest
	seen := make(map[string]bool)

	add := func(item *FileItem) {
		if item == nil || seen[item.Request.URL] {
			return
		}
		seen[item.Request.URL] = true
		requests = append(requests, item.Request)
	}

	add(thumb)
	for i := range contents {
		add(contents[i].File)
	}
	return requests
}

// blockquote renders the description as a quoted block, one marker per
// line
func blockquote(description string) string {
	return fmt.Sprintf("> %s", strings.ReplaceAll(strings.TrimSpace(description), "\n", "\n> "))
}

func parseDate(value string) time.Time {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

// filenameFromURL takes the last path segment of a file URL
func filenameFromURL(fileURL string) string {
	parsed, err := url.Parse(fileURL)
	if err != nil {
		return path.Base(fileURL)
	}
	return path.Base(parsed.Path)
}

// mimeByFilename guesses a content type from the file extension
func mimeByFilename(filename string) string {
	if mimeType := mime.TypeByExtension(path.Ext(filename)); mimeType != "" {
		return mimeType
	}
	return "application/octet-stream"
}
