package pipeline

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"pixivarc/pkg/archive"
)

// persist is the single consumer of sync units. All archive writes are
// serialized here: one transaction per post, committed only after every
// file of the post has been moved into its final location.
func (p *Pipeline) persist(platform archive.PlatformID, units <-chan SyncUnit) {
	// The author cache is owned by this stage alone; each external user
	// id triggers at most one author lookup per run.
	authors := make(map[string]archive.AuthorID)

	for unit := range units {
		p.archivedStage.AddTotal(1)
		p.persistUnit(platform, authors, unit)
		p.archivedStage.Inc()
	}

	p.logger.Debug("persistence finished")
}

func (p *Pipeline) persistUnit(platform archive.PlatformID, authors map[string]archive.AuthorID, unit SyncUnit) {
	files, err := unit.Files.Await()
	if err != nil {
		p.logger.WithError(err).WithField("source", unit.Source).Warn("files not materialized, skipping post")
		return
	}

	moved := make(map[string]bool)
	defer func() {
		// Anything not moved into the archive is a leftover temp file
		for url, temp := range files {
			if !moved[url] {
				os.Remove(temp)
			}
		}
	}()

	tx, err := p.store.Begin()
	if err != nil {
		p.logger.WithError(err).WithField("source", unit.Source).Error("failed to begin transaction")
		return
	}

	committed := false
	defer func() {
		if !committed {
			if err := tx.Rollback(); err != nil {
				p.logger.WithError(err).Warn("rollback failed")
			}
		}
	}()

	authorID, cached := authors[unit.AuthorID]
	if !cached {
		authorID, err = tx.CreateOrGetAuthor(
			platform,
			unit.AuthorName,
			unit.AuthorID,
			fmt.Sprintf("https://www.pixiv.net/users/%s", unit.AuthorID),
		)
		if err != nil {
			p.logger.WithError(err).WithField("source", unit.Source).Error("failed to resolve author")
			return
		}
	}

	postID, plans, err := tx.CreatePost(p.buildDraft(platform, authorID, unit))
	if err != nil {
		p.logger.WithError(err).WithField("source", unit.Source).Error("failed to create post")
		return
	}

	urls := filenameURLs(unit)
	dirCreated := false

	for _, plan := range plans {
		temp, ok := files[urls[plan.Filename]]
		if !ok {
			p.logger.ErrorWithFields("downloaded file missing, aborting post", map[string]interface{}{
				"source":   unit.Source,
				"filename": plan.Filename,
			})
			return
		}

		if !dirCreated {
			if err := os.MkdirAll(filepath.Dir(plan.Path), 0o755); err != nil {
				p.logger.WithError(err).WithField("source", unit.Source).Error("failed to create post directory")
				return
			}
			dirCreated = true
		}

		if err := p.placeFile(temp, plan.Path); err != nil {
			p.logger.WithError(err).WithField("source", unit.Source).Error("failed to place file, aborting post")
			return
		}
		moved[urls[plan.Filename]] = true
	}

	if err := tx.Commit(); err != nil {
		p.logger.WithError(err).WithField("source", unit.Source).Error("failed to commit post")
		return
	}
	committed = true
	authors[unit.AuthorID] = authorID

	p.logger.InfoWithFields("archived post", map[string]interface{}{
		"source": unit.Source,
		"post":   int64(postID),
	})
}

func (p *Pipeline) buildDraft(platform archive.PlatformID, author archive.AuthorID, unit SyncUnit) archive.PostDraft {
	contents := make([]archive.Content, 0, len(unit.Contents))
	for _, item := range unit.Contents {
		if item.File != nil {
			contents = append(contents, archive.Content{File: &item.File.Meta})
		} else {
			contents = append(contents, archive.TextContent(item.Text))
		}
	}

	var thumb *archive.FileMeta
	if unit.Thumb != nil {
		thumb = &unit.Thumb.Meta
	}

	tags := make([]archive.Tag, 0, len(unit.Tags))
	for _, tag := range unit.Tags {
		archiveTag := archive.Tag{Name: tag.Name}
		if tag.Scoped {
			scope := platform
			archiveTag.Platform = &scope
		}
		tags = append(tags, archiveTag)
	}

	var collections []archive.Collection
	if unit.Collection != nil {
		collections = []archive.Collection{*unit.Collection}
	}

	return archive.PostDraft{
		Platform:    platform,
		Author:      author,
		Source:      unit.Source,
		Title:       unit.Title,
		Published:   unit.Published,
		Updated:     unit.Updated,
		Contents:    contents,
		Thumb:       thumb,
		Tags:        tags,
		Comments:    unit.Comments,
		Collections: collections,
	}
}

// placeFile moves a temp file to its final path. Existing files are kept
// unless the overwrite flag is set.
func (p *Pipeline) placeFile(temp, final string) error {
	if !p.cfg.Output.OverwriteExisting {
		if _, err := os.Stat(final); err == nil {
			p.logger.DebugWithFields("file exists, keeping", map[string]interface{}{"path": final})
			return os.Remove(temp)
		}
	}

	if err := os.Rename(temp, final); err == nil {
		return nil
	}

	// Rename fails across filesystems; fall back to copy
	src, err := os.Open(temp)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(final)
	if err != nil {
		return err
	}

	_, err = io.Copy(dst, src)
	closeErr := dst.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(final)
		return err
	}

	return os.Remove(temp)
}

// filenameURLs maps each planned filename back to the request URL that
// materialized it
func filenameURLs(unit SyncUnit) map[string]string {
	urls := make(map[string]string)

	add := func(item *FileItem) {
		if item != nil {
			urls[item.Meta.Filename] = item.Request.URL
		}
	}

	add(unit.Thumb)
	for i := range unit.Contents {
		add(unit.Contents[i].File)
	}
	return urls
}
