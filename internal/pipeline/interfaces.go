package pipeline

import (
	"context"

	"pixivarc/pkg/archive"
	"pixivarc/pkg/pixiv"
)

// API is the slice of the fetch client the pipeline stages consume
type API interface {
	ArtworkMeta(ctx context.Context, id pixiv.ArtworkID) (*pixiv.Artwork, error)
	IllustPages(ctx context.Context, illustID string) ([]pixiv.IllustPage, error)
	Ugoira(ctx context.Context, illustID string) (*pixiv.UgoiraMeta, error)
	CommentRoots(ctx context.Context, artworkID string, novel bool) (*pixiv.CommentPage, error)
	CommentReplies(ctx context.Context, commentID string, novel bool) (*pixiv.CommentPage, error)
	UserProfile(ctx context.Context, userID uint64) (*pixiv.UserProfile, error)
	SeriesListing(ctx context.Context, series pixiv.SeriesID, page int) (*pixiv.SeriesPageBody, error)
	SelfUserID(ctx context.Context) (uint64, error)
	Bookmarks(ctx context.Context, userID uint64, kind pixiv.ArtworkKind, offset int) (*pixiv.FavoritePage, error)
	Following(ctx context.Context, userID uint64, offset int) (*pixiv.FollowingPage, error)
}

// Downloader fetches raw bytes into a caller-owned temp file
type Downloader interface {
	Download(ctx context.Context, url string) (string, error)
}

// Store is the slice of the archive manager the pipeline consumes
type Store interface {
	FindPost(source string) (archive.PostID, bool, error)
	ImportPlatform(name string) (archive.PlatformID, error)
	Begin() (StoreTx, error)
}

// StoreTx is one archive write transaction
type StoreTx interface {
	CreateOrGetAuthor(platform archive.PlatformID, name, aliasSource, aliasLink string) (archive.AuthorID, error)
	CreatePost(draft archive.PostDraft) (archive.PostID, []archive.FilePlan, error)
	Commit() error
	Rollback() error
}

// managerStore adapts the concrete archive manager to the Store interface
type managerStore struct {
	*archive.Manager
}

// WrapStore exposes an archive manager as a pipeline Store
func WrapStore(manager *archive.Manager) Store {
	return managerStore{manager}
}

func (m managerStore) Begin() (StoreTx, error) {
	return m.Manager.Begin()
}
