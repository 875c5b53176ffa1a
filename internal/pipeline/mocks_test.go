package pipeline

import (
	"context"
	"errors"
	"os"
	"sync"

	"pixivarc/pkg/archive"
	"pixivarc/pkg/config"
	"pixivarc/pkg/logger"
	"pixivarc/pkg/pixiv"
	"pixivarc/pkg/progress"
)

var errNotMocked = errors.New("not mocked")

// mockAPI implements API with overridable call handlers
type mockAPI struct {
	artworkMeta    func(id pixiv.ArtworkID) (*pixiv.Artwork, error)
	illustPages    func(illustID string) ([]pixiv.IllustPage, error)
	ugoira         func(illustID string) (*pixiv.UgoiraMeta, error)
	commentRoots   func(artworkID string, novel bool) (*pixiv.CommentPage, error)
	commentReplies func(commentID string, novel bool) (*pixiv.CommentPage, error)
	userProfile    func(userID uint64) (*pixiv.UserProfile, error)
	seriesListing  func(series pixiv.SeriesID, page int) (*pixiv.SeriesPageBody, error)
	selfUserID     func() (uint64, error)
	bookmarks      func(userID uint64, kind pixiv.ArtworkKind, offset int) (*pixiv.FavoritePage, error)
	following      func(userID uint64, offset int) (*pixiv.FollowingPage, error)
}

func (m *mockAPI) ArtworkMeta(_ context.Context, id pixiv.ArtworkID) (*pixiv.Artwork, error) {
	if m.artworkMeta == nil {
		return nil, errNotMocked
	}
	return m.artworkMeta(id)
}

func (m *mockAPI) IllustPages(_ context.Context, illustID string) ([]pixiv.IllustPage, error) {
	if m.illustPages == nil {
		return nil, errNotMocked
	}
	return m.illustPages(illustID)
}

func (m *mockAPI) Ugoira(_ context.Context, illustID string) (*pixiv.UgoiraMeta, error) {
	if m.ugoira == nil {
		return nil, errNotMocked
	}
	return m.ugoira(illustID)
}

func (m *mockAPI) CommentRoots(_ context.Context, artworkID string, novel bool) (*pixiv.CommentPage, error) {
	if m.commentRoots == nil {
		return nil, errNotMocked
	}
	return m.commentRoots(artworkID, novel)
}

func (m *mockAPI) CommentReplies(_ context.Context, commentID string, novel bool) (*pixiv.CommentPage, error) {
	if m.commentReplies == nil {
		return nil, errNotMocked
	}
	return m.commentReplies(commentID, novel)
}

func (m *mockAPI) UserProfile(_ context.Context, userID uint64) (*pixiv.UserProfile, error) {
	if m.userProfile == nil {
		return nil, errNotMocked
	}
	return m.userProfile(userID)
}

func (m *mockAPI) SeriesListing(_ context.Context, series pixiv.SeriesID, page int) (*pixiv.SeriesPageBody, error) {
	if m.seriesListing == nil {
		return nil, errNotMocked
	}
	return m.seriesListing(series, page)
}

func (m *mockAPI) SelfUserID(context.Context) (uint64, error) {
	if m.selfUserID == nil {
		return 0, errNotMocked
	}
	return m.selfUserID()
}

func (m *mockAPI) Bookmarks(_ context.Context, userID uint64, kind pixiv.ArtworkKind, offset int) (*pixiv.FavoritePage, error) {
	if m.bookmarks == nil {
		return nil, errNotMocked
	}
	return m.bookmarks(userID, kind, offset)
}

func (m *mockAPI) Following(_ context.Context, userID uint64, offset int) (*pixiv.FollowingPage, error) {
	if m.following == nil {
		return nil, errNotMocked
	}
	return m.following(userID, offset)
}

// mockDownloader writes each requested URL's content to a temp file
type mockDownloader struct {
	mu      sync.Mutex
	content map[string][]byte
	fail    map[string]bool
	calls   []string
}

func (m *mockDownloader) Download(_ context.Context, url string) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, url)
	content, ok := m.content[url]
	fail := m.fail[url]
	m.mu.Unlock()

	if fail || !ok {
		return "", errors.New("download failed: " + url)
	}

	tmp, err := os.CreateTemp("", "pipeline-test-*")
	if err != nil {
		return "", err
	}
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return "", err
	}
	return tmp.Name(), tmp.Close()
}

// mockStore implements Store in memory
type mockStore struct {
	mu       sync.Mutex
	posts    map[string]archive.PostID
	plans    map[string][]archive.FilePlan
	beginErr error
	txs      []*mockTx
}

func newMockStore() *mockStore {
	return &mockStore{posts: map[string]archive.PostID{}}
}

func (m *mockStore) FindPost(source string) (archive.PostID, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.posts[source]
	return id, ok, nil
}

func (m *mockStore) ImportPlatform(string) (archive.PlatformID, error) {
	return 1, nil
}

func (m *mockStore) Begin() (StoreTx, error) {
	if m.beginErr != nil {
		return nil, m.beginErr
	}
	tx := &mockTx{store: m, plans: m.plans}
	m.mu.Lock()
	m.txs = append(m.txs, tx)
	m.mu.Unlock()
	return tx, nil
}

// mockTx buffers writes until Commit
type mockTx struct {
	store      *mockStore
	authors    []string
	drafts     []archive.PostDraft
	plans      map[string][]archive.FilePlan
	committed  bool
	rolledBack bool
}

func (t *mockTx) CreateOrGetAuthor(_ archive.PlatformID, _, aliasSource, _ string) (archive.AuthorID, error) {
	t.authors = append(t.authors, aliasSource)
	return archive.AuthorID(len(t.authors)), nil
}

func (t *mockTx) CreatePost(draft archive.PostDraft) (archive.PostID, []archive.FilePlan, error) {
	t.drafts = append(t.drafts, draft)
	return archive.PostID(len(t.drafts)), t.plans[draft.Source], nil
}

func (t *mockTx) Commit() error {
	t.committed = true
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	for _, draft := range t.drafts {
		t.store.posts[draft.Source] = archive.PostID(len(t.store.posts) + 1)
	}
	return nil
}

func (t *mockTx) Rollback() error {
	t.rolledBack = true
	return nil
}

// authorCalls counts CreateOrGetAuthor calls across every transaction
func (m *mockStore) authorCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, tx := range m.txs {
		count += len(tx.authors)
	}
	return count
}

func newTestPipeline(api API, downloader Downloader, store Store, mutate func(*config.Config)) *Pipeline {
	cfg := config.DefaultConfig()
	if mutate != nil {
		mutate(cfg)
	}
	return New(cfg, api, downloader, store, progress.NewTracker(false), logger.NewTestLogger())
}
