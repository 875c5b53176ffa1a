package archive

import (
	"database/sql"
	"encoding/json"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pixivarc/pkg/logger"
)

func openTestArchive(t *testing.T) *Manager {
	t.Helper()

	manager, err := Open(t.TempDir(), logger.NewTestLogger())
	require.NoError(t, err)
	t.Cleanup(func() { manager.Close() })
	return manager
}

func TestOpenCreatesDatabase(t *testing.T) {
	dir := t.TempDir()

	manager, err := Open(dir, logger.NewTestLogger())
	require.NoError(t, err)
	defer manager.Close()

	assert.Equal(t, dir, manager.Root())
	assert.FileExists(t, filepath.Join(dir, DatabaseName))
}

func TestOpenIsIdempotent(t *testing.T) {
	dir := t.TempDir()

	first, err := Open(dir, logger.NewTestLogger())
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := Open(dir, logger.NewTestLogger())
	require.NoError(t, err)
	defer second.Close()
}

func TestImportPlatform(t *testing.T) {
	manager := openTestArchive(t)

	id, err := manager.ImportPlatform("pixiv")
	require.NoError(t, err)

	again, err := manager.ImportPlatform("pixiv")
	require.NoError(t, err)
	assert.Equal(t, id, again)

	other, err := manager.ImportPlatform("other")
	require.NoError(t, err)
	assert.NotEqual(t, id, other)
}

func TestCreateOrGetAuthor(t *testing.T) {
	manager := openTestArchive(t)

	platform, err := manager.ImportPlatform("pixiv")
	require.NoError(t, err)

	tx, err := manager.Begin()
	require.NoError(t, err)

	first, err := tx.CreateOrGetAuthor(platform, "someone", "789", "https://www.pixiv.net/users/789")
	require.NoError(t, err)

	// Same alias resolves to the same author even with a changed name
	second, err := tx.CreateOrGetAuthor(platform, "renamed", "789", "https://www.pixiv.net/users/789")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	other, err := tx.CreateOrGetAuthor(platform, "someone else", "790", "https://www.pixiv.net/users/790")
	require.NoError(t, err)
	assert.NotEqual(t, first, other)

	require.NoError(t, tx.Commit())
}

func TestCreatePost(t *testing.T) {
	manager := openTestArchive(t)

	platform, err := manager.ImportPlatform("pixiv")
	require.NoError(t, err)

	tx, err := manager.Begin()
	require.NoError(t, err)

	author, err := tx.CreateOrGetAuthor(platform, "someone", "789", "https://www.pixiv.net/users/789")
	require.NoError(t, err)

	scoped := platform
	postID, plans, err := tx.CreatePost(PostDraft{
		Platform:  platform,
		Author:    author,
		Source:    "https://www.pixiv.net/artworks/123",
		Title:     "example",
		Published: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Updated:   time.Date(2024, 1, 3, 3, 4, 5, 0, time.UTC),
		Contents: []Content{
			TextContent("> description"),
			FileContent("123_p0.png", "image/png"),
			FileContent("123_p1.png", "image/png"),
		},
		Thumb: &FileMeta{Filename: "123_p0.png", Mime: "image/png"},
		Tags: []Tag{
			{Name: "r-18"},
			{Name: "オリジナル", Platform: &scoped},
		},
		Comments: []Comment{
			{User: "a", Text: "nice ", Replies: []Comment{{User: "b", Text: "agreed "}}},
		},
		Collections: []Collection{
			{Name: "the series", Source: "https://www.pixiv.net/user/789/series/55"},
		},
	})
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	// The thumb shares a filename with the first page, so only two files
	// are planned
	require.Len(t, plans, 2)
	assert.Equal(t, "123_p0.png", plans[0].Filename)
	assert.Equal(t, filepath.Join(manager.Root(), strconv.FormatInt(int64(postID), 10), "123_p0.png"), plans[0].Path)

	found, ok, err := manager.FindPost("https://www.pixiv.net/artworks/123")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, postID, found)
}

func TestCreatePostStoresContentExtras(t *testing.T) {
	manager := openTestArchive(t)

	platform, err := manager.ImportPlatform("pixiv")
	require.NoError(t, err)

	tx, err := manager.Begin()
	require.NoError(t, err)

	postID, _, err := tx.CreatePost(PostDraft{
		Platform: platform,
		Source:   "https://www.pixiv.net/artworks/123",
		Title:    "example",
		Contents: []Content{
			TextContent("> description"),
			{File: &FileMeta{
				Filename: "123_p0.png",
				Mime:     "image/png",
				Extra:    ImageDimensions(800, 600),
			}},
		},
	})
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	var extra sql.NullString
	require.NoError(t, manager.db.QueryRow(
		`SELECT extra FROM post_contents WHERE post = ? AND kind = 'file'`, postID,
	).Scan(&extra))
	require.True(t, extra.Valid)

	var decoded map[string]float64
	require.NoError(t, json.Unmarshal([]byte(extra.String), &decoded))
	assert.Equal(t, float64(800), decoded["width"])
	assert.Equal(t, float64(600), decoded["height"])

	// Text contents carry no extra metadata
	require.NoError(t, manager.db.QueryRow(
		`SELECT extra FROM post_contents WHERE post = ? AND kind = 'text'`, postID,
	).Scan(&extra))
	assert.False(t, extra.Valid)
}

func TestFindPostMissing(t *testing.T) {
	manager := openTestArchive(t)

	_, ok, err := manager.FindPost("https://www.pixiv.net/artworks/999")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRollbackLeavesNoPost(t *testing.T) {
	manager := openTestArchive(t)

	platform, err := manager.ImportPlatform("pixiv")
	require.NoError(t, err)

	tx, err := manager.Begin()
	require.NoError(t, err)

	_, _, err = tx.CreatePost(PostDraft{
		Platform: platform,
		Source:   "https://www.pixiv.net/artworks/123",
		Title:    "doomed",
	})
	require.NoError(t, err)
	require.NoError(t, tx.Rollback())

	_, ok, err := manager.FindPost("https://www.pixiv.net/artworks/123")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTagsSharedAcrossPosts(t *testing.T) {
	manager := openTestArchive(t)

	platform, err := manager.ImportPlatform("pixiv")
	require.NoError(t, err)

	for i, source := range []string{
		"https://www.pixiv.net/artworks/1",
		"https://www.pixiv.net/artworks/2",
	} {
		tx, err := manager.Begin()
		require.NoError(t, err)

		_, _, err = tx.CreatePost(PostDraft{
			Platform: platform,
			Source:   source,
			Title:    "post " + strconv.Itoa(i),
			Tags:     []Tag{{Name: "r-18"}},
		})
		require.NoError(t, err)
		require.NoError(t, tx.Commit())
	}

	var count int
	require.NoError(t, manager.db.QueryRow(`SELECT COUNT(*) FROM tags`).Scan(&count))
	assert.Equal(t, 1, count)
}
