package archive

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"
)

// Tx is one archive write transaction. File plans returned by CreatePost
// point into the post's final directory; callers move files into place
// before Commit so a crash never leaves a committed post without its files.
type Tx struct {
	tx      *sql.Tx
	manager *Manager
}

// Commit commits the transaction
func (t *Tx) Commit() error {
	return t.tx.Commit()
}

// Rollback aborts the transaction
func (t *Tx) Rollback() error {
	return t.tx.Rollback()
}

// CreateOrGetAuthor resolves the author behind a platform alias, creating
// the author and alias rows on first sight
func (t *Tx) CreateOrGetAuthor(platform PlatformID, name, aliasSource, aliasLink string) (AuthorID, error) {
	var id AuthorID
	err := t.tx.QueryRow(
		`SELECT author FROM author_aliases WHERE platform = ? AND source = ?`,
		platform, aliasSource,
	).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("lookup author alias: %w", err)
	}

	result, err := t.tx.Exec(`INSERT INTO authors (name) VALUES (?)`, name)
	if err != nil {
		return 0, fmt.Errorf("create author: %w", err)
	}
	authorID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("create author: %w", err)
	}

	_, err = t.tx.Exec(
		`INSERT INTO author_aliases (platform, source, link, author) VALUES (?, ?, ?, ?)`,
		platform, aliasSource, aliasLink, authorID,
	)
	if err != nil {
		return 0, fmt.Errorf("create author alias: %w", err)
	}

	return AuthorID(authorID), nil
}

// CreatePost inserts a post with its contents, tags, comments and
// collections, and returns the file plans for every file the post names
func (t *Tx) CreatePost(draft PostDraft) (PostID, []FilePlan, error) {
	comments, err := json.Marshal(draft.Comments)
	if err != nil {
		return 0, nil, fmt.Errorf("encode comments: %w", err)
	}

	var thumb interface{}
	if draft.Thumb != nil {
		thumb = draft.Thumb.Filename
	}

	result, err := t.tx.Exec(
		`INSERT INTO posts (platform, author, source, title, thumb, comments, published, updated)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		draft.Platform, nullableAuthor(draft.Author), draft.Source, draft.Title, thumb,
		string(comments), formatTime(draft.Published), formatTime(draft.Updated),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("create post: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, nil, fmt.Errorf("create post: %w", err)
	}
	postID := PostID(id)

	plans, err := t.insertContents(postID, draft)
	if err != nil {
		return 0, nil, err
	}

	if err := t.insertTags(postID, draft.Tags); err != nil {
		return 0, nil, err
	}

	if err := t.insertCollections(postID, draft.Collections); err != nil {
		return 0, nil, err
	}

	return postID, plans, nil
}

func (t *Tx) insertContents(postID PostID, draft PostDraft) ([]FilePlan, error) {
	var plans []FilePlan
	planned := make(map[string]bool)

	plan := func(file *FileMeta) {
		if file == nil || planned[file.Filename] {
			return
		}
		planned[file.Filename] = true
		plans = append(plans, FilePlan{
			Filename: file.Filename,
			Path:     filepath.Join(t.manager.PostDir(postID), file.Filename),
		})
	}

	for idx, content := range draft.Contents {
		var err error
		if content.File != nil {
			extra, encErr := encodeExtra(content.File.Extra)
			if encErr != nil {
				return nil, encErr
			}
			_, err = t.tx.Exec(
				`INSERT INTO post_contents (post, idx, kind, filename, mime, extra) VALUES (?, ?, 'file', ?, ?, ?)`,
				postID, idx, content.File.Filename, content.File.Mime, extra,
			)
			plan(content.File)
		} else {
			_, err = t.tx.Exec(
				`INSERT INTO post_contents (post, idx, kind, text) VALUES (?, ?, 'text', ?)`,
				postID, idx, content.Text,
			)
		}
		if err != nil {
			return nil, fmt.Errorf("create post content: %w", err)
		}
	}

	plan(draft.Thumb)
	return plans, nil
}

func (t *Tx) insertTags(postID PostID, tags []Tag) error {
	for _, tag := range tags {
		var id int64
		err := t.tx.QueryRow(
			`SELECT id FROM tags WHERE name = ? AND platform IS ?`,
			tag.Name, tag.Platform,
		).Scan(&id)
		if err == sql.ErrNoRows {
			result, insertErr := t.tx.Exec(`INSERT INTO tags (platform, name) VALUES (?, ?)`, tag.Platform, tag.Name)
			if insertErr != nil {
				return fmt.Errorf("create tag: %w", insertErr)
			}
			id, insertErr = result.LastInsertId()
			if insertErr != nil {
				return fmt.Errorf("create tag: %w", insertErr)
			}
		} else if err != nil {
			return fmt.Errorf("lookup tag: %w", err)
		}

		if _, err := t.tx.Exec(`INSERT OR IGNORE INTO post_tags (post, tag) VALUES (?, ?)`, postID, id); err != nil {
			return fmt.Errorf("link tag: %w", err)
		}
	}
	return nil
}

func (t *Tx) insertCollections(postID PostID, collections []Collection) error {
	for _, collection := range collections {
		if _, err := t.tx.Exec(
			`INSERT OR IGNORE INTO collections (name, source) VALUES (?, ?)`,
			collection.Name, collection.Source,
		); err != nil {
			return fmt.Errorf("create collection: %w", err)
		}

		var id int64
		if err := t.tx.QueryRow(`SELECT id FROM collections WHERE source = ?`, collection.Source).Scan(&id); err != nil {
			return fmt.Errorf("lookup collection: %w", err)
		}

		if _, err := t.tx.Exec(
			`INSERT OR IGNORE INTO collection_posts (collection, post) VALUES (?, ?)`,
			id, postID,
		); err != nil {
			return fmt.Errorf("link collection: %w", err)
		}
	}
	return nil
}

func encodeExtra(extra map[string]interface{}) (interface{}, error) {
	if len(extra) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(extra)
	if err != nil {
		return nil, fmt.Errorf("encode content extra: %w", err)
	}
	return string(data), nil
}

func nullableAuthor(id AuthorID) interface{} {
	if id == 0 {
		return nil
	}
	return int64(id)
}

func formatTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}
