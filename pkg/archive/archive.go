// Package archive is the durable local store for crawled posts. It keeps
// relational metadata in a SQLite database at the archive root and post
// files in one directory per post.
package archive

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	_ "github.com/mattn/go-sqlite3"

	"pixivarc/pkg/logger"
)

// DatabaseName is the SQLite file kept at the archive root
const DatabaseName = "archive.db"

// Manager owns the archive database and its file tree
type Manager struct {
	db     *sql.DB
	root   string
	logger logger.Logger
}

// Open opens or creates an archive at dir
func Open(dir string, log logger.Logger) (*Manager, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure archive dir: %w", err)
	}

	path := filepath.Join(dir, DatabaseName)
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pragma foreign_keys: %w", err)
	}
	if _, err := db.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pragma journal_mode: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	log.DebugWithFields("archive opened", map[string]interface{}{
		"root":     dir,
		"database": path,
	})

	return &Manager{db: db, root: dir, logger: log}, nil
}

// Root returns the archive root directory
func (m *Manager) Root() string {
	return m.root
}

// Close closes the archive database
func (m *Manager) Close() error {
	return m.db.Close()
}

// ImportPlatform returns the id of the named platform, creating it on
// first use
func (m *Manager) ImportPlatform(name string) (PlatformID, error) {
	if _, err := m.db.Exec(`INSERT OR IGNORE INTO platforms (name) VALUES (?)`, name); err != nil {
		return 0, fmt.Errorf("import platform: %w", err)
	}

	var id PlatformID
	err := m.db.QueryRow(`SELECT id FROM platforms WHERE name = ?`, name).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("import platform: %w", err)
	}
	return id, nil
}

// FindPost looks up a post by its source URL. It reports false when the
// source has not been archived yet.
func (m *Manager) FindPost(source string) (PostID, bool, error) {
	var id PostID
	err := m.db.QueryRow(`SELECT id FROM posts WHERE source = ?`, source).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("find post: %w", err)
	}
	return id, true, nil
}

// PostDir returns the directory holding a post's files
func (m *Manager) PostDir(id PostID) string {
	return filepath.Join(m.root, strconv.FormatInt(int64(id), 10))
}

// Begin starts a write transaction
func (m *Manager) Begin() (*Tx, error) {
	tx, err := m.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &Tx{tx: tx, manager: m}, nil
}

func ensureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}

const schema = `
CREATE TABLE IF NOT EXISTS platforms (
	id   INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS authors (
	id   INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS author_aliases (
	platform INTEGER NOT NULL REFERENCES platforms(id),
	source   TEXT NOT NULL,
	link     TEXT,
	author   INTEGER NOT NULL REFERENCES authors(id),
	PRIMARY KEY (platform, source)
);

CREATE TABLE IF NOT EXISTS posts (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	platform  INTEGER NOT NULL REFERENCES platforms(id),
	author    INTEGER REFERENCES authors(id),
	source    TEXT NOT NULL UNIQUE,
	title     TEXT NOT NULL,
	thumb     TEXT,
	comments  TEXT NOT NULL DEFAULT '[]',
	published TEXT,
	updated   TEXT
);

CREATE TABLE IF NOT EXISTS post_contents (
	post     INTEGER NOT NULL REFERENCES posts(id),
	idx      INTEGER NOT NULL,
	kind     TEXT NOT NULL,
	text     TEXT,
	filename TEXT,
	mime     TEXT,
	extra    TEXT,
	PRIMARY KEY (post, idx)
);

CREATE TABLE IF NOT EXISTS tags (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	platform INTEGER REFERENCES platforms(id),
	name     TEXT NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS tags_platform_name ON tags (IFNULL(platform, 0), name);

CREATE TABLE IF NOT EXISTS post_tags (
	post INTEGER NOT NULL REFERENCES posts(id),
	tag  INTEGER NOT NULL REFERENCES tags(id),
	PRIMARY KEY (post, tag)
);

CREATE TABLE IF NOT EXISTS collections (
	id     INTEGER PRIMARY KEY AUTOINCREMENT,
	name   TEXT NOT NULL,
	source TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS collection_posts (
	collection INTEGER NOT NULL REFERENCES collections(id),
	post       INTEGER NOT NULL REFERENCES posts(id),
	PRIMARY KEY (collection, post)
);
`
