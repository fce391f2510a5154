// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo (calls C code from Go), which means you need a C compiler
// installed and cross-compilation becomes painful. modernc.org/sqlite is a pure Go
// translation of the SQLite C code, so no C compiler is needed.
//
// UNIQUENESS LIVES IN THE SCHEMA:
// users.email and blog_posts.title carry UNIQUE constraints. Two concurrent
// registrations with the same email both reach INSERT; SQLite lets exactly one
// through and fails the other with SQLITE_CONSTRAINT_UNIQUE. We translate that
// failure into apperror.ErrDuplicateEmail / ErrDuplicateTitle (see errors.go),
// so there is no check-then-insert race and no application-level lock.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	// BLANK IMPORT:
	// The driver's init() registers itself with database/sql under the name
	// "sqlite". errors.go imports the same package under an alias to inspect
	// *sqlite.Error values.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and implements UserRepository,
// PostRepository and CommentRepository.
type DB struct {
	conn *sql.DB
}

// ParseDSN turns a DATABASE_URL into a path modernc.org/sqlite understands.
//
// Accepted forms:
//
//	sqlite:///data/posts.db   → data/posts.db   (relative, SQLAlchemy style)
//	sqlite:////var/posts.db   → /var/posts.db   (absolute)
//	sqlite://                 → :memory:
//	file:posts.db?mode=rwc    → unchanged
//	data/posts.db             → unchanged
func ParseDSN(databaseURL string) (string, error) {
	url := strings.TrimSpace(databaseURL)
	switch {
	case url == "":
		return "", fmt.Errorf("sqlite: empty database URL")
	case url == "sqlite://" || url == "sqlite:///:memory:":
		return ":memory:", nil
	case strings.HasPrefix(url, "sqlite:///"):
		return strings.TrimPrefix(url, "sqlite:///"), nil
	case strings.Contains(url, "://"):
		return "", fmt.Errorf("sqlite: unsupported database URL scheme in %q", url)
	}
	return url, nil
}

// Open resolves a DATABASE_URL, creates the parent directory of a file
// database (like `mkdir -p`) and opens it with New.
func Open(databaseURL string) (*DB, error) {
	dsn, err := ParseDSN(databaseURL)
	if err != nil {
		return nil, err
	}

	if dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") {
		if dir := filepath.Dir(dsn); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("sqlite: creating database directory %s: %w", dir, err)
			}
		}
	}

	return New(dsn)
}

// New opens the database at dsn and runs migrations.
//
// dsn examples:
//   - "data/posts.db"  → file-based database (persistent)
//   - ":memory:"       → in-memory database (great for tests, lost on close)
//
// ONE CONNECTION:
// SQLite allows a single writer at a time, and PRAGMAs like foreign_keys are
// per connection. Capping the pool at one connection means every query sees
// foreign keys ON and writes are serialized by database/sql itself. It also
// keeps ":memory:" working: each new connection would otherwise get its own
// empty in-memory database.
func New(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets readers proceed while a write is in flight.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are OFF by default in SQLite. Comments reference both
	// users and blog_posts, posts reference users.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the three tables if they don't exist yet.
//
// AUTOINCREMENT (not just INTEGER PRIMARY KEY) guarantees ids are never
// reused, so user #1 stays the first account ever registered.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			email         TEXT NOT NULL UNIQUE,
			name          TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS blog_posts (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			title     TEXT NOT NULL UNIQUE,
			subtitle  TEXT NOT NULL,
			body      TEXT NOT NULL,
			img_url   TEXT NOT NULL,
			date      TEXT NOT NULL,
			author_id INTEGER NOT NULL REFERENCES users(id)
		);
		CREATE INDEX IF NOT EXISTS idx_blog_posts_author_id ON blog_posts(author_id);
	`)
	if err != nil {
		return fmt.Errorf("creating blog_posts table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS comments (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			text      TEXT NOT NULL,
			author_id INTEGER NOT NULL REFERENCES users(id),
			post_id   INTEGER NOT NULL REFERENCES blog_posts(id) ON DELETE CASCADE
		);
		CREATE INDEX IF NOT EXISTS idx_comments_post_id ON comments(post_id);
	`)
	if err != nil {
		return fmt.Errorf("creating comments table: %w", err)
	}

	return nil
}
