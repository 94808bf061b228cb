// Package sqlite implements the repository interfaces using SQLite as the
// storage backend — the relational alternative to the per-user document
// store in the docstore package. Both present the same contracts; which one
// a deployment runs is a config switch in cmd/server.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, which needs a C compiler and makes
// cross-compilation painful. modernc.org/sqlite is a pure Go translation of
// SQLite — works everywhere Go works.
package sqlite

import (
	"database/sql"
	"fmt"

	// Side-effect import: registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and provides the repository methods.
type DB struct {
	conn *sql.DB
}

// New creates a new SQLite database connection and runs migrations.
//
// dbPath examples:
//   - "data/diary.db" → file-based database (persistent)
//   - ":memory:"      → in-memory database (tests, lost on close)
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Ping forces an immediate connection so a bad path or permissions
	// problem surfaces here, not on the first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL mode allows concurrent reads while a write is in progress —
	// matters for a web server where multiple requests hit the DB.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are off by default in SQLite; entries reference users.
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

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps this
// idempotent — safe to run on every start.
func (db *DB) migrate() error {
	// github_id is UNIQUE — each GitHub account maps to exactly one row.
	// id is INTEGER PRIMARY KEY, which SQLite assigns as max(id)+1: the same
	// surrogate-id allocation rule the document store implements by hand.
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id         INTEGER PRIMARY KEY,
			github_id  INTEGER NOT NULL UNIQUE,
			username   TEXT NOT NULL,
			name       TEXT NOT NULL DEFAULT '',
			email      TEXT NOT NULL DEFAULT '',
			avatar_url TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	// Entry ids are scoped per user (composite primary key), matching the
	// document store's contract: two users can both own entry 1.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS entries (
			user_id        INTEGER NOT NULL REFERENCES users(id),
			id             INTEGER NOT NULL,
			timestamp      TEXT NOT NULL,
			event_datetime TEXT NOT NULL DEFAULT '',
			text           TEXT NOT NULL DEFAULT '',
			photo          TEXT NOT NULL DEFAULT '',
			synced         INTEGER NOT NULL DEFAULT 1,
			created_at     TEXT NOT NULL,
			updated_at     TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (user_id, id)
		);
		CREATE INDEX IF NOT EXISTS idx_entries_user_id ON entries(user_id);
	`)
	if err != nil {
		return fmt.Errorf("creating entries table: %w", err)
	}

	return nil
}
