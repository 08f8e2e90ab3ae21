// Package sqlite implements the repository interfaces using SQLite as the
// storage backend.
//
// WHY SQLITE?
// SQLite is an embedded database: it lives inside the Go binary as a single
// file. No separate database server to install, configure, or manage. The
// original app kept its users and reports in device-local key-value storage;
// an embedded database is the server-side equivalent of "local, zero-ops
// persistence", with real indexes and uniqueness constraints on top.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, which needs a C compiler and makes
// cross-compilation painful. modernc.org/sqlite is a pure Go translation of
// the SQLite sources, so it works everywhere Go works.
package sqlite

import (
	"database/sql"
	"fmt"

	// Side-effect import: the driver registers itself with database/sql
	// under the name "sqlite" in its init().
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and implements both repository
// interfaces (user.go and report.go attach the methods).
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the database at dbPath and runs migrations.
// Use ":memory:" in tests for a throwaway database.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Force an immediate connection so a bad path fails here, not on the
	// first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets reads proceed while a write is in flight; one writer at a
	// time is fine for this app, but requests shouldn't block each other's
	// reads.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are OFF by default in SQLite. Reports reference users, so
	// turn enforcement on.
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

// Close closes the connection pool. Callers should defer this right after New.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps this
// idempotent, safe to run on every startup.
//
// COLLATE NOCASE on username and email makes both the UNIQUE constraint and
// equality lookups case-insensitive at the schema level, so "Sakif" and
// "sakif" can never coexist no matter which code path inserts them.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id             TEXT PRIMARY KEY,
			username       TEXT NOT NULL COLLATE NOCASE UNIQUE,
			email          TEXT NOT NULL COLLATE NOCASE UNIQUE,
			password_hash  TEXT NOT NULL DEFAULT '',
			github_id      INTEGER NOT NULL DEFAULT 0,
			avatar_url     TEXT NOT NULL DEFAULT '',
			analyses_count INTEGER NOT NULL DEFAULT 0,
			average_score  REAL NOT NULL DEFAULT 0,
			created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_users_github_id
			ON users(github_id) WHERE github_id != 0;
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	// Issues and recommendations are stored as JSON blobs on the report row.
	// They are only ever read and written whole, alongside the report; a
	// child table would buy nothing but join boilerplate.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS reports (
			id              TEXT PRIMARY KEY,
			user_id         TEXT NOT NULL REFERENCES users(id),
			file_name       TEXT NOT NULL,
			source_url      TEXT NOT NULL,
			overall_score   INTEGER NOT NULL,
			issues          TEXT NOT NULL DEFAULT '[]',
			recommendations TEXT NOT NULL DEFAULT '[]',
			source_text     TEXT NOT NULL DEFAULT '',
			analyzed_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_reports_user_analyzed
			ON reports(user_id, analyzed_at);
	`)
	if err != nil {
		return fmt.Errorf("creating reports table: %w", err)
	}

	return nil
}
