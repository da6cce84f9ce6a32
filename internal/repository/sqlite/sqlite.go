// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// WHY SQLITE?
// SQLite is an embedded database — it lives inside your Go binary as a single file.
// No separate database server to install, configure, or manage. A quote board
// with a few hundred users is exactly the workload it is good at.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, which means you need a C compiler installed and
// cross-compilation becomes painful. modernc.org/sqlite is a pure Go translation
// of the SQLite C code — no C compiler needed, works everywhere Go works.
//
// ONE POOL FOR THE WHOLE PROCESS:
// sql.DB is a connection pool, safe for concurrent use by every request.
// Connection-level settings (foreign keys, busy timeout) must therefore be
// applied to EVERY connection the pool opens, not just the first one.
// That is why they travel in the DSN as _pragma parameters instead of being
// run once with conn.Exec("PRAGMA ...").
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// connParams are appended to every DSN.
//
//   - foreign_keys(1): SQLite ships with FK enforcement OFF; comments.quote_id relies on it.
//   - busy_timeout(5000): wait up to 5s for a lock instead of failing with SQLITE_BUSY.
//   - journal_mode(WAL): readers don't block the writer and vice versa.
//   - _txlock=immediate: BEGIN takes the write lock up front, so two concurrent
//     writers queue on busy_timeout instead of deadlocking on a lock upgrade.
const connParams = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_txlock=immediate"

// DB wraps a sql.DB connection pool and provides repository methods.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/quoter.db"  → file-based database (persistent)
//   - ":memory:"        → in-memory database (lost on close)
//
// An in-memory database exists per connection, so for ":memory:" the pool is
// pinned to a single connection; otherwise each new connection would see an
// empty database.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	// Ping verifies the connection actually works.
	// Without this, a bad path or permissions issue would only surface
	// on the first query — which is much harder to debug.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// dsn appends connParams to the path, respecting a query string the caller
// may already have supplied.
func dsn(dbPath string) string {
	if strings.Contains(dbPath, "?") {
		return dbPath + "&" + connParams
	}
	return dbPath + "?" + connParams
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping reports whether the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// migrate creates the schema.
//
// CREATE TABLE IF NOT EXISTS is idempotent, so this runs on every start.
//
// SCHEMA NOTES:
//   - INTEGER PRIMARY KEY AUTOINCREMENT guarantees ids only grow and are never
//     reused, even after the highest row is deleted.
//   - users.name is UNIQUE COLLATE NOCASE: the store itself refuses a second
//     "ada", which is what makes concurrent sign-ups safe.
//   - comments.user_id is nullable with ON DELETE SET NULL so a missing author
//     yields a NULL name in the LEFT JOIN rather than a broken page.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			name          TEXT NOT NULL UNIQUE COLLATE NOCASE,
			password_hash TEXT NOT NULL,
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS quotes (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			text        TEXT NOT NULL CHECK (length(trim(text)) > 0),
			attribution TEXT NOT NULL DEFAULT '',
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating quotes table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS comments (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			quote_id   INTEGER NOT NULL REFERENCES quotes(id),
			user_id    INTEGER REFERENCES users(id) ON DELETE SET NULL,
			text       TEXT NOT NULL CHECK (length(trim(text)) > 0),
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_comments_quote_id ON comments(quote_id, id);
	`)
	if err != nil {
		return fmt.Errorf("creating comments table: %w", err)
	}

	return nil
}

// withTx runs fn inside a transaction and commits it if fn returns nil.
//
// Every insert in this package goes through here, so a crash or an error
// half-way through can never leave a partially written row behind: either
// Commit succeeds or the deferred Rollback discards everything.
func (db *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// isUniqueViolation reports whether err is SQLite refusing a duplicate value
// in a UNIQUE column. The driver exposes the extended result code, which is
// far more reliable than matching on the error text.
func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	return errors.As(err, &sqliteErr) && sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}
