// Package termcache persists analyzed index documents in SQLite so that a
// rebuild only re-tokenizes cards whose text changed. The database is a
// disposable derivative of the card records and may be deleted at any time.
package termcache

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS documents (
	card_id  TEXT PRIMARY KEY,
	checksum TEXT NOT NULL,
	length   INTEGER NOT NULL DEFAULT 0,
	terms    TEXT NOT NULL DEFAULT '{}'
);
`

// DB wraps a sql.DB holding the documents table.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the cache database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("termcache: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("termcache: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("termcache: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
