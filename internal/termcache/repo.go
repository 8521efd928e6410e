package termcache

import (
	"encoding/json"
	"fmt"

	"github.com/starford/cardbox/internal/index"
)

// Entry is one cached document and the checksum of the text it was
// analyzed from.
type Entry struct {
	Checksum string
	Document index.Document
}

// All returns every cached entry keyed by card ID.
func (db *DB) All() (map[string]Entry, error) {
	rows, err := db.conn.Query(`SELECT card_id, checksum, length, terms FROM documents`)
	if err != nil {
		return nil, fmt.Errorf("termcache: all: %w", err)
	}
	defer rows.Close()

	out := make(map[string]Entry)
	for rows.Next() {
		var (
			e     Entry
			terms string
		)
		if err := rows.Scan(&e.Document.ID, &e.Checksum, &e.Document.Length, &terms); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(terms), &e.Document.Terms); err != nil {
			return nil, fmt.Errorf("termcache: decode terms for %s: %w", e.Document.ID, err)
		}
		out[e.Document.ID] = e
	}
	return out, rows.Err()
}

// Sync makes the cache hold exactly entries: changed rows are upserted and
// rows for cards no longer present are deleted, in one transaction.
func (db *DB) Sync(entries []Entry) error {
	current, err := db.checksums()
	if err != nil {
		return err
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("termcache: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	upsert, err := tx.Prepare(`
		INSERT INTO documents (card_id, checksum, length, terms)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(card_id) DO UPDATE SET
			checksum = excluded.checksum,
			length   = excluded.length,
			terms    = excluded.terms
	`)
	if err != nil {
		return fmt.Errorf("termcache: prepare upsert: %w", err)
	}
	defer upsert.Close()

	keep := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		id := e.Document.ID
		keep[id] = struct{}{}
		if current[id] == e.Checksum {
			continue
		}
		terms, err := json.Marshal(e.Document.Terms)
		if err != nil {
			return fmt.Errorf("termcache: encode terms for %s: %w", id, err)
		}
		if _, err := upsert.Exec(id, e.Checksum, e.Document.Length, string(terms)); err != nil {
			return fmt.Errorf("termcache: upsert %s: %w", id, err)
		}
	}

	for id := range current {
		if _, ok := keep[id]; ok {
			continue
		}
		if _, err := tx.Exec(`DELETE FROM documents WHERE card_id = ?`, id); err != nil {
			return fmt.Errorf("termcache: delete %s: %w", id, err)
		}
	}

	return tx.Commit()
}

func (db *DB) checksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT card_id, checksum FROM documents`)
	if err != nil {
		return nil, fmt.Errorf("termcache: checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var id, cs string
		if err := rows.Scan(&id, &cs); err != nil {
			return nil, err
		}
		out[id] = cs
	}
	return out, rows.Err()
}
