// Package storage defines the card record file-system abstraction.
package storage

import "time"

// RecordExt is the file extension of a card record.
const RecordExt = ".md"

// Entry describes one record file found under the root.
type Entry struct {
	Name    string
	Size    int64
	ModTime time.Time
}

// Provider is the interface for record file operations.
// All names are relative to the provider root.
type Provider interface {
	// List returns every record file directly under the root.
	List() ([]Entry, error)
	// Stat describes a record without reading it. A missing record
	// reports an error matching os.ErrNotExist.
	Stat(name string) (Entry, error)
	// Read returns the raw bytes of a record.
	Read(name string) ([]byte, error)
	// Write atomically replaces the record with content.
	Write(name string, content []byte) error
	// Delete removes a record. Removing a missing record is not an error.
	Delete(name string) error
}
