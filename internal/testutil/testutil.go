// Package testutil provides shared test helpers for card directories,
// repositories and term caches.
package testutil

import (
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/starford/cardbox/internal/repository"
	"github.com/starford/cardbox/internal/storage"
	"github.com/starford/cardbox/internal/termcache"
)

// Logger returns a logger that discards everything below Error.
func Logger(t *testing.T) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// TestRepository creates a temporary card directory with a repository on top.
func TestRepository(t *testing.T) (string, *repository.Repository) {
	t.Helper()
	dir := t.TempDir()
	fs, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, repository.New(fs, Logger(t))
}

// TestTermCache creates a temporary SQLite term cache that is automatically
// cleaned up.
func TestTermCache(t *testing.T) *termcache.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "cardbox-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := termcache.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// Eventually polls fn every tick until it returns true or timeout elapses.
func Eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}
