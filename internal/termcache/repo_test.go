package termcache

import (
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/starford/cardbox/internal/index"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "cardbox-termcache-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM documents`).Scan(&count); err != nil {
		t.Fatalf("documents table missing: %v", err)
	}
}

func TestSyncAndAll(t *testing.T) {
	db := testDB(t)
	a := Entry{Checksum: "c1", Document: index.Analyze("a", "hello world hello")}
	b := Entry{Checksum: "c2", Document: index.Analyze("b", "other")}
	if err := db.Sync([]Entry{a, b}); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	got, err := db.All()
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if diff := cmp.Diff(map[string]Entry{"a": a, "b": b}, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestSync_UpdatesChangedAndRemovesStale(t *testing.T) {
	db := testDB(t)
	_ = db.Sync([]Entry{
		{Checksum: "c1", Document: index.Analyze("a", "old text")},
		{Checksum: "c2", Document: index.Analyze("b", "gone soon")},
	})

	updated := Entry{Checksum: "c3", Document: index.Analyze("a", "new text here")}
	if err := db.Sync([]Entry{updated}); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	got, _ := db.All()
	if len(got) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(got))
	}
	if got["a"].Checksum != "c3" || got["a"].Document.Length != 3 {
		t.Errorf("entry not updated: %+v", got["a"])
	}
}

func TestSync_Empty(t *testing.T) {
	db := testDB(t)
	_ = db.Sync([]Entry{{Checksum: "c1", Document: index.Analyze("a", "x")}})
	if err := db.Sync(nil); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	got, _ := db.All()
	if len(got) != 0 {
		t.Errorf("expected empty cache, got %d", len(got))
	}
}
