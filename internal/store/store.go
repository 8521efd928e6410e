// Package store coordinates the card repository, the in-memory card cache
// and the search index.
//
// Every mutation is durable before it returns and is followed by a full
// index rebuild from the repository. Mutations and rebuilds are serialized
// by a single writer lock; readers never take it except to retry a rebuild
// that previously failed. The current index lives in an atomic slot and is
// only replaced by a completely built successor.
package store

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/starford/cardbox/internal/apperr"
	"github.com/starford/cardbox/internal/checksum"
	"github.com/starford/cardbox/internal/index"
	"github.com/starford/cardbox/internal/models"
	"github.com/starford/cardbox/internal/termcache"
)

// Repository is the durable card storage the Store delegates to.
type Repository interface {
	Save(card models.Card) error
	Load(id string) (models.Card, error)
	Exists(id string) (bool, error)
	List() ([]models.Card, error)
	Delete(id string) error
}

// Store is the public entry point for card operations.
type Store struct {
	repo   Repository
	terms  TermCache
	logger *slog.Logger
	now    func() time.Time

	writeMu sync.Mutex

	cacheMu sync.RWMutex
	cache   map[string]models.Card
	gen     uint64 // bumped on every cache mutation; guarded by cacheMu

	idx   atomic.Pointer[index.Index]
	stale atomic.Bool
	loads singleflight.Group
}

// New creates a Store over repo. No I/O happens until the first operation;
// the index is built lazily on first search or eagerly via Refresh.
func New(repo Repository, opts ...Option) *Store {
	s := &Store{
		repo:  repo,
		now:   time.Now,
		cache: make(map[string]models.Card),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.stale.Store(true)
	return s
}

// SaveCard assigns an ID and timestamps when needed, persists the card and
// rebuilds the index. The returned card is exactly what was persisted.
//
// A card without an ID gets one derived from its title; if that ID already
// names a record a numeric suffix is added, so unrelated cards are never
// overwritten. A card with an ID replaces that record.
//
// The returned card may differ from the input beyond ID and UpdatedAt:
// keywords are trimmed and de-duplicated, an empty source type becomes
// "note", and zero CreatedAt, source and edge timestamps are filled in.
//
// Once the record is durable SaveCard reports success even if the index
// rebuild fails; the index is then marked stale and rebuilt on next read.
func (s *Store) SaveCard(_ context.Context, card models.Card) (models.Card, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	saved, err := s.saveLocked(card)
	if err != nil {
		return models.Card{}, err
	}
	_ = s.rebuildLocked()
	return saved.Clone(), nil
}

// LoadCard returns a card from the cache or, on a miss, from the
// repository. Concurrent misses for one ID share a single read.
func (s *Store) LoadCard(_ context.Context, id string) (models.Card, error) {
	if c, ok := s.cacheGet(id); ok {
		return c, nil
	}

	// A caller joining a read that began before a concurrent DeleteCard
	// may still receive the deleted card; only the cache refill is guarded.
	v, err, _ := s.loads.Do(id, func() (interface{}, error) {
		gen := s.generation()
		c, err := s.repo.Load(id)
		if err != nil {
			return nil, err
		}
		s.cachePutIf(gen, c)
		return c, nil
	})
	if err != nil {
		return models.Card{}, err
	}
	return v.(models.Card).Clone(), nil
}

// ListCards returns every valid card, read fresh from the repository.
func (s *Store) ListCards(_ context.Context) ([]models.Card, error) {
	return s.repo.List()
}

// DeleteCard removes a card and rebuilds the index. Deleting a missing
// card succeeds. Connections in other cards that point at id are left in
// place.
func (s *Store) DeleteCard(_ context.Context, id string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.repo.Delete(id); err != nil {
		return err
	}
	s.cacheDelete(id)
	_ = s.rebuildLocked()
	return nil
}

// Search ranks cards against text. If no index can be built the result is
// empty rather than an error.
func (s *Store) Search(_ context.Context, text string, limit int) ([]index.Result, error) {
	ix, err := s.currentIndex()
	if err != nil {
		if errors.Is(err, apperr.ErrIndexUnavailable) {
			return nil, nil
		}
		return nil, err
	}
	return ix.Query(text, limit), nil
}

// Similar ranks cards against the text of card id, excluding the card.
func (s *Store) Similar(ctx context.Context, id string, limit int) ([]index.Result, error) {
	card, err := s.LoadCard(ctx, id)
	if err != nil {
		return nil, err
	}
	ix, err := s.currentIndex()
	if err != nil {
		if errors.Is(err, apperr.ErrIndexUnavailable) {
			return nil, nil
		}
		return nil, err
	}
	return ix.Similar(card, limit), nil
}

// Refresh reloads every card from the repository and rebuilds the index.
func (s *Store) Refresh(_ context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.rebuildLocked()
}

// Invalidate drops id from the cache and marks the index stale so the
// next read rebuilds it. It waits for any running rebuild, which may have
// listed the corpus before the change, so that rebuild cannot clear the
// flag.
func (s *Store) Invalidate(id string) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.cacheDelete(id)
	s.stale.Store(true)
}

// saveLocked prepares and persists card. Caller holds writeMu.
func (s *Store) saveLocked(card models.Card) (models.Card, error) {
	c := card.Clone()
	now := s.now().UTC()

	if c.ID == "" {
		id, err := s.newID(c.Title)
		if err != nil {
			return models.Card{}, err
		}
		c.ID = id
	} else if c.CreatedAt.IsZero() {
		if prev, err := s.repo.Load(c.ID); err == nil {
			c.CreatedAt = prev.CreatedAt
		}
	}

	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	if c.UpdatedAt.Before(c.CreatedAt) {
		c.UpdatedAt = c.CreatedAt
	}
	if c.Source.Type == "" {
		c.Source.Type = models.SourceNote
	}
	if c.Source.Timestamp.IsZero() {
		c.Source.Timestamp = c.CreatedAt
	}
	c.Index.Keywords = normalizeKeywords(c.Index.Keywords)
	for i := range c.Connections {
		if c.Connections[i].CreatedAt.IsZero() {
			c.Connections[i].CreatedAt = now
		}
	}

	if err := s.repo.Save(c); err != nil {
		return models.Card{}, err
	}
	s.cachePut(c)
	s.logger.Debug("store: saved", slog.String("id", c.ID))
	return c, nil
}

// rebuildLocked builds a new index from the full corpus and publishes it.
// On failure the previous index stays in the slot but is marked stale.
// Caller holds writeMu.
func (s *Store) rebuildLocked() error {
	cards, err := s.repo.List()
	if err != nil {
		s.stale.Store(true)
		s.logger.Warn("store: index rebuild failed, index is stale",
			slog.String("error", err.Error()))
		return err
	}
	ix, err := s.buildIndex(cards)
	if err != nil {
		s.stale.Store(true)
		s.logger.Warn("store: index rebuild failed, index is stale",
			slog.String("error", err.Error()))
		return err
	}
	s.idx.Store(ix)
	s.stale.Store(false)
	s.cacheReplace(cards)
	s.logger.Debug("store: index rebuilt", slog.Int("cards", ix.Len()))
	return nil
}

// buildIndex analyzes cards, reusing term-cache documents whose text
// checksum is unchanged.
func (s *Store) buildIndex(cards []models.Card) (*index.Index, error) {
	if s.terms == nil {
		return index.Build(cards), nil
	}

	cached, err := s.terms.All()
	if err != nil {
		s.logger.Warn("store: term cache read failed", slog.String("error", err.Error()))
		cached = nil
	}

	docs := make([]index.Document, len(cards))
	entries := make([]termcache.Entry, len(cards))
	reused := 0
	for i, c := range cards {
		text := index.DocumentText(c)
		sum := checksum.String(text)
		if e, ok := cached[c.ID]; ok && e.Checksum == sum {
			docs[i] = e.Document
			reused++
		} else {
			docs[i] = index.Analyze(c.ID, text)
		}
		entries[i] = termcache.Entry{Checksum: sum, Document: docs[i]}
	}

	ix, err := index.New(cards, docs)
	if err != nil {
		return nil, err
	}
	if err := s.terms.Sync(entries); err != nil {
		s.logger.Warn("store: term cache write failed", slog.String("error", err.Error()))
	}
	s.logger.Debug("store: term cache", slog.Int("reused", reused), slog.Int("analyzed", len(cards)-reused))
	return ix, nil
}

// currentIndex returns a fresh index, retrying a rebuild if the last one
// failed or none has run yet.
func (s *Store) currentIndex() (*index.Index, error) {
	if s.stale.Load() {
		s.writeMu.Lock()
		if s.stale.Load() {
			_ = s.rebuildLocked()
		}
		s.writeMu.Unlock()
	}
	ix := s.idx.Load()
	if ix == nil || s.stale.Load() {
		return nil, apperr.ErrIndexUnavailable
	}
	return ix, nil
}

// normalizeKeywords trims, drops empty and de-duplicates keywords, keeping
// first-occurrence order.
func normalizeKeywords(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, k := range in {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
