package store

import (
	"log/slog"
	"time"

	"github.com/starford/cardbox/internal/termcache"
)

// TermCache memoizes analyzed documents across rebuilds.
type TermCache interface {
	All() (map[string]termcache.Entry, error)
	Sync(entries []termcache.Entry) error
}

// Option is a functional option for configuring a Store.
type Option func(*Store)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// WithClock replaces time.Now for timestamp assignment.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithTermCache enables reuse of analyzed documents between rebuilds.
func WithTermCache(c TermCache) Option {
	return func(s *Store) {
		s.terms = c
	}
}
