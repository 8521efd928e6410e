package store

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/cardbox/internal/storage"
)

// DefaultDebounce is the quiet period before a watcher-triggered rebuild.
const DefaultDebounce = 200 * time.Millisecond

// EventCallback is called after a watcher-driven cache invalidation.
// kind is one of "created", "updated", "deleted".
type EventCallback func(kind string, id string)

// Watch follows edits made to record files outside the Store until ctx is
// cancelled. Each changed record is dropped from the cache at once and a
// full Refresh runs once events have been quiet for debounce.
func (s *Store) Watch(ctx context.Context, root string, debounce time.Duration, cb EventCallback) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(root); err != nil {
		return fmt.Errorf("watcher: add %s: %w", root, err)
	}

	s.logger.Info("watcher: started", slog.String("root", root))

	var refreshTimer *time.Timer
	var refreshCh <-chan time.Time

	scheduleRefresh := func() {
		if refreshTimer == nil {
			refreshTimer = time.NewTimer(debounce)
			refreshCh = refreshTimer.C
		} else {
			refreshTimer.Reset(debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if refreshTimer != nil {
				refreshTimer.Stop()
			}
			s.logger.Info("watcher: stopped")
			return nil

		case <-refreshCh:
			if err := s.Refresh(ctx); err != nil {
				s.logger.Warn("watcher: refresh failed", slog.String("error", err.Error()))
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			name := filepath.Base(ev.Name)
			if !strings.HasSuffix(name, storage.RecordExt) || strings.HasPrefix(name, ".") {
				continue
			}
			id := strings.TrimSuffix(name, storage.RecordExt)

			var kind string
			switch {
			case ev.Op&fsnotify.Create != 0:
				kind = "created"
			case ev.Op&fsnotify.Write != 0:
				kind = "updated"
			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				kind = "deleted"
			default:
				continue
			}

			s.Invalidate(id)
			s.logger.Debug("watcher: invalidated", slog.String("id", id), slog.String("op", kind))
			if cb != nil {
				cb(kind, id)
			}
			scheduleRefresh()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
