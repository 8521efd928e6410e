// Package internal provides the application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/starford/cardbox/internal/repository"
	"github.com/starford/cardbox/internal/storage"
	"github.com/starford/cardbox/internal/store"
	"github.com/starford/cardbox/internal/termcache"
)

// App holds the wired card store and the resources it owns.
type App struct {
	config *Config
	logger *slog.Logger
	store  *store.Store
	terms  *termcache.DB
}

// New wires storage, repository, term cache and store from the
// configuration. The caller must Close the returned App.
func New(opts ...Option) (*App, error) {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}

	cfg := app.config

	logger := app.logger
	if logger == nil {
		// Stderr keeps stdout free for command output.
		logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: cfg.App.LogLevel,
		}))
	}
	slog.SetDefault(logger)

	logger.Debug("Configuration loaded",
		slog.String("cards_path", cfg.Cards.Path),
		slog.String("cache_path", cfg.Cache.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	if err := os.MkdirAll(cfg.Cards.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create cards dir: %w", err)
	}

	fs, err := storage.NewFS(cfg.Cards.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	a := &App{config: cfg, logger: logger}
	storeOpts := []store.Option{store.WithLogger(logger)}

	if cfg.Cache.Enabled() {
		terms, err := openTermCache(cfg.Cache.Path)
		if err != nil {
			// The cache is disposable; run without it.
			logger.Warn("term cache unavailable", slog.String("error", err.Error()))
		} else {
			a.terms = terms
			storeOpts = append(storeOpts, store.WithTermCache(terms))
		}
	}

	a.store = store.New(repository.New(fs, logger), storeOpts...)
	return a, nil
}

func openTermCache(path string) (*termcache.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return termcache.Open(path)
}

// Store returns the card store.
func (a *App) Store() *store.Store {
	return a.store
}

// Logger returns the application logger.
func (a *App) Logger() *slog.Logger {
	return a.logger
}

// Close releases the term cache.
func (a *App) Close() error {
	if a.terms == nil {
		return nil
	}
	return a.terms.Close()
}

// Watch refreshes the store and then follows external edits to the card
// directory until ctx is cancelled or SIGINT/SIGTERM arrives.
func (a *App) Watch(ctx context.Context, cb store.EventCallback) error {
	logger := a.logger

	if err := a.store.Refresh(ctx); err != nil {
		logger.Warn("initial refresh failed", slog.String("error", err.Error()))
	}

	g, gCtx := errgroup.WithContext(ctx)
	watchCtx, stop := context.WithCancel(gCtx)
	defer stop()

	g.Go(func() error {
		defer stop()
		return a.store.Watch(watchCtx, a.config.Cards.Path, a.config.Watch.Debounce, cb)
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-watchCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		stop()
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Watcher error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Watcher stopped")
	return nil
}
