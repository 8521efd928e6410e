// Package repository stores one record per card through a storage.Provider.
// It knows nothing about search or caching.
package repository

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/starford/cardbox/internal/apperr"
	"github.com/starford/cardbox/internal/models"
	"github.com/starford/cardbox/internal/parser"
	"github.com/starford/cardbox/internal/storage"
)

// Repository is the durable card store. The record file name is the sole
// authority for a card's ID.
type Repository struct {
	store  storage.Provider
	logger *slog.Logger
}

// New creates a repository on top of store.
func New(store storage.Provider, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{store: store, logger: logger}
}

// FileName returns the record file name for id.
func FileName(id string) string {
	return id + storage.RecordExt
}

// Save validates card and creates or overwrites its record.
func (r *Repository) Save(card models.Card) error {
	if err := card.Validate(); err != nil {
		return apperr.Invalid(card.ID, err)
	}
	data, err := parser.Render(card)
	if err != nil {
		return err
	}
	if err := r.store.Write(FileName(card.ID), data); err != nil {
		return apperr.IO("repository: save "+card.ID, err)
	}
	return nil
}

// Load reads and decodes exactly one record.
func (r *Repository) Load(id string) (models.Card, error) {
	if !models.ValidID(id) {
		return models.Card{}, fmt.Errorf("repository: load %q: %w", id, apperr.ErrNotFound)
	}
	data, err := r.store.Read(FileName(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return models.Card{}, fmt.Errorf("repository: load %s: %w", id, apperr.ErrNotFound)
		}
		return models.Card{}, apperr.IO("repository: load "+id, err)
	}
	card, repairs, err := parser.Decode(data)
	if err != nil {
		return models.Card{}, fmt.Errorf("repository: load %s: %w", id, err)
	}
	if card.ID != id {
		return models.Card{}, apperr.Invalid(id, fmt.Errorf("record declares id %q", card.ID))
	}
	for _, rp := range repairs {
		r.logger.Warn("repository: ignoring invalid field",
			slog.String("id", id),
			slog.String("field", rp.Field),
			slog.String("error", rp.Err.Error()))
	}
	return card, nil
}

// Exists reports whether a record for id is present.
func (r *Repository) Exists(id string) (bool, error) {
	if !models.ValidID(id) {
		return false, nil
	}
	if _, err := r.store.Stat(FileName(id)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, apperr.IO("repository: exists "+id, err)
	}
	return true, nil
}

// List returns every valid card sorted by ID. Records that cannot be read
// or parsed are logged and skipped.
func (r *Repository) List() ([]models.Card, error) {
	entries, err := r.store.List()
	if err != nil {
		return nil, apperr.IO("repository: list", err)
	}
	cards := make([]models.Card, 0, len(entries))
	for _, e := range entries {
		id := strings.TrimSuffix(e.Name, storage.RecordExt)
		card, err := r.Load(id)
		if err != nil {
			r.logger.Warn("repository: skipping record",
				slog.String("file", e.Name),
				slog.String("error", err.Error()))
			continue
		}
		cards = append(cards, card)
	}
	sort.Slice(cards, func(i, j int) bool { return cards[i].ID < cards[j].ID })
	return cards, nil
}

// Delete removes the record for id. Deleting a missing card succeeds.
func (r *Repository) Delete(id string) error {
	if !models.ValidID(id) {
		return nil
	}
	if err := r.store.Delete(FileName(id)); err != nil {
		return apperr.IO("repository: delete "+id, err)
	}
	return nil
}
