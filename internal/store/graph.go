package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/starford/cardbox/internal/apperr"
	"github.com/starford/cardbox/internal/models"
)

// Neighbor is an outgoing connection resolved to its target card.
type Neighbor struct {
	Card      models.Card `json:"card"`
	Strength  int         `json:"strength"`
	CreatedAt time.Time   `json:"created_at"`
}

// AddConnection appends a directed edge fromID → toID to fromID's record.
// Both cards must exist. Edges are not de-duplicated; adding the same pair
// twice stores two edges.
func (s *Store) AddConnection(_ context.Context, fromID, toID string, strength int) error {
	if strength < models.MinStrength || strength > models.MaxStrength {
		return apperr.Invalid(fromID, fmt.Errorf("strength: must be between %d and %d", models.MinStrength, models.MaxStrength))
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	from, err := s.repo.Load(fromID)
	if err != nil {
		return fmt.Errorf("store: connection source: %w", err)
	}
	if _, err := s.repo.Load(toID); err != nil {
		return fmt.Errorf("store: connection target: %w", err)
	}

	from.Connections = append(from.Connections, models.Connection{
		Target:    toID,
		Strength:  strength,
		CreatedAt: s.now().UTC(),
	})
	if _, err := s.saveLocked(from); err != nil {
		return err
	}
	_ = s.rebuildLocked()
	return nil
}

// Connected resolves every outgoing edge of id, in stored order. Edges
// whose target no longer loads are omitted.
func (s *Store) Connected(ctx context.Context, id string) ([]Neighbor, error) {
	src, err := s.LoadCard(ctx, id)
	if err != nil {
		return nil, err
	}
	out := make([]Neighbor, 0, len(src.Connections))
	for _, e := range src.Connections {
		target, err := s.LoadCard(ctx, e.Target)
		if err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				s.logger.Debug("store: dangling connection",
					slog.String("from", id), slog.String("to", e.Target))
			} else {
				s.logger.Warn("store: connection target unreadable",
					slog.String("from", id), slog.String("to", e.Target),
					slog.String("error", err.Error()))
			}
			continue
		}
		out = append(out, Neighbor{Card: target, Strength: e.Strength, CreatedAt: e.CreatedAt})
	}
	return out, nil
}
