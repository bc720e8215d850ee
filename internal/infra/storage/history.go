package storage

import (
	"context"
	"encoding/json"

	"github.com/tamaverse/petgotchi/internal/events"
)

// EventHistory reads the persisted trail back out as engine events, the
// inverse of EventPersister. The hub uses it to replay an owner's recent
// history to a client that connects mid-life.
type EventHistory struct {
	repo EventRepository
}

func NewEventHistory(repo EventRepository) *EventHistory {
	return &EventHistory{repo: repo}
}

// Recent returns up to limit of the owner's most recent events, oldest
// first. Payloads come back as raw JSON since the concrete types were
// flattened on the way in.
func (h *EventHistory) Recent(ctx context.Context, owner string, limit int) ([]events.Event, error) {
	stored, err := h.repo.GetByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(stored) > limit {
		stored = stored[len(stored)-limit:]
	}

	history := make([]events.Event, 0, len(stored))
	for _, s := range stored {
		history = append(history, events.Event{
			ID:        s.ID,
			Timestamp: s.Timestamp,
			Type:      events.EventType(s.EventType),
			Owner:     s.Owner,
			Payload:   json.RawMessage(s.Payload),
		})
	}
	return history, nil
}
