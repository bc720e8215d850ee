package storage

import (
	"context"
	"encoding/json"

	"github.com/tamaverse/petgotchi/internal/events"
	"github.com/tamaverse/petgotchi/internal/platform/metrics"
)

// EventPersister adapts the engine event log to the storage schema. It
// satisfies events.Persister so the log stays ignorant of SQL.
type EventPersister struct {
	repo    EventRepository
	metrics *metrics.Collector
}

func NewEventPersister(repo EventRepository) *EventPersister {
	return &EventPersister{repo: repo, metrics: metrics.Get()}
}

func (p *EventPersister) Append(event events.Event) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		payload = []byte("{}")
	}

	stored := StoredEvent{
		ID:        event.ID,
		Owner:     event.Owner,
		Timestamp: event.Timestamp,
		EventType: string(event.Type),
		Payload:   string(payload),
	}
	err = p.repo.Append(context.Background(), stored)
	p.metrics.RecordEventWrite(err)
	return err
}
