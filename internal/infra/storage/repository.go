// Package storage provides the persistence layer for the pet server.
// This package implements the repository pattern to keep the domain pure.
package storage

import (
	"context"
	"time"

	"github.com/tamaverse/petgotchi/internal/domain/pet"
)

// StoredEvent mirrors the engine event structure for persistence.
// The events package should NOT import this; the adapter in between maps
// one to the other.
type StoredEvent struct {
	// Seq is the storage-assigned sequence number, increasing in append
	// order. Zero until the event has been stored.
	Seq       int64     `json:"seq" db:"seq"`
	ID        string    `json:"id" db:"id"`
	Owner     string    `json:"owner" db:"owner"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
	EventType string    `json:"event_type" db:"event_type"`
	Payload   string    `json:"payload" db:"payload"` // JSON blob
}

// EventRepository defines the interface for event persistence.
type EventRepository interface {
	// Append adds a new event to the immutable ledger.
	Append(ctx context.Context, event StoredEvent) error

	// GetByOwner retrieves all events for an owner, oldest first.
	GetByOwner(ctx context.Context, owner string) ([]StoredEvent, error)

	// GetByType retrieves an owner's events of one type, oldest first.
	GetByType(ctx context.Context, owner, eventType string) ([]StoredEvent, error)

	// GetSince retrieves the owner's events with sequence numbers greater
	// than sinceSeq, oldest first, capped at limit. A limit of zero or
	// less means no cap.
	GetSince(ctx context.Context, owner string, sinceSeq int64, limit int) ([]StoredEvent, error)
}

// RecordRepository stores PetRecords under owner-scoped keys. The engine
// depends only on these get/set/remove semantics, not the technology
// behind them.
type RecordRepository interface {
	// Get loads the record for an owner; (nil, nil) when absent.
	Get(ctx context.Context, owner string) (*pet.Record, error)

	// Set writes the record under its owner key.
	Set(ctx context.Context, rec *pet.Record) error

	// Remove deletes the record for an owner.
	Remove(ctx context.Context, owner string) error
}
