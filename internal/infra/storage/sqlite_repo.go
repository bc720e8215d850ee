package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tamaverse/petgotchi/internal/domain/pet"
)

// SQLiteEventRepository implements EventRepository for SQLite.
type SQLiteEventRepository struct {
	db *sql.DB
}

func NewSQLiteEventRepository(db *sql.DB) *SQLiteEventRepository {
	return &SQLiteEventRepository{db: db}
}

func (r *SQLiteEventRepository) Append(ctx context.Context, event StoredEvent) error {
	query := `
		INSERT INTO events (id, owner, timestamp, event_type, payload)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		event.ID, event.Owner, event.Timestamp, event.EventType, event.Payload,
	)
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

func (r *SQLiteEventRepository) getMany(ctx context.Context, query string, args ...interface{}) ([]StoredEvent, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []StoredEvent
	for rows.Next() {
		var e StoredEvent
		if err := rows.Scan(&e.Seq, &e.ID, &e.Owner, &e.Timestamp, &e.EventType, &e.Payload); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *SQLiteEventRepository) GetByOwner(ctx context.Context, owner string) ([]StoredEvent, error) {
	query := `SELECT rowid, id, owner, timestamp, event_type, payload FROM events WHERE owner = ? ORDER BY rowid ASC`
	return r.getMany(ctx, query, owner)
}

func (r *SQLiteEventRepository) GetByType(ctx context.Context, owner, eventType string) ([]StoredEvent, error) {
	query := `SELECT rowid, id, owner, timestamp, event_type, payload FROM events WHERE owner = ? AND event_type = ? ORDER BY rowid ASC`
	return r.getMany(ctx, query, owner, eventType)
}

func (r *SQLiteEventRepository) GetSince(ctx context.Context, owner string, sinceSeq int64, limit int) ([]StoredEvent, error) {
	if limit <= 0 {
		limit = -1 // SQLite treats a negative LIMIT as unbounded.
	}
	query := `SELECT rowid, id, owner, timestamp, event_type, payload FROM events WHERE owner = ? AND rowid > ? ORDER BY rowid ASC LIMIT ?`
	return r.getMany(ctx, query, owner, sinceSeq, limit)
}

// ---------------------------------------------------------
// SQLiteRecordRepository
// ---------------------------------------------------------

// SQLiteRecordRepository stores the full PetRecord as an owner-keyed JSON
// blob, which keeps the kv get/set/remove contract honest: the schema of
// the record never leaks into SQL.
type SQLiteRecordRepository struct {
	db *sql.DB
}

func NewSQLiteRecordRepository(db *sql.DB) *SQLiteRecordRepository {
	return &SQLiteRecordRepository{db: db}
}

func (r *SQLiteRecordRepository) Get(ctx context.Context, owner string) (*pet.Record, error) {
	var blob string
	query := `SELECT record FROM pet_records WHERE owner = ?`
	err := r.db.QueryRowContext(ctx, query, owner).Scan(&blob)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load record: %w", err)
	}

	var rec pet.Record
	if err := json.Unmarshal([]byte(blob), &rec); err != nil {
		// A corrupt blob is not fatal: the caller starts fresh.
		return nil, nil
	}
	rec.Normalize()
	return &rec, nil
}

func (r *SQLiteRecordRepository) Set(ctx context.Context, rec *pet.Record) error {
	blob, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	query := `
		INSERT INTO pet_records (owner, record, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(owner) DO UPDATE SET
			record=excluded.record,
			updated_at=excluded.updated_at
	`
	if _, err := r.db.ExecContext(ctx, query, rec.Owner, string(blob), time.Now()); err != nil {
		return fmt.Errorf("failed to upsert record: %w", err)
	}
	return nil
}

func (r *SQLiteRecordRepository) Remove(ctx context.Context, owner string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM pet_records WHERE owner = ?`, owner)
	return err
}
