package storage

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tamaverse/petgotchi/internal/domain/pet"
	"github.com/tamaverse/petgotchi/internal/events"
	"github.com/tamaverse/petgotchi/internal/ledger"
	"github.com/tamaverse/petgotchi/internal/platform/logger"
)

func newTestDB(t *testing.T) *SQLiteRecordRepository {
	t.Helper()
	db, err := InitSQLite(filepath.Join(t.TempDir(), "pet.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSQLiteRecordRepository(db)
}

func TestRecordRepositoryRoundTrip(t *testing.T) {
	repo := newTestDB(t)
	ctx := context.Background()

	got, err := repo.Get(ctx, "0xA")
	require.NoError(t, err)
	require.Nil(t, got, "absent owner yields nil record, nil error")

	born := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := pet.NewRecord("0xA", born)
	rec.Stage = pet.StageJuvenile
	rec.Variant = pet.JuvenileSpry
	rec.Needs.Hunger = 0.42
	rec.AgeElapsed = 90 * time.Minute
	rec.AddPoop(pet.Poop{Position: 33, VisualVariant: 2})
	rec.CatastropheSchedule = []time.Time{born.Add(time.Minute)}
	require.NoError(t, repo.Set(ctx, rec))

	got, err = repo.Get(ctx, "0xA")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, pet.StageJuvenile, got.Stage)
	require.Equal(t, pet.JuvenileSpry, got.Variant)
	require.InDelta(t, 0.42, got.Needs.Hunger, 1e-9)
	require.Equal(t, 90*time.Minute, got.AgeElapsed)
	require.Len(t, got.Poops, 1)
	require.Len(t, got.CatastropheSchedule, 1)
	require.True(t, got.CatastropheSchedule[0].Equal(born.Add(time.Minute)))
}

func TestRecordRepositoryUpsertAndRemove(t *testing.T) {
	repo := newTestDB(t)
	ctx := context.Background()

	rec := pet.NewRecord("0xA", time.Now())
	require.NoError(t, repo.Set(ctx, rec))

	rec.Stage = pet.StageAdult
	require.NoError(t, repo.Set(ctx, rec))

	got, err := repo.Get(ctx, "0xA")
	require.NoError(t, err)
	require.Equal(t, pet.StageAdult, got.Stage)

	require.NoError(t, repo.Remove(ctx, "0xA"))
	got, err = repo.Get(ctx, "0xA")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestRecordRepositoryCorruptBlobStartsFresh(t *testing.T) {
	db, err := InitSQLite(filepath.Join(t.TempDir(), "pet.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	repo := NewSQLiteRecordRepository(db)

	_, err = db.Exec(
		`INSERT INTO pet_records (owner, record, updated_at) VALUES (?, ?, ?)`,
		"0xA", "{not json", time.Now())
	require.NoError(t, err)

	got, err := repo.Get(context.Background(), "0xA")
	require.NoError(t, err, "a corrupt blob is not fatal")
	require.Nil(t, got)
}

func TestEventRepository(t *testing.T) {
	db, err := InitSQLite(filepath.Join(t.TempDir(), "pet.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	repo := NewSQLiteEventRepository(db)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, et := range []string{"PET_SICK", "PET_DIED", "PET_SICK"} {
		require.NoError(t, repo.Append(ctx, StoredEvent{
			ID:        string(rune('a' + i)),
			Owner:     "0xA",
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			EventType: et,
			Payload:   "{}",
		}))
	}

	all, err := repo.GetByOwner(ctx, "0xA")
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "PET_SICK", all[0].EventType, "ordered oldest first")
	require.Greater(t, all[1].Seq, all[0].Seq, "sequence grows in append order")
	require.Greater(t, all[2].Seq, all[1].Seq)

	sick, err := repo.GetByType(ctx, "0xA", "PET_SICK")
	require.NoError(t, err)
	require.Len(t, sick, 2)

	none, err := repo.GetByOwner(ctx, "0xB")
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestEventRepositoryGetSince(t *testing.T) {
	db, err := InitSQLite(filepath.Join(t.TempDir(), "pet.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	repo := NewSQLiteEventRepository(db)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, et := range []string{"EVOLVED", "PET_SICK", "PET_RECOVERED"} {
		require.NoError(t, repo.Append(ctx, StoredEvent{
			ID:        string(rune('a' + i)),
			Owner:     "0xA",
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			EventType: et,
			Payload:   "{}",
		}))
	}
	require.NoError(t, repo.Append(ctx, StoredEvent{
		ID: "z", Owner: "0xB", Timestamp: base, EventType: "NEW_GAME", Payload: "{}",
	}))

	all, err := repo.GetSince(ctx, "0xA", 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 3, "zero limit means no cap, other owners excluded")

	after, err := repo.GetSince(ctx, "0xA", all[0].Seq, 10)
	require.NoError(t, err)
	require.Len(t, after, 2)
	require.Equal(t, "PET_SICK", after[0].EventType)

	capped, err := repo.GetSince(ctx, "0xA", 0, 1)
	require.NoError(t, err)
	require.Len(t, capped, 1)
	require.Equal(t, "EVOLVED", capped[0].EventType, "cap keeps the oldest end")
}

func TestEventHistoryRecent(t *testing.T) {
	db, err := InitSQLite(filepath.Join(t.TempDir(), "pet.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	repo := NewSQLiteEventRepository(db)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, et := range []string{"EVOLVED", "PET_SICK", "PET_RECOVERED"} {
		require.NoError(t, repo.Append(ctx, StoredEvent{
			ID:        string(rune('a' + i)),
			Owner:     "0xA",
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			EventType: et,
			Payload:   `{"cause":"flu"}`,
		}))
	}

	history, err := NewEventHistory(repo).Recent(ctx, "0xA", 2)
	require.NoError(t, err)
	require.Len(t, history, 2, "limit keeps the newest tail")
	require.Equal(t, events.EventTypePetSick, history[0].Type)
	require.Equal(t, events.EventTypePetRecovered, history[1].Type)
	require.JSONEq(t, `{"cause":"flu"}`, string(history[1].Payload.(json.RawMessage)))
}

func TestSQLiteLedgerSpendIsIdempotent(t *testing.T) {
	db, err := InitSQLite(filepath.Join(t.TempDir(), "pet.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	lgr := NewSQLiteLedger(db, logger.NewLogger())

	diedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	ok, outcome := lgr.SpendLife("0xA", diedAt)
	require.False(t, ok)
	require.Equal(t, ledger.SpendNoLives, outcome)

	lgr.Credit("0xA", 2)
	require.Equal(t, 2, lgr.Lives("0xA"))
	require.True(t, lgr.CanRevive("0xA"))

	ok, outcome = lgr.SpendLife("0xA", diedAt)
	require.True(t, ok)
	require.Equal(t, ledger.SpendOK, outcome)
	require.Equal(t, 1, lgr.Lives("0xA"))

	// Replaying the same death decrements nothing.
	ok, outcome = lgr.SpendLife("0xA", diedAt)
	require.True(t, ok)
	require.Equal(t, ledger.SpendAlreadySpent, outcome)
	require.Equal(t, 1, lgr.Lives("0xA"))

	ok, outcome = lgr.SpendLife("0xA", diedAt.Add(time.Hour))
	require.True(t, ok)
	require.Equal(t, ledger.SpendOK, outcome)
	require.Equal(t, 0, lgr.Lives("0xA"))
}

func TestSaverFlushPersistsSnapshot(t *testing.T) {
	repo := newTestDB(t)

	rec := pet.NewRecord("0xA", time.Now())
	rec.AgeElapsed = 42 * time.Second
	saver := NewSaver(repo, func() pet.Record { return *rec }, logger.NewLogger())

	saver.Flush()

	got, err := repo.Get(context.Background(), "0xA")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, 42*time.Second, got.AgeElapsed)
}
