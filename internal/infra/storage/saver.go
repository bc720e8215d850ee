package storage

import (
	"context"
	"time"

	"github.com/tamaverse/petgotchi/internal/domain/pet"
	"github.com/tamaverse/petgotchi/internal/platform/logger"
	"github.com/tamaverse/petgotchi/internal/platform/metrics"
)

// SaveInterval is the debounce period between periodic snapshot writes.
const SaveInterval = 15 * time.Second

// Saver periodically persists the controller's record snapshot and flushes
// it once more on teardown, so the final partial interval of age and needs
// is never lost.
type Saver struct {
	repo     RecordRepository
	snapshot func() pet.Record
	logger   *logger.Logger
	metrics  *metrics.Collector
}

// NewSaver creates a debounced snapshot saver. snapshot must be safe to
// call from this goroutine; the controller's Snapshot qualifies.
func NewSaver(repo RecordRepository, snapshot func() pet.Record, log *logger.Logger) *Saver {
	return &Saver{
		repo:     repo,
		snapshot: snapshot,
		logger:   log,
		metrics:  metrics.Get(),
	}
}

// Run writes every SaveInterval until the context is cancelled, then
// flushes a final snapshot. Call in a goroutine.
func (s *Saver) Run(ctx context.Context) {
	ticker := time.NewTicker(SaveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.Flush()
			s.logger.Info("Saver stopped; final snapshot flushed.")
			return
		case <-ticker.C:
			s.save(ctx)
		}
	}
}

// Flush performs an immediate write, used on session-end signals.
func (s *Saver) Flush() {
	s.save(context.Background())
}

func (s *Saver) save(ctx context.Context) {
	rec := s.snapshot()
	err := s.repo.Set(ctx, &rec)
	s.metrics.RecordSave(err)
	if err != nil {
		s.logger.Error("Failed to persist pet record: %v", err)
	}
}
