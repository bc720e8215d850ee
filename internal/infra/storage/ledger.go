package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/tamaverse/petgotchi/internal/ledger"
	"github.com/tamaverse/petgotchi/internal/platform/logger"
)

// SQLiteLedger is a durable ledger.Ledger backed by the local database.
// Storage failures surface as SpendUnavailable, never as errors crossing
// the simulation boundary.
type SQLiteLedger struct {
	db  *sql.DB
	log *logger.Logger
}

func NewSQLiteLedger(db *sql.DB, log *logger.Logger) *SQLiteLedger {
	return &SQLiteLedger{db: db, log: log}
}

func (l *SQLiteLedger) Lives(owner string) int {
	var lives int
	err := l.db.QueryRowContext(context.Background(),
		`SELECT lives FROM ledger_lives WHERE owner = ?`, owner).Scan(&lives)
	if err != nil {
		if err != sql.ErrNoRows {
			l.log.Error("ledger read failed: %v", err)
		}
		return 0
	}
	return lives
}

func (l *SQLiteLedger) CanRevive(owner string) bool {
	return l.Lives(owner) > 0
}

// SpendLife decrements one life inside a transaction, idempotently keyed by
// (owner, death instant): the spends table's primary key makes a duplicate
// notification a no-op.
func (l *SQLiteLedger) SpendLife(owner string, diedAt time.Time) (bool, ledger.SpendOutcome) {
	ctx := context.Background()
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		l.log.Error("ledger tx failed: %v", err)
		return false, ledger.SpendUnavailable
	}
	defer tx.Rollback()

	var already int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM ledger_spends WHERE owner = ? AND died_at_ns = ?`,
		owner, diedAt.UnixNano()).Scan(&already)
	if err != nil {
		l.log.Error("ledger spend lookup failed: %v", err)
		return false, ledger.SpendUnavailable
	}
	if already > 0 {
		return true, ledger.SpendAlreadySpent
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE ledger_lives SET lives = lives - 1 WHERE owner = ? AND lives > 0`, owner)
	if err != nil {
		l.log.Error("ledger decrement failed: %v", err)
		return false, ledger.SpendUnavailable
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return false, ledger.SpendNoLives
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO ledger_spends (owner, died_at_ns, spent_at) VALUES (?, ?, ?)`,
		owner, diedAt.UnixNano(), time.Now())
	if err != nil {
		l.log.Error("ledger spend record failed: %v", err)
		return false, ledger.SpendUnavailable
	}

	if err := tx.Commit(); err != nil {
		l.log.Error("ledger commit failed: %v", err)
		return false, ledger.SpendUnavailable
	}
	return true, ledger.SpendOK
}

func (l *SQLiteLedger) Credit(owner string, n int) {
	if n <= 0 {
		return
	}
	_, err := l.db.ExecContext(context.Background(), `
		INSERT INTO ledger_lives (owner, lives) VALUES (?, ?)
		ON CONFLICT(owner) DO UPDATE SET lives = lives + excluded.lives
	`, owner, n)
	if err != nil {
		l.log.Error("ledger credit failed: %v", err)
	}
}
