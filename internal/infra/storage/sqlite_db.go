package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// InitSQLite initializes the local SQLite database and creates the schemas
// for the pet records, the event log, and the life-token ledger.
func InitSQLite(dbPath string) (*sql.DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	if err := createSchemas(db); err != nil {
		return nil, fmt.Errorf("failed to create schemas: %w", err)
	}

	return db, nil
}

func createSchemas(db *sql.DB) error {
	schemas := []string{
		`CREATE TABLE IF NOT EXISTS pet_records (
			owner TEXT PRIMARY KEY,
			record TEXT NOT NULL,
			updated_at DATETIME NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS events (
			id TEXT PRIMARY KEY,
			owner TEXT NOT NULL,
			timestamp DATETIME NOT NULL,
			event_type TEXT NOT NULL,
			payload TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS ledger_lives (
			owner TEXT PRIMARY KEY,
			lives INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS ledger_spends (
			owner TEXT NOT NULL,
			died_at_ns INTEGER NOT NULL,
			spent_at DATETIME NOT NULL,
			PRIMARY KEY (owner, died_at_ns)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_events_owner ON events(owner);`,
		`CREATE INDEX IF NOT EXISTS idx_events_type ON events(owner, event_type);`,
	}

	for _, query := range schemas {
		if _, err := db.Exec(query); err != nil {
			return err
		}
	}

	return nil
}
