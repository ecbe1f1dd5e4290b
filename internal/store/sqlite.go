package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

var (
	ErrSnapshotExists       = errors.New("snapshot already exists")
	ErrSubscriptionExists   = errors.New("subscription already exists")
	ErrSubscriptionNotFound = errors.New("subscription not found")
)

// timeLayout sorts lexically in chronological order for UTC values.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

var schema = []string{
	`CREATE TABLE IF NOT EXISTS snapshots (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		captured_at TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS snapshot_jobs (
		snapshot_id        INTEGER NOT NULL,
		job_id             TEXT NOT NULL,
		title              TEXT NOT NULL,
		employer           TEXT,
		summary            TEXT,
		description        TEXT,
		category           TEXT,
		classification     TEXT,
		sub_classification TEXT,
		job_type           TEXT,
		region             TEXT,
		area               TEXT,
		pay_min            REAL,
		pay_max            REAL,
		posted_date        TEXT,
		start_date         TEXT,
		end_date           TEXT,
		PRIMARY KEY (snapshot_id, job_id)
	)`,
	`CREATE TABLE IF NOT EXISTS subscriptions (
		email         TEXT PRIMARY KEY,
		region        TEXT NOT NULL DEFAULT '',
		category_only INTEGER NOT NULL DEFAULT 1,
		min_severity  TEXT NOT NULL,
		frequency     TEXT NOT NULL,
		hour          INTEGER NOT NULL,
		created_at    DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS alert_runs (
		id        TEXT PRIMARY KEY,
		email     TEXT NOT NULL,
		ran_at    TEXT NOT NULL,
		delivered INTEGER NOT NULL,
		status    TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_alert_runs_email ON alert_runs (email, ran_at)`,
}

// SQLiteStore persists snapshots, subscriptions and alert runs in SQLite.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures
// all tables exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Verify the connection is alive.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	// One connection serialises writers from concurrent alert runs.
	db.SetMaxOpenConns(1)

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating schema: %w", err)
		}
	}

	return &SQLiteStore{db: db, now: time.Now}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(v string) (time.Time, error) {
	t, err := time.Parse(timeLayout, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing stored time %q: %w", v, err)
	}
	return t, nil
}
