package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/amishk599/sitewatch/internal/model"
)

// Run statuses recorded in alert_runs.
const (
	RunDelivered = "delivered"
	RunEmpty     = "empty"
	RunFailed    = "failed"
)

// Ensure SQLiteStore implements the ports the runner depends on.
var (
	_ model.SnapshotSource     = (*SQLiteStore)(nil)
	_ model.SubscriptionSource = (*SQLiteStore)(nil)
	_ model.RunLog             = (*SQLiteStore)(nil)
)

// RecordRun appends an evaluation record for email.
func (s *SQLiteStore) RecordRun(ctx context.Context, email string, ranAt time.Time, delivered int, status string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO alert_runs (id, email, ran_at, delivered, status) VALUES (?, ?, ?, ?, ?)",
		uuid.NewString(), email, formatTime(ranAt), delivered, status)
	if err != nil {
		return fmt.Errorf("recording run for %s: %w", email, err)
	}
	return nil
}

// LastRun returns when email was last evaluated successfully, or nil.
// Failed runs do not count, so a failed delivery is retried on the next check.
func (s *SQLiteStore) LastRun(ctx context.Context, email string) (*time.Time, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		"SELECT ran_at FROM alert_runs WHERE email = ? AND status != ? ORDER BY ran_at DESC LIMIT 1",
		email, RunFailed).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading last run for %s: %w", email, err)
	}
	t, err := parseTime(raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// CleanupRuns deletes run records older than the given duration.
func (s *SQLiteStore) CleanupRuns(ctx context.Context, olderThan time.Duration) error {
	cutoff := formatTime(s.now().Add(-olderThan))
	if _, err := s.db.ExecContext(ctx, "DELETE FROM alert_runs WHERE ran_at < ?", cutoff); err != nil {
		return fmt.Errorf("cleaning up runs older than %v: %w", olderThan, err)
	}
	return nil
}
