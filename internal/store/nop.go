package store

import (
	"context"
	"time"
)

// NopRunLog is used in dry-run mode. It never records a run, so every
// subscription looks due on each pass.
type NopRunLog struct{}

func NewNopRunLog() *NopRunLog { return &NopRunLog{} }

func (NopRunLog) LastRun(ctx context.Context, email string) (*time.Time, error) { return nil, nil }
func (NopRunLog) RecordRun(ctx context.Context, email string, ranAt time.Time, delivered int, status string) error {
	return nil
}
