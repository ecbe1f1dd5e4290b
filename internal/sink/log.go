package sink

import (
	"context"
	"log/slog"

	"github.com/amishk599/sitewatch/internal/model"
)

// Ensure LogSink implements model.AlertSink.
var _ model.AlertSink = (*LogSink)(nil)

// LogSink writes scored changes to the given logger as structured messages.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink returns a sink that logs each change via slog.
func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Name() string { return "log" }

// Send logs each change with its severity, kind, job and reason.
// Returns nil (stdout logging does not fail).
func (s *LogSink) Send(ctx context.Context, changes []model.ScoredChange, sub model.AlertSubscription) error {
	for _, c := range changes {
		args := []any{
			"subscriber", sub.Email,
			"severity", c.Severity.String(),
			"kind", c.Change.Kind().String(),
			"job_id", c.Change.JobID,
			"reason", c.Reason,
		}
		if j := c.Change.Relevant(); j != nil {
			args = append(args, "title", j.Title)
			if j.Region != "" {
				args = append(args, "region", j.Region)
			}
		}
		if n := len(c.Change.Changes); n > 0 {
			args = append(args, "fields", n)
		}
		s.logger.InfoContext(ctx, "job change", args...)
	}
	return nil
}
