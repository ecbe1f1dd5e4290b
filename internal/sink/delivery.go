package sink

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/amishk599/sitewatch/internal/model"
)

var _ model.AlertSink = (*Delivery)(nil)

// ErrPersonalDelivery marks a send where a sink addressed to the subscriber
// failed even though other sinks succeeded.
var ErrPersonalDelivery = errors.New("personal delivery failed")

type target struct {
	sink     model.AlertSink
	personal bool
}

// Delivery fans changes out to several sinks. Shared sinks (console, log,
// a team Slack channel) are best effort. Personal sinks reach the subscriber
// directly, so their failure fails the send and the run is retried.
type Delivery struct {
	targets []target
	logger  *slog.Logger
}

// NewDelivery returns a sink that forwards to every given shared sink.
func NewDelivery(logger *slog.Logger, sinks ...model.AlertSink) *Delivery {
	d := &Delivery{logger: logger}
	for _, s := range sinks {
		d.targets = append(d.targets, target{sink: s})
	}
	return d
}

// WithPersonal adds sinks addressed to the subscriber and returns d.
func (d *Delivery) WithPersonal(sinks ...model.AlertSink) *Delivery {
	for _, s := range sinks {
		d.targets = append(d.targets, target{sink: s, personal: true})
	}
	return d
}

// Len returns the number of sinks.
func (d *Delivery) Len() int { return len(d.targets) }

func (d *Delivery) Name() string { return "delivery" }

// Send forwards changes to every sink. Empty lists are skipped. Failures are
// logged; an error is returned when every sink failed or when any personal
// sink failed. A retried run may repeat the message on shared sinks.
func (d *Delivery) Send(ctx context.Context, changes []model.ScoredChange, sub model.AlertSubscription) error {
	if len(changes) == 0 || len(d.targets) == 0 {
		return nil
	}

	var errs, personal []error
	for _, t := range d.targets {
		if err := t.sink.Send(ctx, changes, sub); err != nil {
			d.logger.Error("sink delivery failed", "sink", Name(t.sink), "subscriber", sub.Email, "error", err)
			err = fmt.Errorf("%s: %w", Name(t.sink), err)
			errs = append(errs, err)
			if t.personal {
				personal = append(personal, err)
			}
		}
	}

	if len(errs) == len(d.targets) {
		return fmt.Errorf("all %d sinks failed: %w", len(errs), errors.Join(errs...))
	}
	if len(personal) > 0 {
		return fmt.Errorf("%w: %w", ErrPersonalDelivery, errors.Join(personal...))
	}
	return nil
}

// Name returns the sink's short name, or its type when it has none.
func Name(s model.AlertSink) string {
	if n, ok := s.(interface{ Name() string }); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", s)
}

// SendTestMessage sends a sample alert to verify a sink integration works.
func SendTestMessage(ctx context.Context, s model.AlertSink, email string) error {
	posted := time.Now().UTC()
	job := model.Job{
		ID:         "test-001",
		Title:      "Test Notification: Integration Verified",
		Employer:   "SiteWatch",
		Category:   model.ICTCategory,
		Region:     "Everywhere",
		PostedDate: &posted,
	}
	change := model.ScoredChange{
		Change:   model.JobChange{JobID: job.ID, After: &job},
		Severity: model.SeverityHigh,
		Reason:   "Test alert",
	}
	return s.Send(ctx, []model.ScoredChange{change}, model.DefaultSubscription(email))
}
