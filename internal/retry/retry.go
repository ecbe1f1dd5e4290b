package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/amishk599/sitewatch/internal/model"
)

// RetrySink is a decorator that retries transient delivery failures with
// exponential backoff and jitter before giving up.
type RetrySink struct {
	inner      model.AlertSink
	maxRetries int
	baseDelay  time.Duration
	logger     *slog.Logger
}

// NewRetrySink wraps an AlertSink with retry logic.
// maxRetries is the number of additional attempts after the first failure.
// baseDelay is the delay before the first retry, doubled on each subsequent retry.
func NewRetrySink(inner model.AlertSink, maxRetries int, baseDelay time.Duration, logger *slog.Logger) *RetrySink {
	return &RetrySink{
		inner:      inner,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		logger:     logger,
	}
}

// Name reports the wrapped sink's name.
func (s *RetrySink) Name() string {
	if n, ok := s.inner.(interface{ Name() string }); ok {
		return n.Name()
	}
	return "retry"
}

// Send attempts delivery, retrying on transient errors.
func (s *RetrySink) Send(ctx context.Context, changes []model.ScoredChange, sub model.AlertSubscription) error {
	err := s.inner.Send(ctx, changes, sub)
	if err == nil || !isRetryable(err) {
		return err
	}

	lastErr := err
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		delay := s.backoffDelay(attempt)

		s.logger.Warn("retrying after transient delivery error",
			"sink", s.Name(),
			"subscriber", sub.Email,
			"attempt", attempt,
			"max_retries", s.maxRetries,
			"delay", delay,
			"error", lastErr,
		)

		select {
		case <-ctx.Done():
			return fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-time.After(delay):
		}

		err = s.inner.Send(ctx, changes, sub)
		if err == nil {
			return nil
		}
		if !isRetryable(err) {
			return err
		}
		lastErr = err
	}

	return lastErr
}

// backoffDelay computes the delay for a given attempt with ±30% jitter.
func (s *RetrySink) backoffDelay(attempt int) time.Duration {
	// Exponential: baseDelay * 2^(attempt-1)
	delay := s.baseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
	}

	jitter := float64(delay) * 0.3
	return time.Duration(float64(delay) + (rand.Float64()*2-1)*jitter)
}

// isRetryable returns true if the error represents a transient failure worth retrying.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	// Context cancellation: never retry.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var de *model.DeliveryError
	if errors.As(err, &de) {
		return de.Temporary
	}

	// Unclassified errors (network, DNS, etc.) are retryable.
	return true
}
