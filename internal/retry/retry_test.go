package retry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/amishk599/sitewatch/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockSink calls a function on each invocation, tracking call count.
type mockSink struct {
	calls int
	fn    func(attempt int) error
}

func (m *mockSink) Send(context.Context, []model.ScoredChange, model.AlertSubscription) error {
	m.calls++
	return m.fn(m.calls)
}

var (
	sub     = model.DefaultSubscription("ops@example.com")
	changes = []model.ScoredChange{{Change: model.JobChange{JobID: "1"}, Severity: model.SeverityHigh}}
)

func TestRetry_SucceedsOnFirstAttempt(t *testing.T) {
	mock := &mockSink{fn: func(int) error { return nil }}

	rs := NewRetrySink(mock, 2, 10*time.Millisecond, discardLogger())
	if err := rs.Send(context.Background(), changes, sub); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mock.calls != 1 {
		t.Fatalf("expected 1 call, got %d", mock.calls)
	}
}

func TestRetry_RetriesTemporary_SucceedsOnSecondAttempt(t *testing.T) {
	mock := &mockSink{fn: func(attempt int) error {
		if attempt == 1 {
			return &model.DeliveryError{Sink: "slack", Code: 503, Temporary: true, Err: errors.New("service unavailable")}
		}
		return nil
	}}

	rs := NewRetrySink(mock, 2, 10*time.Millisecond, discardLogger())
	if err := rs.Send(context.Background(), changes, sub); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mock.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", mock.calls)
	}
}

func TestRetry_RetriesUnclassifiedErrors(t *testing.T) {
	mock := &mockSink{fn: func(attempt int) error {
		if attempt < 3 {
			return errors.New("connection reset")
		}
		return nil
	}}

	rs := NewRetrySink(mock, 2, 10*time.Millisecond, discardLogger())
	if err := rs.Send(context.Background(), changes, sub); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mock.calls != 3 {
		t.Fatalf("expected 3 calls, got %d", mock.calls)
	}
}

func TestRetry_DoesNotRetryPermanent(t *testing.T) {
	permanent := &model.DeliveryError{Sink: "slack", Code: 400, Err: errors.New("bad request")}
	mock := &mockSink{fn: func(int) error { return permanent }}

	rs := NewRetrySink(mock, 2, 10*time.Millisecond, discardLogger())
	err := rs.Send(context.Background(), changes, sub)
	if !errors.Is(err, permanent) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if mock.calls != 1 {
		t.Fatalf("expected 1 call (no retry), got %d", mock.calls)
	}
}

func TestRetry_GivesUpAfterMaxRetries(t *testing.T) {
	mock := &mockSink{fn: func(int) error {
		return &model.DeliveryError{Sink: "email", Temporary: true, Err: errors.New("try later")}
	}}

	rs := NewRetrySink(mock, 2, 10*time.Millisecond, discardLogger())
	if err := rs.Send(context.Background(), changes, sub); err == nil {
		t.Fatal("expected error after max retries")
	}
	if mock.calls != 3 {
		t.Fatalf("expected 3 calls (1 + 2 retries), got %d", mock.calls)
	}
}

func TestRetry_NeverRetriesContextErrors(t *testing.T) {
	mock := &mockSink{fn: func(int) error { return context.DeadlineExceeded }}

	rs := NewRetrySink(mock, 2, 10*time.Millisecond, discardLogger())
	if err := rs.Send(context.Background(), changes, sub); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
	if mock.calls != 1 {
		t.Fatalf("expected 1 call, got %d", mock.calls)
	}
}

func TestRetry_RespectsContextCancellation(t *testing.T) {
	mock := &mockSink{fn: func(int) error { return errors.New("flaky") }}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rs := NewRetrySink(mock, 2, 5*time.Second, discardLogger())
	err := rs.Send(ctx, changes, sub)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if mock.calls != 1 {
		t.Fatalf("expected 1 call before cancellation, got %d", mock.calls)
	}
}

func TestBackoffDelay_JitterBounds(t *testing.T) {
	rs := NewRetrySink(nil, 3, 100*time.Millisecond, discardLogger())
	for attempt, base := range map[int]time.Duration{1: 100 * time.Millisecond, 2: 200 * time.Millisecond, 3: 400 * time.Millisecond} {
		for i := 0; i < 50; i++ {
			d := rs.backoffDelay(attempt)
			lo, hi := time.Duration(float64(base)*0.7), time.Duration(float64(base)*1.3)
			if d < lo || d > hi {
				t.Fatalf("attempt %d delay %v outside [%v, %v]", attempt, d, lo, hi)
			}
		}
	}
}
