package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/amishk599/sitewatch/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- Mock implementations ---

type fakeSubs struct {
	mu   sync.Mutex
	subs []model.AlertSubscription
	err  error
}

func (f *fakeSubs) ListSubscriptions(context.Context) ([]model.AlertSubscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.AlertSubscription(nil), f.subs...), f.err
}

func (f *fakeSubs) set(subs ...model.AlertSubscription) {
	f.mu.Lock()
	f.subs = subs
	f.mu.Unlock()
}

type runRecorder struct {
	mu   sync.Mutex
	runs [][]model.AlertSubscription
}

func (r *runRecorder) run(_ context.Context, subs []model.AlertSubscription) {
	r.mu.Lock()
	r.runs = append(r.runs, subs)
	r.mu.Unlock()
}

func (r *runRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.runs)
}

func TestShouldRun(t *testing.T) {
	loc := time.UTC
	// Monday 2024-03-04.
	monday := func(h int) time.Time { return time.Date(2024, 3, 4, h, 5, 0, 0, loc) }
	ago := func(from time.Time, d time.Duration) *time.Time { v := from.Add(-d); return &v }

	tests := []struct {
		name string
		last *time.Time
		freq model.Frequency
		hour int
		now  time.Time
		want bool
	}{
		{"never run", nil, model.FrequencyDaily, 23, monday(0), true},
		{"daily due", ago(monday(12), 24*time.Hour), model.FrequencyDaily, 12, monday(12), true},
		{"daily before hour", ago(monday(11), 24*time.Hour), model.FrequencyDaily, 12, monday(11), false},
		{"daily gap too short", ago(monday(12), 22*time.Hour), model.FrequencyDaily, 12, monday(12), false},
		{"daily same day", ago(monday(23), 23*time.Hour+4*time.Minute), model.FrequencyDaily, 0, monday(23), false},
		{"weekly due monday", ago(monday(9), 7*24*time.Hour), model.FrequencyWeekly, 9, monday(9), true},
		{"weekly not monday", ago(monday(9).Add(24*time.Hour), 7*24*time.Hour), model.FrequencyWeekly, 9, monday(9).Add(24 * time.Hour), false},
		{"weekly gap too short", ago(monday(9), 5*24*time.Hour), model.FrequencyWeekly, 9, monday(9), false},
		{"weekly before hour", ago(monday(8), 7*24*time.Hour), model.FrequencyWeekly, 9, monday(8), false},
		{"unknown frequency", ago(monday(12), 48*time.Hour), model.Frequency("hourly"), 0, monday(12), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldRun(tt.last, tt.freq, tt.hour, tt.now); got != tt.want {
				t.Errorf("ShouldRun() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestShouldRun_UsesNowLocation(t *testing.T) {
	syd := time.FixedZone("AEST", 10*60*60)
	// 2024-03-04 23:30 UTC is 09:30 on Tuesday in Sydney.
	last := time.Date(2024, 3, 3, 23, 30, 0, 0, time.UTC) // Monday 09:30 Sydney
	now := time.Date(2024, 3, 4, 23, 30, 0, 0, time.UTC).In(syd)

	if !ShouldRun(&last, model.FrequencyDaily, 9, now) {
		t.Error("expected daily run to be due on the next local day")
	}
}

func TestCronSpec(t *testing.T) {
	daily := model.DefaultSubscription("a@example.com")
	daily.Hour = 7
	if got := CronSpec(daily); got != "0 7 * * *" {
		t.Errorf("daily spec = %q", got)
	}

	weekly := daily
	weekly.Frequency = model.FrequencyWeekly
	if got := CronSpec(weekly); got != "0 7 * * 1" {
		t.Errorf("weekly spec = %q", got)
	}
}

func TestReload_SyncsEntries(t *testing.T) {
	a := model.DefaultSubscription("a@example.com")
	b := model.DefaultSubscription("b@example.com")
	src := &fakeSubs{subs: []model.AlertSubscription{a, b}}
	rec := &runRecorder{}
	s := NewScheduler(src, rec.run, time.UTC, time.Minute, discardLogger())
	ctx := context.Background()

	if err := s.Reload(ctx); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if n := s.Entries(); n != 2 {
		t.Fatalf("expected 2 entries, got %d", n)
	}
	firstID := s.entries[a.Email].id

	// Unchanged subscription keeps its entry; changed one is replaced.
	b.Hour = 18
	src.set(a, b)
	if err := s.Reload(ctx); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if s.entries[a.Email].id != firstID {
		t.Error("unchanged subscription was rescheduled")
	}
	if s.entries[b.Email].sub.Hour != 18 {
		t.Error("changed subscription was not replaced")
	}
	if len(s.cron.Entries()) != 2 {
		t.Errorf("expected 2 cron entries, got %d", len(s.cron.Entries()))
	}

	src.set(a)
	if err := s.Reload(ctx); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if n := s.Entries(); n != 1 {
		t.Errorf("expected 1 entry after removal, got %d", n)
	}
	if len(s.cron.Entries()) != 1 {
		t.Errorf("expected 1 cron entry after removal, got %d", len(s.cron.Entries()))
	}
}

func TestReload_SourceError(t *testing.T) {
	src := &fakeSubs{err: errors.New("db locked")}
	s := NewScheduler(src, (&runRecorder{}).run, time.UTC, time.Minute, discardLogger())

	if err := s.Reload(context.Background()); err == nil {
		t.Fatal("expected error from failing source")
	}
}

func TestRun_ImmediatePassAndShutdown(t *testing.T) {
	src := &fakeSubs{subs: []model.AlertSubscription{model.DefaultSubscription("a@example.com")}}
	rec := &runRecorder{}
	s := NewScheduler(src, rec.run, time.UTC, time.Hour, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for rec.count() == 0 {
		select {
		case <-deadline:
			t.Fatal("immediate pass did not run")
		case <-time.After(10 * time.Millisecond):
		}
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

func TestShouldRun_LateCatchUpIsDueLaterNextDay(t *testing.T) {
	// Startup catch-up delivered at 15:00; the subscription's hour is 12.
	last := time.Date(2025, 3, 4, 15, 0, 0, 0, time.UTC)

	if ShouldRun(&last, model.FrequencyDaily, 12, time.Date(2025, 3, 5, 12, 0, 0, 0, time.UTC)) {
		t.Error("expected the 12:00 cron fire to be skipped, only 21h have passed")
	}
	if !ShouldRun(&last, model.FrequencyDaily, 12, time.Date(2025, 3, 5, 15, 0, 0, 0, time.UTC)) {
		t.Error("expected an interval pass later on day two to be due")
	}
}

func TestRun_IntervalTickRunsAllSubscriptions(t *testing.T) {
	a := model.DefaultSubscription("a@example.com")
	b := model.DefaultSubscription("b@example.com")
	src := &fakeSubs{subs: []model.AlertSubscription{a, b}}
	rec := &runRecorder{}
	s := NewScheduler(src, rec.run, time.UTC, 20*time.Millisecond, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	// Immediate pass plus at least two ticks.
	deadline := time.After(2 * time.Second)
	for rec.count() < 3 {
		select {
		case <-deadline:
			t.Fatalf("expected interval passes, got %d runs", rec.count())
		case <-time.After(10 * time.Millisecond):
		}
	}
	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run returned %v, want nil", err)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	for i, subs := range rec.runs {
		if len(subs) != 2 {
			t.Errorf("run %d got %d subscriptions, want 2", i, len(subs))
		}
	}
}
