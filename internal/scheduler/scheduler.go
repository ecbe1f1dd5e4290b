package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/amishk599/sitewatch/internal/model"
)

// RunFunc evaluates and delivers alerts for the given subscriptions.
type RunFunc func(ctx context.Context, subs []model.AlertSubscription)

type entry struct {
	id  cron.EntryID
	sub model.AlertSubscription
}

// Scheduler owns the main loop: one cron entry per subscription firing at its
// hour, plus a pass over every subscription on each interval tick so runs
// missed at the cron hour (late catch-up, failed delivery) happen later that
// day. Passes never overlap.
type Scheduler struct {
	subs     model.SubscriptionSource
	run      RunFunc
	interval time.Duration
	logger   *slog.Logger

	cron    *cron.Cron
	passMu  sync.Mutex
	mu      sync.Mutex
	entries map[string]entry
	ctx     context.Context
}

// NewScheduler creates a scheduler that interprets subscription hours in loc
// and re-reads subscriptions every interval.
func NewScheduler(subs model.SubscriptionSource, run RunFunc, loc *time.Location, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		subs:     subs,
		run:      run,
		interval: interval,
		logger:   logger,
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithChain(cron.Recover(cron.DefaultLogger)),
		),
		entries: make(map[string]entry),
		ctx:     context.Background(),
	}
}

// Run registers all subscriptions, runs one immediate pass over them, then
// blocks until ctx is cancelled. Running jobs are allowed to finish before
// Run returns nil (graceful shutdown).
func (s *Scheduler) Run(ctx context.Context) error {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	subs, err := s.reload(ctx)
	if err != nil {
		return err
	}

	s.logger.Info("starting scheduler",
		"check_interval", s.interval.String(),
		"subscriptions", len(subs),
	)
	s.cron.Start()

	// Catch up on anything missed while the process was down.
	s.pass(ctx, subs)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("shutting down scheduler")
			<-s.cron.Stop().Done()
			return nil
		case <-ticker.C:
			subs, err := s.reload(ctx)
			if err != nil {
				s.logger.Error("reloading subscriptions failed", "error", err)
				continue
			}
			s.pass(ctx, subs)
		}
	}
}

// Reload syncs cron entries with the current subscriptions: new ones are
// added, changed ones replaced and removed ones dropped.
func (s *Scheduler) Reload(ctx context.Context) error {
	_, err := s.reload(ctx)
	return err
}

func (s *Scheduler) reload(ctx context.Context) ([]model.AlertSubscription, error) {
	subs, err := s.subs.ListSubscriptions(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current := make(map[string]bool, len(subs))
	for _, sub := range subs {
		current[sub.Email] = true
		if e, ok := s.entries[sub.Email]; ok {
			if e.sub == sub {
				continue
			}
			s.cron.Remove(e.id)
		}

		sub := sub
		spec := CronSpec(sub)
		id, err := s.cron.AddFunc(spec, func() { s.fire(sub) })
		if err != nil {
			s.logger.Error("scheduling subscription failed", "email", sub.Email, "spec", spec, "error", err)
			delete(s.entries, sub.Email)
			continue
		}
		s.entries[sub.Email] = entry{id: id, sub: sub}
		s.logger.Debug("scheduled subscription", "email", sub.Email, "spec", spec)
	}

	for email, e := range s.entries {
		if !current[email] {
			s.cron.Remove(e.id)
			delete(s.entries, email)
			s.logger.Debug("unscheduled subscription", "email", email)
		}
	}
	return subs, nil
}

func (s *Scheduler) fire(sub model.AlertSubscription) {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()
	if ctx.Err() != nil {
		return
	}
	s.pass(ctx, []model.AlertSubscription{sub})
}

// pass calls the run function, one pass at a time.
func (s *Scheduler) pass(ctx context.Context, subs []model.AlertSubscription) {
	s.passMu.Lock()
	defer s.passMu.Unlock()
	s.run(ctx, subs)
}

// Entries returns the number of scheduled subscriptions.
func (s *Scheduler) Entries() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
