// Package runner evaluates the stored snapshot history and delivers alerts
// to subscribers: load, enrich, diff, trend, score, filter, deliver, record.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/amishk599/sitewatch/internal/diff"
	"github.com/amishk599/sitewatch/internal/filter"
	"github.com/amishk599/sitewatch/internal/model"
	"github.com/amishk599/sitewatch/internal/pipeline"
	"github.com/amishk599/sitewatch/internal/scheduler"
	"github.com/amishk599/sitewatch/internal/trend"
)

// Run statuses, matching what the run log stores.
const (
	StatusDelivered = "delivered"
	StatusEmpty     = "empty"
	StatusFailed    = "failed"
)

// Evaluation is the subscriber-independent part of a run.
type Evaluation struct {
	Ready     bool // false when fewer than two snapshots exist
	Snapshots int
	Previous  model.Snapshot
	Current   model.Snapshot
	Diff      model.DiffResult
	Trends    model.TrendReport
}

// Result is the outcome of one subscription's run.
type Result struct {
	Email   string
	Changes []model.ScoredChange
	Status  string
	Err     error
}

// Runner owns the full alert pipeline for every subscription.
type Runner struct {
	snapshots   model.SnapshotSource
	subs        model.SubscriptionSource
	runs        model.RunLog
	pipeline    *pipeline.Pipeline
	sink        model.AlertSink
	logger      *slog.Logger
	enrich      model.JobFilter
	historyDays int
	concurrency int
	location    *time.Location
	now         func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithEnrichment tags uncategorised jobs matching f with the pipeline's
// category before diffing.
func WithEnrichment(f model.JobFilter) Option {
	return func(r *Runner) { r.enrich = f }
}

// WithHistoryDays limits trend analysis to the last n calendar days. Zero
// uses the whole history.
func WithHistoryDays(n int) Option {
	return func(r *Runner) { r.historyDays = n }
}

// WithConcurrency sets how many subscriptions are processed in parallel.
func WithConcurrency(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithLocation sets the zone subscription hours are interpreted in.
func WithLocation(loc *time.Location) Option {
	return func(r *Runner) {
		if loc != nil {
			r.location = loc
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// New creates a runner wired with all its dependencies.
func New(
	snapshots model.SnapshotSource,
	subs model.SubscriptionSource,
	runs model.RunLog,
	p *pipeline.Pipeline,
	sink model.AlertSink,
	logger *slog.Logger,
	opts ...Option,
) *Runner {
	r := &Runner{
		snapshots:   snapshots,
		subs:        subs,
		runs:        runs,
		pipeline:    p,
		sink:        sink,
		logger:      logger,
		concurrency: 1,
		location:    time.Local,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Evaluate loads the snapshot history and computes the diff between the two
// most recent snapshots and trends over the configured window.
func (r *Runner) Evaluate(ctx context.Context) (*Evaluation, error) {
	snaps, err := r.snapshots.LoadSnapshots(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading snapshots: %w", err)
	}

	snaps = slices.Clone(snaps)
	if r.enrich != nil {
		for i, s := range snaps {
			if snaps[i], err = filter.Categorize(s, r.enrich, r.pipeline.Category()); err != nil {
				return nil, fmt.Errorf("enriching snapshot %s: %w", s.CapturedAt().Format(time.RFC3339), err)
			}
		}
	}

	slices.SortStableFunc(snaps, func(a, b model.Snapshot) int {
		return a.CapturedAt().Compare(b.CapturedAt())
	})

	eval := &Evaluation{Snapshots: len(snaps)}
	if len(snaps) < 2 {
		return eval, nil
	}

	eval.Ready = true
	eval.Previous, eval.Current = snaps[len(snaps)-2], snaps[len(snaps)-1]
	eval.Diff = diff.Snapshots(eval.Previous, eval.Current)
	eval.Trends = trend.Analyze(r.window(snaps))
	return eval, nil
}

// window returns the snapshots within historyDays calendar days of the latest.
func (r *Runner) window(snaps []model.Snapshot) []model.Snapshot {
	if r.historyDays <= 0 {
		return snaps
	}
	cutoff := model.Day(snaps[len(snaps)-1].CapturedAt()).AddDate(0, 0, -(r.historyDays - 1))
	i, _ := slices.BinarySearchFunc(snaps, cutoff, func(s model.Snapshot, t time.Time) int {
		return s.CapturedAt().Compare(t)
	})
	return snaps[i:]
}

// RunSubscription scores and filters eval for sub, delivers any changes and
// records the run. Failures are reported in the Result.
func (r *Runner) RunSubscription(ctx context.Context, eval *Evaluation, sub model.AlertSubscription) Result {
	res := Result{Email: sub.Email}

	changes, err := r.pipeline.Run(eval.Diff, eval.Trends, sub)
	if err != nil {
		res.Status, res.Err = StatusFailed, fmt.Errorf("scoring for %s: %w", sub.Email, err)
		r.record(ctx, res)
		return res
	}
	res.Changes = changes

	if len(changes) == 0 {
		res.Status = StatusEmpty
	} else if err := r.sink.Send(ctx, changes, sub); err != nil {
		res.Status, res.Err = StatusFailed, fmt.Errorf("delivering to %s: %w", sub.Email, err)
	} else {
		res.Status = StatusDelivered
	}

	r.record(ctx, res)
	r.logger.Info("subscription evaluated",
		"email", sub.Email,
		"diff", eval.Diff.Len(),
		"delivered", len(res.Changes),
		"status", res.Status,
	)
	return res
}

func (r *Runner) record(ctx context.Context, res Result) {
	delivered := 0
	if res.Status == StatusDelivered {
		delivered = len(res.Changes)
	}
	if err := r.runs.RecordRun(ctx, res.Email, r.now(), delivered, res.Status); err != nil {
		r.logger.Error("recording run failed", "email", res.Email, "error", err)
	}
}

// RunAll evaluates once and runs every given subscription, at most
// concurrency at a time. Results keep the order of subs. With fewer than two
// snapshots nothing runs and the returned evaluation is not ready.
func (r *Runner) RunAll(ctx context.Context, subs []model.AlertSubscription) (*Evaluation, []Result, error) {
	eval, err := r.Evaluate(ctx)
	if err != nil {
		return nil, nil, err
	}
	if !eval.Ready {
		r.logger.Info("not enough snapshots to compare", "snapshots", eval.Snapshots)
		return eval, nil, nil
	}
	if len(subs) == 0 {
		return eval, nil, nil
	}

	results := make([]Result, len(subs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, sub := range subs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i] = Result{Email: sub.Email, Status: StatusFailed, Err: err}
				return err
			}
			results[i] = r.RunSubscription(gctx, eval, sub)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return eval, results, fmt.Errorf("running subscriptions: %w", err)
	}
	return eval, results, nil
}

// Due returns the subscriptions in subs whose schedule says they should run
// at now.
func (r *Runner) Due(ctx context.Context, subs []model.AlertSubscription, now time.Time) ([]model.AlertSubscription, error) {
	local := now.In(r.location)
	var due []model.AlertSubscription
	for _, sub := range subs {
		last, err := r.runs.LastRun(ctx, sub.Email)
		if err != nil {
			return nil, fmt.Errorf("checking last run for %s: %w", sub.Email, err)
		}
		if scheduler.ShouldRun(last, sub.Frequency, sub.Hour, local) {
			due = append(due, sub)
		}
	}
	return due, nil
}

// RunDue runs every stored subscription that is due at now.
func (r *Runner) RunDue(ctx context.Context, now time.Time) (*Evaluation, []Result, error) {
	subs, err := r.subs.ListSubscriptions(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("listing subscriptions: %w", err)
	}
	due, err := r.Due(ctx, subs, now)
	if err != nil {
		return nil, nil, err
	}
	r.logger.Debug("due subscriptions", "total", len(subs), "due", len(due))
	if len(due) == 0 {
		return nil, nil, nil
	}
	return r.RunAll(ctx, due)
}

// Subscriptions lists all stored subscriptions.
func (r *Runner) Subscriptions(ctx context.Context) ([]model.AlertSubscription, error) {
	return r.subs.ListSubscriptions(ctx)
}
