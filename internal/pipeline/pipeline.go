// Package pipeline scores a diff and narrows it to what one subscriber
// should receive.
package pipeline

import (
	"github.com/amishk599/sitewatch/internal/model"
)

// Pipeline combines scoring with subscription filters. It holds no mutable
// state, so one instance can serve many subscriptions concurrently.
type Pipeline struct {
	scorer   *Scorer
	category string
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithCategory overrides the category that category-only subscriptions accept.
func WithCategory(category string) Option {
	return func(p *Pipeline) {
		if category != "" {
			p.category = category
		}
	}
}

// WithScorer replaces the default scorer.
func WithScorer(s *Scorer) Option {
	return func(p *Pipeline) {
		if s != nil {
			p.scorer = s
		}
	}
}

// New returns a Pipeline restricted to model.ICTCategory unless overridden.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		scorer:   NewScorer(nil),
		category: model.ICTCategory,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Category returns the restricted category value.
func (p *Pipeline) Category() string { return p.category }

// Run scores every change then applies, in order: the severity threshold,
// the added-job exclusion for HIGH-only subscribers, the region filter and
// the category filter. The added/removed/modified order is preserved. An
// empty result is a normal outcome.
func (p *Pipeline) Run(diff model.DiffResult, trends model.TrendReport, sub model.AlertSubscription) ([]model.ScoredChange, error) {
	scored, err := p.Score(diff, trends)
	if err != nil {
		return nil, err
	}
	return p.Filter(scored, sub), nil
}

// Score scores every change without applying any subscription filter.
func (p *Pipeline) Score(diff model.DiffResult, trends model.TrendReport) ([]model.ScoredChange, error) {
	return p.scorer.ScoreAll(diff, trends)
}

// Filter applies the subscription filters to already-scored changes.
func (p *Pipeline) Filter(scored []model.ScoredChange, sub model.AlertSubscription) []model.ScoredChange {
	out := make([]model.ScoredChange, 0, len(scored))
	for _, sc := range scored {
		if sc.Severity < sub.MinSeverity {
			continue
		}
		// HIGH-only subscribers do not want every new posting.
		if sub.MinSeverity == model.SeverityHigh && sc.Change.Kind() == model.ChangeAdded {
			continue
		}
		job := sc.Change.Relevant()
		if sub.Region != "" && (job == nil || job.Region != sub.Region) {
			continue
		}
		if sub.CategoryOnly && (job == nil || job.Category != p.category) {
			continue
		}
		out = append(out, sc)
	}
	return out
}
