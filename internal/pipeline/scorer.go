package pipeline

import (
	"fmt"

	"github.com/amishk599/sitewatch/internal/model"
	"github.com/amishk599/sitewatch/internal/severity"
)

// Scorer turns every change of a diff into a ScoredChange. It knows nothing
// about subscriptions or sinks.
type Scorer struct {
	calc *severity.Calculator
}

// NewScorer returns a Scorer backed by calc, or a default Calculator if nil.
func NewScorer(calc *severity.Calculator) *Scorer {
	if calc == nil {
		calc = severity.NewCalculator()
	}
	return &Scorer{calc: calc}
}

// ScoreAll scores added, removed, then modified changes, preserving that order.
func (s *Scorer) ScoreAll(diff model.DiffResult, trends model.TrendReport) ([]model.ScoredChange, error) {
	idx := severity.NewIndex(trends)
	changes := diff.All()

	scored := make([]model.ScoredChange, 0, len(changes))
	for _, c := range changes {
		if err := checkFields(c); err != nil {
			return nil, err
		}
		sev, reason := s.calc.ScoreIndexed(c, idx)
		scored = append(scored, model.ScoredChange{Change: c, Severity: sev, Reason: reason})
	}
	return scored, nil
}

func checkFields(c model.JobChange) error {
	for _, fc := range c.Changes {
		if !model.IsTracked(fc.Field) {
			return fmt.Errorf("scoring job %s: %w %q", c.JobID, model.ErrUntrackedField, fc.Field)
		}
	}
	return nil
}
