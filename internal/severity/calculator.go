// Package severity assigns an alert severity to a single job change.
package severity

import (
	"github.com/amishk599/sitewatch/internal/model"
)

const (
	ReasonAdded            = "New job posting detected"
	ReasonRemoved          = "Job posting was removed"
	ReasonSalaryChanged    = "Salary changed on an existing job"
	ReasonTitleLongRunning = "Title changed on a long-running job"
	ReasonTitleRecent      = "Title changed on a recent job"
	ReasonLongRunning      = "Update detected on a long-running job"
	ReasonRoutine          = "Minor or routine update"
)

// Calculator scores changes using the diff itself plus multi-day trend
// context. It holds no state between calls.
type Calculator struct{}

// NewCalculator returns a Calculator.
func NewCalculator() *Calculator {
	return &Calculator{}
}

// Score applies the rules in order; the first match wins.
func (c *Calculator) Score(change model.JobChange, trends model.TrendReport) (model.Severity, string) {
	return c.ScoreIndexed(change, NewIndex(trends))
}

// ScoreIndexed is Score against a precomputed Index, for scoring many
// changes against the same report.
func (c *Calculator) ScoreIndexed(change model.JobChange, idx Index) (model.Severity, string) {
	id := change.JobID

	switch change.Kind() {
	case model.ChangeAdded:
		return model.SeverityHigh, ReasonAdded
	case model.ChangeRemoved:
		return model.SeverityMedium, ReasonRemoved
	}

	if idx.salary[id] {
		return model.SeverityHigh, ReasonSalaryChanged
	}
	if idx.title[id] {
		if idx.persistent[id] {
			return model.SeverityHigh, ReasonTitleLongRunning
		}
		return model.SeverityMedium, ReasonTitleRecent
	}
	if idx.persistent[id] {
		return model.SeverityMedium, ReasonLongRunning
	}
	return model.SeverityLow, ReasonRoutine
}

// Index is a set view over the job IDs a TrendReport mentions.
type Index struct {
	salary     map[string]bool
	title      map[string]bool
	persistent map[string]bool
}

// NewIndex builds lookup sets from trends.
func NewIndex(trends model.TrendReport) Index {
	idx := Index{
		salary:     make(map[string]bool, len(trends.SalaryChanges)),
		title:      make(map[string]bool, len(trends.TitleChanges)),
		persistent: make(map[string]bool, len(trends.PersistentJobs)),
	}
	for _, sc := range trends.SalaryChanges {
		idx.salary[sc.JobID] = true
	}
	for _, tc := range trends.TitleChanges {
		idx.title[tc.JobID] = true
	}
	for _, id := range trends.PersistentJobs {
		idx.persistent[id] = true
	}
	return idx
}
