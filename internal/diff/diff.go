// Package diff compares two snapshots of the job board.
package diff

import (
	"strings"
	"time"

	"github.com/amishk599/sitewatch/internal/model"
)

// Snapshots compares previous against current. Each result list is ordered
// by job ID; unchanged jobs appear in none of them.
func Snapshots(previous, current model.Snapshot) model.DiffResult {
	var result model.DiffResult

	for _, id := range current.IDs() {
		after, _ := current.Job(id)
		before, ok := previous.Job(id)
		if !ok {
			result.Added = append(result.Added, model.JobChange{JobID: id, After: &after})
			continue
		}
		if changes := Jobs(before, after); len(changes) > 0 {
			result.Modified = append(result.Modified, model.JobChange{
				JobID:   id,
				Before:  &before,
				After:   &after,
				Changes: changes,
			})
		}
	}

	for _, id := range previous.IDs() {
		if current.Has(id) {
			continue
		}
		before, _ := previous.Job(id)
		result.Removed = append(result.Removed, model.JobChange{JobID: id, Before: &before})
	}

	return result
}

// Jobs returns one FieldChange per tracked field that differs between old
// and cur, in model.TrackedFields order.
func Jobs(old, cur model.Job) []model.FieldChange {
	var changes []model.FieldChange
	for _, f := range model.TrackedFields {
		before := Value(old, f)
		after := Value(cur, f)
		if before != after {
			changes = append(changes, model.FieldChange{Field: f, Before: before, After: after})
		}
	}
	return changes
}

// Value returns the normalized, comparable value of field f: nil when absent
// (including blank strings), a string, or a float64. Dates are ISO strings.
func Value(j model.Job, f model.Field) any {
	switch f {
	case model.FieldTitle:
		return text(j.Title)
	case model.FieldEmployer:
		return text(j.Employer)
	case model.FieldCategory:
		return text(j.Category)
	case model.FieldClassification:
		return text(j.Classification)
	case model.FieldSubClassification:
		return text(j.SubClassification)
	case model.FieldJobType:
		return text(j.JobType)
	case model.FieldRegion:
		return text(j.Region)
	case model.FieldArea:
		return text(j.Area)
	case model.FieldSummary:
		return text(j.Summary)
	case model.FieldDescription:
		return text(j.Description)
	case model.FieldPayMin:
		return number(j.PayMin)
	case model.FieldPayMax:
		return number(j.PayMax)
	case model.FieldPostedDate:
		return date(j.PostedDate)
	case model.FieldStartDate:
		return date(j.StartDate)
	case model.FieldEndDate:
		return date(j.EndDate)
	}
	return nil
}

func text(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

func number(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func date(p *time.Time) any {
	if p == nil {
		return nil
	}
	return model.Day(*p).Format(time.DateOnly)
}
