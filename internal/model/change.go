package model

// Field names a tracked job attribute.
type Field string

const (
	FieldTitle             Field = "title"
	FieldEmployer          Field = "employer"
	FieldCategory          Field = "category"
	FieldClassification    Field = "classification"
	FieldSubClassification Field = "sub_classification"
	FieldJobType           Field = "job_type"
	FieldRegion            Field = "region"
	FieldArea              Field = "area"
	FieldSummary           Field = "summary"
	FieldDescription       Field = "description"
	FieldPayMin            Field = "pay_min"
	FieldPayMax            Field = "pay_max"
	FieldPostedDate        Field = "posted_date"
	FieldStartDate         Field = "start_date"
	FieldEndDate           Field = "end_date"
)

// TrackedFields is the fixed comparison order used when diffing two jobs.
var TrackedFields = []Field{
	FieldTitle,
	FieldEmployer,
	FieldCategory,
	FieldClassification,
	FieldSubClassification,
	FieldJobType,
	FieldRegion,
	FieldArea,
	FieldSummary,
	FieldDescription,
	FieldPayMin,
	FieldPayMax,
	FieldPostedDate,
	FieldStartDate,
	FieldEndDate,
}

// IsTracked reports whether f is one of TrackedFields.
func IsTracked(f Field) bool {
	for _, t := range TrackedFields {
		if t == f {
			return true
		}
	}
	return false
}

// FieldChange records a differing field. Before and After hold nil (absent),
// a string, or a float64; dates are ISO strings.
type FieldChange struct {
	Field  Field
	Before any
	After  any
}

// ChangeKind classifies a JobChange.
type ChangeKind int

const (
	ChangeAdded ChangeKind = iota + 1
	ChangeRemoved
	ChangeModified
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeAdded:
		return "added"
	case ChangeRemoved:
		return "removed"
	case ChangeModified:
		return "modified"
	}
	return "unknown"
}

// JobChange describes what happened to one job between two snapshots.
// Before is nil for added jobs, After is nil for removed jobs.
type JobChange struct {
	JobID   string
	Before  *Job
	After   *Job
	Changes []FieldChange
}

// Kind derives the change kind from which sides are present.
func (c JobChange) Kind() ChangeKind {
	switch {
	case c.Before == nil && c.After != nil:
		return ChangeAdded
	case c.Before != nil && c.After == nil:
		return ChangeRemoved
	default:
		return ChangeModified
	}
}

// Relevant returns the job used for subscription filtering: After if
// present, else Before.
func (c JobChange) Relevant() *Job {
	if c.After != nil {
		return c.After
	}
	return c.Before
}

// DiffResult groups the changes between two snapshots.
type DiffResult struct {
	Added    []JobChange
	Removed  []JobChange
	Modified []JobChange
}

// All returns added, removed and modified changes in that order.
func (d DiffResult) All() []JobChange {
	out := make([]JobChange, 0, d.Len())
	out = append(out, d.Added...)
	out = append(out, d.Removed...)
	out = append(out, d.Modified...)
	return out
}

func (d DiffResult) Len() int {
	return len(d.Added) + len(d.Removed) + len(d.Modified)
}

func (d DiffResult) IsEmpty() bool {
	return d.Len() == 0
}

// ScoredChange is a JobChange annotated with its severity and the rule that
// produced it.
type ScoredChange struct {
	Change   JobChange
	Severity Severity
	Reason   string
}
