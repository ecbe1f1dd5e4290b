package model

import (
	"slices"
	"time"
)

// TitleChange is a title difference between two consecutive analyzed days.
type TitleChange struct {
	JobID  string
	Before string
	After  string
	Day    time.Time
}

// SalaryChange is a pay range difference between two consecutive analyzed days.
type SalaryChange struct {
	JobID     string
	BeforeMin *float64
	AfterMin  *float64
	BeforeMax *float64
	AfterMax  *float64
	Day       time.Time
}

// TrendReport summarises presence and field history across snapshots.
// Id lists are sorted; change lists are chronological.
type TrendReport struct {
	Days           []time.Time // analyzed UTC days, ascending
	JobCountsByDay map[time.Time]int
	PersistentJobs []string
	NewJobs        []string
	RemovedJobs    []string
	TitleChanges   []TitleChange
	SalaryChanges  []SalaryChange
}

// HasSalaryChange reports whether any salary change was recorded for id.
func (r TrendReport) HasSalaryChange(id string) bool {
	return slices.ContainsFunc(r.SalaryChanges, func(c SalaryChange) bool { return c.JobID == id })
}

// HasTitleChange reports whether any title change was recorded for id.
func (r TrendReport) HasTitleChange(id string) bool {
	return slices.ContainsFunc(r.TitleChanges, func(c TitleChange) bool { return c.JobID == id })
}

// IsPersistent reports whether id was present on every analyzed day.
func (r TrendReport) IsPersistent(id string) bool {
	_, found := slices.BinarySearch(r.PersistentJobs, id)
	return found
}
