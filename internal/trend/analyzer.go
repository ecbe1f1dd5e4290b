// Package trend extracts multi-day history from a series of snapshots.
package trend

import (
	"cmp"
	"slices"
	"sort"
	"time"

	"github.com/amishk599/sitewatch/internal/model"
)

// day is one analyzed calendar day, represented by the latest snapshot
// captured on it.
type day struct {
	date     time.Time
	snapshot model.Snapshot
}

// Analyze walks the snapshots in capture order and builds a TrendReport.
// Title and salary events compare every pair of consecutive snapshots, so
// two captures on the same day still yield events. Counts and presence use
// the latest snapshot of each day. An empty input yields an empty report.
func Analyze(snapshots []model.Snapshot) model.TrendReport {
	report := model.TrendReport{JobCountsByDay: map[time.Time]int{}}

	sorted := slices.Clone(snapshots)
	slices.SortStableFunc(sorted, func(a, b model.Snapshot) int {
		return a.CapturedAt().Compare(b.CapturedAt())
	})
	if len(sorted) == 0 {
		return report
	}

	var previous map[string]model.Job
	for _, snap := range sorted {
		current := ownedJobs(snap)
		changedOn := model.Day(snap.CapturedAt())
		for _, id := range snap.IDs() {
			prev, ok := previous[id]
			if !ok {
				continue
			}
			job := current[id]
			if job.Title != prev.Title {
				report.TitleChanges = append(report.TitleChanges, model.TitleChange{
					JobID:  id,
					Before: prev.Title,
					After:  job.Title,
					Day:    changedOn,
				})
			}
			if !samePay(prev.PayMin, job.PayMin) || !samePay(prev.PayMax, job.PayMax) {
				report.SalaryChanges = append(report.SalaryChanges, model.SalaryChange{
					JobID:     id,
					BeforeMin: prev.PayMin,
					AfterMin:  job.PayMin,
					BeforeMax: prev.PayMax,
					AfterMax:  job.PayMax,
					Day:       changedOn,
				})
			}
		}

		// current was built from copies, so nothing below can reach back
		// into the snapshot that produced it.
		previous = current
	}

	days := collapseByDay(sorted)
	presence := make(map[string][]int) // job id -> ascending day indices
	for i, d := range days {
		report.Days = append(report.Days, d.date)
		report.JobCountsByDay[d.date] = d.snapshot.Len()
		for _, id := range d.snapshot.IDs() {
			presence[id] = append(presence[id], i)
		}
	}

	last := len(days) - 1
	for id, present := range presence {
		gap := hasGap(present)
		first := present[0] == 0
		final := present[len(present)-1] == last

		if len(present) == len(days) {
			report.PersistentJobs = append(report.PersistentJobs, id)
		}
		if final && (!first || gap) {
			report.NewJobs = append(report.NewJobs, id)
		}
		if !final || gap {
			report.RemovedJobs = append(report.RemovedJobs, id)
		}
	}
	sort.Strings(report.PersistentJobs)
	sort.Strings(report.NewJobs)
	sort.Strings(report.RemovedJobs)

	return report
}

// collapseByDay keeps the latest of each UTC calendar day from snapshots
// already sorted by capture time.
func collapseByDay(sorted []model.Snapshot) []day {
	var days []day
	for _, s := range sorted {
		d := model.Day(s.CapturedAt())
		if n := len(days); n > 0 && days[n-1].date.Equal(d) {
			days[n-1].snapshot = s
			continue
		}
		days = append(days, day{date: d, snapshot: s})
	}
	return days
}

func ownedJobs(s model.Snapshot) map[string]model.Job {
	jobs := s.Jobs()
	m := make(map[string]model.Job, len(jobs))
	for _, j := range jobs {
		m[j.ID] = j
	}
	return m
}

// hasGap reports whether the ascending day indices are non-contiguous.
func hasGap(present []int) bool {
	return present[len(present)-1]-present[0]+1 != len(present)
}

func samePay(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return cmp.Compare(*a, *b) == 0
}
