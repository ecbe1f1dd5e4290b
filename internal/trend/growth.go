package trend

import (
	"github.com/amishk599/sitewatch/internal/model"
)

// Total returns the number of jobs in a snapshot.
func Total(s model.Snapshot) int {
	return s.Len()
}

// Growth is the change in job count from prev to curr.
func Growth(prev, curr model.Snapshot) int {
	return curr.Len() - prev.Len()
}

// RegionGrowth returns the per-region change in job count. Regions whose
// count did not change are omitted. Jobs without a region count under "".
func RegionGrowth(prev, curr model.Snapshot) map[string]int {
	delta := make(map[string]int)
	for _, j := range prev.Jobs() {
		delta[j.Region]--
	}
	for _, j := range curr.Jobs() {
		delta[j.Region]++
	}
	for region, n := range delta {
		if n == 0 {
			delete(delta, region)
		}
	}
	return delta
}

// RollingGrowth is the job count change across the last days+1 snapshots.
func RollingGrowth(snapshots []model.Snapshot, days int) int {
	if len(snapshots) < 2 || days <= 0 {
		return 0
	}
	start := max(len(snapshots)-1-days, 0)
	return Growth(snapshots[start], snapshots[len(snapshots)-1])
}

// RollingChurn sums jobs added and removed between consecutive snapshots.
func RollingChurn(snapshots []model.Snapshot) int {
	churn := 0
	for i := 1; i < len(snapshots); i++ {
		prev, curr := snapshots[i-1], snapshots[i]
		for _, id := range curr.IDs() {
			if !prev.Has(id) {
				churn++
			}
		}
		for _, id := range prev.IDs() {
			if !curr.Has(id) {
				churn++
			}
		}
	}
	return churn
}
