package scheduler

import (
	"fmt"
	"time"

	"github.com/amishk599/sitewatch/internal/model"
)

// ShouldRun reports whether a subscription with the given cadence is due at
// now. Times are compared in now's location.
//
// A subscription that has never run is always due. Daily subscriptions need
// at least 23h since the last run, a different calendar day, and now past the
// target hour. Weekly subscriptions need at least six days since the last
// run, a Monday, and now past the target hour.
func ShouldRun(lastRun *time.Time, freq model.Frequency, hour int, now time.Time) bool {
	if lastRun == nil {
		return true
	}
	last := lastRun.In(now.Location())
	gap := now.Sub(last)

	switch freq {
	case model.FrequencyDaily:
		return gap >= 23*time.Hour && now.Hour() >= hour && !sameDay(last, now)
	case model.FrequencyWeekly:
		return gap >= 6*24*time.Hour && now.Weekday() == time.Monday && now.Hour() >= hour
	}
	return false
}

// CronSpec returns the cron expression that fires at the top of the
// subscription's hour: every day, or every Monday for weekly subscriptions.
func CronSpec(sub model.AlertSubscription) string {
	if sub.Frequency == model.FrequencyWeekly {
		return fmt.Sprintf("0 %d * * 1", sub.Hour)
	}
	return fmt.Sprintf("0 %d * * *", sub.Hour)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
