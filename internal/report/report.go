// Package report prints trend, subscription and run summaries as tables.
package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/amishk599/sitewatch/internal/model"
	"github.com/amishk599/sitewatch/internal/render"
	"github.com/amishk599/sitewatch/internal/runner"
	"github.com/amishk599/sitewatch/internal/store"
	"github.com/amishk599/sitewatch/internal/trend"
)

func newTable(w io.Writer, title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	if title != "" {
		t.SetTitle(title)
	}
	return t
}

// WriteTrendSummary prints job counts per day, presence counts and the
// title and salary changes found across the analyzed days.
func WriteTrendSummary(w io.Writer, r model.TrendReport) {
	days := newTable(w, "Jobs per day")
	days.AppendHeader(table.Row{"Day", "Jobs"})
	for _, d := range r.Days {
		days.AppendRow(table.Row{d.Format(time.DateOnly), r.JobCountsByDay[d]})
	}
	days.Render()

	presence := newTable(w, "Presence")
	presence.AppendHeader(table.Row{"Persistent", "New", "Removed"})
	presence.AppendRow(table.Row{len(r.PersistentJobs), len(r.NewJobs), len(r.RemovedJobs)})
	presence.Render()

	if len(r.TitleChanges) > 0 {
		titles := newTable(w, "Title changes")
		titles.AppendHeader(table.Row{"Day", "Job", "Before", "After"})
		for _, c := range r.TitleChanges {
			titles.AppendRow(table.Row{c.Day.Format(time.DateOnly), c.JobID, c.Before, c.After})
		}
		titles.Render()
	}

	if len(r.SalaryChanges) > 0 {
		salaries := newTable(w, "Salary changes")
		salaries.AppendHeader(table.Row{"Day", "Job", "Min", "Max"})
		for _, c := range r.SalaryChanges {
			salaries.AppendRow(table.Row{
				c.Day.Format(time.DateOnly),
				c.JobID,
				payChange(c.BeforeMin, c.AfterMin),
				payChange(c.BeforeMax, c.AfterMax),
			})
		}
		salaries.Render()
	}
}

// WriteGrowth prints job count movement over snapshots (oldest first): the
// change since the previous snapshot, the rolling week, total churn and the
// per-region deltas of the latest step.
func WriteGrowth(w io.Writer, snapshots []model.Snapshot) {
	if len(snapshots) < 2 {
		return
	}
	prev, curr := snapshots[len(snapshots)-2], snapshots[len(snapshots)-1]

	t := newTable(w, "Growth")
	t.AppendHeader(table.Row{"Jobs", "Since previous", "Last 7 snapshots", "Churn"})
	t.AppendRow(table.Row{
		trend.Total(curr),
		signed(trend.Growth(prev, curr)),
		signed(trend.RollingGrowth(snapshots, 7)),
		trend.RollingChurn(snapshots),
	})
	t.Render()

	delta := trend.RegionGrowth(prev, curr)
	if len(delta) == 0 {
		return
	}
	regions := make([]string, 0, len(delta))
	for r := range delta {
		regions = append(regions, r)
	}
	sort.Strings(regions)

	rt := newTable(w, "Region growth")
	rt.AppendHeader(table.Row{"Region", "Change"})
	for _, r := range regions {
		name := r
		if name == "" {
			name = "(none)"
		}
		rt.AppendRow(table.Row{name, signed(delta[r])})
	}
	rt.Render()
}

// WriteSubscriptions prints one row per subscription.
func WriteSubscriptions(w io.Writer, subs []model.AlertSubscription) {
	t := newTable(w, "")
	t.AppendHeader(table.Row{"Email", "Region", "ICT only", "Min severity", "Frequency", "Hour"})
	for _, s := range subs {
		region := s.Region
		if region == "" {
			region = "any"
		}
		t.AppendRow(table.Row{s.Email, region, yesNo(s.CategoryOnly), s.MinSeverity.String(), string(s.Frequency), fmt.Sprintf("%02d:00", s.Hour)})
	}
	t.AppendFooter(table.Row{"Total", len(subs)})
	t.Render()
}

// WriteSnapshots prints stored snapshots with their job counts.
func WriteSnapshots(w io.Writer, infos []store.SnapshotInfo) {
	t := newTable(w, "")
	t.AppendHeader(table.Row{"#", "Captured at", "Jobs"})
	for i, info := range infos {
		t.AppendRow(table.Row{i + 1, info.CapturedAt.Format(time.RFC3339), info.Jobs})
	}
	t.Render()
}

// WriteChanges prints scored changes, one row per job.
func WriteChanges(w io.Writer, changes []model.ScoredChange) {
	t := newTable(w, "")
	t.AppendHeader(table.Row{"Severity", "Kind", "Job", "Title", "Reason"})
	for _, c := range changes {
		t.AppendRow(table.Row{c.Severity.String(), c.Change.Kind().String(), c.Change.JobID, render.Title(c.Change), c.Reason})
	}
	t.Render()
}

// WriteResults prints the outcome of each subscription run.
func WriteResults(w io.Writer, results []runner.Result) {
	t := newTable(w, "")
	t.AppendHeader(table.Row{"Email", "Status", "Delivered", "Error"})
	for _, r := range results {
		errText := ""
		if r.Err != nil {
			errText = r.Err.Error()
		}
		delivered := 0
		if r.Status == runner.StatusDelivered {
			delivered = len(r.Changes)
		}
		t.AppendRow(table.Row{r.Email, r.Status, delivered, errText})
	}
	t.Render()
}

// WriteSeveritySummary prints a one-line count per level, e.g.
// "HIGH: 1 | MEDIUM: 0 | LOW: 3".
func WriteSeveritySummary(w io.Writer, changes []model.ScoredChange) {
	counts := render.Counts(changes)
	for i, c := range counts {
		if i > 0 {
			fmt.Fprint(w, " | ")
		}
		fmt.Fprintf(w, "%s: %d", c.Severity, c.Count)
	}
	fmt.Fprintln(w)
}

func payChange(before, after *float64) string {
	return pay(before) + " → " + pay(after)
}

func pay(p *float64) string {
	if p == nil {
		return "-"
	}
	return strconv.FormatFloat(*p, 'f', -1, 64)
}

func signed(n int) string {
	if n > 0 {
		return "+" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
