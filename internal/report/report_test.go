package report

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/amishk599/sitewatch/internal/model"
	"github.com/amishk599/sitewatch/internal/runner"
	"github.com/amishk599/sitewatch/internal/store"
)

func TestWriteSeveritySummary(t *testing.T) {
	var buf bytes.Buffer
	WriteSeveritySummary(&buf, []model.ScoredChange{
		{Severity: model.SeverityHigh},
		{Severity: model.SeverityLow},
		{Severity: model.SeverityLow},
	})
	assert.Equal(t, "HIGH: 1 | MEDIUM: 0 | LOW: 2\n", buf.String())

	buf.Reset()
	WriteSeveritySummary(&buf, nil)
	assert.Equal(t, "HIGH: 0 | MEDIUM: 0 | LOW: 0\n", buf.String())
}

func TestWriteTrendSummary(t *testing.T) {
	d1 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	d2 := d1.AddDate(0, 0, 1)
	r := model.TrendReport{
		Days:           []time.Time{d1, d2},
		JobCountsByDay: map[time.Time]int{d1: 4, d2: 5},
		PersistentJobs: []string{"a", "b"},
		NewJobs:        []string{"c"},
		TitleChanges:   []model.TitleChange{{JobID: "a", Before: "Dev", After: "Senior Dev", Day: d2}},
		SalaryChanges:  []model.SalaryChange{{JobID: "b", BeforeMin: model.Pay(90000), AfterMin: model.Pay(95000), Day: d2}},
	}

	var buf bytes.Buffer
	WriteTrendSummary(&buf, r)
	out := buf.String()

	for _, want := range []string{"2024-03-01", "2024-03-02", "Senior Dev", "90000 → 95000", "- → -"} {
		assert.Contains(t, out, want)
	}
}

func TestWriteTrendSummary_OmitsEmptyChangeTables(t *testing.T) {
	var buf bytes.Buffer
	WriteTrendSummary(&buf, model.TrendReport{})
	assert.NotContains(t, buf.String(), "Title changes")
	assert.NotContains(t, buf.String(), "Salary changes")
}

func TestWriteSubscriptions(t *testing.T) {
	sub := model.DefaultSubscription("ops@example.com")
	sub.Hour = 7

	var buf bytes.Buffer
	WriteSubscriptions(&buf, []model.AlertSubscription{sub})
	out := buf.String()

	assert.Contains(t, out, "ops@example.com")
	assert.Contains(t, out, "07:00")
	assert.Contains(t, out, "MEDIUM")
	assert.Contains(t, out, "any")
}

func TestWriteSnapshots(t *testing.T) {
	var buf bytes.Buffer
	WriteSnapshots(&buf, []store.SnapshotInfo{{CapturedAt: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC), Jobs: 12}})
	assert.Contains(t, buf.String(), "2024-03-01T09:00:00Z")
	assert.Contains(t, buf.String(), "12")
}

func TestWriteResults(t *testing.T) {
	var buf bytes.Buffer
	WriteResults(&buf, []runner.Result{
		{Email: "a@example.com", Status: runner.StatusDelivered, Changes: make([]model.ScoredChange, 3)},
		{Email: "b@example.com", Status: runner.StatusFailed, Changes: make([]model.ScoredChange, 2), Err: errors.New("smtp down")},
	})
	out := buf.String()

	assert.Contains(t, out, "a@example.com")
	assert.Contains(t, out, "smtp down")
	assert.True(t, strings.Count(out, "delivered") == 1, out)
}

func TestWriteGrowth(t *testing.T) {
	mk := func(day int, jobs ...model.Job) model.Snapshot {
		s, err := model.NewSnapshot(time.Date(2024, 3, day, 9, 0, 0, 0, time.UTC), jobs)
		if err != nil {
			t.Fatal(err)
		}
		return s
	}
	a := model.Job{ID: "a", Title: "A", Region: "ACT"}
	b := model.Job{ID: "b", Title: "B", Region: "NSW"}
	c := model.Job{ID: "c", Title: "C", Region: "NSW"}

	var buf bytes.Buffer
	WriteGrowth(&buf, []model.Snapshot{mk(1, a), mk(2, a, b, c)})
	out := buf.String()
	assert.Contains(t, out, "Growth")
	assert.Contains(t, out, "+2")
	assert.Contains(t, out, "NSW")
	assert.NotContains(t, out, "ACT", "unchanged regions are omitted")

	buf.Reset()
	WriteGrowth(&buf, []model.Snapshot{mk(1, a)})
	assert.Empty(t, buf.String())
}
