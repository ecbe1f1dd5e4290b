package pipeline

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amishk599/sitewatch/internal/diff"
	"github.com/amishk599/sitewatch/internal/model"
	"github.com/amishk599/sitewatch/internal/severity"
	"github.com/amishk599/sitewatch/internal/trend"
)

func job(id, region, category string) *model.Job {
	return &model.Job{ID: id, Title: "Engineer " + id, Region: region, Category: category}
}

func subscription(minSev model.Severity) model.AlertSubscription {
	sub := model.DefaultSubscription("dev@example.com")
	sub.CategoryOnly = false
	sub.MinSeverity = minSev
	return sub
}

func sampleDiff() model.DiffResult {
	return model.DiffResult{
		Added: []model.JobChange{
			{JobID: "a1", After: job("a1", "Auckland", model.ICTCategory)},
		},
		Removed: []model.JobChange{
			{JobID: "r1", Before: job("r1", "Auckland", model.ICTCategory)},
			{JobID: "r2", Before: job("r2", "Wellington", "Retail")},
		},
		Modified: []model.JobChange{
			{
				JobID:   "m1",
				Before:  job("m1", "Auckland", "Retail"),
				After:   job("m1", "Auckland", model.ICTCategory),
				Changes: []model.FieldChange{{Field: model.FieldCategory, Before: "Retail", After: model.ICTCategory}},
			},
			{
				JobID:   "m2",
				Before:  job("m2", "auckland", model.ICTCategory),
				After:   job("m2", "auckland", model.ICTCategory),
				Changes: []model.FieldChange{{Field: model.FieldSummary, Before: nil, After: "x"}},
			},
		},
	}
}

func ids(scored []model.ScoredChange) []string {
	out := make([]string, 0, len(scored))
	for _, sc := range scored {
		out = append(out, sc.Change.JobID)
	}
	return out
}

func TestRun_PreservesConcatenationOrder(t *testing.T) {
	got, err := New().Run(sampleDiff(), model.TrendReport{}, subscription(model.SeverityLow))
	require.NoError(t, err)

	assert.Equal(t, []string{"a1", "r1", "r2", "m1", "m2"}, ids(got))
	assert.Equal(t, model.SeverityHigh, got[0].Severity)
	assert.Equal(t, severity.ReasonAdded, got[0].Reason)
	assert.Equal(t, model.SeverityLow, got[4].Severity)
}

func TestRun_SeverityThreshold(t *testing.T) {
	got, err := New().Run(sampleDiff(), model.TrendReport{}, subscription(model.SeverityMedium))
	require.NoError(t, err)

	assert.Equal(t, []string{"a1", "r1", "r2"}, ids(got))
}

func TestRun_HighOnlyExcludesAddedJobs(t *testing.T) {
	d := sampleDiff()
	trends := model.TrendReport{SalaryChanges: []model.SalaryChange{{JobID: "m1"}}}

	got, err := New().Run(d, trends, subscription(model.SeverityHigh))
	require.NoError(t, err)

	assert.Equal(t, []string{"m1"}, ids(got))
}

func TestRun_RegionIsExactAndUsesBeforeForRemoved(t *testing.T) {
	sub := subscription(model.SeverityLow)
	sub.Region = "Auckland"

	got, err := New().Run(sampleDiff(), model.TrendReport{}, sub)
	require.NoError(t, err)

	// m2 is "auckland" (lowercase) and r2 is Wellington.
	assert.Equal(t, []string{"a1", "r1", "m1"}, ids(got))
}

func TestRun_CategoryOnly(t *testing.T) {
	sub := subscription(model.SeverityLow)
	sub.CategoryOnly = true

	got, err := New().Run(sampleDiff(), model.TrendReport{}, sub)
	require.NoError(t, err)
	assert.Equal(t, []string{"a1", "r1", "m1", "m2"}, ids(got))

	got, err = New(WithCategory("Retail")).Run(sampleDiff(), model.TrendReport{}, sub)
	require.NoError(t, err)
	assert.Equal(t, []string{"r2"}, ids(got))
}

func TestRun_EmptyDiff(t *testing.T) {
	got, err := New().Run(model.DiffResult{}, model.TrendReport{}, subscription(model.SeverityLow))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRun_UntrackedFieldIsAnError(t *testing.T) {
	d := model.DiffResult{Modified: []model.JobChange{{
		JobID:   "m1",
		Before:  job("m1", "Auckland", model.ICTCategory),
		After:   job("m1", "Auckland", model.ICTCategory),
		Changes: []model.FieldChange{{Field: "salary", Before: 1.0, After: 2.0}},
	}}}

	_, err := New().Run(d, model.TrendReport{}, subscription(model.SeverityLow))
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrUntrackedField))
}

func TestRun_EndToEndHighOnlySalaryChange(t *testing.T) {
	start := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)

	y0 := model.Job{ID: "Y", Title: "Platform Engineer", PayMin: model.Pay(100000)}
	y1 := model.Job{ID: "Y", Title: "Platform Engineer", PayMin: model.Pay(110000)}
	x := model.Job{ID: "X", Title: "Data Engineer"}

	prev, err := model.NewSnapshot(start, []model.Job{y0})
	require.NoError(t, err)
	curr, err := model.NewSnapshot(start.AddDate(0, 0, 1), []model.Job{y1, x})
	require.NoError(t, err)

	d := diff.Snapshots(prev, curr)
	trends := trend.Analyze([]model.Snapshot{prev, curr})

	scored, err := NewScorer(nil).ScoreAll(d, trends)
	require.NoError(t, err)
	require.Len(t, scored, 2)
	assert.Equal(t, model.SeverityHigh, scored[0].Severity) // X, added
	assert.Equal(t, model.SeverityHigh, scored[1].Severity) // Y, salary

	got, err := New().Run(d, trends, subscription(model.SeverityHigh))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Y", got[0].Change.JobID)
	assert.Equal(t, "Salary changed on an existing job", got[0].Reason)
}

func TestRun_ConcurrentSubscriptions(t *testing.T) {
	p := New()
	d := sampleDiff()

	subs := []model.AlertSubscription{
		subscription(model.SeverityLow),
		subscription(model.SeverityMedium),
		subscription(model.SeverityHigh),
	}
	want := make([][]string, len(subs))
	for i, s := range subs {
		got, err := p.Run(d, model.TrendReport{}, s)
		require.NoError(t, err)
		want[i] = ids(got)
	}

	var wg sync.WaitGroup
	results := make([][]string, len(subs))
	for i, s := range subs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, _ := p.Run(d, model.TrendReport{}, s)
			results[i] = ids(got)
		}()
	}
	wg.Wait()

	assert.Equal(t, want, results)
	assert.Len(t, d.Added, 1, "input diff must not be modified")
}
