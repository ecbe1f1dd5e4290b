package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amishk599/sitewatch/internal/model"
)

func scored(sev model.Severity, c model.JobChange) model.ScoredChange {
	return model.ScoredChange{Change: c, Severity: sev, Reason: "because"}
}

func added(id, title string) model.JobChange {
	return model.JobChange{JobID: id, After: &model.Job{ID: id, Title: title, Employer: "Agency", Region: "ACT"}}
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "SiteWatch — 0 update(s) [LOW]", Subject(nil))

	changes := []model.ScoredChange{
		scored(model.SeverityLow, added("a", "A")),
		scored(model.SeverityHigh, added("b", "B")),
		scored(model.SeverityMedium, added("c", "C")),
	}
	assert.Equal(t, "SiteWatch — 3 update(s) [HIGH]", Subject(changes))
}

func TestExplainField(t *testing.T) {
	tests := []struct {
		fc   model.FieldChange
		want string
	}{
		{model.FieldChange{Field: model.FieldRegion, After: "ACT"}, "region was added (ACT)"},
		{model.FieldChange{Field: model.FieldPayMax, Before: 90000.0}, "pay_max was removed (was 90000)"},
		{model.FieldChange{Field: model.FieldTitle, Before: "Dev", After: "Senior Dev"}, "title changed from Dev to Senior Dev"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExplainField(tt.fc))
	}
}

func TestCounts(t *testing.T) {
	changes := []model.ScoredChange{
		scored(model.SeverityLow, added("a", "A")),
		scored(model.SeverityLow, added("b", "B")),
		scored(model.SeverityHigh, added("c", "C")),
	}
	assert.Equal(t, []SeverityCount{
		{model.SeverityHigh, 1},
		{model.SeverityMedium, 0},
		{model.SeverityLow, 2},
	}, Counts(changes))
}

func TestTitleFallsBackToBefore(t *testing.T) {
	removed := model.JobChange{JobID: "x", Before: &model.Job{ID: "x", Title: "Old Role"}}
	assert.Equal(t, "Old Role", Title(removed))
	assert.Equal(t, "y", Title(model.JobChange{JobID: "y"}))
}

func TestText(t *testing.T) {
	modified := model.JobChange{
		JobID:  "m1",
		Before: &model.Job{ID: "m1", Title: "Dev"},
		After:  &model.Job{ID: "m1", Title: "Senior Dev"},
		Changes: []model.FieldChange{
			{Field: model.FieldTitle, Before: "Dev", After: "Senior Dev"},
		},
	}
	out, err := Text([]model.ScoredChange{
		scored(model.SeverityHigh, added("a1", "Cloud Engineer")),
		scored(model.SeverityMedium, modified),
	})
	require.NoError(t, err)

	assert.Contains(t, out, "SiteWatch detected 2 update(s). Highest severity: HIGH.")
	assert.Contains(t, out, "[HIGH] Cloud Engineer (a1, added)")
	assert.Contains(t, out, "Employer: Agency")
	assert.Contains(t, out, "[MEDIUM] Senior Dev (m1, modified)")
	assert.Contains(t, out, "- title changed from Dev to Senior Dev")
	assert.Contains(t, out, "Summary: HIGH=1 MEDIUM=1 LOW=0")
}

func TestHTMLEscapesJobContent(t *testing.T) {
	out, err := HTML([]model.ScoredChange{
		scored(model.SeverityHigh, added("h1", "<script>alert(1)</script>")),
	})
	require.NoError(t, err)

	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "&lt;script&gt;")
	assert.Contains(t, out, `class="severity-high"`)
	assert.True(t, strings.Contains(out, "HIGH: 1 | MEDIUM: 0 | LOW: 0"), out)
}
