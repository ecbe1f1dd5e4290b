package filter

import (
	"testing"
	"time"

	"github.com/amishk599/sitewatch/internal/model"
)

func job(title, summary string) model.Job {
	return model.Job{ID: title, Title: title, Summary: summary}
}

func TestICTKeywordFilter_Match(t *testing.T) {
	tests := []struct {
		name      string
		keywords  []string
		job       model.Job
		wantMatch bool
	}{
		{
			name:      "title keyword",
			keywords:  []string{"developer"},
			job:       job("Senior Developer", ""),
			wantMatch: true,
		},
		{
			name:      "summary keyword",
			keywords:  []string{"cloud"},
			job:       job("Platform Lead", "Own our cloud migration"),
			wantMatch: true,
		},
		{
			name:      "case insensitive matching",
			keywords:  []string{"DEVOPS"},
			job:       job("DevOps Engineer", ""),
			wantMatch: true,
		},
		{
			name:      "short keyword respects word boundaries",
			keywords:  []string{"it"},
			job:       job("Security Officer", "Site security"),
			wantMatch: false,
		},
		{
			name:      "short keyword as a word",
			keywords:  []string{"it"},
			job:       job("IT Support Officer", ""),
			wantMatch: true,
		},
		{
			name:      "phrase keyword",
			keywords:  []string{"information technology"},
			job:       job("Manager, Information-Technology", ""),
			wantMatch: true,
		},
		{
			name:      "no keywords match",
			keywords:  []string{"software", "network"},
			job:       job("Policy Officer", "Draft briefs"),
			wantMatch: false,
		},
		{
			name:      "empty keyword list matches nothing",
			keywords:  []string{"", "  "},
			job:       job("Software Engineer", ""),
			wantMatch: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewICTKeywordFilter(tt.keywords)
			got := f.Match(tt.job)
			if got != tt.wantMatch {
				t.Errorf("Match() = %v, want %v", got, tt.wantMatch)
			}
		})
	}
}

func TestCategorize(t *testing.T) {
	captured := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	tagged := model.Job{ID: "a", Title: "Software Engineer"}
	other := model.Job{ID: "b", Title: "Policy Officer"}
	kept := model.Job{ID: "c", Title: "Data Analyst", Category: "Finance"}

	snap, err := model.NewSnapshot(captured, []model.Job{tagged, other, kept})
	if err != nil {
		t.Fatalf("NewSnapshot: %v", err)
	}

	got, err := Categorize(snap, NewICTKeywordFilter([]string{"software", "data"}), model.ICTCategory)
	if err != nil {
		t.Fatalf("Categorize: %v", err)
	}

	if !got.CapturedAt().Equal(captured) {
		t.Errorf("capture time changed: %v", got.CapturedAt())
	}
	if j, _ := got.Job("a"); j.Category != model.ICTCategory {
		t.Errorf("job a category = %q, want %q", j.Category, model.ICTCategory)
	}
	if j, _ := got.Job("b"); j.Category != "" {
		t.Errorf("job b category = %q, want empty", j.Category)
	}
	if j, _ := got.Job("c"); j.Category != "Finance" {
		t.Errorf("job c category = %q, want Finance", j.Category)
	}
	if j, _ := snap.Job("a"); j.Category != "" {
		t.Errorf("input snapshot mutated: job a category = %q", j.Category)
	}
}
