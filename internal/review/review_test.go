package review

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/amishk599/sitewatch/internal/model"
)

func sampleReview() *Review {
	added := model.ScoredChange{
		Change:   model.JobChange{JobID: "a1", After: &model.Job{ID: "a1", Title: "Cloud Engineer", Region: "ACT", Description: "Build things"}},
		Severity: model.SeverityHigh,
		Reason:   "New job posted",
	}
	modified := model.ScoredChange{
		Change: model.JobChange{
			JobID:   "m1",
			Before:  &model.Job{ID: "m1", Title: "Dev"},
			After:   &model.Job{ID: "m1", Title: "Senior Dev", PayMin: model.Pay(90000)},
			Changes: []model.FieldChange{{Field: model.FieldTitle, Before: "Dev", After: "Senior Dev"}},
		},
		Severity: model.SeverityLow,
		Reason:   "Routine update",
	}
	return &Review{
		Subscription: model.DefaultSubscription("ops@example.com"),
		All:          []model.ScoredChange{added, modified},
		Delivered:    []model.ScoredChange{added},
	}
}

func sized(t *testing.T) reviewModel {
	t.Helper()
	m, _ := newReviewModel(sampleReview()).Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return m.(reviewModel)
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m reviewModel, keys ...string) reviewModel {
	for _, k := range keys {
		next, _ := m.Update(key(k))
		m = next.(reviewModel)
	}
	return m
}

func TestListViewShowsBothPanes(t *testing.T) {
	out := sized(t).View()

	if !strings.Contains(out, "All Scored (2)") || !strings.Contains(out, "Delivered (1)") {
		t.Errorf("missing pane headers:\n%s", out)
	}
	if !strings.Contains(out, "1 filtered out") {
		t.Errorf("missing status counts:\n%s", out)
	}
}

func TestCursorMovementIsClamped(t *testing.T) {
	m := press(sized(t), "j", "j", "j")
	if m.leftCursor != 1 {
		t.Errorf("leftCursor = %d, want 1", m.leftCursor)
	}
	m = press(m, "k", "k", "k")
	if m.leftCursor != 0 {
		t.Errorf("leftCursor = %d, want 0", m.leftCursor)
	}
}

func TestDetailViewExplainsFieldChanges(t *testing.T) {
	m := press(sized(t), "j", "enter")
	if m.view != viewDetail {
		t.Fatal("expected detail view after enter")
	}
	out := m.renderDetail()
	for _, want := range []string{"LOW", "Routine update", "Senior Dev", "title changed from Dev to Senior Dev", "from $90000"} {
		if !strings.Contains(out, want) {
			t.Errorf("detail missing %q:\n%s", want, out)
		}
	}

	m = press(m, "esc")
	if m.view != viewList {
		t.Error("expected list view after esc")
	}
}

func TestDescriptionToggle(t *testing.T) {
	m := press(sized(t), "tab", "enter")
	if m.detail.Change.JobID != "a1" {
		t.Fatalf("detail job = %s, want a1", m.detail.Change.JobID)
	}
	if strings.Contains(m.renderDetail(), "Build things") {
		t.Error("description shown before toggle")
	}
	m = press(m, "r")
	if !strings.Contains(m.renderDetail(), "Build things") {
		t.Error("description hidden after toggle")
	}
}

func TestQuitKeys(t *testing.T) {
	m := press(sized(t), "q")
	if !m.wantQuit {
		t.Error("q should request quit")
	}
	m = press(sized(t), "esc")
	if m.wantQuit {
		t.Error("esc should return to picker, not quit")
	}
}

func TestEmptyPane(t *testing.T) {
	r := sampleReview()
	r.Delivered = nil
	m, _ := newReviewModel(r).Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	rm := press(m.(reviewModel), "tab", "enter")
	if rm.view != viewList {
		t.Error("enter on empty pane should stay in list view")
	}
}

func TestSubscriptionLabel(t *testing.T) {
	sub := model.DefaultSubscription("ops@example.com")
	got := subscriptionLabel(sub)
	if got != "ops@example.com (any region, ICT only, ≥MEDIUM, daily)" {
		t.Errorf("label = %q", got)
	}
}
