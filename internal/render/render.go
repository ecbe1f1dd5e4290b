// Package render turns scored changes into alert subjects and bodies.
package render

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"strings"
	"text/template"

	"github.com/amishk599/sitewatch/internal/model"
)

//go:embed templates/*
var templateFS embed.FS

var funcs = map[string]any{
	"title":   Title,
	"explain": Explain,
	"kind":    func(c model.JobChange) string { return c.Kind().String() },
	"lower":   strings.ToLower,
}

var (
	textTmpl = template.Must(template.New("alert.txt.tmpl").Funcs(funcs).ParseFS(templateFS, "templates/alert.txt.tmpl"))
	htmlTmpl = htmltemplate.Must(htmltemplate.New("alert.html.tmpl").Funcs(funcs).ParseFS(templateFS, "templates/alert.html.tmpl"))
)

type view struct {
	Changes []model.ScoredChange
	Highest model.Severity
	Counts  []SeverityCount
}

// SeverityCount is the number of changes at one level.
type SeverityCount struct {
	Severity model.Severity
	Count    int
}

// Subject summarises the change count and the highest severity present.
// An empty list reports LOW.
func Subject(changes []model.ScoredChange) string {
	return fmt.Sprintf("SiteWatch — %d update(s) [%s]", len(changes), Highest(changes))
}

// Text renders the plain-text alert body.
func Text(changes []model.ScoredChange) (string, error) {
	var buf bytes.Buffer
	if err := textTmpl.Execute(&buf, newView(changes)); err != nil {
		return "", fmt.Errorf("rendering text alert: %w", err)
	}
	return buf.String(), nil
}

// HTML renders the HTML alert body. Job content is escaped.
func HTML(changes []model.ScoredChange) (string, error) {
	var buf bytes.Buffer
	if err := htmlTmpl.Execute(&buf, newView(changes)); err != nil {
		return "", fmt.Errorf("rendering html alert: %w", err)
	}
	return buf.String(), nil
}

// Highest returns the most severe level in changes, or LOW when empty.
func Highest(changes []model.ScoredChange) model.Severity {
	highest := model.SeverityLow
	for _, c := range changes {
		if c.Severity > highest {
			highest = c.Severity
		}
	}
	return highest
}

// Counts returns the number of changes per level, highest level first.
// Every level is present even when its count is zero.
func Counts(changes []model.ScoredChange) []SeverityCount {
	byLevel := make(map[model.Severity]int, len(model.Severities))
	for _, c := range changes {
		byLevel[c.Severity]++
	}
	out := make([]SeverityCount, 0, len(model.Severities))
	for i := len(model.Severities) - 1; i >= 0; i-- {
		s := model.Severities[i]
		out = append(out, SeverityCount{Severity: s, Count: byLevel[s]})
	}
	return out
}

// Title is the display title for a change: the current title when the job
// still exists, else the last known one.
func Title(c model.JobChange) string {
	if j := c.Relevant(); j != nil {
		return j.Title
	}
	return c.JobID
}

// ExplainField describes a single field change in one sentence.
func ExplainField(fc model.FieldChange) string {
	switch {
	case fc.Before == nil && fc.After != nil:
		return fmt.Sprintf("%s was added (%v)", fc.Field, fc.After)
	case fc.Before != nil && fc.After == nil:
		return fmt.Sprintf("%s was removed (was %v)", fc.Field, fc.Before)
	default:
		return fmt.Sprintf("%s changed from %v to %v", fc.Field, fc.Before, fc.After)
	}
}

// Explain describes every field change of c, in order.
func Explain(c model.JobChange) []string {
	out := make([]string, 0, len(c.Changes))
	for _, fc := range c.Changes {
		out = append(out, ExplainField(fc))
	}
	return out
}

func newView(changes []model.ScoredChange) view {
	return view{Changes: changes, Highest: Highest(changes), Counts: Counts(changes)}
}
