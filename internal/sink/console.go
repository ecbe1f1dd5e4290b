package sink

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/sitewatch/internal/model"
	"github.com/amishk599/sitewatch/internal/render"
)

var _ model.AlertSink = (*ConsoleSink)(nil)

var (
	severityStyles = map[model.Severity]lipgloss.Style{
		model.SeverityHigh:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		model.SeverityMedium: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214")),
		model.SeverityLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	}
	consoleTitleStyle  = lipgloss.NewStyle().Bold(true)
	consoleReasonStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// ConsoleSink prints a human-readable digest to w.
type ConsoleSink struct {
	w io.Writer
}

func NewConsoleSink(w io.Writer) *ConsoleSink {
	return &ConsoleSink{w: w}
}

func (s *ConsoleSink) Name() string { return "console" }

// Send prints one line per change followed by a per-severity summary. An
// empty list prints "No significant changes detected.".
func (s *ConsoleSink) Send(_ context.Context, changes []model.ScoredChange, sub model.AlertSubscription) error {
	if len(changes) == 0 {
		_, err := fmt.Fprintln(s.w, "No significant changes detected.")
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", consoleTitleStyle.Render(render.Subject(changes)+" for "+sub.Email))
	for _, c := range changes {
		tag := severityStyles[c.Severity].Render("[" + c.Severity.String() + "]")
		fmt.Fprintf(&b, "%s %s (%s) %s\n", tag, render.Title(c.Change), c.Change.JobID,
			consoleReasonStyle.Render("· "+c.Reason))
		for _, line := range render.Explain(c.Change) {
			fmt.Fprintf(&b, "    %s\n", line)
		}
	}

	counts := render.Counts(changes)
	parts := make([]string, 0, len(counts))
	for _, sc := range counts {
		parts = append(parts, fmt.Sprintf("%s=%d", sc.Severity, sc.Count))
	}
	fmt.Fprintf(&b, "\nSummary: %s\n", strings.Join(parts, ", "))

	_, err := io.WriteString(s.w, b.String())
	return err
}
