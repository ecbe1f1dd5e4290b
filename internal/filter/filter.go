package filter

import (
	"strings"
	"unicode"

	"github.com/amishk599/sitewatch/internal/model"
)

// ICTKeywordFilter matches jobs whose title or summary mentions any of the
// configured keywords. Matching is case-insensitive and respects word
// boundaries, so "it" matches "IT support" but not "security".
// An empty keyword list matches nothing.
type ICTKeywordFilter struct {
	keywords []string
}

// NewICTKeywordFilter returns a filter for the given keywords. Multi-word
// keywords match as a phrase.
func NewICTKeywordFilter(keywords []string) *ICTKeywordFilter {
	norm := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if n := normalize(kw); strings.TrimSpace(n) != "" {
			norm = append(norm, n)
		}
	}
	return &ICTKeywordFilter{keywords: norm}
}

// Match reports whether the job's title or summary contains a keyword.
func (f *ICTKeywordFilter) Match(job model.Job) bool {
	text := normalize(job.Title + " " + job.Summary)
	for _, kw := range f.keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// Categorize returns a copy of snap in which every job that has no category
// and matches f is tagged with category. Jobs that already carry a category
// are left untouched.
func Categorize(snap model.Snapshot, f model.JobFilter, category string) (model.Snapshot, error) {
	jobs := snap.Jobs()
	for i := range jobs {
		if jobs[i].Category == "" && f.Match(jobs[i]) {
			jobs[i].Category = category
		}
	}
	return model.NewSnapshot(snap.CapturedAt(), jobs)
}

// normalize lowercases s, turns every non-alphanumeric rune into a space and
// pads the result so whole-word lookups can use " kw ".
func normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte(' ')
	space := true
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			space = false
			continue
		}
		if !space {
			b.WriteByte(' ')
			space = true
		}
	}
	if !space {
		b.WriteByte(' ')
	}
	return b.String()
}
