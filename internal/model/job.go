package model

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ICTCategory is the restricted category a category-only subscription accepts.
const ICTCategory = "ICT"

// Unified representation of a job listing as observed on the board.
// Optional string fields use "" for absent.
type Job struct {
	ID                string // stable across snapshots for the same listing
	Title             string
	Employer          string
	Summary           string
	Description       string
	Category          string
	Classification    string
	SubClassification string
	JobType           string
	Region            string
	Area              string
	PayMin            *float64   // nullable
	PayMax            *float64   // nullable
	PostedDate        *time.Time // calendar date, nullable
	StartDate         *time.Time // calendar date, nullable
	EndDate           *time.Time // calendar date, nullable
}

// NewJob validates j and returns an independent copy of it.
func NewJob(j Job) (Job, error) {
	if err := j.Validate(); err != nil {
		return Job{}, err
	}
	return j.Clone(), nil
}

// Validate reports whether the identity fields are present.
func (j Job) Validate() error {
	if strings.TrimSpace(j.ID) == "" {
		return fmt.Errorf("%w: id must be non-empty", ErrInvalidJob)
	}
	if strings.TrimSpace(j.Title) == "" {
		return fmt.Errorf("%w: title must be non-empty (id %s)", ErrInvalidJob, j.ID)
	}
	return nil
}

// Clone returns a copy that shares no pointers with j.
func (j Job) Clone() Job {
	c := j
	c.PayMin = cloneFloat(j.PayMin)
	c.PayMax = cloneFloat(j.PayMax)
	c.PostedDate = cloneTime(j.PostedDate)
	c.StartDate = cloneTime(j.StartDate)
	c.EndDate = cloneTime(j.EndDate)
	return c
}

// Equal reports structural equality, comparing pointed-to values.
func (j Job) Equal(o Job) bool {
	return j.ID == o.ID &&
		j.Title == o.Title &&
		j.Employer == o.Employer &&
		j.Summary == o.Summary &&
		j.Description == o.Description &&
		j.Category == o.Category &&
		j.Classification == o.Classification &&
		j.SubClassification == o.SubClassification &&
		j.JobType == o.JobType &&
		j.Region == o.Region &&
		j.Area == o.Area &&
		equalFloat(j.PayMin, o.PayMin) &&
		equalFloat(j.PayMax, o.PayMax) &&
		equalDate(j.PostedDate, o.PostedDate) &&
		equalDate(j.StartDate, o.StartDate) &&
		equalDate(j.EndDate, o.EndDate)
}

// Snapshot is an immutable point-in-time view of the board keyed by job ID.
type Snapshot struct {
	capturedAt time.Time
	jobs       map[string]Job
}

// NewSnapshot builds a snapshot from jobs. Every job must be valid and IDs
// must be unique.
func NewSnapshot(capturedAt time.Time, jobs []Job) (Snapshot, error) {
	m := make(map[string]Job, len(jobs))
	for _, j := range jobs {
		if err := j.Validate(); err != nil {
			return Snapshot{}, err
		}
		if _, ok := m[j.ID]; ok {
			return Snapshot{}, fmt.Errorf("%w: %s", ErrDuplicateJob, j.ID)
		}
		m[j.ID] = j.Clone()
	}
	return Snapshot{capturedAt: capturedAt, jobs: m}, nil
}

// CapturedAt returns the capture timestamp.
func (s Snapshot) CapturedAt() time.Time { return s.capturedAt }

// Len returns the number of jobs in the snapshot.
func (s Snapshot) Len() int { return len(s.jobs) }

// Job returns a copy of the job with the given ID.
func (s Snapshot) Job(id string) (Job, bool) {
	j, ok := s.jobs[id]
	if !ok {
		return Job{}, false
	}
	return j.Clone(), true
}

// Has reports whether id is present.
func (s Snapshot) Has(id string) bool {
	_, ok := s.jobs[id]
	return ok
}

// IDs returns the job IDs in ascending order.
func (s Snapshot) IDs() []string {
	ids := make([]string, 0, len(s.jobs))
	for id := range s.jobs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Jobs returns copies of all jobs ordered by ID.
func (s Snapshot) Jobs() []Job {
	out := make([]Job, 0, len(s.jobs))
	for _, id := range s.IDs() {
		out = append(out, s.jobs[id].Clone())
	}
	return out
}

// Day truncates t to its UTC calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Date is a convenience constructor for optional calendar-date fields.
func Date(year int, month time.Month, day int) *time.Time {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &t
}

// Pay is a convenience constructor for optional pay fields.
func Pay(v float64) *float64 { return &v }

func cloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneTime(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func equalFloat(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func equalDate(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return Day(*a).Equal(Day(*b))
}

// SnapshotSource supplies the ordered snapshot history.
type SnapshotSource interface {
	LoadSnapshots(ctx context.Context) ([]Snapshot, error)
}

// SubscriptionSource supplies validated subscriptions.
type SubscriptionSource interface {
	ListSubscriptions(ctx context.Context) ([]AlertSubscription, error)
}

// RunLog records when a subscription was last evaluated.
type RunLog interface {
	LastRun(ctx context.Context, email string) (*time.Time, error)
	RecordRun(ctx context.Context, email string, ranAt time.Time, delivered int, status string) error
}

// AlertSink delivers scored changes for one subscription (email, console, ...).
// An empty changes slice means there is nothing to send.
type AlertSink interface {
	Send(ctx context.Context, changes []ScoredChange, sub AlertSubscription) error
}

// JobFilter decides whether a job matches an enrichment heuristic.
type JobFilter interface {
	Match(job Job) bool
}
