// Package jobfile reads scraped job lists into snapshots and exports
// snapshots as JSON or CSV.
package jobfile

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/amishk599/sitewatch/internal/model"
)

// record is the on-disk shape of one job. Keys follow the board's storage
// columns. Optional values may be omitted or null and unknown keys are ignored.
type record struct {
	ID                string   `json:"id"`
	Title             string   `json:"title"`
	Employer          string   `json:"employer,omitempty"`
	Summary           string   `json:"summary,omitempty"`
	Description       string   `json:"description,omitempty"`
	Category          string   `json:"category,omitempty"`
	Classification    string   `json:"classification,omitempty"`
	SubClassification string   `json:"sub_classification,omitempty"`
	JobType           string   `json:"job_type,omitempty"`
	Region            string   `json:"region,omitempty"`
	Area              string   `json:"area,omitempty"`
	PayMin            *float64 `json:"pay_min,omitempty"`
	PayMax            *float64 `json:"pay_max,omitempty"`
	PostedDate        *date    `json:"posted_date,omitempty"`
	StartDate         *date    `json:"start_date,omitempty"`
	EndDate           *date    `json:"end_date,omitempty"`
}

// date is a calendar date encoded as "YYYY-MM-DD".
type date time.Time

func (d date) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(d).Format(time.DateOnly))
}

func (d *date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return fmt.Errorf("date %q: %w", s, err)
	}
	*d = date(t)
	return nil
}

func (d *date) time() *time.Time {
	if d == nil {
		return nil
	}
	t := time.Time(*d)
	return &t
}

func toDate(t *time.Time) *date {
	if t == nil {
		return nil
	}
	d := date(model.Day(*t))
	return &d
}

func (r record) job() model.Job {
	return model.Job{
		ID:                r.ID,
		Title:             r.Title,
		Employer:          r.Employer,
		Summary:           r.Summary,
		Description:       r.Description,
		Category:          r.Category,
		Classification:    r.Classification,
		SubClassification: r.SubClassification,
		JobType:           r.JobType,
		Region:            r.Region,
		Area:              r.Area,
		PayMin:            r.PayMin,
		PayMax:            r.PayMax,
		PostedDate:        r.PostedDate.time(),
		StartDate:         r.StartDate.time(),
		EndDate:           r.EndDate.time(),
	}
}

func fromJob(j model.Job) record {
	return record{
		ID:                j.ID,
		Title:             j.Title,
		Employer:          j.Employer,
		Summary:           j.Summary,
		Description:       j.Description,
		Category:          j.Category,
		Classification:    j.Classification,
		SubClassification: j.SubClassification,
		JobType:           j.JobType,
		Region:            j.Region,
		Area:              j.Area,
		PayMin:            j.PayMin,
		PayMax:            j.PayMax,
		PostedDate:        toDate(j.PostedDate),
		StartDate:         toDate(j.StartDate),
		EndDate:           toDate(j.EndDate),
	}
}

// Decode reads a JSON array of jobs and builds a snapshot captured at
// capturedAt. Invalid or duplicate jobs fail the whole file.
func Decode(r io.Reader, capturedAt time.Time) (model.Snapshot, error) {
	var records []record
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return model.Snapshot{}, fmt.Errorf("decoding job file: %w", err)
	}

	jobs := make([]model.Job, len(records))
	for i, rec := range records {
		jobs[i] = rec.job()
	}
	snap, err := model.NewSnapshot(capturedAt, jobs)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("building snapshot: %w", err)
	}
	return snap, nil
}

// WriteJSON writes the jobs of snap as an indented JSON array, ordered by id.
// The output is accepted by Decode.
func WriteJSON(w io.Writer, snap model.Snapshot) error {
	jobs := snap.Jobs()
	records := make([]record, len(jobs))
	for i, j := range jobs {
		records[i] = fromJob(j)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encoding jobs: %w", err)
	}
	return nil
}

var csvHeader = []string{
	"id", "title", "employer", "summary", "description", "category",
	"classification", "sub_classification", "job_type", "region", "area",
	"pay_min", "pay_max", "posted_date", "start_date", "end_date",
}

// WriteCSV writes the jobs of snap with a header row, ordered by id.
// Absent values are empty cells.
func WriteCSV(w io.Writer, snap model.Snapshot) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, j := range snap.Jobs() {
		row := []string{
			j.ID, j.Title, j.Employer, j.Summary, j.Description, j.Category,
			j.Classification, j.SubClassification, j.JobType, j.Region, j.Area,
			formatFloat(j.PayMin), formatFloat(j.PayMax),
			formatDate(j.PostedDate), formatDate(j.StartDate), formatDate(j.EndDate),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing job %s: %w", j.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(p *float64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatFloat(*p, 'f', -1, 64)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.DateOnly)
}
