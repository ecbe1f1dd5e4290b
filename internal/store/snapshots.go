package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/amishk599/sitewatch/internal/model"
)

// SnapshotInfo summarises a stored snapshot.
type SnapshotInfo struct {
	CapturedAt time.Time
	Jobs       int
}

const jobColumns = `job_id, title, employer, summary, description, category,
	classification, sub_classification, job_type, region, area,
	pay_min, pay_max, posted_date, start_date, end_date`

// SaveSnapshot stores snap. A snapshot with the same capture time already
// stored yields ErrSnapshotExists; snapshots are never overwritten.
func (s *SQLiteStore) SaveSnapshot(ctx context.Context, snap model.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	defer tx.Rollback()

	capturedAt := formatTime(snap.CapturedAt())
	res, err := tx.ExecContext(ctx, "INSERT OR IGNORE INTO snapshots (captured_at) VALUES (?)", capturedAt)
	if err != nil {
		return fmt.Errorf("saving snapshot %s: %w", capturedAt, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrSnapshotExists, capturedAt)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("saving snapshot %s: %w", capturedAt, err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO snapshot_jobs (snapshot_id, `+jobColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("saving snapshot %s: %w", capturedAt, err)
	}
	defer stmt.Close()

	for _, j := range snap.Jobs() {
		_, err := stmt.ExecContext(ctx, id,
			j.ID, j.Title, nullString(j.Employer), nullString(j.Summary), nullString(j.Description),
			nullString(j.Category), nullString(j.Classification), nullString(j.SubClassification),
			nullString(j.JobType), nullString(j.Region), nullString(j.Area),
			nullFloat(j.PayMin), nullFloat(j.PayMax),
			nullDate(j.PostedDate), nullDate(j.StartDate), nullDate(j.EndDate),
		)
		if err != nil {
			return fmt.Errorf("saving job %s in snapshot %s: %w", j.ID, capturedAt, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("saving snapshot %s: %w", capturedAt, err)
	}
	return nil
}

// LoadSnapshots returns every stored snapshot, oldest first.
func (s *SQLiteStore) LoadSnapshots(ctx context.Context) ([]model.Snapshot, error) {
	return s.LoadSnapshotsSince(ctx, time.Time{})
}

// LoadSnapshotsSince returns snapshots captured at or after since, oldest first.
func (s *SQLiteStore) LoadSnapshotsSince(ctx context.Context, since time.Time) ([]model.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, captured_at FROM snapshots WHERE captured_at >= ? ORDER BY captured_at", formatTime(since))
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}

	type header struct {
		id         int64
		capturedAt time.Time
	}
	var headers []header
	for rows.Next() {
		var h header
		var raw string
		if err := rows.Scan(&h.id, &raw); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning snapshot: %w", err)
		}
		if h.capturedAt, err = parseTime(raw); err != nil {
			rows.Close()
			return nil, err
		}
		headers = append(headers, h)
	}
	if err := rows.Close(); err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}

	snapshots := make([]model.Snapshot, 0, len(headers))
	for _, h := range headers {
		jobs, err := s.loadJobs(ctx, h.id)
		if err != nil {
			return nil, err
		}
		snap, err := model.NewSnapshot(h.capturedAt, jobs)
		if err != nil {
			return nil, fmt.Errorf("rebuilding snapshot %s: %w", formatTime(h.capturedAt), err)
		}
		snapshots = append(snapshots, snap)
	}
	return snapshots, nil
}

// LatestSnapshot returns the most recent snapshot, or false if none exist.
func (s *SQLiteStore) LatestSnapshot(ctx context.Context) (model.Snapshot, bool, error) {
	var id int64
	var raw string
	err := s.db.QueryRowContext(ctx, "SELECT id, captured_at FROM snapshots ORDER BY captured_at DESC LIMIT 1").Scan(&id, &raw)
	if err == sql.ErrNoRows {
		return model.Snapshot{}, false, nil
	}
	if err != nil {
		return model.Snapshot{}, false, fmt.Errorf("loading latest snapshot: %w", err)
	}
	capturedAt, err := parseTime(raw)
	if err != nil {
		return model.Snapshot{}, false, err
	}
	jobs, err := s.loadJobs(ctx, id)
	if err != nil {
		return model.Snapshot{}, false, err
	}
	snap, err := model.NewSnapshot(capturedAt, jobs)
	if err != nil {
		return model.Snapshot{}, false, fmt.Errorf("rebuilding snapshot %s: %w", raw, err)
	}
	return snap, true, nil
}

// ListSnapshots returns capture times and job counts, oldest first.
func (s *SQLiteStore) ListSnapshots(ctx context.Context) ([]SnapshotInfo, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT s.captured_at, COUNT(j.job_id)
		FROM snapshots s LEFT JOIN snapshot_jobs j ON j.snapshot_id = s.id
		GROUP BY s.id ORDER BY s.captured_at`)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	defer rows.Close()

	var out []SnapshotInfo
	for rows.Next() {
		var raw string
		var info SnapshotInfo
		if err := rows.Scan(&raw, &info.Jobs); err != nil {
			return nil, fmt.Errorf("scanning snapshot: %w", err)
		}
		if info.CapturedAt, err = parseTime(raw); err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

// PruneSnapshots deletes all but the newest keep snapshots and returns how
// many were removed.
func (s *SQLiteStore) PruneSnapshots(ctx context.Context, keep int) (int, error) {
	if keep <= 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("pruning snapshots: %w", err)
	}
	defer tx.Rollback()

	const stale = `SELECT id FROM snapshots ORDER BY captured_at DESC LIMIT -1 OFFSET ?`
	if _, err := tx.ExecContext(ctx, "DELETE FROM snapshot_jobs WHERE snapshot_id IN ("+stale+")", keep); err != nil {
		return 0, fmt.Errorf("pruning snapshot jobs: %w", err)
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM snapshots WHERE id IN ("+stale+")", keep)
	if err != nil {
		return 0, fmt.Errorf("pruning snapshots: %w", err)
	}
	n, _ := res.RowsAffected()

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("pruning snapshots: %w", err)
	}
	return int(n), nil
}

func (s *SQLiteStore) loadJobs(ctx context.Context, snapshotID int64) ([]model.Job, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+jobColumns+" FROM snapshot_jobs WHERE snapshot_id = ? ORDER BY job_id", snapshotID)
	if err != nil {
		return nil, fmt.Errorf("loading jobs for snapshot %d: %w", snapshotID, err)
	}
	defer rows.Close()

	var jobs []model.Job
	for rows.Next() {
		var (
			j                                            model.Job
			employer, summary, description, category     sql.NullString
			classification, subClassification, jobType   sql.NullString
			region, area, postedDate, startDate, endDate sql.NullString
			payMin, payMax                               sql.NullFloat64
		)
		err := rows.Scan(&j.ID, &j.Title, &employer, &summary, &description, &category,
			&classification, &subClassification, &jobType, &region, &area,
			&payMin, &payMax, &postedDate, &startDate, &endDate)
		if err != nil {
			return nil, fmt.Errorf("scanning job in snapshot %d: %w", snapshotID, err)
		}
		j.Employer = employer.String
		j.Summary = summary.String
		j.Description = description.String
		j.Category = category.String
		j.Classification = classification.String
		j.SubClassification = subClassification.String
		j.JobType = jobType.String
		j.Region = region.String
		j.Area = area.String
		j.PayMin = floatPtr(payMin)
		j.PayMax = floatPtr(payMax)
		if j.PostedDate, err = datePtr(postedDate); err != nil {
			return nil, err
		}
		if j.StartDate, err = datePtr(startDate); err != nil {
			return nil, err
		}
		if j.EndDate, err = datePtr(endDate); err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

func nullFloat(p *float64) sql.NullFloat64 {
	if p == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *p, Valid: true}
}

func nullDate(p *time.Time) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: p.Format(time.DateOnly), Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func datePtr(v sql.NullString) (*time.Time, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, v.String)
	if err != nil {
		return nil, fmt.Errorf("parsing stored date %q: %w", v.String, err)
	}
	return &t, nil
}
