package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/amishk599/sitewatch/internal/model"
)

// AddSubscription validates and stores sub. One subscription per email.
func (s *SQLiteStore) AddSubscription(ctx context.Context, sub model.AlertSubscription) error {
	if err := sub.Validate(); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO subscriptions
		(email, region, category_only, min_severity, frequency, hour) VALUES (?, ?, ?, ?, ?, ?)`,
		sub.Email, sub.Region, sub.CategoryOnly, sub.MinSeverity.String(), string(sub.Frequency), sub.Hour)
	if err != nil {
		return fmt.Errorf("adding subscription %s: %w", sub.Email, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrSubscriptionExists, sub.Email)
	}
	return nil
}

// UpdateSubscription replaces the stored subscription with the same email.
func (s *SQLiteStore) UpdateSubscription(ctx context.Context, sub model.AlertSubscription) error {
	if err := sub.Validate(); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE subscriptions
		SET region = ?, category_only = ?, min_severity = ?, frequency = ?, hour = ?
		WHERE email = ?`,
		sub.Region, sub.CategoryOnly, sub.MinSeverity.String(), string(sub.Frequency), sub.Hour, sub.Email)
	if err != nil {
		return fmt.Errorf("updating subscription %s: %w", sub.Email, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrSubscriptionNotFound, sub.Email)
	}
	return nil
}

// RemoveSubscription deletes the subscription for email.
func (s *SQLiteStore) RemoveSubscription(ctx context.Context, email string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM subscriptions WHERE email = ?", email)
	if err != nil {
		return fmt.Errorf("removing subscription %s: %w", email, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrSubscriptionNotFound, email)
	}
	return nil
}

// GetSubscription loads the subscription for email.
func (s *SQLiteStore) GetSubscription(ctx context.Context, email string) (model.AlertSubscription, error) {
	row := s.db.QueryRowContext(ctx, `SELECT email, region, category_only, min_severity, frequency, hour
		FROM subscriptions WHERE email = ?`, email)
	sub, err := scanSubscription(row)
	if err == sql.ErrNoRows {
		return model.AlertSubscription{}, fmt.Errorf("%w: %s", ErrSubscriptionNotFound, email)
	}
	return sub, err
}

// ListSubscriptions returns every subscription ordered by email. Rows are
// re-validated so a hand-edited database cannot feed the pipeline bad input.
func (s *SQLiteStore) ListSubscriptions(ctx context.Context) ([]model.AlertSubscription, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT email, region, category_only, min_severity, frequency, hour
		FROM subscriptions ORDER BY email`)
	if err != nil {
		return nil, fmt.Errorf("listing subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []model.AlertSubscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSubscription(row scanner) (model.AlertSubscription, error) {
	var (
		sub       model.AlertSubscription
		severity  string
		frequency string
	)
	if err := row.Scan(&sub.Email, &sub.Region, &sub.CategoryOnly, &severity, &frequency, &sub.Hour); err != nil {
		if err == sql.ErrNoRows {
			return sub, err
		}
		return sub, fmt.Errorf("scanning subscription: %w", err)
	}
	sev, err := model.ParseSeverity(severity)
	if err != nil {
		return sub, fmt.Errorf("subscription %s: %w", sub.Email, err)
	}
	sub.MinSeverity = sev
	sub.Frequency = model.Frequency(frequency)
	if err := sub.Validate(); err != nil {
		return sub, fmt.Errorf("subscription %s: %w", sub.Email, err)
	}
	return sub, nil
}
