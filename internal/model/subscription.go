package model

import (
	"fmt"
	"net/mail"
	"strings"
)

// Frequency is how often a subscriber wants to hear from us.
type Frequency string

const (
	FrequencyDaily  Frequency = "daily"
	FrequencyWeekly Frequency = "weekly"
)

// ParseFrequency validates a frequency name.
func ParseFrequency(v string) (Frequency, error) {
	switch f := Frequency(strings.ToLower(strings.TrimSpace(v))); f {
	case FrequencyDaily, FrequencyWeekly:
		return f, nil
	}
	return "", fmt.Errorf("%w: frequency must be %q or %q, got %q", ErrInvalidSubscription, FrequencyDaily, FrequencyWeekly, v)
}

// AlertSubscription holds a subscriber's filters and cadence.
type AlertSubscription struct {
	Email        string
	Region       string // exact match; "" means every region
	CategoryOnly bool   // restrict to ICTCategory
	MinSeverity  Severity
	Frequency    Frequency
	Hour         int // local hour of day, 0..23
}

// DefaultSubscription returns the defaults used when a field is not given.
func DefaultSubscription(email string) AlertSubscription {
	return AlertSubscription{
		Email:        email,
		CategoryOnly: true,
		MinSeverity:  SeverityMedium,
		Frequency:    FrequencyDaily,
		Hour:         12,
	}
}

// NewSubscription validates sub and returns it.
func NewSubscription(sub AlertSubscription) (AlertSubscription, error) {
	if err := sub.Validate(); err != nil {
		return AlertSubscription{}, err
	}
	return sub, nil
}

// Validate rejects malformed subscriptions before they reach the pipeline.
func (s AlertSubscription) Validate() error {
	addr, err := mail.ParseAddress(s.Email)
	if err != nil || addr.Address != s.Email {
		return fmt.Errorf("%w: invalid email address %q", ErrInvalidSubscription, s.Email)
	}
	if s.Frequency != FrequencyDaily && s.Frequency != FrequencyWeekly {
		return fmt.Errorf("%w: frequency must be %q or %q, got %q", ErrInvalidSubscription, FrequencyDaily, FrequencyWeekly, s.Frequency)
	}
	if s.Hour < 0 || s.Hour > 23 {
		return fmt.Errorf("%w: hour must be between 0 and 23, got %d", ErrInvalidSubscription, s.Hour)
	}
	if !s.MinSeverity.Valid() {
		return fmt.Errorf("%w: min severity %d is not a known level", ErrInvalidSubscription, int(s.MinSeverity))
	}
	return nil
}
