package model

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJob_RequiresIdentity(t *testing.T) {
	tests := []struct {
		name string
		job  Job
	}{
		{name: "empty id", job: Job{Title: "Engineer"}},
		{name: "whitespace id", job: Job{ID: "  ", Title: "Engineer"}},
		{name: "empty title", job: Job{ID: "1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewJob(tt.job)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidJob))
		})
	}
}

func TestNewJob_ReturnsIndependentCopy(t *testing.T) {
	pay := 100.0
	src := Job{ID: "1", Title: "Engineer", PayMin: &pay}

	j, err := NewJob(src)
	require.NoError(t, err)

	pay = 999
	assert.Equal(t, 100.0, *j.PayMin)
	assert.False(t, j.Equal(src))
}

func TestNewSnapshot_RejectsDuplicateIDs(t *testing.T) {
	_, err := NewSnapshot(time.Now(), []Job{
		{ID: "1", Title: "A"},
		{ID: "1", Title: "B"},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateJob))
}

func TestSnapshot_AccessorsDoNotExposeState(t *testing.T) {
	s, err := NewSnapshot(time.Now(), []Job{
		{ID: "b", Title: "B", PayMax: Pay(10)},
		{ID: "a", Title: "A"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, s.IDs())

	j, ok := s.Job("b")
	require.True(t, ok)
	*j.PayMax = 50

	again, _ := s.Job("b")
	assert.Equal(t, 10.0, *again.PayMax)
}

func TestSeverity_Ordering(t *testing.T) {
	assert.True(t, SeverityLow < SeverityMedium)
	assert.True(t, SeverityMedium < SeverityHigh)
	assert.True(t, SeverityHigh >= SeverityMedium)
	assert.Equal(t, "HIGH", SeverityHigh.String())

	s, err := ParseSeverity("medium")
	require.NoError(t, err)
	assert.Equal(t, SeverityMedium, s)

	_, err = ParseSeverity("urgent")
	assert.Error(t, err)
}

func TestSubscription_Validate(t *testing.T) {
	valid := DefaultSubscription("dev@example.com")
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*AlertSubscription)
	}{
		{name: "bad email", mutate: func(s *AlertSubscription) { s.Email = "not-an-email" }},
		{name: "display name email", mutate: func(s *AlertSubscription) { s.Email = "Dev <dev@example.com>" }},
		{name: "hour too large", mutate: func(s *AlertSubscription) { s.Hour = 24 }},
		{name: "negative hour", mutate: func(s *AlertSubscription) { s.Hour = -1 }},
		{name: "unknown frequency", mutate: func(s *AlertSubscription) { s.Frequency = "hourly" }},
		{name: "zero severity", mutate: func(s *AlertSubscription) { s.MinSeverity = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := valid
			tt.mutate(&sub)
			_, err := NewSubscription(sub)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidSubscription))
		})
	}
}

func TestJobChange_RelevantAndKind(t *testing.T) {
	before := &Job{ID: "1", Title: "Old", Region: "Wellington"}
	after := &Job{ID: "1", Title: "New", Region: "Auckland"}

	removed := JobChange{JobID: "1", Before: before}
	assert.Equal(t, ChangeRemoved, removed.Kind())
	assert.Equal(t, "Wellington", removed.Relevant().Region)

	modified := JobChange{JobID: "1", Before: before, After: after}
	assert.Equal(t, ChangeModified, modified.Kind())
	assert.Equal(t, "Auckland", modified.Relevant().Region)
}
