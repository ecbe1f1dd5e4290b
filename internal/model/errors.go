package model

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidJob          = errors.New("invalid job")
	ErrDuplicateJob        = errors.New("duplicate job id")
	ErrInvalidSubscription = errors.New("invalid subscription")
	ErrUntrackedField      = errors.New("untracked field")
)

// DeliveryError wraps a sink failure so retry logic can inspect it.
type DeliveryError struct {
	Sink      string
	Code      int  // transport status (HTTP or SMTP), zero if unknown
	Temporary bool // worth retrying
	Err       error
}

func (e *DeliveryError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s delivery failed (%d): %v", e.Sink, e.Code, e.Err)
	}
	return fmt.Sprintf("%s delivery failed: %v", e.Sink, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}
