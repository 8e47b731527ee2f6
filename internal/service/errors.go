package service

import (
	"errors"
	"strings"
)

var ErrForbidden = errors.New("forbidden: insufficient permissions")

// ValidationErrors collects every booking-validation failure from one
// request so the caller can correct all fields in a single round trip.
// It unwraps to the individual sentinels, so
// errors.Is(err, appointment.ErrPastDate) works on the aggregate.
type ValidationErrors struct {
	Errs []error
}

func (e *ValidationErrors) Error() string {
	msgs := make([]string, len(e.Errs))
	for i, err := range e.Errs {
		msgs[i] = err.Error()
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func (e *ValidationErrors) Unwrap() []error {
	return e.Errs
}

// Messages returns the individual failure messages for API responses.
func (e *ValidationErrors) Messages() []string {
	msgs := make([]string, len(e.Errs))
	for i, err := range e.Errs {
		msgs[i] = err.Error()
	}
	return msgs
}
