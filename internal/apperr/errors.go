// Package apperr holds the error taxonomy shared by every cardbox layer.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrValidation       = errors.New("validation failed")
	ErrIO               = errors.New("i/o failure")
	ErrIndexUnavailable = errors.New("index unavailable")
)

// ValidationError reports a card or record that violates field rules.
// It matches ErrValidation with errors.Is.
type ValidationError struct {
	Subject string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Subject == "" {
		return fmt.Sprintf("invalid card: %v", e.Err)
	}
	return fmt.Sprintf("invalid card %s: %v", e.Subject, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Invalid wraps err as a ValidationError about subject.
func Invalid(subject string, err error) error {
	return &ValidationError{Subject: subject, Err: err}
}

// IO wraps err so that it matches ErrIO while keeping the original cause.
func IO(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrIO, err)
}
