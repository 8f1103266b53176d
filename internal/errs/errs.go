// Package errs defines the error taxonomy shared across devcoach.
// Errors carry a Kind so callers can decide between rollback,
// user-facing messages and plain logging.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies an error for recovery policy.
type Kind string

const (
	KindFileIO     Kind = "FILE_IO"
	KindAPI        Kind = "API_ERROR"
	KindValidation Kind = "VALIDATION_ERROR"
	KindConfig     Kind = "CONFIG_ERROR"
	KindNetwork    Kind = "NETWORK_ERROR"
	KindUnknown    Kind = "UNKNOWN"
)

// Error is a classified error with an optional wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a classified error without a cause.
func New(kind Kind, message string) error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates a classified error with a formatted message.
func Newf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an existing error.
func Wrap(kind Kind, message string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: message, Err: err}
}

// Validationf is shorthand for the most common kind.
func Validationf(format string, args ...any) error {
	return Newf(KindValidation, format, args...)
}

// KindOf reports the kind of err, or KindUnknown if it carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool {
	return KindOf(err) == KindValidation
}
