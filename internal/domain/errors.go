package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
)

// ValidationError rejects a mutation before it touches the cart or session:
// unknown catalog references, out-of-range indexes, missing required fields.
// The cart is guaranteed unchanged when one is returned.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Validationf builds a ValidationError from a format string.
func Validationf(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// PreconditionError signals that an operation was attempted before its
// prerequisites were met (empty cart, missing pickup time). The Missing
// field names the unmet precondition so the caller can prompt for it.
type PreconditionError struct {
	Missing string
	Message string
}

func (e *PreconditionError) Error() string { return e.Message }

// IsPrecondition reports whether err is a PreconditionError.
func IsPrecondition(err error) bool {
	var pe *PreconditionError
	return errors.As(err, &pe)
}

// PersistenceError wraps a failed store write or read. It is distinct from
// validation failures: the logical outcome may have been computed but not
// durably recorded, so callers must treat it as "unknown state", not "failed".
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *PersistenceError) Unwrap() error { return e.Err }

// IsPersistence reports whether err is a PersistenceError.
func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
