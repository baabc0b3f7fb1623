// internal/errors/errors.go
package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized is returned when no signed-in principal could be resolved.
	ErrUnauthorized = errors.New("unauthorized: no signed-in principal")

	// ErrInvalidArgument is returned when a request carries no resolvable
	// username or an unusable year.
	ErrInvalidArgument = errors.New("invalid argument")
)

// NotFoundError is returned when a profile lookup fails because the handle
// does not exist on the platform (or is not visible to the caller).
type NotFoundError struct {
	Handle string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("github user %q not found", e.Handle)
}

// IsNotFound reports whether err wraps a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// DegradedDataWarning marks a non-fatal sub-fetch failure. The caller keeps
// the zero-valued result returned alongside it and continues; a single flaky
// sub-call must not fail the whole year summary.
type DegradedDataWarning struct {
	Source string
	Err    error
}

func (e *DegradedDataWarning) Error() string {
	return fmt.Sprintf("degraded %s data: %v", e.Source, e.Err)
}

func (e *DegradedDataWarning) Unwrap() error {
	return e.Err
}

// IsDegraded reports whether err wraps a DegradedDataWarning.
func IsDegraded(err error) bool {
	var dw *DegradedDataWarning
	return errors.As(err, &dw)
}
