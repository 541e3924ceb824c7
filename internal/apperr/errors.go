// Package apperr holds the error taxonomy shared by repositories, services and
// handlers. Callers compare with errors.Is against the sentinels below.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthorized          = errors.New("unauthorized")
	ErrForbidden             = errors.New("forbidden")
	ErrNotFound              = errors.New("not found")
	ErrInvalidTransition     = errors.New("invalid transition")
	ErrValidation            = errors.New("validation error")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)

// Validation wraps ErrValidation with a field-level message.
func Validation(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Transition wraps ErrInvalidTransition with the attempted edge.
func Transition(from, to string) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}

// Dependency wraps a store or identity failure. Errors that already carry a
// taxonomy sentinel are returned as is.
func Dependency(op string, err error) error {
	if err == nil {
		return nil
	}
	if Classified(err) {
		return err
	}
	return fmt.Errorf("%w: %s: %v", ErrDependencyUnavailable, op, err)
}

// Classified reports whether err already belongs to the taxonomy.
func Classified(err error) bool {
	for _, s := range []error{ErrUnauthorized, ErrForbidden, ErrNotFound, ErrInvalidTransition, ErrValidation, ErrDependencyUnavailable} {
		if errors.Is(err, s) {
			return true
		}
	}
	return false
}

// Code returns the wire code used in error envelopes.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, ErrValidation):
		return "bad_request"
	case errors.Is(err, ErrDependencyUnavailable):
		return "dependency_unavailable"
	default:
		return "internal_error"
	}
}
