// Package domainerrors provides coded errors for the blood bank domain.
//
// Services return these so transport layers can translate outcomes into
// HTTP statuses without string matching. Stores return pkg/platform/sentinel
// errors instead; services wrap those into coded errors at the boundary.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error.
type Code string

const (
	// CodeValidation marks rejected input: bad volume, malformed blood type,
	// out-of-range units. Nothing is persisted when a validation error is
	// returned.
	CodeValidation Code = "validation_error"

	// CodeBadRequest marks malformed requests (unparseable bodies, missing
	// required fields) detected at the transport boundary.
	CodeBadRequest Code = "bad_request"

	// CodeInvalidInput marks identifier parsing failures at trust boundaries.
	CodeInvalidInput Code = "invalid_input"

	// CodeNotFound marks lookups for entities that do not exist.
	CodeNotFound Code = "not_found"

	// CodeConflict marks uniqueness or state-transition conflicts.
	CodeConflict Code = "conflict"

	// CodeForbidden marks calls rejected by the authorization boundary.
	CodeForbidden Code = "forbidden"

	// CodeInvariantViolation marks broken aggregate invariants (donor age,
	// emergency request caps). Usually converted to CodeValidation before
	// reaching the API.
	CodeInvariantViolation Code = "invariant_violation"

	// CodeInternal marks infrastructure failures. Descriptions are never
	// surfaced to clients.
	CodeInternal Code = "internal_error"
)

// Error is a coded domain error. Compare with HasCode, not type assertions.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a coded error with a message safe to show callers.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error, preserving the
// cause for errors.Is/errors.As chains.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	for errors.As(err, &de) {
		if de.Code == code {
			return true
		}
		err = de.cause
		if err == nil {
			return false
		}
	}
	return false
}

// CodeOf returns the outermost code carried by err, or CodeInternal when err
// is not a coded error.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf returns the caller-safe message of err, or an empty string when
// err is not a coded error.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return ""
}
