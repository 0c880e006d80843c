// Package apperr defines the typed error outcomes the core returns to its
// callers. The HTTP layer maps kinds to status codes; the core itself never
// deals in transport concerns.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error outcome.
type Kind string

const (
	KindNotFound       Kind = "NOT_FOUND"
	KindForbidden      Kind = "FORBIDDEN"
	KindValidation     Kind = "VALIDATION_ERROR"
	KindUnauthorized   Kind = "UNAUTHORIZED"
	KindConflict       Kind = "CONFLICT"
	KindInfrastructure Kind = "INFRASTRUCTURE"
)

// Error is an operational error with a kind and optional field-level details.
type Error struct {
	Kind    Kind
	Message string
	Details map[string]string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap exposes the underlying cause for errors.Is / errors.As chains.
func (e *Error) Unwrap() error {
	return e.cause
}

// NotFound returns a not-found error for the named resource.
func NotFound(resource string) *Error {
	return &Error{Kind: KindNotFound, Message: resource + " not found"}
}

// Forbidden returns a permission rejection carrying a human-readable reason.
func Forbidden(reason string) *Error {
	return &Error{Kind: KindForbidden, Message: reason}
}

// Validation returns a malformed-input error with per-field details.
func Validation(msg string, details map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: msg, Details: details}
}

// Unauthorized returns an authentication failure.
func Unauthorized(msg string) *Error {
	return &Error{Kind: KindUnauthorized, Message: msg}
}

// Conflict returns a uniqueness or state conflict error.
func Conflict(msg string, details map[string]string) *Error {
	return &Error{Kind: KindConflict, Message: msg, Details: details}
}

// Infrastructure wraps a persistence or collaborator failure. The cause is
// preserved for logging but the kind is what callers dispatch on.
func Infrastructure(msg string, cause error) *Error {
	return &Error{Kind: KindInfrastructure, Message: msg, cause: cause}
}

// KindOf extracts the kind from err, or KindInfrastructure when err is not
// an *Error. A nil err has no kind and returns the empty string.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInfrastructure
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
