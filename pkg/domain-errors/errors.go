// Package domainerrors defines the closed set of error codes shared by all
// attestry services. Services classify every failure crossing an API boundary
// into one of these codes; transports map codes to their own status space.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies a class of failure. The set is closed: callers switch on
// codes, so adding one is an API change.
type Code string

const (
	// CodeUnauthorized means the acting principal lacks the role the
	// operation requires (owner-only or verifier-only actions).
	CodeUnauthorized Code = "UNAUTHORIZED"
	// CodeConflict means the subject's lifecycle state does not admit the
	// requested transition.
	CodeConflict Code = "CONFLICT"
	// CodeInvalidInput means the request was malformed before any state was
	// consulted: bad principal encoding, empty payload, zero address.
	CodeInvalidInput Code = "INVALID_INPUT"
	// CodeInvariantViolation means internal state broke an invariant that
	// must hold by construction. It signals a bug, not a caller mistake.
	CodeInvariantViolation Code = "INVARIANT_VIOLATION"
	// CodeDecryption means sealed content could not be opened with the
	// supplied key material.
	CodeDecryption Code = "DECRYPTION_FAILED"
	// CodeUnavailable means a backing store could not be reached or answered
	// with a transient fault. Retryable.
	CodeUnavailable Code = "STORE_UNAVAILABLE"
	// CodeNotFound means the addressed entity does not exist.
	CodeNotFound Code = "NOT_FOUND"
	// CodeInternal is the fallback for unclassified failures.
	CodeInternal Code = "INTERNAL"
)

// Error is a classified error. It optionally wraps a cause, which stays out
// of client responses but remains reachable through errors.Unwrap for logs.
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

// Is reports whether target is a domain error with the same code. A target
// with an empty message matches any message, so sentinels built with
// New(code, "") act as code-level matchers for errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	if t.Code != e.Code {
		return false
	}
	return t.Message == "" || t.Message == e.Message
}

// New returns a classified error with no cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap classifies err under code. The cause is preserved for inspection via
// errors.Unwrap; wrapping nil returns nil so call sites can wrap
// unconditionally.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether any error in err's chain carries code.
func HasCode(err error, code Code) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Code == code
}

// Is is a readability alias for HasCode at call sites that already test
// several codes in a row.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf extracts the code of the outermost domain error in err's chain,
// or CodeInternal when err carries no classification.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a code to its canonical HTTP status.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeUnauthorized:
		return http.StatusForbidden
	case CodeConflict:
		return http.StatusConflict
	case CodeInvalidInput:
		return http.StatusBadRequest
	case CodeInvariantViolation:
		return http.StatusInternalServerError
	case CodeDecryption:
		return http.StatusUnprocessableEntity
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	case CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
