// Package domain holds the entity types and error taxonomy shared across
// the commerce spine.
package domain

import (
	"errors"
	"fmt"
)

// Application error codes. These map to HTTP status codes and determine
// user-facing messages.
const (
	ECONFLICT     = "conflict"        // 409 - duplicate email, job already running, etc.
	EINTERNAL     = "internal"        // 500 - internal error (hide details)
	EINVALID      = "invalid"         // 400 - validation error
	ENOTFOUND     = "not_found"       // 404
	EUNAUTHORIZED = "unauthenticated" // 401
	EFORBIDDEN    = "forbidden"       // 403 - role gate
	ERATELIMIT    = "rate_limited"    // 429
	EUPSTREAM     = "upstream"        // 502/500 - gateway, rater, SFTP failure
)

// Error represents an application error with a code and message. It
// implements the error interface and supports error wrapping.
type Error struct {
	// Code is a machine-readable error code (one of the E* constants).
	Code string

	// Message is a human-readable error message safe to show to users.
	Message string

	// Op is the operation where the error occurred (e.g., "order.refund").
	Op string

	// Err is the underlying error, if any.
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		if e.Op != "" {
			return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
		}
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// ErrorCode extracts the error code from an error. Returns "" for nil
// and EINTERNAL for non-domain errors.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return EINTERNAL
}

// ErrorMessage extracts a user-facing message from an error. Internal
// errors are masked to avoid leaking details.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		if e.Code == EINTERNAL {
			return "An internal error occurred. Please try again later."
		}
		return e.Message
	}
	return "An internal error occurred. Please try again later."
}

// ErrorOp extracts the operation name from an error, for logging.
func ErrorOp(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Op
	}
	return ""
}

// Errorf creates a new domain error with a formatted message.
func Errorf(code, op, format string, args ...interface{}) error {
	return &Error{Code: code, Op: op, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an existing error with a domain error code and operation.
// Returns nil if err is nil.
func Wrap(err error, code, op, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Op: op, Message: message, Err: err}
}

func IsCode(err error, code string) bool { return ErrorCode(err) == code }

func NotFound(op, resource, identifier string) error {
	return &Error{Code: ENOTFOUND, Op: op, Message: fmt.Sprintf("%s not found: %s", resource, identifier)}
}

func Unauthorized(op, message string) error {
	return &Error{Code: EUNAUTHORIZED, Op: op, Message: message}
}

func Forbidden(op, message string) error {
	return &Error{Code: EFORBIDDEN, Op: op, Message: message}
}

func Invalid(op, message string) error {
	return &Error{Code: EINVALID, Op: op, Message: message}
}

func Conflict(op, message string) error {
	return &Error{Code: ECONFLICT, Op: op, Message: message}
}

func RateLimited(op, message string) error {
	return &Error{Code: ERATELIMIT, Op: op, Message: message}
}

func Upstream(err error, op, message string) error {
	return &Error{Code: EUPSTREAM, Op: op, Message: message, Err: err}
}

func Internal(err error, op, message string) error {
	return &Error{Code: EINTERNAL, Op: op, Message: message, Err: err}
}
