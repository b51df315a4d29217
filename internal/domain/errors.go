package domain

import (
	"errors"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
// Implementing this interface enables extensible error handling (OCP compliance).
type HTTPError interface {
	error
	StatusCode() int
}

// Domain error types implementing HTTPError interface
type (
	// NotFoundError indicates a resource was not found
	NotFoundError struct {
		Message string
	}

	// ValidationError indicates invalid input
	ValidationError struct {
		Message string
	}

	// UnauthorizedError indicates authentication failure
	UnauthorizedError struct {
		Message string
	}

	// InvalidStateError indicates an operation that is illegal for the
	// draft's current lifecycle status (e.g. publishing a draft that was
	// never planned). The caller must re-plan; retrying is pointless.
	InvalidStateError struct {
		Message string
	}
)

// Error implementations
func (e *NotFoundError) Error() string     { return e.Message }
func (e *ValidationError) Error() string   { return e.Message }
func (e *UnauthorizedError) Error() string { return e.Message }
func (e *InvalidStateError) Error() string { return e.Message }

// StatusCode implementations (HTTPError interface)
func (e *NotFoundError) StatusCode() int     { return http.StatusNotFound }
func (e *ValidationError) StatusCode() int   { return http.StatusBadRequest }
func (e *UnauthorizedError) StatusCode() int { return http.StatusUnauthorized }
func (e *InvalidStateError) StatusCode() int { return http.StatusConflict }

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("validation failed")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInvalidState      = errors.New("invalid draft state")
	ErrValidationBlocked = errors.New("publish blocked by validation")
)

// Is allows errors.Is() to match against the sentinels
func (e *NotFoundError) Is(target error) bool     { return target == ErrNotFound }
func (e *ValidationError) Is(target error) bool   { return target == ErrValidation }
func (e *InvalidStateError) Is(target error) bool { return target == ErrInvalidState }

// ValidationBlockedError is raised when a draft's plan exists but its
// can_publish flag is false and the caller did not force. It carries the
// validation issue list so the caller can decide to fix inputs or force.
// Issues is loosely typed here to keep the domain package free of a
// dependency on the vmbuilder models; handlers re-serialize it as-is.
type ValidationBlockedError struct {
	Message string
	Issues  any
}

// Error implements the error interface
func (e *ValidationBlockedError) Error() string {
	return e.Message
}

// StatusCode implements the HTTPError interface
func (e *ValidationBlockedError) StatusCode() int {
	return http.StatusUnprocessableEntity
}

// Is allows errors.Is() to match against ErrValidationBlocked
func (e *ValidationBlockedError) Is(target error) bool {
	return target == ErrValidationBlocked
}

// TransactionError wraps a store error that aborted a publish transaction.
// The whole transaction has been rolled back; the underlying store error is
// preserved for errors.Is/errors.As inspection, not swallowed.
type TransactionError struct {
	Message string
	Cause   error
}

// Error implements the error interface
func (e *TransactionError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap exposes the underlying store error
func (e *TransactionError) Unwrap() error { return e.Cause }

// StatusCode implements the HTTPError interface
func (e *TransactionError) StatusCode() int { return http.StatusInternalServerError }
