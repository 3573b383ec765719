// Package errors defines the failure taxonomy for inventory reads and
// the classification rules that decide fallback eligibility.
package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/inventory-hub/internal/types"
)

// Kind is the category of a read failure
type Kind string

const (
	// KindTimeout represents a query that exceeded its deadline
	KindTimeout Kind = "timeout"
	// KindNetworkUnavailable represents a transport-level failure
	KindNetworkUnavailable Kind = "network_unavailable"
	// KindPermissionDenied represents an authorization failure
	KindPermissionDenied Kind = "permission_denied"
	// KindValidationFailure represents a malformed filter or projection
	KindValidationFailure Kind = "validation_failure"
	// KindNotFound represents a missing row
	KindNotFound Kind = "not_found"
	// KindCancelled represents a caller that tore down mid-operation.
	// Not a store failure: never masked by fallback data and never
	// counted against store health.
	KindCancelled Kind = "cancelled"
	// KindUnknown represents an unclassified failure
	KindUnknown Kind = "unknown"
)

// ReadError is a categorized failure from the data-access layer
type ReadError struct {
	Kind    Kind
	Code    string
	Message string
	Details map[string]interface{}
	Cause   error
}

// Error implements the error interface
func (e *ReadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause
func (e *ReadError) Unwrap() error {
	return e.Cause
}

// ToServiceError converts to a ServiceError for API responses
func (e *ReadError) ToServiceError() *types.ServiceError {
	return &types.ServiceError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	}
}

// NewTimeoutError creates a timeout error for a named operation
func NewTimeoutError(operation string, cause error) *ReadError {
	return &ReadError{
		Kind:    KindTimeout,
		Code:    "QUERY_TIMEOUT",
		Message: fmt.Sprintf("query timed out during %s", operation),
		Cause:   cause,
		Details: map[string]interface{}{
			"operation": operation,
		},
	}
}

// NewNetworkError creates a transport failure error
func NewNetworkError(operation string, cause error) *ReadError {
	return &ReadError{
		Kind:    KindNetworkUnavailable,
		Code:    "NETWORK_UNAVAILABLE",
		Message: fmt.Sprintf("backing store unreachable during %s", operation),
		Cause:   cause,
		Details: map[string]interface{}{
			"operation": operation,
		},
	}
}

// NewPermissionError creates an authorization failure error
func NewPermissionError(message string) *ReadError {
	return &ReadError{
		Kind:    KindPermissionDenied,
		Code:    "PERMISSION_DENIED",
		Message: message,
	}
}

// NewValidationError creates a malformed-input error. These indicate a
// programming mistake upstream of the store and are logged loudly.
func NewValidationError(field, reason string) *ReadError {
	return &ReadError{
		Kind:    KindValidationFailure,
		Code:    "VALIDATION_FAILURE",
		Message: fmt.Sprintf("invalid %s: %s", field, reason),
		Details: map[string]interface{}{
			"field":  field,
			"reason": reason,
		},
	}
}

// NewNotFoundError creates a missing-row error
func NewNotFoundError(resource, id string) *ReadError {
	return &ReadError{
		Kind:    KindNotFound,
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s not found: %s", resource, id),
		Details: map[string]interface{}{
			"resource": resource,
			"id":       id,
		},
	}
}

// NewCancelledError wraps a caller-initiated cancellation
func NewCancelledError(operation string, cause error) *ReadError {
	return &ReadError{
		Kind:    KindCancelled,
		Code:    "LOAD_CANCELLED",
		Message: fmt.Sprintf("caller cancelled %s", operation),
		Cause:   cause,
		Details: map[string]interface{}{
			"operation": operation,
		},
	}
}

// NewUnknownError wraps an unclassified failure
func NewUnknownError(operation string, cause error) *ReadError {
	return &ReadError{
		Kind:    KindUnknown,
		Code:    "UNKNOWN_ERROR",
		Message: fmt.Sprintf("unexpected error during %s", operation),
		Cause:   cause,
		Details: map[string]interface{}{
			"operation": operation,
		},
	}
}

// Postgres SQLSTATE codes that map to permission failures
const (
	pgInvalidAuthorization  = "28000"
	pgInsufficientPrivilege = "42501"
)

// Classify maps an arbitrary error from the store layer onto the
// taxonomy. Already-classified errors pass through unchanged.
func Classify(operation string, err error) *ReadError {
	if err == nil {
		return nil
	}

	var readErr *ReadError
	if errors.As(err, &readErr) {
		return readErr
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return NewTimeoutError(operation, err)
	}

	// Cooperative teardown, not a store outcome. Checked before the
	// driver error shapes because drivers wrap the context error.
	if errors.Is(err, context.Canceled) {
		return NewCancelledError(operation, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgInvalidAuthorization, pgInsufficientPrivilege:
			return NewPermissionError(pgErr.Message)
		}
		return NewUnknownError(operation, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return NewTimeoutError(operation, err)
		}
		return NewNetworkError(operation, err)
	}

	return NewUnknownError(operation, err)
}

// KindOf returns the taxonomy kind for an error, KindUnknown if it
// cannot be classified.
func KindOf(err error) Kind {
	classified := Classify("", err)
	if classified == nil {
		return KindUnknown
	}
	return classified.Kind
}

// CanFallback reports whether a failure may be masked by the fallback
// snapshot. Authorization failures never fall back: data absence there
// is not an infrastructure problem, and stale data must not be shown as
// if the user still had access. Validation failures are programmer
// errors and are surfaced as-is. Cancellations belong to a caller that
// already tore down, so there is nobody to show fallback data to.
func CanFallback(err error) bool {
	switch KindOf(err) {
	case KindTimeout, KindNetworkUnavailable, KindUnknown:
		return true
	default:
		return false
	}
}

// IsRetryable reports whether the caller may usefully retry
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case KindTimeout, KindNetworkUnavailable:
		return true
	default:
		return false
	}
}

// HTTPStatus maps an error onto an HTTP status code for the API layer
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindTimeout:
		return http.StatusGatewayTimeout
	case KindNetworkUnavailable:
		return http.StatusServiceUnavailable
	case KindPermissionDenied:
		return http.StatusForbidden
	case KindValidationFailure:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindCancelled:
		// Client went away mid-request; nginx's non-standard code.
		return 499
	default:
		return http.StatusInternalServerError
	}
}
