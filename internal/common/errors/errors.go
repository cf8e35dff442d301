// Package errors provides standardized error handling for the listing search client.
package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Remote search errors
const (
	ErrCodeSearchTransportFailed   ErrorCode = "SEARCH_TRANSPORT_FAILED"
	ErrCodeSearchStatusUnexpected  ErrorCode = "SEARCH_STATUS_UNEXPECTED"
	ErrCodeSearchResponseMalformed ErrorCode = "SEARCH_RESPONSE_MALFORMED"
	ErrCodeSearchTimeout           ErrorCode = "SEARCH_TIMEOUT"

	ErrCodeCacheUnavailable ErrorCode = "CACHE_UNAVAILABLE"

	ErrCodeInvalidFilterName ErrorCode = "INVALID_FILTER_NAME"
	ErrCodeInvalidSortKey    ErrorCode = "INVALID_SORT_KEY"
	ErrCodeInvalidPageIndex  ErrorCode = "INVALID_PAGE_INDEX"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause to errors.Is / errors.As.
func (e *StandardError) Unwrap() error {
	return e.cause
}

// ==========================
// 2. Error Constructors
// ==========================

// NewSearchTransportFailedError creates a retryable network-level error.
func NewSearchTransportFailedError(endpoint string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchTransportFailed,
		Message:   "Search endpoint unreachable",
		Details:   fmt.Sprintf("endpoint: %s, error: %s", endpoint, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewSearchStatusUnexpectedError creates an error for a non-200 response.
// 5xx responses are retryable, 4xx are not.
func NewSearchStatusUnexpectedError(status int, body string) *StandardError {
	if len(body) > 256 {
		body = body[:256]
	}
	return &StandardError{
		Code:      ErrCodeSearchStatusUnexpected,
		Message:   "Search endpoint returned an unexpected status",
		Details:   fmt.Sprintf("status: %d, body: %s", status, body),
		Retryable: status >= 500,
		Metadata:  map[string]interface{}{"status": status},
		Timestamp: time.Now().UTC(),
	}
}

// NewSearchResponseMalformedError creates a non-retryable payload shape error.
func NewSearchResponseMalformedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchResponseMalformed,
		Message:   "Search response does not match the expected shape",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSearchTimeoutError creates a retryable timeout error.
func NewSearchTimeoutError(endpoint string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchTimeout,
		Message:   "Search request timed out",
		Details:   fmt.Sprintf("endpoint: %s", endpoint),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     context.DeadlineExceeded,
	}
}

// NewCacheUnavailableError creates a retryable cache backend error.
func NewCacheUnavailableError(backend string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCacheUnavailable,
		Message:   fmt.Sprintf("Cache backend '%s' unavailable", backend),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewInvalidFilterNameError creates a non-retryable unknown filter error.
func NewInvalidFilterNameError(name string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidFilterName,
		Message:   "Unknown filter",
		Details:   fmt.Sprintf("filter: %s", name),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidSortKeyError creates a non-retryable unknown sort key error.
func NewInvalidSortKeyError(key string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidSortKey,
		Message:   "Unknown sort key",
		Details:   fmt.Sprintf("sortBy: %s", key),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidPageIndexError creates a non-retryable page index error.
func NewInvalidPageIndexError(index int) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidPageIndex,
		Message:   "Page index out of range",
		Details:   fmt.Sprintf("pageIndex: %d", index),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Normalization
// ==========================

// Classify returns err as a *StandardError. Errors that already carry a
// code are returned unchanged; context and network errors are mapped to
// the timeout/transport codes; anything else becomes INTERNAL_ERROR.
func Classify(err error) *StandardError {
	if err == nil {
		return nil
	}

	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}

	if stderrors.Is(err, context.DeadlineExceeded) {
		return &StandardError{
			Code:      ErrCodeSearchTimeout,
			Message:   "Search request timed out",
			Details:   err.Error(),
			Retryable: true,
			Timestamp: time.Now().UTC(),
			cause:     err,
		}
	}

	var netErr net.Error
	if stderrors.As(err, &netErr) {
		return &StandardError{
			Code:      ErrCodeSearchTransportFailed,
			Message:   "Search endpoint unreachable",
			Details:   err.Error(),
			Retryable: true,
			Timestamp: time.Now().UTC(),
			cause:     err,
		}
	}

	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// HasCode reports whether err normalizes to the given code.
func HasCode(err error, code ErrorCode) bool {
	if err == nil {
		return false
	}
	return Classify(err).Code == code
}

// ==========================
// 4. Utility Functions
// ==========================

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "SEARCH_RESPONSE"):
		return "PAYLOAD"
	case strings.HasPrefix(codeStr, "SEARCH"):
		return "TRANSPORT"
	case strings.HasPrefix(codeStr, "CACHE"):
		return "CACHE"
	case strings.HasPrefix(codeStr, "INVALID"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
