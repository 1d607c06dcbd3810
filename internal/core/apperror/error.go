// Package apperror provides structured error handling following RFC 7807 Problem Details.
// All business errors must use AppError for consistent API responses.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes following domain-driven design
const (
	// Infrastructure errors (5xx)
	CodeInternal = "INTERNAL_ERROR"
	CodeDatabase = "DATABASE_ERROR"
	CodeTimeout  = "TIMEOUT_ERROR"

	// Validation errors (400)
	CodeValidation   = "VALIDATION_ERROR"
	CodeInvalidInput = "INVALID_INPUT"

	// Business rule violations (422)
	CodeBusinessRule           = "BUSINESS_RULE_VIOLATION"
	CodeDocumentDeleted        = "DOCUMENT_DELETED"
	CodeSequenceExhausted      = "SEQUENCE_EXHAUSTED"
	CodeConcurrentModification = "CONCURRENT_MODIFICATION"

	// Numbering (409, 503)
	CodeReservationInvalid = "RESERVATION_INVALID"
	CodeSequenceContention = "SEQUENCE_CONTENTION"

	// Rendering and printing
	CodeRenderFailed       = "PDF_RENDER_FAILED"
	CodePrintFailed        = "PRINT_FAILED"
	CodePrintAgentDisabled = "PRINT_AGENT_DISABLED"

	// Not found (404)
	CodeNotFound = "NOT_FOUND"

	// Conflict (409)
	CodeConflict    = "CONFLICT"
	CodeDuplicate   = "DUPLICATE_ENTRY"
	CodeIdempotency = "IDEMPOTENCY_CONFLICT"
)

// AppError is the standard error type for the platform.
// It implements error interface and provides structured details for API responses.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (field errors, line numbers, etc.)
	Details map[string]any `json:"details,omitempty"`

	// HTTPStatus is the suggested HTTP status code
	HTTPStatus int `json:"-"`

	// Err is the underlying error (not exposed in JSON)
	Err error `json:"-"`
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// --- Factory functions for common errors ---

// NewValidation creates a validation error (400)
func NewValidation(message string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewNotFound creates a not found error (404)
func NewNotFound(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", entity),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewBusinessRule creates a business rule violation error (422)
func NewBusinessRule(code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

// NewConcurrentModification creates an optimistic locking error
func NewConcurrentModification(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeConcurrentModification,
		Message:    "Record was modified by another user. Please refresh and try again.",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewInternal creates an internal server error (hides details from client)
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewConflict creates a conflict error (409)
func NewConflict(message string) *AppError {
	return &AppError{
		Code:       CodeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

// NewDuplicate creates a duplicate entry error (409)
func NewDuplicate(entity, field, value string) *AppError {
	return &AppError{
		Code:       CodeDuplicate,
		Message:    fmt.Sprintf("%s with this %s already exists", entity, field),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "field": field, "value": value},
	}
}

// NewSequenceContention reports a lock timeout or serialization failure while
// allocating a number. Nothing was committed, so the caller may retry.
func NewSequenceContention(key string, err error) *AppError {
	return &AppError{
		Code:       CodeSequenceContention,
		Message:    "Number allocation is busy, please retry",
		HTTPStatus: http.StatusServiceUnavailable,
		Details:    map[string]any{"sequence": key, "retryable": true},
		Err:        err,
	}
}

// NewSequenceExhausted is returned when a counter would pass its ceiling.
func NewSequenceExhausted(key string, ceiling int64) *AppError {
	return &AppError{
		Code:       CodeSequenceExhausted,
		Message:    fmt.Sprintf("Sequence %s reached its ceiling %d", key, ceiling),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"sequence": key, "ceiling": ceiling},
	}
}

// NewReservationInvalid is returned when a pre-reserved number is unknown or already used.
func NewReservationInvalid(key string, value int64) *AppError {
	return &AppError{
		Code:       CodeReservationInvalid,
		Message:    "Number is not reserved or was already used",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"sequence": key, "value": value},
	}
}

// NewDocumentDeleted is returned when a soft-deleted document is modified.
func NewDocumentDeleted(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeDocumentDeleted,
		Message:    fmt.Sprintf("%s is deleted", entity),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewRenderFailed wraps a rendering or filesystem failure.
func NewRenderFailed(err error) *AppError {
	return &AppError{
		Code:       CodeRenderFailed,
		Message:    "Document could not be rendered",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewPrintFailed wraps a print agent failure.
func NewPrintFailed(err error) *AppError {
	return &AppError{
		Code:       CodePrintFailed,
		Message:    "Label could not be sent to the printer",
		HTTPStatus: http.StatusBadGateway,
		Err:        err,
	}
}

// NewPrintAgentDisabled is returned when no print agent is configured.
func NewPrintAgentDisabled() *AppError {
	return &AppError{
		Code:       CodePrintAgentDisabled,
		Message:    "Print agent is not configured",
		HTTPStatus: http.StatusServiceUnavailable,
	}
}

// NewIdempotencyConflict is returned while a request with the same key is still running.
func NewIdempotencyConflict(key string) *AppError {
	return &AppError{
		Code:       CodeIdempotency,
		Message:    "Operation already in progress",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"idempotency_key": key},
	}
}

// NewIdempotencyMismatch is returned when the same idempotency key is reused for
// a different request (different terminal, operation or body).
func NewIdempotencyMismatch(key string) *AppError {
	return &AppError{
		Code:       CodeIdempotency,
		Message:    "Idempotency key mismatch",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"idempotency_key": key},
	}
}

// --- Helper functions ---

// IsAppError checks if error is AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError extracts AppError from error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetHTTPStatus returns appropriate HTTP status for any error
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// HasCode reports whether err carries an AppError with the given code.
func HasCode(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}

// IsNotFound checks if error is CodeNotFound
func IsNotFound(err error) bool {
	return HasCode(err, CodeNotFound)
}

// IsValidation checks if error is CodeValidation
func IsValidation(err error) bool {
	return HasCode(err, CodeValidation)
}

// IsConcurrentModification checks if error is CodeConcurrentModification
func IsConcurrentModification(err error) bool {
	return HasCode(err, CodeConcurrentModification)
}
