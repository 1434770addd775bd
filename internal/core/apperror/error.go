// Package apperror provides structured error handling following RFC 7807 Problem Details.
// All business errors must use AppError for consistent API responses.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes grouped by failure class
const (
	// Infrastructure errors (5xx)
	CodeInternal = "INTERNAL_ERROR"
	CodeDatabase = "DATABASE_ERROR"
	CodeTimeout  = "TIMEOUT_ERROR"

	// Validation errors (400)
	CodeValidation   = "VALIDATION_ERROR"
	CodeInvalidInput = "INVALID_INPUT"

	// Business rule violations (422)
	CodeBusinessRule            = "BUSINESS_RULE_VIOLATION"
	CodeInsufficientStock       = "INSUFFICIENT_STOCK"
	CodeInsufficientIngredients = "INSUFFICIENT_INGREDIENTS"
	CodeInvalidBatchState       = "INVALID_BATCH_STATE"
	CodeOverRestore             = "OVER_RESTORE"
	CodeConcurrentModification  = "CONCURRENT_MODIFICATION"

	// Informational (per-line, never fatal)
	CodeNoRecipe = "NO_RECIPE"

	// Fatal invariant violations. Must never be swallowed.
	CodeInternalInvariant = "INTERNAL_INVARIANT_VIOLATION"

	// Not found (404)
	CodeNotFound      = "NOT_FOUND"
	CodeBatchNotFound = "BATCH_NOT_FOUND"

	// Conflict (409)
	CodeConflict  = "CONFLICT"
	CodeDuplicate = "DUPLICATE_ENTRY"
)

// AppError is the standard error type for the engine.
// It implements error interface and provides structured details for API responses.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (field errors, quantities, etc.)
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

// NewBatchNotFound is returned when a batch does not exist.
func NewBatchNotFound(batchID any) *AppError {
	return &AppError{
		Code:       CodeBatchNotFound,
		Message:    "batch not found",
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"batch_id": batchID},
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

// NewInsufficientStock is returned when a single batch movement would drive
// quantity-remaining negative.
func NewInsufficientStock(batchID string, requested, available float64) *AppError {
	return &AppError{
		Code:       CodeInsufficientStock,
		Message:    "insufficient stock in batch",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details: map[string]any{
			"batch_id":  batchID,
			"requested": requested,
			"available": available,
		},
	}
}

// NewInsufficientIngredients is returned when an order line cannot be satisfied.
// Per-line failure: other lines in the same order still attempt processing.
func NewInsufficientIngredients(productID string) *AppError {
	return &AppError{
		Code:       CodeInsufficientIngredients,
		Message:    "insufficient ingredients for order line",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"product_id": productID},
	}
}

// NewNoRecipe indicates a product has no active recipe. Informational:
// the order line proceeds without automatic deduction.
func NewNoRecipe(productID string) *AppError {
	return &AppError{
		Code:       CodeNoRecipe,
		Message:    "no active recipe for product",
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"product_id": productID},
	}
}

// NewInvalidBatchState is returned when a movement targets a batch whose
// status forbids it (e.g. disposed).
func NewInvalidBatchState(batchID, status string) *AppError {
	return &AppError{
		Code:       CodeInvalidBatchState,
		Message:    fmt.Sprintf("batch in status %q cannot accept movements", status),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"batch_id": batchID, "status": status},
	}
}

// NewOverRestore is returned when a compensating movement would push
// quantity-remaining above original-quantity.
func NewOverRestore(batchID string, requested, headroom float64) *AppError {
	return &AppError{
		Code:       CodeOverRestore,
		Message:    "restore would exceed original batch quantity",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details: map[string]any{
			"batch_id":  batchID,
			"requested": requested,
			"headroom":  headroom,
		},
	}
}

// NewConcurrentModification creates an optimistic locking error.
// The caller should retry the failed commit.
func NewConcurrentModification(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeConcurrentModification,
		Message:    "record was modified concurrently, retry the operation",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewInternalInvariant reports a broken ledger invariant (e.g. conservation
// check failure). Fatal: halts further processing, requires operator attention.
func NewInternalInvariant(message string) *AppError {
	return &AppError{
		Code:       CodeInternalInvariant,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
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

// HasCode checks whether err carries the given error code.
func HasCode(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}

// IsNotFound checks if error is CodeNotFound or CodeBatchNotFound
func IsNotFound(err error) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == CodeNotFound || appErr.Code == CodeBatchNotFound
	}
	return false
}

// IsConcurrentModification checks if error is CodeConcurrentModification
func IsConcurrentModification(err error) bool {
	return HasCode(err, CodeConcurrentModification)
}

// IsInsufficient checks whether err is a stock/ingredient shortage.
func IsInsufficient(err error) bool {
	return HasCode(err, CodeInsufficientStock) || HasCode(err, CodeInsufficientIngredients)
}
