package dto

import (
	"errors"
	"net/http"

	"github.com/sklad/pos/internal/domain/shared"
)

// Error codes produced by the HTTP layer itself. Domain errors keep their
// own codes (INSUFFICIENT_STOCK, DAY_ALREADY_CLOSED, ...).
const (
	// ErrCodeInternal is used for errors that are not domain errors
	ErrCodeInternal = "INTERNAL_ERROR"
	// ErrCodeValidation is used when request binding fails
	ErrCodeValidation = "VALIDATION_FAILED"
	// ErrCodeBadRequest is used for malformed path or query parameters
	ErrCodeBadRequest = "BAD_REQUEST"
	// ErrCodeOperatorRequired is used when a money-moving call carries no operator
	ErrCodeOperatorRequired = "OPERATOR_REQUIRED"
	// ErrCodeRequestInProgress is used when an idempotency key is still held
	// by an unfinished request
	ErrCodeRequestInProgress = "REQUEST_IN_PROGRESS"
)

// KindHTTPStatus maps an error kind to its default HTTP status
var KindHTTPStatus = map[shared.ErrorKind]int{
	shared.KindValidation:  http.StatusBadRequest,
	shared.KindNotFound:    http.StatusNotFound,
	shared.KindConflict:    http.StatusUnprocessableEntity,
	shared.KindPersistence: http.StatusInternalServerError,
}

// CodeHTTPStatus overrides the kind default for individual codes
var CodeHTTPStatus = map[string]int{
	shared.ErrDuplicateCode.Code:       http.StatusConflict,
	shared.ErrConcurrencyConflict.Code: http.StatusConflict,
	shared.ErrForbidden.Code:           http.StatusForbidden,
	ErrCodeValidation:                  http.StatusBadRequest,
	ErrCodeBadRequest:                  http.StatusBadRequest,
	ErrCodeOperatorRequired:            http.StatusUnauthorized,
	ErrCodeRequestInProgress:           http.StatusConflict,
	"PDF_UNAVAILABLE":                  http.StatusNotImplemented,
	ErrCodeInternal:                    http.StatusInternalServerError,
}

// GetHTTPStatus returns the status for a domain error
func GetHTTPStatus(err *shared.DomainError) int {
	if status, ok := CodeHTTPStatus[err.Code]; ok {
		return status
	}
	if status, ok := KindHTTPStatus[err.Kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// FromError converts any error into a status and response body. Persistence
// failures and foreign errors never expose their cause.
func FromError(err error, requestID string) (int, Response) {
	var de *shared.DomainError
	if !errors.As(err, &de) {
		return http.StatusInternalServerError, NewErrorResponse(ErrCodeInternal, "An unexpected error occurred", requestID)
	}
	if de.Kind == shared.KindPersistence {
		return http.StatusInternalServerError, NewErrorResponse(de.Code, de.Message, requestID)
	}
	return GetHTTPStatus(de), NewErrorResponseWithDetails(de.Code, de.Message, requestID, de.Details)
}
