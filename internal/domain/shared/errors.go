package shared

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a domain error for callers that only care about the
// broad category (validation, state conflict, not found, persistence).
type ErrorKind string

const (
	KindValidation  ErrorKind = "VALIDATION"
	KindConflict    ErrorKind = "CONFLICT"
	KindNotFound    ErrorKind = "NOT_FOUND"
	KindPersistence ErrorKind = "PERSISTENCE"
)

// DomainError represents a domain-level error
type DomainError struct {
	Kind    ErrorKind      `json:"kind"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	cause   error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause, if any
func (e *DomainError) Unwrap() error {
	return e.cause
}

// Is reports whether target is a DomainError with the same code.
// This lets callers write errors.Is(err, shared.ErrInsufficientStock)
// even when err carries operation-specific details.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithDetail returns a copy of the error with an extra detail attached
func (e *DomainError) WithDetail(key string, value any) *DomainError {
	details := make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	return &DomainError{Kind: e.Kind, Code: e.Code, Message: e.Message, Details: details, cause: e.cause}
}

// NewDomainError creates a new state-conflict domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Kind:    KindConflict,
		Code:    code,
		Message: message,
	}
}

// NewValidationError creates an input validation error
func NewValidationError(code, message string) *DomainError {
	return &DomainError{
		Kind:    KindValidation,
		Code:    code,
		Message: message,
	}
}

// NewNotFoundError creates a not-found error for the given entity and key
func NewNotFoundError(entity, key string) *DomainError {
	return &DomainError{
		Kind:    KindNotFound,
		Code:    ErrNotFound.Code,
		Message: fmt.Sprintf("%s %q not found", entity, key),
		Details: map[string]any{"entity": entity, "key": key},
	}
}

// NewPersistenceError wraps a storage failure. The message stays generic so
// callers never see driver internals; the cause is kept for logging.
func NewPersistenceError(cause error) *DomainError {
	return &DomainError{
		Kind:    KindPersistence,
		Code:    ErrPersistenceFailure.Code,
		Message: ErrPersistenceFailure.Message,
		cause:   cause,
	}
}

// IsPersistence reports whether err is a storage failure rather than a
// business rule violation
func IsPersistence(err error) bool {
	var de *DomainError
	return errors.As(err, &de) && de.Kind == KindPersistence
}

// Common domain errors
var (
	ErrNotFound            = &DomainError{Kind: KindNotFound, Code: "NOT_FOUND", Message: "Resource not found"}
	ErrInvalidInput        = NewValidationError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrForbidden           = NewDomainError("FORBIDDEN", "Operation requires an administrator")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrInsufficientStock   = NewDomainError("INSUFFICIENT_STOCK", "Insufficient stock available")
	ErrInsufficientBalance = NewDomainError("INSUFFICIENT_BALANCE", "Insufficient balance in the cash register")
	ErrDuplicateCode       = NewDomainError("DUPLICATE_CODE", "Code is already in use")
	ErrPersistenceFailure  = &DomainError{Kind: KindPersistence, Code: "PERSISTENCE_FAILURE", Message: "The operation could not be saved"}
)
