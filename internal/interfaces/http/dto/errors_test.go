package dto

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/sklad/pos/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  *shared.DomainError
		want int
	}{
		{"validation", shared.NewValidationError("INVALID_AMOUNT", "bad"), http.StatusBadRequest},
		{"not found", shared.NewNotFoundError("Receipt", "U0001/2025"), http.StatusNotFound},
		{"state conflict", shared.ErrInsufficientStock, http.StatusUnprocessableEntity},
		{"day already closed", shared.NewDomainError("DAY_ALREADY_CLOSED", "closed"), http.StatusUnprocessableEntity},
		{"duplicate code", shared.ErrDuplicateCode, http.StatusConflict},
		{"concurrency", shared.ErrConcurrencyConflict, http.StatusConflict},
		{"forbidden", shared.ErrForbidden, http.StatusForbidden},
		{"persistence", shared.NewPersistenceError(errors.New("disk full")), http.StatusInternalServerError},
		{"unknown kind", &shared.DomainError{Kind: "ODD", Code: "ODD"}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetHTTPStatus(tt.err))
		})
	}
}

func TestFromError(t *testing.T) {
	t.Run("domain error keeps code and details", func(t *testing.T) {
		err := fmt.Errorf("checkout: %w", shared.ErrInsufficientStock.WithDetail("available", 2))

		status, resp := FromError(err, "req-1")

		assert.Equal(t, http.StatusUnprocessableEntity, status)
		assert.False(t, resp.Success)
		assert.Equal(t, "req-1", resp.RequestID)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "INSUFFICIENT_STOCK", resp.Error.Code)
		assert.Equal(t, 2, resp.Error.Details["available"])
	})

	t.Run("persistence error hides cause", func(t *testing.T) {
		status, resp := FromError(shared.NewPersistenceError(errors.New("SQLSTATE 23505")), "")

		assert.Equal(t, http.StatusInternalServerError, status)
		assert.Equal(t, "PERSISTENCE_FAILURE", resp.Error.Code)
		assert.NotContains(t, resp.Error.Message, "SQLSTATE")
	})

	t.Run("foreign error is internal", func(t *testing.T) {
		status, resp := FromError(errors.New("boom"), "")

		assert.Equal(t, http.StatusInternalServerError, status)
		assert.Equal(t, ErrCodeInternal, resp.Error.Code)
	})
}

func TestNewValidationErrorResponse(t *testing.T) {
	resp := NewValidationErrorResponse("Request validation failed", "r", []ValidationDetail{{Field: "ean", Message: "This field is required"}})

	assert.Equal(t, ErrCodeValidation, resp.Error.Code)
	require.Len(t, resp.Error.Validation, 1)
	assert.Equal(t, "ean", resp.Error.Validation[0].Field)
}
