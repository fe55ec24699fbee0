package middleware

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sklad/pos/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type depositRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"money"`
	Note   string          `json:"note" binding:"required,max=5"`
}

type lookupQuery struct {
	Number string `form:"number" binding:"required,doc_number"`
}

func newValidationEngine() *gin.Engine {
	SetupValidator()
	engine := gin.New()
	engine.Use(RequestID())
	engine.POST("/deposit", func(c *gin.Context) {
		var req depositRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"amount": req.Amount})
	})
	engine.GET("/lookup", func(c *gin.Context) {
		var q lookupQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"number": q.Number})
	})
	return engine
}

func TestMoneyValidation(t *testing.T) {
	engine := newValidationEngine()

	tests := []struct {
		amount string
		ok     bool
	}{
		{"0", true},
		{"1250.5", true},
		{"99.90", true},
		{"10.005", false},
		{"-1", false},
	}
	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			w := testutil.Perform(t, engine, testutil.Request{
				Method: http.MethodPost,
				Path:   "/deposit",
				Body:   map[string]any{"amount": tt.amount, "note": "x"},
			})
			if tt.ok {
				assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
				return
			}
			testutil.AssertErrorResponse(t, w, http.StatusBadRequest, "VALIDATION_FAILED")
		})
	}
}

func TestValidationDetails(t *testing.T) {
	engine := newValidationEngine()

	w := testutil.Perform(t, engine, testutil.Request{
		Method: http.MethodPost,
		Path:   "/deposit",
		Body:   map[string]any{"amount": "1", "note": "too long"},
	})

	testutil.AssertErrorResponse(t, w, http.StatusBadRequest, "VALIDATION_FAILED")
	errInfo := testutil.JSONResponse(t, w)["error"].(map[string]any)
	fields := errInfo["validation"].([]any)
	require.Len(t, fields, 1)
	assert.Equal(t, "note", fields[0].(map[string]any)["field"])
	assert.Equal(t, "Must be at most 5 characters", fields[0].(map[string]any)["message"])
	assert.NotEmpty(t, testutil.JSONResponse(t, w)["request_id"])
}

func TestMalformedBody(t *testing.T) {
	engine := newValidationEngine()

	w := testutil.Perform(t, engine, testutil.Request{
		Method: http.MethodPost,
		Path:   "/deposit",
		Body:   map[string]any{"amount": "not a number", "note": "x"},
	})

	testutil.AssertErrorResponse(t, w, http.StatusBadRequest, "VALIDATION_FAILED")
	assert.Contains(t, testutil.JSONResponse(t, w)["error"].(map[string]any)["message"], "Request body is invalid")
}

func TestDocNumberValidation(t *testing.T) {
	engine := newValidationEngine()

	w := testutil.Perform(t, engine, testutil.Request{Path: "/lookup?number=U0042/2025"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = testutil.Perform(t, engine, testutil.Request{Path: "/lookup?number=R12345/2025"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = testutil.Perform(t, engine, testutil.Request{Path: "/lookup?number=X0042/2025"})
	testutil.AssertErrorResponse(t, w, http.StatusBadRequest, "VALIDATION_FAILED")
}
