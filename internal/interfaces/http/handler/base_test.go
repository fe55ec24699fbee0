package handler

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sklad/pos/internal/domain/shared"
	"github.com/sklad/pos/internal/interfaces/http/middleware"
	"github.com/sklad/pos/internal/testutil"
	"github.com/stretchr/testify/assert"
)

func TestDateRangeQuery_Bounds(t *testing.T) {
	q := DateRangeQuery{
		From: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC),
	}
	from, to := q.Bounds()
	assert.Equal(t, q.From, from)
	assert.Equal(t, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), to)

	from, to = DateRangeQuery{}.Bounds()
	assert.True(t, from.IsZero())
	assert.True(t, to.IsZero())
}

func TestBaseHandler_HandleError(t *testing.T) {
	var h BaseHandler
	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.GET("/conflict", func(c *gin.Context) {
		h.HandleError(c, shared.NewDomainError("DAY_ALREADY_STARTED", "The cash register day has already been started"))
	})
	engine.GET("/foreign", func(c *gin.Context) {
		h.HandleError(c, errors.New("driver exploded"))
	})
	engine.GET("/date/:date", func(c *gin.Context) {
		date, ok := h.ParseDate(c, "date")
		if !ok {
			return
		}
		h.Success(c, gin.H{"date": date.Format(time.DateOnly)})
	})

	w := testutil.Perform(t, engine, testutil.Request{Path: "/conflict"})
	testutil.AssertErrorResponse(t, w, http.StatusUnprocessableEntity, "DAY_ALREADY_STARTED")

	w = testutil.Perform(t, engine, testutil.Request{Path: "/foreign"})
	testutil.AssertErrorResponse(t, w, http.StatusInternalServerError, "INTERNAL_ERROR")
	assert.NotContains(t, w.Body.String(), "driver exploded")

	w = testutil.Perform(t, engine, testutil.Request{Path: "/date/2025-06-10"})
	assert.Equal(t, "2025-06-10", testutil.ResponseData(t, w)["date"])

	w = testutil.Perform(t, engine, testutil.Request{Path: "/date/10.6.2025"})
	testutil.AssertErrorResponse(t, w, http.StatusBadRequest, "BAD_REQUEST")
}
