package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sklad/pos/internal/domain/shared"
	"github.com/sklad/pos/internal/infrastructure/logger"
	"github.com/sklad/pos/internal/interfaces/http/dto"
	"github.com/sklad/pos/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// DateRangeQuery selects a span of calendar days, both inclusive
type DateRangeQuery struct {
	From time.Time `form:"from" time_format:"2006-01-02"`
	To   time.Time `form:"to" time_format:"2006-01-02"`
}

// Bounds returns the half-open instant range [from, to+1d). Missing bounds
// stay zero and do not filter.
func (q DateRangeQuery) Bounds() (time.Time, time.Time) {
	to := q.To
	if !to.IsZero() {
		to = to.AddDate(0, 0, 1)
	}
	return q.From, to
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// BadRequest sends a 400 response for malformed path or query values
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.ErrCodeBadRequest, message, middleware.GetRequestID(c)))
}

// HandleError converts an application error into the response envelope.
// Services log their own persistence failures; anything that is not a
// domain error is logged here.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	status, resp := dto.FromError(err, middleware.GetRequestID(c))
	var de *shared.DomainError
	if !errors.As(err, &de) {
		logger.GetGinLogger(c).Error("Unexpected error", zap.Error(err))
	}
	_ = c.Error(err)
	c.JSON(status, resp)
}

// BindJSON binds and validates the request body, writing the 400 response
// itself when binding fails
func (h *BaseHandler) BindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		middleware.HandleValidationError(c, err)
		return false
	}
	return true
}

// BindQuery binds and validates query parameters
func (h *BaseHandler) BindQuery(c *gin.Context, req any) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		middleware.HandleValidationError(c, err)
		return false
	}
	return true
}

// ParseID parses a UUID path parameter
func (h *BaseHandler) ParseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		h.BadRequest(c, "Invalid "+param+" format")
		return uuid.Nil, false
	}
	return id, true
}

// ParseDate parses a YYYY-MM-DD path parameter in local time
func (h *BaseHandler) ParseDate(c *gin.Context, param string) (time.Time, bool) {
	date, err := time.ParseInLocation(time.DateOnly, c.Param(param), time.Local)
	if err != nil {
		h.BadRequest(c, "Invalid date, expected YYYY-MM-DD")
		return time.Time{}, false
	}
	return date, true
}

// Actor returns the operator at the register. Routes that move money or
// stock sit behind RequireOperator so the zero actor only reaches reads.
func (h *BaseHandler) Actor(c *gin.Context) shared.Actor {
	actor, _ := middleware.GetActor(c)
	return actor
}
