package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sklad/pos/internal/domain/shared"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// MaxRequestIDLength caps the request id copied onto spans
const MaxRequestIDLength = 128

// Tracing starts a server span per request through otelgin. Health probes
// are not traced.
func Tracing(serviceName string, opts ...otelgin.Option) gin.HandlerFunc {
	opts = append([]otelgin.Option{otelgin.WithFilter(func(r *http.Request) bool {
		return !strings.HasSuffix(r.URL.Path, "/health")
	})}, opts...)
	return otelgin.Middleware(serviceName, opts...)
}

// SpanAttributes copies the request id and operator onto the active span.
// It runs after RequestID and Operator.
func SpanAttributes() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if span.IsRecording() {
			if id := GetRequestID(c); id != "" {
				if len(id) > MaxRequestIDLength {
					id = id[:MaxRequestIDLength]
				}
				span.SetAttributes(attribute.String("request_id", id))
			}
			if name := c.GetString(OperatorKey); name != "" {
				span.SetAttributes(attribute.String("operator", name))
			}
		}
		c.Next()
	}
}

// SpanErrorMarker marks 4xx responses on the span, which otelgin leaves
// unset, and tags the domain error code when a handler reported one
func SpanErrorMarker() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			return
		}
		for _, ginErr := range c.Errors {
			var de *shared.DomainError
			if errors.As(ginErr.Err, &de) {
				span.SetAttributes(attribute.String("error.code", de.Code))
				break
			}
		}
		status := c.Writer.Status()
		if status >= http.StatusBadRequest && status < http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
	}
}
