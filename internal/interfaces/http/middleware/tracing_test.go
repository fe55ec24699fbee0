package middleware

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sklad/pos/internal/domain/shared"
	"github.com/sklad/pos/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestTracing(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	engine := gin.New()
	engine.Use(
		Tracing("sklad-pos", otelgin.WithTracerProvider(tp)),
		RequestID(),
		Operator(),
		SpanAttributes(),
		SpanErrorMarker(),
	)
	engine.GET("/api/v1/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	engine.GET("/api/v1/gift-cards/:code", func(c *gin.Context) {
		if c.Param("code") == "missing" {
			_ = c.Error(shared.NewNotFoundError("Gift card", "missing"))
			c.Status(http.StatusNotFound)
			return
		}
		c.Status(http.StatusOK)
	})

	lastSpan := func(t *testing.T) sdktrace.ReadOnlySpan {
		t.Helper()
		spans := sr.Ended()
		require.NotEmpty(t, spans)
		return spans[len(spans)-1]
	}
	attrs := func(s sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
		m := map[attribute.Key]attribute.Value{}
		for _, a := range s.Attributes() {
			m[a.Key] = a.Value
		}
		return m
	}

	t.Run("span carries route, request id and operator", func(t *testing.T) {
		testutil.Perform(t, engine, testutil.Request{
			Path:    "/api/v1/gift-cards/GC-1",
			Headers: map[string]string{RequestIDHeader: "req-1", OperatorNameHeader: "Jana"},
		})

		span := lastSpan(t)
		assert.Equal(t, "GET /api/v1/gift-cards/:code", span.Name())
		assert.Equal(t, codes.Unset, span.Status().Code)
		a := attrs(span)
		assert.Equal(t, "req-1", a["request_id"].AsString())
		assert.Equal(t, "Jana", a["operator"].AsString())
	})

	t.Run("client errors mark the span", func(t *testing.T) {
		testutil.Perform(t, engine, testutil.Request{Path: "/api/v1/gift-cards/missing"})

		span := lastSpan(t)
		assert.Equal(t, codes.Error, span.Status().Code)
		assert.Equal(t, shared.ErrNotFound.Code, attrs(span)["error.code"].AsString())
	})

	t.Run("health probes are not traced", func(t *testing.T) {
		before := len(sr.Ended())
		testutil.Perform(t, engine, testutil.Request{Path: "/api/v1/health"})
		assert.Len(t, sr.Ended(), before)
	})
}
