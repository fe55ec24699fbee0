package telemetry

import (
	"context"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig configures query spans
type DBTracingConfig struct {
	Enabled         bool
	LogFullSQL      bool
	SlowQueryThresh time.Duration
	DBName          string
	// TracerProvider overrides the global provider
	TracerProvider trace.TracerProvider
}

type queryStartKey struct{}

type callbackRegister interface {
	Register(name string, fn func(*gorm.DB)) error
}

// RegisterDBTracing installs the otelgorm plugin and slow query marking on db
func RegisterDBTracing(db *gorm.DB, cfg DBTracingConfig, logger *zap.Logger) error {
	if !cfg.Enabled {
		logger.Debug("Database tracing disabled")
		return nil
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBName)}
	if !cfg.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if cfg.TracerProvider != nil {
		opts = append(opts, otelgorm.WithTracerProvider(cfg.TracerProvider))
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	if cfg.SlowQueryThresh <= 0 {
		return nil
	}
	before := func(tx *gorm.DB) {
		if tx.Statement.Context != nil {
			tx.Statement.Context = context.WithValue(tx.Statement.Context, queryStartKey{}, time.Now())
		}
	}
	after := slowQueryCallback(cfg.SlowQueryThresh, logger)
	cb := db.Callback()
	hooks := []struct {
		callback callbackRegister
		name     string
		fn       func(*gorm.DB)
	}{
		{cb.Create().Before("gorm:create"), "pos:query_start:create", before},
		{cb.Query().Before("gorm:query"), "pos:query_start:select", before},
		{cb.Update().Before("gorm:update"), "pos:query_start:update", before},
		{cb.Delete().Before("gorm:delete"), "pos:query_start:delete", before},
		{cb.Row().Before("gorm:row"), "pos:query_start:row", before},
		{cb.Raw().Before("gorm:raw"), "pos:query_start:raw", before},

		// the otelgorm after hooks end the span, so these run first
		{cb.Create().After("gorm:create").Before("otel:after:create"), "pos:slow_query:create", after},
		{cb.Query().After("gorm:query").Before("otel:after:select"), "pos:slow_query:select", after},
		{cb.Update().After("gorm:update").Before("otel:after:update"), "pos:slow_query:update", after},
		{cb.Delete().After("gorm:delete").Before("otel:after:delete"), "pos:slow_query:delete", after},
		{cb.Row().After("gorm:row").Before("otel:after:row"), "pos:slow_query:row", after},
		{cb.Raw().After("gorm:raw").Before("otel:after:raw"), "pos:slow_query:raw", after},
	}
	for _, h := range hooks {
		if err := h.callback.Register(h.name, h.fn); err != nil {
			return err
		}
	}
	logger.Info("Database tracing enabled",
		zap.Bool("full_sql", cfg.LogFullSQL),
		zap.Duration("slow_query_threshold", cfg.SlowQueryThresh))
	return nil
}

func slowQueryCallback(threshold time.Duration, logger *zap.Logger) func(*gorm.DB) {
	return func(tx *gorm.DB) {
		ctx := tx.Statement.Context
		if ctx == nil {
			return
		}
		start, ok := ctx.Value(queryStartKey{}).(time.Time)
		if !ok {
			return
		}
		elapsed := time.Since(start)
		if elapsed < threshold {
			return
		}
		span := trace.SpanFromContext(ctx)
		if span.IsRecording() {
			span.SetAttributes(
				attribute.Bool("db.slow_query", true),
				attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
			)
			span.AddEvent("slow_query_warning", trace.WithAttributes(
				attribute.Int64("threshold_ms", threshold.Milliseconds()),
			))
		}
		logger.Warn("Slow query",
			zap.String("table", tx.Statement.Table),
			zap.Duration("elapsed", elapsed),
			zap.String("trace_id", TraceID(ctx)))
	}
}
