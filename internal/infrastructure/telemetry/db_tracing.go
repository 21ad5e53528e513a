package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig holds configuration for database tracing.
type DBTracingConfig struct {
	Enabled bool
	// DBSystem is reported as db.name on spans
	DBSystem string
	// SlowQueryThresh marks spans of slower queries with db.slow_query
	SlowQueryThresh time.Duration
	// LogFullSQL keeps bound variables in db.statement
	LogFullSQL bool
}

// DefaultDBTracingConfig returns the database tracing defaults.
func DefaultDBTracingConfig() DBTracingConfig {
	return DBTracingConfig{
		DBSystem:        "postgresql",
		SlowQueryThresh: 200 * time.Millisecond,
	}
}

type gormRegister interface {
	Register(name string, fn func(*gorm.DB)) error
}

type contextKey string

const queryStartTimeKey contextKey = "otel_query_start_time"

// RegisterDBTracing installs the otelgorm plugin plus timing callbacks that
// flag slow queries on the statement span.
func RegisterDBTracing(db *gorm.DB, cfg DBTracingConfig, logger *zap.Logger) error {
	if !cfg.Enabled {
		return nil
	}
	if cfg.SlowQueryThresh <= 0 {
		cfg.SlowQueryThresh = DefaultDBTracingConfig().SlowQueryThresh
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBSystem)}
	if !cfg.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	cb := &slowQueryCallback{threshold: cfg.SlowQueryThresh}
	callbacks := db.Callback()
	hooks := []struct {
		callback gormRegister
		hook     func(*gorm.DB)
		name     string
	}{
		{callbacks.Create().Before("gorm:create"), cb.before, "before:create"},
		{callbacks.Create().After("gorm:create").Before("otel:after:create"), cb.after, "after:create"},
		{callbacks.Query().Before("gorm:query"), cb.before, "before:select"},
		{callbacks.Query().After("gorm:query").Before("otel:after:select"), cb.after, "after:select"},
		{callbacks.Delete().Before("gorm:delete"), cb.before, "before:delete"},
		{callbacks.Delete().After("gorm:delete").Before("otel:after:delete"), cb.after, "after:delete"},
		{callbacks.Update().Before("gorm:update"), cb.before, "before:update"},
		{callbacks.Update().After("gorm:update").Before("otel:after:update"), cb.after, "after:update"},
		{callbacks.Row().Before("gorm:row"), cb.before, "before:row"},
		{callbacks.Row().After("gorm:row").Before("otel:after:row"), cb.after, "after:row"},
		{callbacks.Raw().Before("gorm:raw"), cb.before, "before:raw"},
		{callbacks.Raw().After("gorm:raw").Before("otel:after:raw"), cb.after, "after:raw"},
	}
	for _, h := range hooks {
		if err := h.callback.Register("otel_timing:"+h.name, h.hook); err != nil {
			return fmt.Errorf("callback register %s failed: %w", h.name, err)
		}
	}

	logger.Info("Database tracing enabled",
		zap.String("db_system", cfg.DBSystem),
		zap.Duration("slow_query_threshold", cfg.SlowQueryThresh),
		zap.Bool("log_full_sql", cfg.LogFullSQL),
	)
	return nil
}

type slowQueryCallback struct {
	threshold time.Duration
}

func (c *slowQueryCallback) before(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = context.WithValue(db.Statement.Context, queryStartTimeKey, time.Now())
	}
}

func (c *slowQueryCallback) after(db *gorm.DB) {
	if db.Statement.Context == nil {
		return
	}
	span := trace.SpanFromContext(db.Statement.Context)
	if !span.IsRecording() {
		return
	}

	start, ok := db.Statement.Context.Value(queryStartTimeKey).(time.Time)
	if !ok {
		return
	}
	if elapsed := time.Since(start); elapsed > c.threshold {
		span.SetAttributes(
			attribute.Bool("db.slow_query", true),
			attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
		)
		span.AddEvent("slow_query_warning", trace.WithAttributes(
			attribute.Int64("duration_ms", elapsed.Milliseconds()),
			attribute.Int64("threshold_ms", c.threshold.Milliseconds()),
		))
	}
}
