package telemetry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultSlowQuery = 200 * time.Millisecond

// timeStatements wraps every gorm processor with callbacks named after
// prefix and passes the statement's duration to observe.
func timeStatements(db *gorm.DB, prefix string, observe func(tx *gorm.DB, op string, elapsed time.Duration)) error {
	startKey := prefix + ":start"
	before := func(tx *gorm.DB) {
		tx.InstanceSet(startKey, time.Now())
	}
	after := func(op string) func(*gorm.DB) {
		return func(tx *gorm.DB) {
			started, ok := tx.InstanceGet(startKey)
			if !ok {
				return
			}
			observe(tx, op, time.Since(started.(time.Time)))
		}
	}

	cb := db.Callback()
	return errors.Join(
		cb.Create().Before("gorm:create").Register(prefix+":before_create", before),
		cb.Create().After("gorm:create").Register(prefix+":after_create", after("create")),
		cb.Query().Before("gorm:query").Register(prefix+":before_query", before),
		cb.Query().After("gorm:query").Register(prefix+":after_query", after("select")),
		cb.Update().Before("gorm:update").Register(prefix+":before_update", before),
		cb.Update().After("gorm:update").Register(prefix+":after_update", after("update")),
		cb.Delete().Before("gorm:delete").Register(prefix+":before_delete", before),
		cb.Delete().After("gorm:delete").Register(prefix+":after_delete", after("delete")),
		cb.Row().Before("gorm:row").Register(prefix+":before_row", before),
		cb.Row().After("gorm:row").Register(prefix+":after_row", after("row")),
		cb.Raw().Before("gorm:raw").Register(prefix+":before_raw", before),
		cb.Raw().After("gorm:raw").Register(prefix+":after_raw", after("raw")),
	)
}

func statementContext(tx *gorm.DB) context.Context {
	if tx.Statement.Context != nil {
		return tx.Statement.Context
	}
	return context.Background()
}

// failed ignores "record not found", which the repositories translate
func failed(tx *gorm.DB) bool {
	return tx.Error != nil && !errors.Is(tx.Error, gorm.ErrRecordNotFound)
}

// DBTracingConfig configures statement spans.
type DBTracingConfig struct {
	Enabled          bool
	DBSystem         string
	SlowQueryThresh  time.Duration
	IncludeVariables bool // bind values in db.statement; keep off outside development
}

// DefaultDBTracingConfig returns tracing off with a 200ms slow threshold.
func DefaultDBTracingConfig() DBTracingConfig {
	return DBTracingConfig{
		DBSystem:        "postgresql",
		SlowQueryThresh: defaultSlowQuery,
	}
}

// DBTracingPlugin emits a span per statement through otelgorm and logs slow
// statements with their trace id.
type DBTracingPlugin struct {
	cfg    DBTracingConfig
	logger *zap.Logger
}

// NewDBTracingPlugin creates the plugin; nothing is registered until
// RegisterOtelGorm.
func NewDBTracingPlugin(cfg DBTracingConfig, logger *zap.Logger) *DBTracingPlugin {
	if cfg.SlowQueryThresh <= 0 {
		cfg.SlowQueryThresh = defaultSlowQuery
	}
	return &DBTracingPlugin{cfg: cfg, logger: logger}
}

// RegisterOtelGorm installs the tracing callbacks on db when enabled.
func (p *DBTracingPlugin) RegisterOtelGorm(db *gorm.DB) error {
	if !p.cfg.Enabled {
		return nil
	}
	opts := []otelgorm.Option{otelgorm.WithDBName(p.cfg.DBSystem)}
	if !p.cfg.IncludeVariables {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return fmt.Errorf("failed to register otelgorm: %w", err)
	}
	if err := timeStatements(db, "ledger_tracing", p.observe); err != nil {
		return fmt.Errorf("failed to register slow query callbacks: %w", err)
	}
	p.logger.Info("Database tracing enabled",
		zap.String("db_system", p.cfg.DBSystem),
		zap.Duration("slow_query_threshold", p.cfg.SlowQueryThresh),
	)
	return nil
}

func (p *DBTracingPlugin) observe(tx *gorm.DB, op string, elapsed time.Duration) {
	if elapsed < p.cfg.SlowQueryThresh {
		return
	}
	p.logger.Warn("Slow query",
		zap.String("operation", op),
		zap.String("table", tx.Statement.Table),
		zap.Duration("elapsed", elapsed),
		zap.Int64("rows", tx.RowsAffected),
		zap.String("trace_id", TraceID(statementContext(tx))),
	)
}

// DBMetricsConfig configures statement and pool metrics.
type DBMetricsConfig struct {
	Enabled            bool
	SlowQueryThreshold time.Duration
}

// DefaultDBMetricsConfig returns metrics on with a 200ms slow threshold.
func DefaultDBMetricsConfig() DBMetricsConfig {
	return DBMetricsConfig{Enabled: true, SlowQueryThreshold: defaultSlowQuery}
}

// DBMetrics counts statements and observes the connection pool.
type DBMetrics struct {
	queries  *Counter
	duration *Histogram
	slow     *Counter
	slowAt   time.Duration

	pool     metric.Registration
	stopOnce sync.Once
}

// RegisterDBMetrics instruments db. Pool gauges are read from sql.DB stats
// at collection time. It returns nil, nil when disabled.
func RegisterDBMetrics(db *gorm.DB, meter metric.Meter, cfg DBMetricsConfig, logger *zap.Logger) (*DBMetrics, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	if cfg.SlowQueryThreshold <= 0 {
		cfg.SlowQueryThreshold = defaultSlowQuery
	}

	m := &DBMetrics{slowAt: cfg.SlowQueryThreshold}
	var err error
	if m.queries, err = NewCounter(meter, "db_query_total", "Statements by operation, table and outcome", "{query}"); err != nil {
		return nil, err
	}
	if m.slow, err = NewCounter(meter, "db_slow_query_total", "Statements slower than the slow query threshold", "{query}"); err != nil {
		return nil, err
	}
	if m.duration, err = NewHistogram(meter, HistogramOpts{
		Name:        "db_query_duration_seconds",
		Description: "Statement latency",
		Unit:        "s",
		Boundaries:  DBDurationBuckets,
	}); err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	conns, err := meter.Int64ObservableGauge("db_pool_connections",
		metric.WithDescription("Pool connections by state"), metric.WithUnit("{connection}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create pool gauge: %w", err)
	}
	maxConns, err := meter.Int64ObservableGauge("db_pool_connections_max",
		metric.WithDescription("Maximum open connections"), metric.WithUnit("{connection}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create pool gauge: %w", err)
	}
	waits, err := meter.Int64ObservableCounter("db_pool_wait_total",
		metric.WithDescription("Connection requests that had to wait"), metric.WithUnit("{wait}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create pool counter: %w", err)
	}

	m.pool, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats := sqlDB.Stats()
		o.ObserveInt64(conns, int64(stats.InUse), metric.WithAttributes(AttrDBState.String("in_use")))
		o.ObserveInt64(conns, int64(stats.Idle), metric.WithAttributes(AttrDBState.String("idle")))
		o.ObserveInt64(maxConns, int64(stats.MaxOpenConnections))
		o.ObserveInt64(waits, stats.WaitCount)
		return nil
	}, conns, maxConns, waits)
	if err != nil {
		return nil, fmt.Errorf("failed to register pool callback: %w", err)
	}

	if err := timeStatements(db, "ledger_metrics", m.observe); err != nil {
		_ = m.pool.Unregister()
		return nil, fmt.Errorf("failed to register query callbacks: %w", err)
	}
	logger.Info("Database metrics enabled", zap.Duration("slow_query_threshold", m.slowAt))
	return m, nil
}

func (m *DBMetrics) observe(tx *gorm.DB, op string, elapsed time.Duration) {
	ctx := statementContext(tx)
	attrs := []attribute.KeyValue{
		AttrDBOperation.String(op),
		AttrDBTable.String(tx.Statement.Table),
	}
	m.duration.RecordDuration(ctx, elapsed, attrs...)
	if elapsed >= m.slowAt {
		m.slow.Inc(ctx, attrs...)
	}
	outcome := "ok"
	if failed(tx) {
		outcome = "error"
	}
	m.queries.Inc(ctx, append(attrs, AttrOutcome.String(outcome))...)
}

// Stop detaches the pool callback. Statement callbacks stay registered.
func (m *DBMetrics) Stop() {
	m.stopOnce.Do(func() { _ = m.pool.Unregister() })
}
