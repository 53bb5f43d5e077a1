// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// LedgerMetrics records ledger and cache activity. It satisfies the ledger
// engine's Metrics interface and the company cache's InvalidationRecorder.
type LedgerMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	transactionsTotal      *Counter
	insufficientStockTotal *Counter
	softFailuresTotal      *Counter
	lowStockEventsTotal    *Counter
	cacheInvalidations     *Counter

	lowStockSubCategories *Gauge

	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	stockProvider StockMetricsProvider
}

// StockMetricsProvider supplies stock state for the periodic gauges without
// the telemetry layer depending on the inventory domain.
type StockMetricsProvider interface {
	// LowStockSubCategoryCount counts sub-categories at or below their reorder level
	LowStockSubCategoryCount(ctx context.Context, companyID uuid.UUID) (int64, error)
}

// CompanyProvider lists the companies the periodic collector visits
type CompanyProvider interface {
	CompanyIDs(ctx context.Context) ([]uuid.UUID, error)
}

// LedgerMetricsConfig holds configuration for ledger metrics.
type LedgerMetricsConfig struct {
	Meter         metric.Meter
	Logger        *zap.Logger
	StockProvider StockMetricsProvider
}

// NewLedgerMetrics creates the ledger instruments.
func NewLedgerMetrics(cfg LedgerMetricsConfig) (*LedgerMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	lm := &LedgerMetrics{
		meter:         cfg.Meter,
		logger:        logger,
		stopChan:      make(chan struct{}),
		stockProvider: cfg.StockProvider,
	}

	counters := []struct {
		target      **Counter
		name        string
		description string
		unit        string
	}{
		{&lm.transactionsTotal, "ledger_transactions_total", "Stock transactions by type and outcome", "{transactions}"},
		{&lm.insufficientStockTotal, "ledger_insufficient_stock_total", "Outgoing movements rejected for insufficient stock", "{transactions}"},
		{&lm.softFailuresTotal, "ledger_soft_failures_total", "Failures logged without failing the ledger write", "{failures}"},
		{&lm.lowStockEventsTotal, "ledger_low_stock_events_total", "Sub-categories that fell to or below their reorder level", "{events}"},
		{&lm.cacheInvalidations, "cache_invalidations_total", "Company cache invalidations by entity", "{invalidations}"},
	}
	for _, c := range counters {
		counter, err := NewCounter(cfg.Meter, c.name, c.description, c.unit)
		if err != nil {
			return nil, err
		}
		*c.target = counter
	}

	var err error
	lm.lowStockSubCategories, err = NewGauge(
		cfg.Meter,
		"ledger_low_stock_sub_categories",
		"Sub-categories currently at or below their reorder level",
		"{sub_categories}",
	)
	if err != nil {
		return nil, err
	}

	return lm, nil
}

// RecordTransaction counts a ledger write
func (lm *LedgerMetrics) RecordTransaction(ctx context.Context, txnType, outcome string) {
	lm.transactionsTotal.Inc(ctx,
		AttrTransactionType.String(txnType),
		AttrOutcome.String(outcome),
	)
}

// RecordInsufficientStock counts a rejected outgoing movement
func (lm *LedgerMetrics) RecordInsufficientStock(ctx context.Context) {
	lm.insufficientStockTotal.Inc(ctx)
}

// RecordSoftFailure counts a logged, non-fatal failure
func (lm *LedgerMetrics) RecordSoftFailure(ctx context.Context, kind string) {
	lm.softFailuresTotal.Inc(ctx, AttrSoftFailure.String(kind))
}

// RecordLowStock counts a low stock event
func (lm *LedgerMetrics) RecordLowStock(ctx context.Context) {
	lm.lowStockEventsTotal.Inc(ctx)
}

// RecordCacheInvalidation counts a cache invalidation of one entity kind
func (lm *LedgerMetrics) RecordCacheInvalidation(ctx context.Context, entity string) {
	lm.cacheInvalidations.Inc(ctx, AttrCacheEntity.String(entity))
}

// RecordLowStockCount sets the low stock gauge for a company
func (lm *LedgerMetrics) RecordLowStockCount(ctx context.Context, companyID uuid.UUID, count int64) {
	lm.lowStockSubCategories.Record(ctx, count, AttrCompanyID.String(companyID.String()))
}

// =============================================================================
// Periodic Collection
// =============================================================================

// StartPeriodicCollection starts periodic collection of the gauges.
// This is non-blocking - use Stop() to stop collection.
func (lm *LedgerMetrics) StartPeriodicCollection(ctx context.Context, companies CompanyProvider, interval time.Duration) {
	lm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}

		go lm.runPeriodicCollection(ctx, companies, interval)
	})
}

func (lm *LedgerMetrics) runPeriodicCollection(ctx context.Context, companies CompanyProvider, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	lm.collectStockMetrics(ctx, companies)

	for {
		select {
		case <-lm.stopChan:
			lm.logger.Info("Stopping periodic ledger metrics collection")
			return
		case <-ctx.Done():
			lm.logger.Info("Context cancelled, stopping periodic ledger metrics collection")
			return
		case <-ticker.C:
			lm.collectStockMetrics(ctx, companies)
		}
	}
}

func (lm *LedgerMetrics) collectStockMetrics(ctx context.Context, companies CompanyProvider) {
	if lm.stockProvider == nil {
		lm.logger.Debug("No stock provider configured, skipping stock metrics collection")
		return
	}

	ids, err := companies.CompanyIDs(ctx)
	if err != nil {
		lm.logger.Error("Failed to list companies for metrics collection", zap.Error(err))
		return
	}

	for _, id := range ids {
		count, err := lm.stockProvider.LowStockSubCategoryCount(ctx, id)
		if err != nil {
			lm.logger.Warn("Failed to count low stock sub-categories",
				zap.String("company_id", id.String()),
				zap.Error(err),
			)
			continue
		}
		lm.RecordLowStockCount(ctx, id, count)
	}
}

// Stop stops the periodic collection.
func (lm *LedgerMetrics) Stop() {
	lm.stopOnce.Do(func() {
		close(lm.stopChan)
	})
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewLedgerMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
