// Package ledger is the inventory ledger engine: it applies stock movements
// to items under row lock, keeps category aggregates in step and generates
// the matching financial records, all in one transaction per operation.
package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/erp/stockledger/internal/application/companycache"
	"github.com/erp/stockledger/internal/domain/audit"
	"github.com/erp/stockledger/internal/domain/finance"
	"github.com/erp/stockledger/internal/domain/inventory"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/erp/stockledger/internal/infrastructure/logger"
	"github.com/erp/stockledger/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultMaxAttempts bounds how often a unit of work is retried after a
// compare-and-swap conflict
const DefaultMaxAttempts = 3

// Engine applies and reverses stock movements
type Engine struct {
	scope       TransactionScope
	repos       Repositories
	periods     ActivePeriodProvider
	cache       *companycache.Cache
	publisher   shared.EventPublisher
	metrics     Metrics
	recomputer  *Recomputer
	generator   *FinancialGenerator
	maxAttempts int
	now         func() time.Time
}

// EngineOption configures an Engine
type EngineOption func(*Engine)

// WithCache sets the company cache invalidated by every write
func WithCache(c *companycache.Cache) EngineOption {
	return func(e *Engine) {
		e.cache = c
	}
}

// WithPublisher sets the event publisher used after commit
func WithPublisher(p shared.EventPublisher) EngineOption {
	return func(e *Engine) {
		e.publisher = p
	}
}

// WithMetrics sets the metrics sink
func WithMetrics(m Metrics) EngineOption {
	return func(e *Engine) {
		if m != nil {
			e.metrics = m
		}
	}
}

// WithMaxAttempts overrides DefaultMaxAttempts
func WithMaxAttempts(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.maxAttempts = n
		}
	}
}

// WithClock overrides time.Now for default record dates
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine creates an Engine. repos must run outside any transaction; it is
// used for reads after commit.
func NewEngine(scope TransactionScope, repos Repositories, periods ActivePeriodProvider, opts ...EngineOption) *Engine {
	e := &Engine{
		scope:       scope,
		repos:       repos,
		periods:     periods,
		metrics:     noopMetrics{},
		maxAttempts: DefaultMaxAttempts,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.recomputer = NewRecomputer(e.metrics)
	e.generator = NewFinancialGenerator(e.metrics)
	return e
}

// Recomputer exposes the engine's recomputer for the hierarchy services
func (e *Engine) Recomputer() *Recomputer {
	return e.recomputer
}

// created collects what a successful create unit of work produced
type created struct {
	record    *inventory.StockRecord
	remaining decimal.Decimal
	lowStock  *inventory.StockSubCategory
	financial *finance.FinancialRecord
}

// CreateTransaction records a stock movement and applies it to the item
func (e *Engine) CreateTransaction(ctx context.Context, actor shared.Actor, req CreateTransactionRequest) (*TransactionResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "CreateTransaction")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrCompanyID, actor.CompanyID.String(),
		telemetry.SpanAttrItemID, req.ItemID.String(),
		telemetry.SpanAttrTransactionType, string(req.Type),
	)

	result, err := e.createTransaction(ctx, actor, req)
	e.metrics.RecordTransaction(ctx, string(req.Type), outcomeOf(err))
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return result, nil
}

func (e *Engine) createTransaction(ctx context.Context, actor shared.Actor, req CreateTransactionRequest) (*TransactionResult, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	in, err := inventory.NormalizeRecordInput(inventory.RecordInput{
		Type:        req.Type,
		Quantity:    req.Quantity,
		Date:        req.Date,
		Description: req.Description,
	}, e.now())
	if err != nil {
		return nil, err
	}

	period, err := e.periods.ActivePeriod(ctx, actor.CompanyID)
	if err != nil {
		return nil, err
	}

	var out created
	err = e.retry(ctx, func() error {
		return e.scope.Execute(ctx, func(repos Repositories) error {
			var err error
			out, err = e.create(ctx, repos, actor, period, req.ItemID, in)
			return err
		})
	})
	if err != nil {
		if errors.Is(err, shared.ErrInsufficientStock) {
			e.metrics.RecordInsufficientStock(ctx)
		}
		return nil, err
	}

	e.cache.InvalidateLedger(ctx, actor.CompanyID)

	events := []shared.DomainEvent{inventory.NewStockRecordCreatedEvent(out.record, out.remaining)}
	if out.lowStock != nil {
		events = append(events, inventory.NewLowStockEvent(out.lowStock))
	}
	e.publish(ctx, events...)

	logger.L(ctx).Info("Stock record created",
		zap.String("stock_record_id", out.record.ID.String()),
		zap.String("type", string(out.record.Type)),
		zap.String("quantity", out.record.Quantity.String()),
		zap.String("remaining", out.remaining.String()))

	return e.reloadCreated(ctx, actor.CompanyID, out)
}

func (e *Engine) create(ctx context.Context, repos Repositories, actor shared.Actor, period *finance.FinancialPeriod, itemID uuid.UUID, in inventory.RecordInput) (created, error) {
	item, err := repos.Items().FindByIDForUpdate(ctx, actor.CompanyID, itemID)
	if err != nil {
		return created{}, err
	}
	sub, err := repos.SubCategories().FindByID(ctx, actor.CompanyID, item.StockSubCategoryID)
	if err != nil {
		return created{}, err
	}

	if in.Type.IsOutgoing() && item.CurrentQuantity.LessThan(in.Quantity) {
		return created{}, shared.NewInsufficientStockError(item.CurrentQuantity, in.Quantity, sub.MeasurementUnit)
	}

	record := inventory.NewStockRecord(actor, item, sub.MeasurementUnit, period.ID, in)
	if err := repos.Records().Create(ctx, record); err != nil {
		return created{}, err
	}

	next := item.CurrentQuantity.Add(record.QuantityDelta())
	if err := repos.Items().CompareAndSwapQuantity(ctx, actor.CompanyID, item.ID, item.CurrentQuantity, next); err != nil {
		return created{}, err
	}

	updatedSub, lowStock, err := e.recomputer.Cascade(ctx, repos, actor.CompanyID, item.StockSubCategoryID, item.StockCategoryID, period)
	if err != nil {
		return created{}, err
	}

	financial, err := e.generator.Generate(ctx, repos, actor, record)
	if err != nil {
		return created{}, err
	}

	entry := audit.NewLog(ctx, actor.CompanyID, actor.UserID, inventory.AggregateTypeStockRecord, record.ID,
		audit.ActionCreated, nil, audit.Snapshot(record))
	if err := repos.AuditLogs().Append(ctx, entry); err != nil {
		return created{}, err
	}

	e.cache.InvalidateLedger(ctx, actor.CompanyID)

	out := created{record: record, remaining: next, financial: financial}
	if lowStock {
		out.lowStock = updatedSub
	}
	return out, nil
}

func (e *Engine) reloadCreated(ctx context.Context, companyID uuid.UUID, out created) (*TransactionResult, error) {
	record, err := e.repos.Records().FindByID(ctx, companyID, out.record.ID)
	if err != nil {
		return nil, err
	}
	item, err := e.repos.Items().FindByID(ctx, companyID, record.StockItemID)
	if err != nil {
		return nil, err
	}
	sub, err := e.repos.SubCategories().FindByID(ctx, companyID, record.StockSubCategoryID)
	if err != nil {
		return nil, err
	}
	result := &TransactionResult{Record: record, Item: item, SubCategory: sub}
	if out.financial != nil {
		fr, err := e.repos.FinancialRecords().FindByID(ctx, companyID, out.financial.ID)
		if err != nil {
			return nil, err
		}
		result.FinancialRecord = fr
	}
	return result, nil
}

// DeleteTransaction deletes a stock record and reverses its effect on the
// item. A reversal that would leave the item negative fails with
// INSUFFICIENT_STOCK; a record whose item is gone is deleted without one.
func (e *Engine) DeleteTransaction(ctx context.Context, actor shared.Actor, recordID uuid.UUID) (*DeleteResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "DeleteTransaction")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrCompanyID, actor.CompanyID.String(),
		telemetry.SpanAttrStockRecordID, recordID.String(),
	)

	result, err := e.deleteTransaction(ctx, actor, recordID)
	e.metrics.RecordTransaction(ctx, "delete", outcomeOf(err))
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return result, nil
}

func (e *Engine) deleteTransaction(ctx context.Context, actor shared.Actor, recordID uuid.UUID) (*DeleteResult, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}

	period, err := e.periods.ActivePeriod(ctx, actor.CompanyID)
	if err != nil && !errors.Is(err, shared.ErrNoActivePeriod) {
		return nil, err
	}

	var (
		record   *inventory.StockRecord
		reversed bool
	)
	err = e.retry(ctx, func() error {
		return e.scope.Execute(ctx, func(repos Repositories) error {
			var err error
			record, reversed, err = e.remove(ctx, repos, actor, period, recordID)
			return err
		})
	})
	if err != nil {
		if errors.Is(err, shared.ErrInsufficientStock) {
			e.metrics.RecordInsufficientStock(ctx)
		}
		return nil, err
	}

	e.cache.InvalidateLedger(ctx, actor.CompanyID)
	e.publish(ctx, inventory.NewStockRecordDeletedEvent(record, reversed))

	logger.L(ctx).Info("Stock record deleted",
		zap.String("stock_record_id", record.ID.String()),
		zap.Bool("reversed", reversed))

	result := &DeleteResult{Record: record, Reversed: reversed}
	if item, err := e.repos.Items().FindByID(ctx, actor.CompanyID, record.StockItemID); err == nil {
		result.Item = item
	} else if !isNotFound(err) {
		return nil, err
	}
	if sub, err := e.repos.SubCategories().FindByID(ctx, actor.CompanyID, record.StockSubCategoryID); err == nil {
		result.SubCategory = sub
	} else if !isNotFound(err) {
		return nil, err
	}
	return result, nil
}

func (e *Engine) remove(ctx context.Context, repos Repositories, actor shared.Actor, period *finance.FinancialPeriod, recordID uuid.UUID) (*inventory.StockRecord, bool, error) {
	record, err := repos.Records().FindByID(ctx, actor.CompanyID, recordID)
	if err != nil {
		return nil, false, err
	}

	reversed := false
	item, err := repos.Items().FindByIDForUpdate(ctx, actor.CompanyID, record.StockItemID)
	switch {
	case err == nil:
		next := item.CurrentQuantity.Sub(record.QuantityDelta())
		if next.IsNegative() {
			return nil, false, shared.NewInsufficientStockError(item.CurrentQuantity, record.Quantity, record.MeasurementUnit)
		}
		if err := repos.Items().CompareAndSwapQuantity(ctx, actor.CompanyID, item.ID, item.CurrentQuantity, next); err != nil {
			return nil, false, err
		}
		reversed = true
	case isNotFound(err):
		logger.L(ctx).Warn("Stock item no longer exists, deleting record without reversal",
			zap.String("stock_record_id", record.ID.String()),
			zap.String("stock_item_id", record.StockItemID.String()))
	default:
		return nil, false, err
	}

	if _, err := repos.FinancialRecords().DeleteByStockRecord(ctx, actor.CompanyID, record.ID); err != nil {
		return nil, false, err
	}
	if err := repos.Records().Delete(ctx, actor.CompanyID, record.ID); err != nil {
		return nil, false, err
	}

	if _, _, err := e.recomputer.Cascade(ctx, repos, actor.CompanyID, record.StockSubCategoryID, record.StockCategoryID, period); err != nil {
		return nil, false, err
	}

	entry := audit.NewLog(ctx, actor.CompanyID, actor.UserID, inventory.AggregateTypeStockRecord, record.ID,
		audit.ActionDeleted, audit.Snapshot(record), nil)
	if err := repos.AuditLogs().Append(ctx, entry); err != nil {
		return nil, false, err
	}

	e.cache.InvalidateLedger(ctx, actor.CompanyID)
	return record, reversed, nil
}

// RecomputeSubCategory recomputes a sub-category and its category on demand
func (e *Engine) RecomputeSubCategory(ctx context.Context, actor shared.Actor, subCategoryID uuid.UUID) (*inventory.StockSubCategory, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "RecomputeSubCategory")
	defer span.End()

	period, err := e.optionalPeriod(ctx, actor)
	if err != nil {
		return nil, err
	}

	var sub *inventory.StockSubCategory
	err = e.scope.Execute(ctx, func(repos Repositories) error {
		var err error
		sub, _, err = e.recomputer.SubCategory(ctx, repos, actor.CompanyID, subCategoryID, period)
		if err != nil {
			return err
		}
		_, err = e.recomputer.Category(ctx, repos, actor.CompanyID, sub.StockCategoryID, period)
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	e.cache.InvalidateStockHierarchy(ctx, actor.CompanyID)
	return e.repos.SubCategories().FindByID(ctx, actor.CompanyID, sub.ID)
}

// RecomputeCategory recomputes one category on demand
func (e *Engine) RecomputeCategory(ctx context.Context, actor shared.Actor, categoryID uuid.UUID) (*inventory.StockCategory, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "RecomputeCategory")
	defer span.End()

	period, err := e.optionalPeriod(ctx, actor)
	if err != nil {
		return nil, err
	}

	err = e.scope.Execute(ctx, func(repos Repositories) error {
		_, err := e.recomputer.Category(ctx, repos, actor.CompanyID, categoryID, period)
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	e.cache.InvalidateStockHierarchy(ctx, actor.CompanyID)
	return e.repos.Categories().FindByID(ctx, actor.CompanyID, categoryID)
}

// optionalPeriod returns nil without error when no period is active
func (e *Engine) optionalPeriod(ctx context.Context, actor shared.Actor) (*finance.FinancialPeriod, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	period, err := e.periods.ActivePeriod(ctx, actor.CompanyID)
	if errors.Is(err, shared.ErrNoActivePeriod) {
		return nil, nil
	}
	return period, err
}

// retry reruns fn after a concurrency conflict, up to maxAttempts in total
func (e *Engine) retry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		err = fn()
		if !errors.Is(err, shared.ErrConcurrencyConflict) {
			return err
		}
		logger.L(ctx).Warn("Concurrent stock update, retrying",
			zap.Int("attempt", attempt), zap.Int("max_attempts", e.maxAttempts))
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
	}
	return err
}

func (e *Engine) publish(ctx context.Context, events ...shared.DomainEvent) {
	if e.publisher == nil {
		return
	}
	if err := e.publisher.Publish(ctx, events...); err != nil {
		logger.L(ctx).Error("Failed to publish ledger events", zap.Error(err))
		e.metrics.RecordSoftFailure(ctx, SoftFailureEventPublish)
	}
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, shared.ErrInsufficientStock):
		return OutcomeInsufficientStock
	case errors.Is(err, shared.ErrConcurrencyConflict):
		return OutcomeConflict
	default:
		return OutcomeError
	}
}
