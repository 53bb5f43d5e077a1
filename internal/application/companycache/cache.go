package companycache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/erp/stockledger/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TTLClass selects how long an entry lives
type TTLClass int

const (
	// TTLLong is for lists that rarely change: categories, financial categories
	TTLLong TTLClass = iota
	// TTLDefault is for the period list
	TTLDefault
	// TTLShort is for the active period pointer
	TTLShort
)

// TTLs maps each class to a duration
type TTLs struct {
	Long    time.Duration
	Default time.Duration
	Short   time.Duration
}

// DefaultTTLs returns 24h / 60m / 10m
func DefaultTTLs() TTLs {
	return TTLs{Long: 24 * time.Hour, Default: 60 * time.Minute, Short: 10 * time.Minute}
}

func (t TTLs) of(class TTLClass) time.Duration {
	switch class {
	case TTLLong:
		return t.Long
	case TTLShort:
		return t.Short
	default:
		return t.Default
	}
}

// InvalidationRecorder counts invalidations; telemetry implements it
type InvalidationRecorder interface {
	RecordCacheInvalidation(ctx context.Context, entity string)
}

// Cache is the company-scoped read-through cache. Store failures are logged
// and treated as misses, so every caller is correct without a cache.
type Cache struct {
	store    shared.CacheStore
	ttls     TTLs
	recorder InvalidationRecorder
}

// Option configures a Cache
type Option func(*Cache)

// WithTTLs overrides the TTL classes
func WithTTLs(ttls TTLs) Option {
	return func(c *Cache) {
		c.ttls = ttls
	}
}

// WithRecorder installs an invalidation counter
func WithRecorder(r InvalidationRecorder) Option {
	return func(c *Cache) {
		c.recorder = r
	}
}

// New creates a Cache over store; a nil store disables caching
func New(store shared.CacheStore, opts ...Option) *Cache {
	c := &Cache{store: store, ttls: DefaultTTLs()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Remember returns the cached value of key, or calls load and caches its
// result. Load errors are returned and nothing is cached.
func Remember[T any](ctx context.Context, c *Cache, key string, class TTLClass, load func(ctx context.Context) (T, error)) (T, error) {
	if c == nil || c.store == nil {
		return load(ctx)
	}

	raw, ok, err := c.store.Get(ctx, key)
	if err != nil {
		logger.L(ctx).Warn("Cache read failed", zap.String("key", key), zap.Error(err))
	}
	if ok {
		var cached T
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached, nil
		}
		logger.L(ctx).Warn("Discarding undecodable cache entry", zap.String("key", key))
	}

	value, err := load(ctx)
	if err != nil {
		return value, err
	}

	payload, err := json.Marshal(value)
	if err != nil {
		logger.L(ctx).Warn("Cache encode failed", zap.String("key", key), zap.Error(err))
		return value, nil
	}
	if err := c.store.Set(ctx, key, payload, c.ttls.of(class)); err != nil {
		logger.L(ctx).Warn("Cache write failed", zap.String("key", key), zap.Error(err))
	}
	return value, nil
}

// InvalidateStockHierarchy drops the category list and every sub-category
// list of the company
func (c *Cache) InvalidateStockHierarchy(ctx context.Context, companyID uuid.UUID) {
	c.delete(ctx, entityStockCategories, StockCategoriesKey(companyID))
	c.deleteMatching(ctx, entityStockSubCategories, stockSubCategoriesPrefix(companyID))
}

// InvalidateFinancialCategories drops the financial category list
func (c *Cache) InvalidateFinancialCategories(ctx context.Context, companyID uuid.UUID) {
	c.delete(ctx, entityFinancialCategories, FinancialCategoriesKey(companyID))
}

// InvalidatePeriods drops the period list and the active pointer
func (c *Cache) InvalidatePeriods(ctx context.Context, companyID uuid.UUID) {
	c.delete(ctx, entityFinancialPeriods, FinancialPeriodsKey(companyID), ActivePeriodKey(companyID))
}

// InvalidateLedger drops everything a ledger write can change
func (c *Cache) InvalidateLedger(ctx context.Context, companyID uuid.UUID) {
	c.InvalidateStockHierarchy(ctx, companyID)
	c.InvalidateFinancialCategories(ctx, companyID)
}

// FlushCompany deletes every key of the company
func (c *Cache) FlushCompany(ctx context.Context, companyID uuid.UUID) (int, error) {
	if c == nil || c.store == nil {
		return 0, nil
	}
	n, err := c.store.DeleteMatching(ctx, companyFragment(companyID))
	c.record(ctx, "company")
	return n, err
}

// FlushAll deletes every key the service owns
func (c *Cache) FlushAll(ctx context.Context) (int, error) {
	if c == nil || c.store == nil {
		return 0, nil
	}
	n, err := c.store.DeleteMatching(ctx, "")
	c.record(ctx, "all")
	return n, err
}

// WarmUpSource preloads its cached lists for a company
type WarmUpSource interface {
	WarmUp(ctx context.Context, companyID uuid.UUID) error
}

// WarmUp runs every source and stops at the first failure
func (c *Cache) WarmUp(ctx context.Context, companyID uuid.UUID, sources ...WarmUpSource) error {
	for _, src := range sources {
		if err := src.WarmUp(ctx, companyID); err != nil {
			return err
		}
	}
	logger.L(ctx).Info("Cache warmed up", zap.String("company_id", companyID.String()))
	return nil
}

func (c *Cache) delete(ctx context.Context, entity string, keys ...string) {
	if c == nil || c.store == nil {
		return
	}
	if err := c.store.Delete(ctx, keys...); err != nil {
		logger.L(ctx).Warn("Cache invalidation failed", zap.Strings("keys", keys), zap.Error(err))
	}
	c.record(ctx, entity)
}

func (c *Cache) deleteMatching(ctx context.Context, entity, fragment string) {
	if c == nil || c.store == nil {
		return
	}
	if _, err := c.store.DeleteMatching(ctx, fragment); err != nil {
		logger.L(ctx).Warn("Cache invalidation failed", zap.String("fragment", fragment), zap.Error(err))
	}
	c.record(ctx, entity)
}

func (c *Cache) record(ctx context.Context, entity string) {
	if c.recorder != nil {
		c.recorder.RecordCacheInvalidation(ctx, entity)
	}
}
