// Package stock manages the Category → SubCategory → Item hierarchy. Every
// write keeps aggregates and the company cache in step with the ledger.
package stock

import (
	"context"
	"errors"
	"time"

	"github.com/erp/stockledger/internal/application/companycache"
	"github.com/erp/stockledger/internal/application/ledger"
	"github.com/erp/stockledger/internal/domain/finance"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/erp/stockledger/internal/infrastructure/cache"
	"github.com/erp/stockledger/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Defaults for SKU generation
const (
	DefaultSKULockTTL     = 10 * time.Second
	DefaultSKUMaxAttempts = 5
)

// Service implements the stock hierarchy operations
type Service struct {
	scope          ledger.TransactionScope
	repos          ledger.Repositories
	periods        ledger.ActivePeriodProvider
	owners         shared.OwnershipLookup
	cache          *companycache.Cache
	locker         shared.Locker
	recomputer     *ledger.Recomputer
	skuLockTTL     time.Duration
	skuMaxAttempts int
	now            func() time.Time
}

// Option configures a Service
type Option func(*Service)

// WithCache sets the company cache
func WithCache(c *companycache.Cache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

// WithLocker sets the SKU lock; the default is process-local
func WithLocker(l shared.Locker) Option {
	return func(s *Service) {
		if l != nil {
			s.locker = l
		}
	}
}

// WithOwnershipLookup enables TENANT_MISMATCH detection for foreign references
func WithOwnershipLookup(o shared.OwnershipLookup) Option {
	return func(s *Service) {
		s.owners = o
	}
}

// WithRecomputer shares the engine's recomputer
func WithRecomputer(r *ledger.Recomputer) Option {
	return func(s *Service) {
		if r != nil {
			s.recomputer = r
		}
	}
}

// WithSKUPolicy overrides the lock TTL and attempt budget
func WithSKUPolicy(lockTTL time.Duration, maxAttempts int) Option {
	return func(s *Service) {
		if lockTTL > 0 {
			s.skuLockTTL = lockTTL
		}
		if maxAttempts > 0 {
			s.skuMaxAttempts = maxAttempts
		}
	}
}

// WithClock overrides time.Now for SKU years
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a Service. repos must run outside any transaction.
func NewService(scope ledger.TransactionScope, repos ledger.Repositories, periods ledger.ActivePeriodProvider, opts ...Option) *Service {
	s := &Service{
		scope:          scope,
		repos:          repos,
		periods:        periods,
		locker:         cache.NewLocalLocker(),
		recomputer:     ledger.NewRecomputer(nil),
		skuLockTTL:     DefaultSKULockTTL,
		skuMaxAttempts: DefaultSKUMaxAttempts,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// optionalPeriod returns nil without error when no period is active
func (s *Service) optionalPeriod(ctx context.Context, companyID uuid.UUID) (*finance.FinancialPeriod, error) {
	period, err := s.periods.ActivePeriod(ctx, companyID)
	if errors.Is(err, shared.ErrNoActivePeriod) {
		return nil, nil
	}
	return period, err
}

// reference turns a scoped NOT_FOUND on a referenced row into
// TENANT_MISMATCH when the row exists under another company
func (s *Service) reference(ctx context.Context, actor shared.Actor, resource, table string, id uuid.UUID, err error) error {
	if err == nil || !errors.Is(err, shared.ErrNotFound) || s.owners == nil {
		return err
	}
	owner, lookupErr := s.owners.OwnerOf(ctx, table, id)
	if lookupErr != nil {
		return err
	}
	if guardErr := actor.Guard(resource, owner); guardErr != nil {
		logger.L(ctx).Warn("Cross-company reference rejected",
			zap.String("resource", resource),
			zap.String("reference_id", id.String()),
			zap.String("company_id", actor.CompanyID.String()))
		return guardErr
	}
	return err
}
