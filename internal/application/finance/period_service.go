package finance

import (
	"context"

	"github.com/erp/stockledger/internal/application/companycache"
	"github.com/erp/stockledger/internal/application/ledger"
	"github.com/erp/stockledger/internal/domain/finance"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/erp/stockledger/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var _ ledger.ActivePeriodProvider = (*Service)(nil)

// CreatePeriod creates a financial period. With Activate set every other
// period of the company is deactivated in the same transaction.
func (s *Service) CreatePeriod(ctx context.Context, actor shared.Actor, in finance.PeriodInput) (*finance.FinancialPeriod, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	period, err := finance.NewFinancialPeriod(actor, in)
	if err != nil {
		return nil, err
	}
	err = s.scope.Execute(ctx, func(repos ledger.Repositories) error {
		if period.IsActive() {
			if err := repos.Periods().DeactivateAll(ctx, actor.CompanyID, period.ID); err != nil {
				return err
			}
		}
		if err := repos.Periods().Save(ctx, period); err != nil {
			return err
		}
		s.cache.InvalidatePeriods(ctx, actor.CompanyID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.cache.InvalidatePeriods(ctx, actor.CompanyID)
	return s.repos.Periods().FindByID(ctx, actor.CompanyID, period.ID)
}

// ActivatePeriod makes the period the company's only active one
func (s *Service) ActivatePeriod(ctx context.Context, actor shared.Actor, id uuid.UUID) (*finance.FinancialPeriod, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	err := s.scope.Execute(ctx, func(repos ledger.Repositories) error {
		period, err := repos.Periods().FindByID(ctx, actor.CompanyID, id)
		if err != nil {
			return err
		}
		if err := repos.Periods().DeactivateAll(ctx, actor.CompanyID, period.ID); err != nil {
			return err
		}
		period.Activate()
		if err := repos.Periods().Save(ctx, period); err != nil {
			return err
		}
		s.cache.InvalidatePeriods(ctx, actor.CompanyID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.cache.InvalidatePeriods(ctx, actor.CompanyID)
	logger.L(ctx).Info("Financial period activated", zap.String("period_id", id.String()))
	return s.repos.Periods().FindByID(ctx, actor.CompanyID, id)
}

// ListPeriods returns the company's periods from the cache
func (s *Service) ListPeriods(ctx context.Context, actor shared.Actor) ([]finance.FinancialPeriod, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	return companycache.Remember(ctx, s.cache, companycache.FinancialPeriodsKey(actor.CompanyID), companycache.TTLDefault,
		func(ctx context.Context) ([]finance.FinancialPeriod, error) {
			return s.repos.Periods().FindAll(ctx, actor.CompanyID)
		})
}

// ActivePeriod returns the active period or shared.ErrNoActivePeriod. The
// pointer is cached with the short TTL; an absent period is not cached.
func (s *Service) ActivePeriod(ctx context.Context, companyID uuid.UUID) (*finance.FinancialPeriod, error) {
	return companycache.Remember(ctx, s.cache, companycache.ActivePeriodKey(companyID), companycache.TTLShort,
		func(ctx context.Context) (*finance.FinancialPeriod, error) {
			return s.repos.Periods().FindActive(ctx, companyID)
		})
}

// GetActivePeriod is ActivePeriod for an authenticated caller
func (s *Service) GetActivePeriod(ctx context.Context, actor shared.Actor) (*finance.FinancialPeriod, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	return s.ActivePeriod(ctx, actor.CompanyID)
}
