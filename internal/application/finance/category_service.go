package finance

import (
	"context"
	"errors"

	"github.com/erp/stockledger/internal/application/companycache"
	"github.com/erp/stockledger/internal/application/ledger"
	"github.com/erp/stockledger/internal/domain/finance"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/google/uuid"
)

// CreateCategory creates a financial category; names are unique per company
func (s *Service) CreateCategory(ctx context.Context, actor shared.Actor, name, description string) (*finance.FinancialCategory, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	category, err := finance.NewFinancialCategory(actor, name, description)
	if err != nil {
		return nil, err
	}
	if err := s.repos.FinancialCategories().Create(ctx, category); err != nil {
		return nil, err
	}
	s.cache.InvalidateFinancialCategories(ctx, actor.CompanyID)
	return category, nil
}

// ListCategories returns the company's financial categories from the cache
func (s *Service) ListCategories(ctx context.Context, actor shared.Actor) ([]finance.FinancialCategory, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	return companycache.Remember(ctx, s.cache, companycache.FinancialCategoriesKey(actor.CompanyID), companycache.TTLLong,
		func(ctx context.Context) ([]finance.FinancialCategory, error) {
			return s.repos.FinancialCategories().FindAll(ctx, actor.CompanyID)
		})
}

// ProvisionCategories creates the missing default categories and reports how
// many were inserted
func (s *Service) ProvisionCategories(ctx context.Context, actor shared.Actor) (int, error) {
	if err := actor.Validate(); err != nil {
		return 0, err
	}
	created, err := ledger.ProvisionDefaultCategories(ctx, s.repos.FinancialCategories(), actor)
	if err != nil {
		return created, err
	}
	if created > 0 {
		s.cache.InvalidateFinancialCategories(ctx, actor.CompanyID)
	}
	return created, nil
}

// WarmUp preloads financial categories, the period list and the active period
func (s *Service) WarmUp(ctx context.Context, companyID uuid.UUID) error {
	actor := shared.Actor{CompanyID: companyID}
	if _, err := s.ListCategories(ctx, actor); err != nil {
		return err
	}
	if _, err := s.ListPeriods(ctx, actor); err != nil {
		return err
	}
	if _, err := s.ActivePeriod(ctx, companyID); err != nil && !errors.Is(err, shared.ErrNoActivePeriod) {
		return err
	}
	return nil
}

var _ companycache.WarmUpSource = (*Service)(nil)
