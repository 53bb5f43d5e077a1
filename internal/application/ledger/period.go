package ledger

import (
	"context"

	"github.com/erp/stockledger/internal/domain/finance"
	"github.com/google/uuid"
)

// ActivePeriodProvider resolves a company's active financial period. It is
// called once per operation, before the unit of work opens, and the result
// is passed down explicitly.
type ActivePeriodProvider interface {
	// ActivePeriod returns shared.ErrNoActivePeriod when none is active
	ActivePeriod(ctx context.Context, companyID uuid.UUID) (*finance.FinancialPeriod, error)
}

// RepositoryPeriodProvider reads the active period straight from the repository
type RepositoryPeriodProvider struct {
	Periods finance.PeriodRepository
}

// ActivePeriod implements ActivePeriodProvider
func (p RepositoryPeriodProvider) ActivePeriod(ctx context.Context, companyID uuid.UUID) (*finance.FinancialPeriod, error) {
	return p.Periods.FindActive(ctx, companyID)
}
