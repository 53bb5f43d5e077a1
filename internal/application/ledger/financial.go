package ledger

import (
	"context"
	"errors"

	"github.com/erp/stockledger/internal/domain/finance"
	"github.com/erp/stockledger/internal/domain/inventory"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/erp/stockledger/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// ProvisionDefaultCategories makes sure Sales, Expense and Purchase exist for
// the actor's company. Safe to call concurrently and inside a transaction.
func ProvisionDefaultCategories(ctx context.Context, repo finance.CategoryRepository, actor shared.Actor) (int, error) {
	created := 0
	for _, name := range finance.DefaultCategoryNames {
		c, err := finance.NewFinancialCategory(actor, name, finance.DefaultCategoryDescription(name))
		if err != nil {
			return created, err
		}
		inserted, err := repo.CreateIfAbsent(ctx, c)
		if err != nil {
			return created, err
		}
		if inserted {
			created++
		}
	}
	return created, nil
}

// FinancialGenerator turns stock records into income and expense records
type FinancialGenerator struct {
	metrics Metrics
}

// NewFinancialGenerator creates a generator; nil metrics are ignored
func NewFinancialGenerator(metrics Metrics) *FinancialGenerator {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &FinancialGenerator{metrics: metrics}
}

// errCategoryUnresolved marks the soft failure of a category that is still
// missing after provisioning
var errCategoryUnresolved = errors.New("financial category unresolved")

// Generate persists the financial record for r, if its type produces one.
// A category that cannot be resolved is logged and counted, and nil is
// returned without error so the ledger write still commits. Any other
// repository error is returned.
func (g *FinancialGenerator) Generate(ctx context.Context, repos Repositories, actor shared.Actor, r *inventory.StockRecord) (*finance.FinancialRecord, error) {
	entry, ok := finance.EntryForStockRecord(r)
	if !ok {
		return nil, nil
	}

	category, err := g.resolveCategory(ctx, repos.FinancialCategories(), actor, entry.CategoryName)
	if errors.Is(err, errCategoryUnresolved) {
		logger.L(ctx).Error("Financial category missing, financial record not generated",
			zap.String("category", entry.CategoryName),
			zap.String("stock_record_id", r.ID.String()))
		g.metrics.RecordSoftFailure(ctx, SoftFailureFinancialRecord)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	fr := finance.NewStockFinancialRecord(actor, r, category, entry)
	if err := repos.FinancialRecords().Create(ctx, fr); err != nil {
		return nil, err
	}
	return fr, nil
}

func (g *FinancialGenerator) resolveCategory(ctx context.Context, repo finance.CategoryRepository, actor shared.Actor, name string) (*finance.FinancialCategory, error) {
	category, err := repo.FindByName(ctx, actor.CompanyID, name)
	if err == nil {
		return category, nil
	}
	if !isNotFound(err) {
		return nil, err
	}

	if _, err := ProvisionDefaultCategories(ctx, repo, actor); err != nil {
		return nil, err
	}
	category, err = repo.FindByName(ctx, actor.CompanyID, name)
	if isNotFound(err) {
		return nil, errCategoryUnresolved
	}
	return category, err
}

func isNotFound(err error) bool {
	return errors.Is(err, shared.ErrNotFound)
}
