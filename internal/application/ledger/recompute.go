package ledger

import (
	"context"

	"github.com/erp/stockledger/internal/domain/finance"
	"github.com/erp/stockledger/internal/domain/inventory"
	"github.com/erp/stockledger/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Recomputer derives category and sub-category aggregates from their items
// and stock records in the active period. Every method is a pure function of
// persisted rows, so running it twice writes the same values.
type Recomputer struct {
	metrics Metrics
}

// NewRecomputer creates a Recomputer; nil metrics are ignored
func NewRecomputer(metrics Metrics) *Recomputer {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &Recomputer{metrics: metrics}
}

// SubCategory recomputes one sub-category and reports whether it is now low
// on stock. With no active period it warns and writes nothing.
func (r *Recomputer) SubCategory(ctx context.Context, repos Repositories, companyID, subCategoryID uuid.UUID, period *finance.FinancialPeriod) (*inventory.StockSubCategory, bool, error) {
	sub, err := repos.SubCategories().FindByID(ctx, companyID, subCategoryID)
	if err != nil {
		return nil, false, err
	}
	if period == nil {
		logger.L(ctx).Warn("No active financial period, skipping sub-category recompute",
			zap.String("sub_category_id", subCategoryID.String()))
		return sub, false, nil
	}

	items, err := repos.Items().FindBySubCategory(ctx, companyID, subCategoryID, period.ID)
	if err != nil {
		return nil, false, err
	}
	profits, err := repos.Records().ProfitsBySubCategory(ctx, companyID, subCategoryID, period.ID)
	if err != nil {
		return nil, false, err
	}

	lowStock := sub.ApplyTotals(inventory.ComputeTotals(items, inventory.SumProfit(profits)))
	if err := repos.SubCategories().UpdateTotals(ctx, sub); err != nil {
		return nil, false, err
	}

	if lowStock {
		logger.L(ctx).Warn(sub.LowStockMessage(),
			zap.String("sub_category_id", sub.ID.String()),
			zap.String("current_quantity", sub.CurrentQuantity.String()),
			zap.String("reorder_level", sub.ReorderLevel.String()))
		r.metrics.RecordLowStock(ctx)
	}
	return sub, lowStock, nil
}

// Category recomputes one category from the items beneath it
func (r *Recomputer) Category(ctx context.Context, repos Repositories, companyID, categoryID uuid.UUID, period *finance.FinancialPeriod) (*inventory.StockCategory, error) {
	category, err := repos.Categories().FindByID(ctx, companyID, categoryID)
	if err != nil {
		return nil, err
	}
	if period == nil {
		logger.L(ctx).Warn("No active financial period, skipping category recompute",
			zap.String("category_id", categoryID.String()))
		return category, nil
	}

	items, err := repos.Items().FindByCategory(ctx, companyID, categoryID, period.ID)
	if err != nil {
		return nil, err
	}
	profits, err := repos.Records().ProfitsByCategory(ctx, companyID, categoryID, period.ID)
	if err != nil {
		return nil, err
	}

	category.ApplyTotals(inventory.ComputeTotals(items, inventory.SumProfit(profits)))
	if err := repos.Categories().UpdateTotals(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

// Cascade recomputes a sub-category and then its category. The returned
// sub-category is nil when it no longer exists.
func (r *Recomputer) Cascade(ctx context.Context, repos Repositories, companyID, subCategoryID, categoryID uuid.UUID, period *finance.FinancialPeriod) (*inventory.StockSubCategory, bool, error) {
	sub, lowStock, err := r.SubCategory(ctx, repos, companyID, subCategoryID, period)
	if err != nil && !isNotFound(err) {
		return nil, false, err
	}
	if _, err := r.Category(ctx, repos, companyID, categoryID, period); err != nil && !isNotFound(err) {
		return nil, false, err
	}
	return sub, lowStock, nil
}
