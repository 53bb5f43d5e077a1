package telemetry

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormStockMetricsProvider implements StockMetricsProvider using GORM.
type GormStockMetricsProvider struct {
	db *gorm.DB
}

// NewGormStockMetricsProvider creates a new GormStockMetricsProvider.
func NewGormStockMetricsProvider(db *gorm.DB) *GormStockMetricsProvider {
	return &GormStockMetricsProvider{db: db}
}

// LowStockSubCategoryCount counts sub-categories with 0 < current_quantity <= reorder_level.
func (p *GormStockMetricsProvider) LowStockSubCategoryCount(ctx context.Context, companyID uuid.UUID) (int64, error) {
	var count int64
	err := p.db.WithContext(ctx).
		Table("stock_sub_categories").
		Where("company_id = ?", companyID).
		Where("current_quantity > 0 AND current_quantity <= reorder_level").
		Count(&count).Error

	return count, err
}

// GormCompanyProvider lists the companies that own a financial period.
type GormCompanyProvider struct {
	db *gorm.DB
}

// NewGormCompanyProvider creates a new GormCompanyProvider.
func NewGormCompanyProvider(db *gorm.DB) *GormCompanyProvider {
	return &GormCompanyProvider{db: db}
}

// CompanyIDs returns every company with at least one financial period.
func (p *GormCompanyProvider) CompanyIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := p.db.WithContext(ctx).
		Table("financial_periods").
		Distinct("company_id").
		Pluck("company_id", &ids).Error

	return ids, err
}
