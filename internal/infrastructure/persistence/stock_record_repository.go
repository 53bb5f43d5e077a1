package persistence

import (
	"context"

	"github.com/erp/stockledger/internal/domain/inventory"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/erp/stockledger/internal/infrastructure/persistence/company"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormStockRecordRepository implements inventory.RecordRepository using GORM
type GormStockRecordRepository struct {
	db *gorm.DB
}

// NewGormStockRecordRepository creates a new GormStockRecordRepository
func NewGormStockRecordRepository(db *gorm.DB) *GormStockRecordRepository {
	return &GormStockRecordRepository{db: db}
}

// FindByID finds a stock record of the company
func (r *GormStockRecordRepository) FindByID(ctx context.Context, companyID, id uuid.UUID) (*inventory.StockRecord, error) {
	var rec inventory.StockRecord
	if err := r.db.WithContext(ctx).Scopes(company.Owned(companyID, id)).First(&rec).Error; err != nil {
		return nil, notFound(err, "Stock record")
	}
	return &rec, nil
}

// FindAll lists stock records matching the filter
func (r *GormStockRecordRepository) FindAll(ctx context.Context, companyID uuid.UUID, filter inventory.RecordFilter) ([]inventory.StockRecord, int64, error) {
	query := r.db.WithContext(ctx).Model(&inventory.StockRecord{}).Scopes(company.Scope(companyID))
	if filter.ItemID != nil {
		query = query.Where("stock_item_id = ?", *filter.ItemID)
	}
	if filter.SubCategoryID != nil {
		query = query.Where("stock_sub_category_id = ?", *filter.SubCategoryID)
	}
	if filter.CategoryID != nil {
		query = query.Where("stock_category_id = ?", *filter.CategoryID)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.From != nil {
		query = query.Where("date >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("date <= ?", *filter.To)
	}
	if filter.Search != "" {
		p := likePattern(filter.Search)
		query = query.Where("(LOWER(name) LIKE ? OR LOWER(sku) LIKE ?)", p, p)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var records []inventory.StockRecord
	if err := applyPage(query, filter.Filter, StockRecordSortFields, "created_at").Find(&records).Error; err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// FindByItem returns the records of an item, oldest first
func (r *GormStockRecordRepository) FindByItem(ctx context.Context, companyID, itemID uuid.UUID) ([]inventory.StockRecord, error) {
	var records []inventory.StockRecord
	err := r.db.WithContext(ctx).Scopes(company.Scope(companyID)).
		Where("stock_item_id = ?", itemID).
		Order("created_at ASC").
		Find(&records).Error
	return records, err
}

// Create inserts a stock record
func (r *GormStockRecordRepository) Create(ctx context.Context, rec *inventory.StockRecord) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

// Delete removes a stock record of the company
func (r *GormStockRecordRepository) Delete(ctx context.Context, companyID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Scopes(company.Owned(companyID, id)).Delete(&inventory.StockRecord{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("Stock record")
	}
	return nil
}

// CountByItem counts the records referencing an item
func (r *GormStockRecordRepository) CountByItem(ctx context.Context, companyID, itemID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&inventory.StockRecord{}).
		Scopes(company.Scope(companyID)).
		Where("stock_item_id = ?", itemID).
		Count(&count).Error
	return count, err
}

// ProfitsBySubCategory returns the profit of every record of a sub-category
// in a period. Summing happens in decimal arithmetic on the caller's side.
func (r *GormStockRecordRepository) ProfitsBySubCategory(ctx context.Context, companyID, subCategoryID, periodID uuid.UUID) ([]decimal.Decimal, error) {
	return r.profits(ctx, companyID, "stock_sub_category_id", subCategoryID, periodID)
}

// ProfitsByCategory returns the profit of every record of a category in a period
func (r *GormStockRecordRepository) ProfitsByCategory(ctx context.Context, companyID, categoryID, periodID uuid.UUID) ([]decimal.Decimal, error) {
	return r.profits(ctx, companyID, "stock_category_id", categoryID, periodID)
}

func (r *GormStockRecordRepository) profits(ctx context.Context, companyID uuid.UUID, column string, id, periodID uuid.UUID) ([]decimal.Decimal, error) {
	var profits []decimal.Decimal
	err := r.db.WithContext(ctx).Model(&inventory.StockRecord{}).
		Scopes(company.Scope(companyID)).
		Where(column+" = ? AND financial_period_id = ?", id, periodID).
		Pluck("profit", &profits).Error
	return profits, err
}

var _ inventory.RecordRepository = (*GormStockRecordRepository)(nil)
