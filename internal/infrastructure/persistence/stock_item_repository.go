package persistence

import (
	"context"
	"time"

	"github.com/erp/stockledger/internal/domain/inventory"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/erp/stockledger/internal/infrastructure/persistence/company"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStockItemRepository implements inventory.ItemRepository using GORM
type GormStockItemRepository struct {
	db *gorm.DB
}

// NewGormStockItemRepository creates a new GormStockItemRepository
func NewGormStockItemRepository(db *gorm.DB) *GormStockItemRepository {
	return &GormStockItemRepository{db: db}
}

// FindByID finds an item of the company
func (r *GormStockItemRepository) FindByID(ctx context.Context, companyID, id uuid.UUID) (*inventory.StockItem, error) {
	var item inventory.StockItem
	if err := r.db.WithContext(ctx).Scopes(company.Owned(companyID, id)).First(&item).Error; err != nil {
		return nil, notFound(err, "Stock item")
	}
	return &item, nil
}

// FindByIDForUpdate reads the item with SELECT ... FOR UPDATE. SQLite ignores
// the lock; callers still guard the write with CompareAndSwapQuantity.
func (r *GormStockItemRepository) FindByIDForUpdate(ctx context.Context, companyID, id uuid.UUID) (*inventory.StockItem, error) {
	var item inventory.StockItem
	if err := forUpdate(r.db.WithContext(ctx).Scopes(company.Owned(companyID, id))).First(&item).Error; err != nil {
		return nil, notFound(err, "Stock item")
	}
	return &item, nil
}

// forUpdate adds FOR UPDATE to query. SQLite has no row locks and runs on a
// single connection, so its transactions already serialise.
func forUpdate(query *gorm.DB) *gorm.DB {
	if query.Dialector.Name() == "sqlite" {
		return query
	}
	return query.Clauses(clause.Locking{Strength: "UPDATE"})
}

// FindAll lists the company's items
func (r *GormStockItemRepository) FindAll(ctx context.Context, companyID uuid.UUID, filter inventory.ItemFilter) ([]inventory.StockItem, int64, error) {
	query := r.db.WithContext(ctx).Model(&inventory.StockItem{}).Scopes(company.Scope(companyID))
	if filter.CategoryID != nil {
		query = query.Where("stock_category_id = ?", *filter.CategoryID)
	}
	if filter.SubCategoryID != nil {
		query = query.Where("stock_sub_category_id = ?", *filter.SubCategoryID)
	}
	if filter.Search != "" {
		p := likePattern(filter.Search)
		query = query.Where("(LOWER(name) LIKE ? OR LOWER(sku) LIKE ? OR LOWER(barcode) LIKE ?)", p, p, p)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []inventory.StockItem
	if err := applyPage(query, filter.Filter, StockItemSortFields, "created_at").Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// FindBySubCategory lists the items of a sub-category in a financial period
func (r *GormStockItemRepository) FindBySubCategory(ctx context.Context, companyID, subCategoryID, periodID uuid.UUID) ([]inventory.StockItem, error) {
	var items []inventory.StockItem
	err := r.db.WithContext(ctx).Scopes(company.Scope(companyID)).
		Where("stock_sub_category_id = ? AND financial_period_id = ?", subCategoryID, periodID).
		Order("created_at ASC").
		Find(&items).Error
	return items, err
}

// FindByCategory lists the items of a category in a financial period
func (r *GormStockItemRepository) FindByCategory(ctx context.Context, companyID, categoryID, periodID uuid.UUID) ([]inventory.StockItem, error) {
	var items []inventory.StockItem
	err := r.db.WithContext(ctx).Scopes(company.Scope(companyID)).
		Where("stock_category_id = ? AND financial_period_id = ?", categoryID, periodID).
		Order("created_at ASC").
		Find(&items).Error
	return items, err
}

// FindBySKU finds the company's item carrying a SKU
func (r *GormStockItemRepository) FindBySKU(ctx context.Context, companyID uuid.UUID, sku string) (*inventory.StockItem, error) {
	var item inventory.StockItem
	if err := r.db.WithContext(ctx).Scopes(company.Scope(companyID)).Where("sku = ?", sku).First(&item).Error; err != nil {
		return nil, notFound(err, "Stock item")
	}
	return &item, nil
}

// CountBySubCategory counts the items of a sub-category across all periods
func (r *GormStockItemRepository) CountBySubCategory(ctx context.Context, companyID, subCategoryID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&inventory.StockItem{}).
		Scopes(company.Scope(companyID)).
		Where("stock_sub_category_id = ?", subCategoryID).
		Count(&count).Error
	return count, err
}

// Create inserts an item
func (r *GormStockItemRepository) Create(ctx context.Context, item *inventory.StockItem) error {
	err := r.db.WithContext(ctx).Create(item).Error
	return conflict(err, "DUPLICATE_SKU", "The SKU is already used by another item")
}

// Update writes the editable fields. current_quantity is deliberately absent.
func (r *GormStockItemRepository) Update(ctx context.Context, item *inventory.StockItem) error {
	result := r.db.WithContext(ctx).Model(&inventory.StockItem{}).
		Scopes(company.Owned(item.CompanyID, item.ID)).
		Select("stock_category_id", "stock_sub_category_id", "name", "description", "image",
			"barcode", "gallery", "sku", "buying_price", "selling_price", "original_quantity", "updated_at").
		Updates(item)
	if result.Error != nil {
		return conflict(result.Error, "DUPLICATE_SKU", "The SKU is already used by another item")
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("Stock item")
	}
	return nil
}

// CompareAndSwapQuantity moves current_quantity from expected to next
func (r *GormStockItemRepository) CompareAndSwapQuantity(ctx context.Context, companyID, id uuid.UUID, expected, next decimal.Decimal) error {
	result := r.db.WithContext(ctx).Model(&inventory.StockItem{}).
		Scopes(company.Owned(companyID, id)).
		Where("current_quantity = ?", expected).
		Updates(map[string]any{
			"current_quantity": next,
			"updated_at":       time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// Delete removes an item of the company
func (r *GormStockItemRepository) Delete(ctx context.Context, companyID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Scopes(company.Owned(companyID, id)).Delete(&inventory.StockItem{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("Stock item")
	}
	return nil
}

var _ inventory.ItemRepository = (*GormStockItemRepository)(nil)
