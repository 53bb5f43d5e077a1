package persistence

import (
	"context"
	"strings"

	"github.com/erp/stockledger/internal/domain/inventory"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/erp/stockledger/internal/infrastructure/persistence/company"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormStockCategoryRepository implements inventory.CategoryRepository using GORM
type GormStockCategoryRepository struct {
	db *gorm.DB
}

// NewGormStockCategoryRepository creates a new GormStockCategoryRepository
func NewGormStockCategoryRepository(db *gorm.DB) *GormStockCategoryRepository {
	return &GormStockCategoryRepository{db: db}
}

// FindByID finds a category of the company
func (r *GormStockCategoryRepository) FindByID(ctx context.Context, companyID, id uuid.UUID) (*inventory.StockCategory, error) {
	var c inventory.StockCategory
	if err := r.db.WithContext(ctx).Scopes(company.Owned(companyID, id)).First(&c).Error; err != nil {
		return nil, notFound(err, "Stock category")
	}
	return &c, nil
}

// FindByIDForUpdate reads a category holding its row lock
func (r *GormStockCategoryRepository) FindByIDForUpdate(ctx context.Context, companyID, id uuid.UUID) (*inventory.StockCategory, error) {
	var c inventory.StockCategory
	if err := forUpdate(r.db.WithContext(ctx).Scopes(company.Owned(companyID, id))).First(&c).Error; err != nil {
		return nil, notFound(err, "Stock category")
	}
	return &c, nil
}

// FindAll lists the company's categories
func (r *GormStockCategoryRepository) FindAll(ctx context.Context, companyID uuid.UUID, filter shared.Filter) ([]inventory.StockCategory, int64, error) {
	query := r.db.WithContext(ctx).Model(&inventory.StockCategory{}).Scopes(company.Scope(companyID))
	if filter.Search != "" {
		query = query.Where("LOWER(name) LIKE ?", likePattern(filter.Search))
	}
	if status, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var categories []inventory.StockCategory
	if err := applyPage(query, filter, StockCategorySortFields, "name").Find(&categories).Error; err != nil {
		return nil, 0, err
	}
	return categories, total, nil
}

// ExistsByName reports whether another category of the company has the name
func (r *GormStockCategoryRepository) ExistsByName(ctx context.Context, companyID uuid.UUID, name string, excludeID uuid.UUID) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&inventory.StockCategory{}).
		Scopes(company.Scope(companyID)).
		Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name)))
	if excludeID != uuid.Nil {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save inserts or updates the editable fields of a category
func (r *GormStockCategoryRepository) Save(ctx context.Context, c *inventory.StockCategory) error {
	result := r.db.WithContext(ctx).Model(&inventory.StockCategory{}).
		Scopes(company.Owned(c.CompanyID, c.ID)).
		Select("name", "description", "image", "status", "measurement_unit", "reorder_level", "updated_at").
		Updates(c)
	if result.Error != nil {
		return conflict(result.Error, "DUPLICATE_CATEGORY", "A stock category with this name already exists")
	}
	if result.RowsAffected > 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Create(c).Error
	return conflict(err, "DUPLICATE_CATEGORY", "A stock category with this name already exists")
}

// UpdateTotals writes the derived aggregates
func (r *GormStockCategoryRepository) UpdateTotals(ctx context.Context, c *inventory.StockCategory) error {
	result := r.db.WithContext(ctx).Model(&inventory.StockCategory{}).
		Scopes(company.Owned(c.CompanyID, c.ID)).
		Updates(map[string]any{
			"buying_price":     c.BuyingPrice,
			"selling_price":    c.SellingPrice,
			"expected_profit":  c.ExpectedProfit,
			"earned_profit":    c.EarnedProfit,
			"current_quantity": c.CurrentQuantity,
			"updated_at":       c.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("Stock category")
	}
	return nil
}

// Delete removes a category of the company
func (r *GormStockCategoryRepository) Delete(ctx context.Context, companyID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Scopes(company.Owned(companyID, id)).Delete(&inventory.StockCategory{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("Stock category")
	}
	return nil
}

var _ inventory.CategoryRepository = (*GormStockCategoryRepository)(nil)
