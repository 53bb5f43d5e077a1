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

// GormStockSubCategoryRepository implements inventory.SubCategoryRepository using GORM
type GormStockSubCategoryRepository struct {
	db *gorm.DB
}

// NewGormStockSubCategoryRepository creates a new GormStockSubCategoryRepository
func NewGormStockSubCategoryRepository(db *gorm.DB) *GormStockSubCategoryRepository {
	return &GormStockSubCategoryRepository{db: db}
}

// FindByID finds a sub-category of the company
func (r *GormStockSubCategoryRepository) FindByID(ctx context.Context, companyID, id uuid.UUID) (*inventory.StockSubCategory, error) {
	var s inventory.StockSubCategory
	if err := r.db.WithContext(ctx).Scopes(company.Owned(companyID, id)).First(&s).Error; err != nil {
		return nil, notFound(err, "Stock sub-category")
	}
	return &s, nil
}

// FindByIDForUpdate reads a sub-category holding its row lock
func (r *GormStockSubCategoryRepository) FindByIDForUpdate(ctx context.Context, companyID, id uuid.UUID) (*inventory.StockSubCategory, error) {
	var s inventory.StockSubCategory
	if err := forUpdate(r.db.WithContext(ctx).Scopes(company.Owned(companyID, id))).First(&s).Error; err != nil {
		return nil, notFound(err, "Stock sub-category")
	}
	return &s, nil
}

// FindAll lists sub-categories, optionally of one category
func (r *GormStockSubCategoryRepository) FindAll(ctx context.Context, companyID uuid.UUID, categoryID *uuid.UUID, filter shared.Filter) ([]inventory.StockSubCategory, int64, error) {
	query := r.db.WithContext(ctx).Model(&inventory.StockSubCategory{}).Scopes(company.Scope(companyID))
	if categoryID != nil {
		query = query.Where("stock_category_id = ?", *categoryID)
	}
	if filter.Search != "" {
		query = query.Where("LOWER(name) LIKE ?", likePattern(filter.Search))
	}
	if inStock, ok := filter.Filters["in_stock"]; ok {
		query = query.Where("in_stock = ?", inStock)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var subs []inventory.StockSubCategory
	if err := applyPage(query, filter, StockSubCategorySortFields, "name").Find(&subs).Error; err != nil {
		return nil, 0, err
	}
	return subs, total, nil
}

// Search matches names for autocomplete
func (r *GormStockSubCategoryRepository) Search(ctx context.Context, companyID uuid.UUID, q string, limit int) ([]inventory.StockSubCategory, error) {
	if limit <= 0 {
		limit = 20
	}
	var subs []inventory.StockSubCategory
	err := r.db.WithContext(ctx).Scopes(company.Scope(companyID)).
		Where("LOWER(name) LIKE ?", likePattern(q)).
		Order("name ASC").
		Limit(limit).
		Find(&subs).Error
	if err != nil {
		return nil, err
	}
	return subs, nil
}

// ExistsByName reports whether another sub-category of the category has the name
func (r *GormStockSubCategoryRepository) ExistsByName(ctx context.Context, companyID, categoryID uuid.UUID, name string, excludeID uuid.UUID) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&inventory.StockSubCategory{}).
		Scopes(company.Scope(companyID)).
		Where("stock_category_id = ? AND LOWER(name) = ?", categoryID, strings.ToLower(strings.TrimSpace(name)))
	if excludeID != uuid.Nil {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountByCategory counts the sub-categories of a category
func (r *GormStockSubCategoryRepository) CountByCategory(ctx context.Context, companyID, categoryID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&inventory.StockSubCategory{}).
		Scopes(company.Scope(companyID)).
		Where("stock_category_id = ?", categoryID).
		Count(&count).Error
	return count, err
}

// Save inserts or updates the editable fields of a sub-category
func (r *GormStockSubCategoryRepository) Save(ctx context.Context, s *inventory.StockSubCategory) error {
	result := r.db.WithContext(ctx).Model(&inventory.StockSubCategory{}).
		Scopes(company.Owned(s.CompanyID, s.ID)).
		Select("stock_category_id", "name", "description", "image", "status",
			"measurement_unit", "reorder_level", "in_stock", "updated_at").
		Updates(s)
	if result.Error != nil {
		return conflict(result.Error, "DUPLICATE_SUB_CATEGORY", "A sub-category with this name already exists in the category")
	}
	if result.RowsAffected > 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Create(s).Error
	return conflict(err, "DUPLICATE_SUB_CATEGORY", "A sub-category with this name already exists in the category")
}

// UpdateTotals writes the derived aggregates and the in-stock flag
func (r *GormStockSubCategoryRepository) UpdateTotals(ctx context.Context, s *inventory.StockSubCategory) error {
	result := r.db.WithContext(ctx).Model(&inventory.StockSubCategory{}).
		Scopes(company.Owned(s.CompanyID, s.ID)).
		Updates(map[string]any{
			"buying_price":     s.BuyingPrice,
			"selling_price":    s.SellingPrice,
			"expected_profit":  s.ExpectedProfit,
			"earned_profit":    s.EarnedProfit,
			"current_quantity": s.CurrentQuantity,
			"in_stock":         s.InStock,
			"updated_at":       s.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("Stock sub-category")
	}
	return nil
}

// Delete removes a sub-category of the company
func (r *GormStockSubCategoryRepository) Delete(ctx context.Context, companyID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Scopes(company.Owned(companyID, id)).Delete(&inventory.StockSubCategory{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("Stock sub-category")
	}
	return nil
}

var _ inventory.SubCategoryRepository = (*GormStockSubCategoryRepository)(nil)
