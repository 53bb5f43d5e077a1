package persistence

import (
	"context"

	"github.com/erp/stockledger/internal/domain/finance"
	"github.com/erp/stockledger/internal/infrastructure/persistence/company"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormFinancialCategoryRepository implements finance.CategoryRepository using GORM
type GormFinancialCategoryRepository struct {
	db *gorm.DB
}

// NewGormFinancialCategoryRepository creates a new GormFinancialCategoryRepository
func NewGormFinancialCategoryRepository(db *gorm.DB) *GormFinancialCategoryRepository {
	return &GormFinancialCategoryRepository{db: db}
}

// FindByID finds a financial category of the company
func (r *GormFinancialCategoryRepository) FindByID(ctx context.Context, companyID, id uuid.UUID) (*finance.FinancialCategory, error) {
	var c finance.FinancialCategory
	if err := r.db.WithContext(ctx).Scopes(company.Owned(companyID, id)).First(&c).Error; err != nil {
		return nil, notFound(err, "Financial category")
	}
	return &c, nil
}

// FindByName finds a financial category by its exact name
func (r *GormFinancialCategoryRepository) FindByName(ctx context.Context, companyID uuid.UUID, name string) (*finance.FinancialCategory, error) {
	var c finance.FinancialCategory
	if err := r.db.WithContext(ctx).Scopes(company.Scope(companyID)).Where("name = ?", name).First(&c).Error; err != nil {
		return nil, notFound(err, "Financial category")
	}
	return &c, nil
}

// FindAll lists the company's financial categories by name
func (r *GormFinancialCategoryRepository) FindAll(ctx context.Context, companyID uuid.UUID) ([]finance.FinancialCategory, error) {
	var categories []finance.FinancialCategory
	err := r.db.WithContext(ctx).Scopes(company.Scope(companyID)).Order("name ASC").Find(&categories).Error
	return categories, err
}

// Create inserts a financial category
func (r *GormFinancialCategoryRepository) Create(ctx context.Context, c *finance.FinancialCategory) error {
	err := r.db.WithContext(ctx).Create(c).Error
	return conflict(err, "DUPLICATE_FINANCIAL_CATEGORY", "A financial category with this name already exists")
}

// CreateIfAbsent inserts the category unless the name is taken. It uses
// ON CONFLICT DO NOTHING so a lost race does not abort the surrounding
// PostgreSQL transaction.
func (r *GormFinancialCategoryRepository) CreateIfAbsent(ctx context.Context, c *finance.FinancialCategory) (bool, error) {
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(c)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

var _ finance.CategoryRepository = (*GormFinancialCategoryRepository)(nil)
