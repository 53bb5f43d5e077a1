package persistence

import (
	"context"
	"errors"

	"github.com/erp/stockledger/internal/domain/finance"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/erp/stockledger/internal/infrastructure/persistence/company"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormFinancialPeriodRepository implements finance.PeriodRepository using GORM
type GormFinancialPeriodRepository struct {
	db *gorm.DB
}

// NewGormFinancialPeriodRepository creates a new GormFinancialPeriodRepository
func NewGormFinancialPeriodRepository(db *gorm.DB) *GormFinancialPeriodRepository {
	return &GormFinancialPeriodRepository{db: db}
}

// FindByID finds a period of the company
func (r *GormFinancialPeriodRepository) FindByID(ctx context.Context, companyID, id uuid.UUID) (*finance.FinancialPeriod, error) {
	var p finance.FinancialPeriod
	if err := r.db.WithContext(ctx).Scopes(company.Owned(companyID, id)).First(&p).Error; err != nil {
		return nil, notFound(err, "Financial period")
	}
	return &p, nil
}

// FindActive returns the company's active period
func (r *GormFinancialPeriodRepository) FindActive(ctx context.Context, companyID uuid.UUID) (*finance.FinancialPeriod, error) {
	var p finance.FinancialPeriod
	err := r.db.WithContext(ctx).Scopes(company.Scope(companyID)).
		Where("status = ?", finance.PeriodActive).
		Order("updated_at DESC").
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.ErrNoActivePeriod
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// FindAll lists the company's periods, newest first
func (r *GormFinancialPeriodRepository) FindAll(ctx context.Context, companyID uuid.UUID) ([]finance.FinancialPeriod, error) {
	var periods []finance.FinancialPeriod
	err := r.db.WithContext(ctx).Scopes(company.Scope(companyID)).
		Order("start_date DESC").
		Find(&periods).Error
	return periods, err
}

// Save inserts or updates a period
func (r *GormFinancialPeriodRepository) Save(ctx context.Context, p *finance.FinancialPeriod) error {
	result := r.db.WithContext(ctx).Model(&finance.FinancialPeriod{}).
		Scopes(company.Owned(p.CompanyID, p.ID)).
		Select("name", "start_date", "end_date", "status", "currency", "description", "updated_at").
		Updates(p)
	if result.Error != nil {
		return conflict(result.Error, "ACTIVE_PERIOD_EXISTS", "Another financial period is already active")
	}
	if result.RowsAffected > 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Create(p).Error
	return conflict(err, "ACTIVE_PERIOD_EXISTS", "Another financial period is already active")
}

// DeactivateAll marks every other period of the company inactive
func (r *GormFinancialPeriodRepository) DeactivateAll(ctx context.Context, companyID, keepID uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&finance.FinancialPeriod{}).
		Scopes(company.Scope(companyID)).
		Where("id <> ? AND status = ?", keepID, finance.PeriodActive).
		Update("status", finance.PeriodInactive).Error
}

var _ finance.PeriodRepository = (*GormFinancialPeriodRepository)(nil)
