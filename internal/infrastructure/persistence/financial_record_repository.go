package persistence

import (
	"context"
	"time"

	"github.com/erp/stockledger/internal/domain/finance"
	"github.com/erp/stockledger/internal/infrastructure/persistence/company"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormFinancialRecordRepository implements finance.RecordRepository using GORM
type GormFinancialRecordRepository struct {
	db *gorm.DB
}

// NewGormFinancialRecordRepository creates a new GormFinancialRecordRepository
func NewGormFinancialRecordRepository(db *gorm.DB) *GormFinancialRecordRepository {
	return &GormFinancialRecordRepository{db: db}
}

// FindByID finds a financial record of the company
func (r *GormFinancialRecordRepository) FindByID(ctx context.Context, companyID, id uuid.UUID) (*finance.FinancialRecord, error) {
	var rec finance.FinancialRecord
	if err := r.db.WithContext(ctx).Scopes(company.Owned(companyID, id)).First(&rec).Error; err != nil {
		return nil, notFound(err, "Financial record")
	}
	return &rec, nil
}

// FindAll lists financial records matching the filter
func (r *GormFinancialRecordRepository) FindAll(ctx context.Context, companyID uuid.UUID, filter finance.RecordFilter) ([]finance.FinancialRecord, int64, error) {
	query := r.db.WithContext(ctx).Model(&finance.FinancialRecord{}).Scopes(company.Scope(companyID))
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.CategoryID != nil {
		query = query.Where("financial_category_id = ?", *filter.CategoryID)
	}
	if filter.PeriodID != nil {
		query = query.Where("financial_period_id = ?", *filter.PeriodID)
	}
	if filter.From != nil {
		query = query.Where("date >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("date <= ?", *filter.To)
	}
	if filter.Search != "" {
		query = query.Where("LOWER(description) LIKE ?", likePattern(filter.Search))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var records []finance.FinancialRecord
	if err := applyPage(query, filter.Filter, FinancialRecordSortFields, "date").Find(&records).Error; err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// FindByStockRecord returns the records generated from a stock record
func (r *GormFinancialRecordRepository) FindByStockRecord(ctx context.Context, companyID, stockRecordID uuid.UUID) ([]finance.FinancialRecord, error) {
	var records []finance.FinancialRecord
	err := r.db.WithContext(ctx).Scopes(company.Scope(companyID)).
		Where("stock_record_id = ?", stockRecordID).
		Find(&records).Error
	return records, err
}

// Create inserts a financial record
func (r *GormFinancialRecordRepository) Create(ctx context.Context, rec *finance.FinancialRecord) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

// DeleteByStockRecord removes the records generated from a stock record
func (r *GormFinancialRecordRepository) DeleteByStockRecord(ctx context.Context, companyID, stockRecordID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Scopes(company.Scope(companyID)).
		Where("stock_record_id = ?", stockRecordID).
		Delete(&finance.FinancialRecord{})
	return result.RowsAffected, result.Error
}

// SumAmount totals the amounts of one type dated within [from, to]
func (r *GormFinancialRecordRepository) SumAmount(ctx context.Context, companyID uuid.UUID, recordType finance.RecordType, from, to time.Time) (decimal.Decimal, error) {
	var amounts []decimal.Decimal
	err := r.db.WithContext(ctx).Model(&finance.FinancialRecord{}).
		Scopes(company.Scope(companyID)).
		Where("type = ? AND date >= ? AND date <= ?", recordType, from, to).
		Pluck("amount", &amounts).Error
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total, nil
}

var _ finance.RecordRepository = (*GormFinancialRecordRepository)(nil)
