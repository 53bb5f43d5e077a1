package finance

import (
	"context"
	"time"

	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PeriodRepository persists financial periods
type PeriodRepository interface {
	FindByID(ctx context.Context, companyID, id uuid.UUID) (*FinancialPeriod, error)
	// FindActive returns the company's active period or shared.ErrNoActivePeriod
	FindActive(ctx context.Context, companyID uuid.UUID) (*FinancialPeriod, error)
	FindAll(ctx context.Context, companyID uuid.UUID) ([]FinancialPeriod, error)
	Save(ctx context.Context, period *FinancialPeriod) error
	// DeactivateAll marks every period of the company inactive except keepID
	DeactivateAll(ctx context.Context, companyID, keepID uuid.UUID) error
}

// CategoryRepository persists financial categories
type CategoryRepository interface {
	FindByID(ctx context.Context, companyID, id uuid.UUID) (*FinancialCategory, error)
	FindByName(ctx context.Context, companyID uuid.UUID, name string) (*FinancialCategory, error)
	FindAll(ctx context.Context, companyID uuid.UUID) ([]FinancialCategory, error)
	// Create inserts the category; a duplicate name yields a CONFLICT error
	Create(ctx context.Context, category *FinancialCategory) error
	// CreateIfAbsent inserts the category unless its name is taken and
	// reports whether it inserted
	CreateIfAbsent(ctx context.Context, category *FinancialCategory) (bool, error)
}

// RecordFilter narrows financial record listings
type RecordFilter struct {
	shared.Filter
	Type       RecordType
	CategoryID *uuid.UUID
	PeriodID   *uuid.UUID
	From       *time.Time
	To         *time.Time
}

// RecordRepository persists financial records
type RecordRepository interface {
	FindByID(ctx context.Context, companyID, id uuid.UUID) (*FinancialRecord, error)
	FindAll(ctx context.Context, companyID uuid.UUID, filter RecordFilter) ([]FinancialRecord, int64, error)
	FindByStockRecord(ctx context.Context, companyID, stockRecordID uuid.UUID) ([]FinancialRecord, error)
	Create(ctx context.Context, record *FinancialRecord) error
	DeleteByStockRecord(ctx context.Context, companyID, stockRecordID uuid.UUID) (int64, error)
	// SumAmount totals the amounts of one record type dated within the range
	SumAmount(ctx context.Context, companyID uuid.UUID, recordType RecordType, from, to time.Time) (decimal.Decimal, error)
}
