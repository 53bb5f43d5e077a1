package finance

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/stockledger/internal/domain/inventory"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RecordType is the direction of a financial record
type RecordType string

const (
	RecordIncome  RecordType = "Income"
	RecordExpense RecordType = "Expense"
)

// IsValid reports whether the type is Income or Expense
func (t RecordType) IsValid() bool {
	return t == RecordIncome || t == RecordExpense
}

// Payment methods of generated records. Sales and purchases are settled in
// cash; losses move no money.
const (
	PaymentMethodCash = "Cash"
	PaymentMethodNone = "N/A"
)

// FinancialRecord is an income or expense entry
type FinancialRecord struct {
	shared.CompanyEntity
	FinancialCategoryID uuid.UUID       `gorm:"type:uuid;not null;index"`
	FinancialPeriodID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	StockRecordID       *uuid.UUID      `gorm:"type:uuid;index"`
	Type                RecordType      `gorm:"type:varchar(20);not null;index"`
	Amount              decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Quantity            decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	PaymentMethod       string          `gorm:"type:varchar(50)"`
	Date                time.Time       `gorm:"type:date;not null;index"`
	Description         string          `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (FinancialRecord) TableName() string {
	return "financial_records"
}

// RecordInput carries a manually entered financial record
type RecordInput struct {
	FinancialCategoryID uuid.UUID
	Type                RecordType
	Amount              decimal.Decimal
	Quantity            decimal.Decimal
	PaymentMethod       string
	Date                time.Time
	Description         string
}

// NewFinancialRecord creates a manual record. The category must belong to
// the actor's company.
func NewFinancialRecord(actor shared.Actor, category *FinancialCategory, periodID uuid.UUID, in RecordInput) (*FinancialRecord, error) {
	if category == nil {
		return nil, shared.NewValidationError("INVALID_CATEGORY", "Financial category is required")
	}
	if err := actor.Guard("Financial category", category.CompanyID); err != nil {
		return nil, err
	}
	if !in.Type.IsValid() {
		return nil, shared.NewValidationError("INVALID_RECORD_TYPE", "Type must be Income or Expense")
	}
	if in.Amount.IsNegative() {
		return nil, shared.NewValidationError("INVALID_AMOUNT", "Amount cannot be negative")
	}
	if periodID == uuid.Nil {
		return nil, shared.ErrNoActivePeriod
	}
	date := in.Date
	if date.IsZero() {
		date = time.Now()
	}
	method := strings.TrimSpace(in.PaymentMethod)
	if method == "" {
		method = PaymentMethodCash
	}
	return &FinancialRecord{
		CompanyEntity:       shared.NewCompanyEntity(actor),
		FinancialCategoryID: category.ID,
		FinancialPeriodID:   periodID,
		Type:                in.Type,
		Amount:              in.Amount,
		Quantity:            in.Quantity,
		PaymentMethod:       method,
		Date:                date,
		Description:         in.Description,
	}, nil
}

// StockEntry describes the financial record a stock movement produces
type StockEntry struct {
	CategoryName  string
	Type          RecordType
	Amount        decimal.Decimal
	PaymentMethod string
	Description   string
}

// EntryForStockRecord maps a stock record to the financial entry it
// generates. Adjustment, Internal Use and Other produce none.
func EntryForStockRecord(r *inventory.StockRecord) (StockEntry, bool) {
	switch {
	case r.Type == inventory.TransactionSale:
		return StockEntry{
			CategoryName:  CategorySales,
			Type:          RecordIncome,
			Amount:        r.TotalSales,
			PaymentMethod: PaymentMethodCash,
			Description:   fmt.Sprintf("Stock sale: %s (Record #%s)", r.Name, r.ID),
		}, true
	case r.Type.IsLoss():
		return StockEntry{
			CategoryName:  CategoryExpense,
			Type:          RecordExpense,
			Amount:        r.CostValue(),
			PaymentMethod: PaymentMethodNone,
			Description:   fmt.Sprintf("Stock loss (%s): %s (Record #%s)", r.Type, r.Name, r.ID),
		}, true
	case r.Type == inventory.TransactionStockIn:
		return StockEntry{
			CategoryName:  CategoryPurchase,
			Type:          RecordExpense,
			Amount:        r.CostValue(),
			PaymentMethod: PaymentMethodCash,
			Description:   fmt.Sprintf("Stock purchase: %s (Record #%s)", r.Name, r.ID),
		}, true
	}
	return StockEntry{}, false
}

// NewStockFinancialRecord builds the record generated for a stock movement
func NewStockFinancialRecord(actor shared.Actor, r *inventory.StockRecord, category *FinancialCategory, entry StockEntry) *FinancialRecord {
	stockRecordID := r.ID
	return &FinancialRecord{
		CompanyEntity:       shared.NewCompanyEntity(actor),
		FinancialCategoryID: category.ID,
		FinancialPeriodID:   r.FinancialPeriodID,
		StockRecordID:       &stockRecordID,
		Type:                entry.Type,
		Amount:              entry.Amount,
		Quantity:            r.Quantity,
		PaymentMethod:       entry.PaymentMethod,
		Date:                r.Date,
		Description:         entry.Description,
	}
}
