package inventory

import (
	"time"

	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType is the kind of stock movement a record represents
type TransactionType string

const (
	TransactionSale        TransactionType = "Sale"
	TransactionStockIn     TransactionType = "Stock In"
	TransactionAdjustment  TransactionType = "Adjustment"
	TransactionDamage      TransactionType = "Damage"
	TransactionExpired     TransactionType = "Expired"
	TransactionLost        TransactionType = "Lost"
	TransactionInternalUse TransactionType = "Internal Use"
	TransactionOther       TransactionType = "Other"
)

// AllTransactionTypes lists every accepted transaction type
var AllTransactionTypes = []TransactionType{
	TransactionSale,
	TransactionStockIn,
	TransactionAdjustment,
	TransactionDamage,
	TransactionExpired,
	TransactionLost,
	TransactionInternalUse,
	TransactionOther,
}

// MinimumQuantity is the smallest quantity a stock record may carry
var MinimumQuantity = decimal.NewFromFloat(0.01)

// IsValid reports whether the type is one of AllTransactionTypes
func (t TransactionType) IsValid() bool {
	for _, v := range AllTransactionTypes {
		if v == t {
			return true
		}
	}
	return false
}

// IsOutgoing reports whether the movement removes stock
func (t TransactionType) IsOutgoing() bool {
	switch t {
	case TransactionStockIn, TransactionAdjustment:
		return false
	}
	return t.IsValid()
}

// IsLoss reports whether the movement is a write-off booked as an expense
func (t TransactionType) IsLoss() bool {
	return t == TransactionDamage || t == TransactionExpired || t == TransactionLost
}

// StockRecord is an immutable ledger entry for one stock movement
type StockRecord struct {
	shared.CompanyEntity
	StockItemID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	StockCategoryID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	StockSubCategoryID uuid.UUID       `gorm:"type:uuid;not null;index"`
	FinancialPeriodID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	SKU                string          `gorm:"column:sku;type:varchar(100)"`
	Name               string          `gorm:"type:varchar(255)"`
	MeasurementUnit    string          `gorm:"type:varchar(50)"`
	Type               TransactionType `gorm:"type:varchar(30);not null;index"`
	Quantity           decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	BuyingPrice        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	SellingPrice       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TotalSales         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Profit             decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Date               time.Time       `gorm:"type:date;not null;index"`
	Description        string          `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (StockRecord) TableName() string {
	return "stock_records"
}

// RecordInput is a requested stock movement
type RecordInput struct {
	Type        TransactionType
	Quantity    decimal.Decimal
	Date        time.Time
	Description string
}

// NormalizeRecordInput validates the requested movement and fills defaults.
// The quantity is taken as an absolute value.
func NormalizeRecordInput(in RecordInput, now time.Time) (RecordInput, error) {
	if !in.Type.IsValid() {
		return in, shared.NewValidationError("INVALID_TRANSACTION_TYPE", "Invalid transaction type: "+string(in.Type))
	}
	in.Quantity = in.Quantity.Abs()
	if in.Quantity.LessThan(MinimumQuantity) {
		return in, shared.NewValidationError("INVALID_QUANTITY", "Quantity must be at least 0.01")
	}
	if in.Date.IsZero() {
		in.Date = now
	}
	y, m, d := in.Date.Date()
	in.Date = time.Date(y, m, d, 0, 0, 0, 0, in.Date.Location())
	if in.Description == "" {
		in.Description = string(in.Type) + " transaction"
	}
	return in, nil
}

// NewStockRecord builds the record for a movement of item, snapshotting the
// item's prices and identity. The input must already be normalised.
func NewStockRecord(actor shared.Actor, item *StockItem, unit string, periodID uuid.UUID, in RecordInput) *StockRecord {
	r := &StockRecord{
		CompanyEntity:      shared.NewCompanyEntity(actor),
		StockItemID:        item.ID,
		StockCategoryID:    item.StockCategoryID,
		StockSubCategoryID: item.StockSubCategoryID,
		FinancialPeriodID:  periodID,
		SKU:                item.SKU,
		Name:               item.Name,
		MeasurementUnit:    unit,
		Type:               in.Type,
		Quantity:           in.Quantity,
		BuyingPrice:        item.BuyingPrice,
		SellingPrice:       item.SellingPrice,
		Date:               in.Date,
		Description:        in.Description,
	}
	r.TotalSales, r.Profit = computeOutcome(in.Type, in.Quantity, item.BuyingPrice, item.SellingPrice)
	return r
}

func computeOutcome(t TransactionType, qty, buying, selling decimal.Decimal) (totalSales, profit decimal.Decimal) {
	switch {
	case t == TransactionSale:
		totalSales = selling.Mul(qty)
		return totalSales, totalSales.Sub(buying.Mul(qty))
	case t.IsOutgoing():
		return decimal.Zero, buying.Mul(qty).Neg()
	default:
		return decimal.Zero, decimal.Zero
	}
}

// QuantityDelta is the signed change the record applies to its item
func (r *StockRecord) QuantityDelta() decimal.Decimal {
	if r.Type.IsOutgoing() {
		return r.Quantity.Neg()
	}
	return r.Quantity
}

// CostValue is buying price times quantity
func (r *StockRecord) CostValue() decimal.Decimal {
	return r.BuyingPrice.Mul(r.Quantity)
}
