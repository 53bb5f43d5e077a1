package inventory

import (
	"strings"

	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of a category or sub-category
type Status string

const (
	StatusActive   Status = "Active"
	StatusInactive Status = "Inactive"
)

// IsValid reports whether the status is known
func (s Status) IsValid() bool {
	return s == StatusActive || s == StatusInactive
}

// Totals holds the derived aggregate columns shared by categories and
// sub-categories. They are only ever written by recomputation.
type Totals struct {
	BuyingPrice     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"buying_price"`
	SellingPrice    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"selling_price"`
	ExpectedProfit  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"expected_profit"`
	EarnedProfit    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"earned_profit"`
	CurrentQuantity decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"current_quantity"`
}

// Equal reports whether two totals carry the same values
func (t Totals) Equal(o Totals) bool {
	return t.BuyingPrice.Equal(o.BuyingPrice) &&
		t.SellingPrice.Equal(o.SellingPrice) &&
		t.ExpectedProfit.Equal(o.ExpectedProfit) &&
		t.EarnedProfit.Equal(o.EarnedProfit) &&
		t.CurrentQuantity.Equal(o.CurrentQuantity)
}

// StockCategory is the top level of the stock hierarchy
type StockCategory struct {
	shared.CompanyEntity
	Name            string          `gorm:"type:varchar(255);not null"`
	Description     string          `gorm:"type:text"`
	Image           string          `gorm:"type:varchar(500)"`
	Status          Status          `gorm:"type:varchar(20);not null;default:'Active'"`
	MeasurementUnit string          `gorm:"type:varchar(50)"`
	ReorderLevel    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Totals          `gorm:"embedded"`
}

// TableName returns the table name for GORM
func (StockCategory) TableName() string {
	return "stock_categories"
}

// CategoryInput carries the user-editable fields of a category
type CategoryInput struct {
	Name            string
	Description     string
	Image           string
	Status          Status
	MeasurementUnit string
	ReorderLevel    decimal.Decimal
}

// NewStockCategory creates a category owned by the actor's company
func NewStockCategory(actor shared.Actor, in CategoryInput) (*StockCategory, error) {
	c := &StockCategory{
		CompanyEntity: shared.NewCompanyEntity(actor),
		Totals:        ZeroTotals(),
	}
	if err := c.Apply(in); err != nil {
		return nil, err
	}
	return c, nil
}

// Apply validates and copies the editable fields onto the category
func (c *StockCategory) Apply(in CategoryInput) error {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return shared.NewValidationError("INVALID_NAME", "Category name cannot be empty")
	}
	if in.ReorderLevel.IsNegative() {
		return shared.NewValidationError("INVALID_REORDER_LEVEL", "Reorder level cannot be negative")
	}
	status := in.Status
	if status == "" {
		status = StatusActive
	}
	if !status.IsValid() {
		return shared.NewValidationError("INVALID_STATUS", "Status must be Active or Inactive")
	}
	c.Name = name
	c.Description = in.Description
	c.Image = in.Image
	c.Status = status
	c.MeasurementUnit = in.MeasurementUnit
	c.ReorderLevel = in.ReorderLevel
	c.Touch()
	return nil
}

// ApplyTotals overwrites the derived aggregates
func (c *StockCategory) ApplyTotals(t Totals) {
	c.Totals = t
	c.Touch()
}

// ZeroTotals returns totals with every field set to zero
func ZeroTotals() Totals {
	return Totals{
		BuyingPrice:     decimal.Zero,
		SellingPrice:    decimal.Zero,
		ExpectedProfit:  decimal.Zero,
		EarnedProfit:    decimal.Zero,
		CurrentQuantity: decimal.Zero,
	}
}
