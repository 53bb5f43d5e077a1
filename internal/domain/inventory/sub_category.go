package inventory

import (
	"fmt"
	"strings"

	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InStock flag values
const (
	InStockYes = "Yes"
	InStockNo  = "No"
)

// StockSubCategory groups items under a category
type StockSubCategory struct {
	shared.CompanyEntity
	StockCategoryID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Name            string          `gorm:"type:varchar(255);not null"`
	Description     string          `gorm:"type:text"`
	Image           string          `gorm:"type:varchar(500)"`
	Status          Status          `gorm:"type:varchar(20);not null;default:'Active'"`
	MeasurementUnit string          `gorm:"type:varchar(50)"`
	ReorderLevel    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	InStock         string          `gorm:"type:varchar(3);not null;default:'No'"`
	Totals          `gorm:"embedded"`
}

// TableName returns the table name for GORM
func (StockSubCategory) TableName() string {
	return "stock_sub_categories"
}

// SubCategoryInput carries the user-editable fields of a sub-category
type SubCategoryInput struct {
	StockCategoryID uuid.UUID
	Name            string
	Description     string
	Image           string
	Status          Status
	MeasurementUnit string
	ReorderLevel    decimal.Decimal
}

// NewStockSubCategory creates a sub-category under the given category.
// The category must belong to the actor's company.
func NewStockSubCategory(actor shared.Actor, category *StockCategory, in SubCategoryInput) (*StockSubCategory, error) {
	s := &StockSubCategory{
		CompanyEntity: shared.NewCompanyEntity(actor),
		InStock:       InStockNo,
		Totals:        ZeroTotals(),
	}
	if err := s.Apply(actor, category, in); err != nil {
		return nil, err
	}
	return s, nil
}

// Apply validates and copies the editable fields onto the sub-category
func (s *StockSubCategory) Apply(actor shared.Actor, category *StockCategory, in SubCategoryInput) error {
	if category == nil {
		return shared.NewValidationError("INVALID_CATEGORY", "Stock category is required")
	}
	if err := actor.Guard("Stock category", category.CompanyID); err != nil {
		return err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return shared.NewValidationError("INVALID_NAME", "Sub-category name cannot be empty")
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
	unit := in.MeasurementUnit
	if unit == "" {
		unit = category.MeasurementUnit
	}
	s.StockCategoryID = category.ID
	s.Name = name
	s.Description = in.Description
	s.Image = in.Image
	s.Status = status
	s.MeasurementUnit = unit
	s.ReorderLevel = in.ReorderLevel
	s.InStock = s.inStockFlag()
	s.Touch()
	return nil
}

// ApplyTotals overwrites the derived aggregates and the in-stock flag.
// It reports whether the sub-category is now at or below its reorder level
// while still holding some stock.
func (s *StockSubCategory) ApplyTotals(t Totals) (lowStock bool) {
	s.Totals = t
	s.InStock = s.inStockFlag()
	s.Touch()
	return s.IsLowStock()
}

// IsLowStock reports 0 < current_quantity <= reorder_level
func (s *StockSubCategory) IsLowStock() bool {
	return s.CurrentQuantity.IsPositive() && s.CurrentQuantity.LessThanOrEqual(s.ReorderLevel)
}

// LowStockMessage describes a low stock condition for logs and notifications
func (s *StockSubCategory) LowStockMessage() string {
	return fmt.Sprintf("Stock level low for sub-category '%s': %s %s (Reorder level: %s)",
		s.Name, s.CurrentQuantity.String(), s.MeasurementUnit, s.ReorderLevel.String())
}

// DisplayName renders "name - category"
func (s *StockSubCategory) DisplayName(categoryName string) string {
	if categoryName == "" {
		return s.Name
	}
	return s.Name + " - " + categoryName
}

// SearchText renders the autocomplete label "name (unit)"
func (s *StockSubCategory) SearchText() string {
	if s.MeasurementUnit == "" {
		return s.Name
	}
	return fmt.Sprintf("%s (%s)", s.Name, s.MeasurementUnit)
}

func (s *StockSubCategory) inStockFlag() string {
	if s.CurrentQuantity.GreaterThan(s.ReorderLevel) {
		return InStockYes
	}
	return InStockNo
}
