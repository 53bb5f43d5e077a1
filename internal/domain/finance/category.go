package finance

import (
	"strings"

	"github.com/erp/stockledger/internal/domain/shared"
)

// Names of the categories the ledger provisions on demand
const (
	CategorySales    = "Sales"
	CategoryExpense  = "Expense"
	CategoryPurchase = "Purchase"
)

// DefaultCategoryNames are provisioned for every company that records stock movements
var DefaultCategoryNames = []string{CategorySales, CategoryExpense, CategoryPurchase}

// FinancialCategory groups financial records. Names are unique per company.
type FinancialCategory struct {
	shared.CompanyEntity
	Name        string `gorm:"type:varchar(255);not null"`
	Description string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (FinancialCategory) TableName() string {
	return "financial_categories"
}

// NewFinancialCategory creates a category owned by the actor's company
func NewFinancialCategory(actor shared.Actor, name, description string) (*FinancialCategory, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewValidationError("INVALID_NAME", "Financial category name cannot be empty")
	}
	return &FinancialCategory{
		CompanyEntity: shared.NewCompanyEntity(actor),
		Name:          name,
		Description:   description,
	}, nil
}

// DefaultCategoryDescription describes an auto-provisioned category
func DefaultCategoryDescription(name string) string {
	switch name {
	case CategorySales:
		return "Income from stock sales"
	case CategoryExpense:
		return "Stock losses: damaged, expired or lost items"
	case CategoryPurchase:
		return "Stock purchases"
	}
	return ""
}
