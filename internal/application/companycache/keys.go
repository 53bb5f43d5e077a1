// Package companycache fronts company-scoped reference reads with a shared
// cache. Keys follow "{entity}:{company_id}[:qualifier]"; writes delete the
// entity's keys and never patch cached values.
package companycache

import (
	"github.com/google/uuid"
)

// Key entity prefixes
const (
	entityStockCategories     = "stock_categories"
	entityStockSubCategories  = "stock_sub_categories"
	entityFinancialCategories = "financial_categories"
	entityFinancialPeriods    = "financial_periods"
	entityActivePeriod        = "financial_period:active"
)

// StockCategoriesKey is the key of a company's category list
func StockCategoriesKey(companyID uuid.UUID) string {
	return entityStockCategories + ":" + companyID.String()
}

// StockSubCategoriesKey is the key of a company's sub-category list,
// restricted to one category or, for a nil category, all of them
func StockSubCategoriesKey(companyID uuid.UUID, categoryID *uuid.UUID) string {
	qualifier := "all"
	if categoryID != nil {
		qualifier = categoryID.String()
	}
	return stockSubCategoriesPrefix(companyID) + qualifier
}

func stockSubCategoriesPrefix(companyID uuid.UUID) string {
	return entityStockSubCategories + ":" + companyID.String() + ":"
}

// FinancialCategoriesKey is the key of a company's financial category list
func FinancialCategoriesKey(companyID uuid.UUID) string {
	return entityFinancialCategories + ":" + companyID.String()
}

// FinancialPeriodsKey is the key of a company's period list
func FinancialPeriodsKey(companyID uuid.UUID) string {
	return entityFinancialPeriods + ":" + companyID.String()
}

// ActivePeriodKey is the key of a company's active period pointer
func ActivePeriodKey(companyID uuid.UUID) string {
	return entityActivePeriod + ":" + companyID.String()
}

// companyFragment matches every key of one company
func companyFragment(companyID uuid.UUID) string {
	return ":" + companyID.String()
}
