package persistence

import (
	"strings"

	"github.com/erp/stockledger/internal/domain/shared"
	"gorm.io/gorm"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// applyPage adds ordering and pagination from a shared.Filter
func applyPage(db *gorm.DB, filter shared.Filter, allowed map[string]bool, defaultField string) *gorm.DB {
	field := ValidateSortField(filter.OrderBy, allowed, defaultField)
	db = db.Order(field + " " + ValidateSortOrder(filter.OrderDir))
	if filter.PageSize > 0 {
		db = db.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	return db
}

// likePattern builds a case-insensitive LIKE pattern
func likePattern(search string) string {
	return "%" + strings.ToLower(strings.TrimSpace(search)) + "%"
}

var totalsSortFields = map[string]bool{
	"buying_price":     true,
	"selling_price":    true,
	"expected_profit":  true,
	"earned_profit":    true,
	"current_quantity": true,
}

func withCommon(extra map[string]bool, more ...string) map[string]bool {
	out := map[string]bool{"id": true, "created_at": true, "updated_at": true}
	for k := range extra {
		out[k] = true
	}
	for _, k := range more {
		out[k] = true
	}
	return out
}

// StockCategorySortFields contains allowed sort fields for stock categories
var StockCategorySortFields = withCommon(totalsSortFields, "name", "status", "reorder_level")

// StockSubCategorySortFields contains allowed sort fields for stock sub-categories
var StockSubCategorySortFields = withCommon(totalsSortFields, "name", "status", "reorder_level", "in_stock", "stock_category_id")

// StockItemSortFields contains allowed sort fields for stock items
var StockItemSortFields = withCommon(nil,
	"name", "sku", "barcode", "buying_price", "selling_price",
	"original_quantity", "current_quantity", "stock_category_id", "stock_sub_category_id")

// StockRecordSortFields contains allowed sort fields for stock records
var StockRecordSortFields = withCommon(nil,
	"date", "type", "quantity", "total_sales", "profit", "name", "sku")

// FinancialRecordSortFields contains allowed sort fields for financial records
var FinancialRecordSortFields = withCommon(nil, "date", "type", "amount", "payment_method")
