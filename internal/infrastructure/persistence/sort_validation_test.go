package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSortOrder(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty string returns DESC", "", "DESC"},
		{"ASC uppercase returns ASC", "ASC", "ASC"},
		{"asc lowercase returns ASC", "asc", "ASC"},
		{"DESC uppercase returns DESC", "DESC", "DESC"},
		{"desc lowercase returns DESC", "DESC", "DESC"},
		{"invalid value returns DESC", "INVALID", "DESC"},
		{"sql injection attempt returns DESC", "ASC; DROP TABLE users;--", "DESC"},
		{"whitespace only returns DESC", "   ", "DESC"},
		{"whitespace around ASC returns ASC", "  asc  ", "ASC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateSortOrder(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestValidateSortField(t *testing.T) {
	allowedFields := map[string]bool{
		"id":         true,
		"created_at": true,
		"updated_at": true,
		"name":       true,
	}

	tests := []struct {
		name         string
		input        string
		allowedMap   map[string]bool
		defaultField string
		expected     string
	}{
		{"empty string returns default", "", allowedFields, "created_at", "created_at"},
		{"valid field returns field", "name", allowedFields, "created_at", "name"},
		{"valid field id returns field", "id", allowedFields, "created_at", "id"},
		{"invalid field returns default", "invalid_field", allowedFields, "created_at", "created_at"},
		{"sql injection attempt returns default", "id; DROP TABLE users;--", allowedFields, "created_at", "created_at"},
		{"case sensitive - uppercase invalid", "NAME", allowedFields, "created_at", "created_at"},
		{"whitespace only returns default", "   ", allowedFields, "created_at", "created_at"},
		{"whitespace around valid field returns field", "  name  ", allowedFields, "created_at", "name"},
		{"field with spaces injection returns default", "name users", allowedFields, "created_at", "created_at"},
		{"field with quotes injection returns default", "name'--", allowedFields, "created_at", "created_at"},
		{"empty default with valid field", "name", allowedFields, "", "name"},
		{"empty default with invalid field", "invalid", allowedFields, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateSortField(tt.input, tt.allowedMap, tt.defaultField)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestSortFieldsWhitelists(t *testing.T) {
	whitelists := map[string]map[string]bool{
		"StockCategorySortFields":    StockCategorySortFields,
		"StockSubCategorySortFields": StockSubCategorySortFields,
		"StockItemSortFields":        StockItemSortFields,
		"StockRecordSortFields":      StockRecordSortFields,
		"FinancialRecordSortFields":  FinancialRecordSortFields,
	}

	for name, whitelist := range whitelists {
		t.Run(name, func(t *testing.T) {
			for _, field := range []string{"id", "created_at", "updated_at"} {
				assert.True(t, whitelist[field], "%s should contain '%s'", name, field)
			}
			assert.False(t, whitelist["company_id"], "%s must not expose company_id", name)
		})
	}

	for _, field := range []string{"buying_price", "selling_price", "expected_profit", "earned_profit", "current_quantity"} {
		assert.True(t, StockCategorySortFields[field], field)
		assert.True(t, StockSubCategorySortFields[field], field)
	}
	assert.True(t, StockRecordSortFields["date"])
	assert.True(t, FinancialRecordSortFields["amount"])
}

func TestSQLInjectionPrevention(t *testing.T) {
	injectionPayloads := []string{
		"date; DROP TABLE stock_records;--",
		"date' OR '1'='1",
		"date UNION SELECT * FROM stock_items",
		"date, (SELECT company_id FROM stock_items)",
		"CASE WHEN 1=1 THEN date ELSE name END",
		"date/**/;DROP TABLE stock_records",
		"date\n; DROP TABLE stock_records",
	}

	for _, payload := range injectionPayloads {
		t.Run("field: "+payload[:min(len(payload), 30)], func(t *testing.T) {
			assert.Equal(t, "date", ValidateSortField(payload, StockRecordSortFields, "date"))
		})

		t.Run("order: "+payload[:min(len(payload), 30)], func(t *testing.T) {
			assert.Equal(t, "DESC", ValidateSortOrder(payload))
		})
	}
}
