package persistence

import (
	"fmt"

	"github.com/erp/stockledger/internal/domain/audit"
	"github.com/erp/stockledger/internal/domain/finance"
	"github.com/erp/stockledger/internal/domain/inventory"
	"gorm.io/gorm"
)

// Models lists every persisted ledger model in dependency order
func Models() []any {
	return []any{
		&finance.FinancialPeriod{},
		&inventory.StockCategory{},
		&inventory.StockSubCategory{},
		&inventory.StockItem{},
		&inventory.StockRecord{},
		&finance.FinancialCategory{},
		&finance.FinancialRecord{},
		&audit.Log{},
	}
}

// uniqueIndexes mirrors the unique constraints of the SQL migrations. Both
// PostgreSQL and SQLite accept partial indexes.
var uniqueIndexes = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_stock_items_sku ON stock_items (company_id, sku)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_stock_categories_name ON stock_categories (company_id, name)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_stock_sub_categories_name ON stock_sub_categories (company_id, stock_category_id, name)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_financial_categories_name ON financial_categories (company_id, name)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_financial_periods_active ON financial_periods (company_id) WHERE status = 'Active'`,
}

// AutoMigrate creates or updates the schema from the models. It is used for
// sqlite deployments and tests; PostgreSQL deployments run cmd/migrate.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to auto-migrate: %w", err)
	}
	for _, stmt := range uniqueIndexes {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}
