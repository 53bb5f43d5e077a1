package persistence

import (
	"context"

	"github.com/erp/stockledger/internal/application/ledger"
	"github.com/erp/stockledger/internal/domain/audit"
	"github.com/erp/stockledger/internal/domain/finance"
	"github.com/erp/stockledger/internal/domain/inventory"
	"gorm.io/gorm"
)

// GormTransactionScope implements ledger.TransactionScope using GORM transactions.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos ledger.Repositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
}

// Repositories bundles the GORM repositories over one connection or transaction
type Repositories struct {
	db *gorm.DB
}

// NewRepositories creates the repository bundle over db
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{db: db}
}

// Categories returns the stock category repository
func (r *Repositories) Categories() inventory.CategoryRepository {
	return NewGormStockCategoryRepository(r.db)
}

// SubCategories returns the stock sub-category repository
func (r *Repositories) SubCategories() inventory.SubCategoryRepository {
	return NewGormStockSubCategoryRepository(r.db)
}

// Items returns the stock item repository
func (r *Repositories) Items() inventory.ItemRepository {
	return NewGormStockItemRepository(r.db)
}

// Records returns the stock record repository
func (r *Repositories) Records() inventory.RecordRepository {
	return NewGormStockRecordRepository(r.db)
}

// Periods returns the financial period repository
func (r *Repositories) Periods() finance.PeriodRepository {
	return NewGormFinancialPeriodRepository(r.db)
}

// FinancialCategories returns the financial category repository
func (r *Repositories) FinancialCategories() finance.CategoryRepository {
	return NewGormFinancialCategoryRepository(r.db)
}

// FinancialRecords returns the financial record repository
func (r *Repositories) FinancialRecords() finance.RecordRepository {
	return NewGormFinancialRecordRepository(r.db)
}

// AuditLogs returns the audit log repository
func (r *Repositories) AuditLogs() audit.Repository {
	return NewGormAuditLogRepository(r.db)
}

// Ensure GormTransactionScope implements TransactionScope
var _ ledger.TransactionScope = (*GormTransactionScope)(nil)

// Ensure Repositories implements ledger.Repositories
var _ ledger.Repositories = (*Repositories)(nil)
