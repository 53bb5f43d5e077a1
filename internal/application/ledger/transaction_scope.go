package ledger

import (
	"context"

	"github.com/erp/stockledger/internal/domain/audit"
	"github.com/erp/stockledger/internal/domain/finance"
	"github.com/erp/stockledger/internal/domain/inventory"
)

// TransactionScope provides transactional access to the ledger repositories.
// All repository operations inside fn share one database transaction and are
// committed or rolled back together.
type TransactionScope interface {
	// Execute runs fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos Repositories) error) error
}

// Repositories gives access to every repository the ledger touches.
// Inside TransactionScope.Execute all of them share the transaction; outside
// it they run on the plain connection.
type Repositories interface {
	Categories() inventory.CategoryRepository
	SubCategories() inventory.SubCategoryRepository
	Items() inventory.ItemRepository
	Records() inventory.RecordRepository
	Periods() finance.PeriodRepository
	FinancialCategories() finance.CategoryRepository
	FinancialRecords() finance.RecordRepository
	AuditLogs() audit.Repository
}
