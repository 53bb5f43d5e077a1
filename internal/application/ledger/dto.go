package ledger

import (
	"time"

	"github.com/erp/stockledger/internal/domain/finance"
	"github.com/erp/stockledger/internal/domain/inventory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateTransactionRequest asks for one stock movement on an item
type CreateTransactionRequest struct {
	ItemID      uuid.UUID
	Type        inventory.TransactionType
	Quantity    decimal.Decimal
	Date        time.Time
	Description string
}

// TransactionResult carries the entities as they are after the movement
// committed. FinancialRecord is nil for types that generate none or when
// generation soft-failed.
type TransactionResult struct {
	Record          *inventory.StockRecord
	Item            *inventory.StockItem
	SubCategory     *inventory.StockSubCategory
	FinancialRecord *finance.FinancialRecord
}

// DeleteResult describes a deleted and reversed record. Item and SubCategory
// are nil when they no longer exist.
type DeleteResult struct {
	Record      *inventory.StockRecord
	Reversed    bool
	Item        *inventory.StockItem
	SubCategory *inventory.StockSubCategory
}

// RecordListFilter narrows ListRecords
type RecordListFilter struct {
	ItemID        *uuid.UUID
	SubCategoryID *uuid.UUID
	CategoryID    *uuid.UUID
	Type          inventory.TransactionType
	From          *time.Time
	To            *time.Time
	Search        string
	Page          int
	PageSize      int
	OrderBy       string
	OrderDir      string
}
