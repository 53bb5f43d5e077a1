package inventory

import (
	"context"
	"time"

	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Every repository method takes the owning company explicitly. A row that
// exists under another company is reported as shared.ErrNotFound.

// CategoryRepository persists stock categories
type CategoryRepository interface {
	FindByID(ctx context.Context, companyID, id uuid.UUID) (*StockCategory, error)
	// FindByIDForUpdate locks the category row until the transaction ends
	FindByIDForUpdate(ctx context.Context, companyID, id uuid.UUID) (*StockCategory, error)
	FindAll(ctx context.Context, companyID uuid.UUID, filter shared.Filter) ([]StockCategory, int64, error)
	ExistsByName(ctx context.Context, companyID uuid.UUID, name string, excludeID uuid.UUID) (bool, error)
	Save(ctx context.Context, category *StockCategory) error
	UpdateTotals(ctx context.Context, category *StockCategory) error
	Delete(ctx context.Context, companyID, id uuid.UUID) error
}

// SubCategoryRepository persists stock sub-categories
type SubCategoryRepository interface {
	FindByID(ctx context.Context, companyID, id uuid.UUID) (*StockSubCategory, error)
	// FindByIDForUpdate locks the sub-category row until the transaction ends
	FindByIDForUpdate(ctx context.Context, companyID, id uuid.UUID) (*StockSubCategory, error)
	// FindAll lists sub-categories, optionally restricted to one category
	FindAll(ctx context.Context, companyID uuid.UUID, categoryID *uuid.UUID, filter shared.Filter) ([]StockSubCategory, int64, error)
	// Search matches the name case-insensitively, ordered by name
	Search(ctx context.Context, companyID uuid.UUID, query string, limit int) ([]StockSubCategory, error)
	ExistsByName(ctx context.Context, companyID, categoryID uuid.UUID, name string, excludeID uuid.UUID) (bool, error)
	CountByCategory(ctx context.Context, companyID, categoryID uuid.UUID) (int64, error)
	Save(ctx context.Context, sub *StockSubCategory) error
	UpdateTotals(ctx context.Context, sub *StockSubCategory) error
	Delete(ctx context.Context, companyID, id uuid.UUID) error
}

// ItemFilter narrows item listings
type ItemFilter struct {
	shared.Filter
	CategoryID    *uuid.UUID
	SubCategoryID *uuid.UUID
}

// ItemRepository persists stock items
type ItemRepository interface {
	FindByID(ctx context.Context, companyID, id uuid.UUID) (*StockItem, error)
	// FindByIDForUpdate reads the item holding a row lock until the
	// surrounding transaction ends
	FindByIDForUpdate(ctx context.Context, companyID, id uuid.UUID) (*StockItem, error)
	FindAll(ctx context.Context, companyID uuid.UUID, filter ItemFilter) ([]StockItem, int64, error)
	FindBySubCategory(ctx context.Context, companyID, subCategoryID, periodID uuid.UUID) ([]StockItem, error)
	FindByCategory(ctx context.Context, companyID, categoryID, periodID uuid.UUID) ([]StockItem, error)
	FindBySKU(ctx context.Context, companyID uuid.UUID, sku string) (*StockItem, error)
	CountBySubCategory(ctx context.Context, companyID, subCategoryID uuid.UUID) (int64, error)
	// Create inserts the item; a duplicate SKU yields a CONFLICT error
	Create(ctx context.Context, item *StockItem) error
	// Update writes the editable fields; current_quantity is never written here
	Update(ctx context.Context, item *StockItem) error
	// CompareAndSwapQuantity sets current_quantity to next only when it still
	// equals expected, else returns shared.ErrConcurrencyConflict
	CompareAndSwapQuantity(ctx context.Context, companyID, id uuid.UUID, expected, next decimal.Decimal) error
	Delete(ctx context.Context, companyID, id uuid.UUID) error
}

// RecordFilter narrows stock record listings
type RecordFilter struct {
	shared.Filter
	ItemID        *uuid.UUID
	SubCategoryID *uuid.UUID
	CategoryID    *uuid.UUID
	Type          TransactionType
	From          *time.Time
	To            *time.Time
}

// RecordRepository persists stock records
type RecordRepository interface {
	FindByID(ctx context.Context, companyID, id uuid.UUID) (*StockRecord, error)
	FindAll(ctx context.Context, companyID uuid.UUID, filter RecordFilter) ([]StockRecord, int64, error)
	// FindByItem returns every record of an item in creation order
	FindByItem(ctx context.Context, companyID, itemID uuid.UUID) ([]StockRecord, error)
	Create(ctx context.Context, record *StockRecord) error
	Delete(ctx context.Context, companyID, id uuid.UUID) error
	CountByItem(ctx context.Context, companyID, itemID uuid.UUID) (int64, error)
	ProfitsBySubCategory(ctx context.Context, companyID, subCategoryID, periodID uuid.UUID) ([]decimal.Decimal, error)
	ProfitsByCategory(ctx context.Context, companyID, categoryID, periodID uuid.UUID) ([]decimal.Decimal, error)
}
