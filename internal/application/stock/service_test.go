package stock_test

import (
	"context"
	"testing"
	"time"

	"github.com/erp/stockledger/internal/application/companycache"
	"github.com/erp/stockledger/internal/application/ledger"
	"github.com/erp/stockledger/internal/application/stock"
	"github.com/erp/stockledger/internal/domain/audit"
	"github.com/erp/stockledger/internal/domain/inventory"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/erp/stockledger/internal/infrastructure/cache"
	"github.com/erp/stockledger/internal/infrastructure/persistence"
	"github.com/erp/stockledger/tests/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

type fixture struct {
	db      *gorm.DB
	service *stock.Service
	ledger  *testutil.Ledger
	store   *cache.MemoryStore
}

func newFixture(t *testing.T, opts testutil.LedgerOptions) *fixture {
	t.Helper()
	db := testutil.NewSQLiteDB(t, persistence.AutoMigrate)
	repos := persistence.NewRepositories(db)

	store := cache.NewMemoryStore(time.Minute)
	t.Cleanup(func() { _ = store.Close() })

	return &fixture{
		db:     db,
		ledger: testutil.SeedLedger(t, db, testutil.TestActor(), opts),
		store:  store,
		service: stock.NewService(
			persistence.NewGormTransactionScope(db),
			repos,
			ledger.RepositoryPeriodProvider{Periods: repos.Periods()},
			stock.WithCache(companycache.New(store)),
			stock.WithOwnershipLookup(persistence.NewGormOwnershipLookup(db)),
			stock.WithClock(func() time.Time { return fixedNow }),
		),
	}
}

func (f *fixture) subCategory(t *testing.T, name string) *inventory.StockSubCategory {
	t.Helper()
	sub, err := f.service.CreateSubCategory(context.Background(), f.ledger.Actor, stock.SubCategoryRequest{
		StockCategoryID: f.ledger.Category.ID,
		Name:            name,
		ReorderLevel:    decimal.NewFromInt(2),
	})
	require.NoError(t, err)
	return sub
}

func itemRequest(subID uuid.UUID, name string) stock.ItemRequest {
	return stock.ItemRequest{
		StockSubCategoryID: subID,
		Name:               name,
		BuyingPrice:        decimal.NewFromInt(100),
		SellingPrice:       decimal.NewFromInt(120),
		OriginalQuantity:   decimal.NewFromInt(10),
	}
}

func TestCreateItem_GeneratesSKU(t *testing.T) {
	f := newFixture(t, testutil.DefaultLedgerOptions())
	sub := f.subCategory(t, "Tablets")

	view, err := f.service.CreateItem(context.Background(), f.ledger.Actor, itemRequest(sub.ID, "Slate"))

	require.NoError(t, err)
	assert.Equal(t, inventory.FormatSKU(2026, sub.ID, 1), view.Item.SKU)
	assert.True(t, view.Item.CurrentQuantity.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, f.ledger.Period.ID, view.Item.FinancialPeriodID)
	assert.Equal(t, "Slate - Tablets (10 pcs)", view.NameText)
	assert.False(t, view.BelowCost)

	reloaded := testutil.ReloadSubCategory(t, f.db, sub)
	assert.True(t, reloaded.CurrentQuantity.Equal(decimal.NewFromInt(10)))
	assert.True(t, reloaded.BuyingPrice.Equal(decimal.NewFromInt(1000)), "got %s", reloaded.BuyingPrice)
	assert.True(t, reloaded.ExpectedProfit.Equal(decimal.NewFromInt(200)))

	var logs []audit.Log
	require.NoError(t, f.db.Where("model_id = ?", view.Item.ID).Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, audit.ActionCreated, logs[0].Action)
	assert.Equal(t, stock.AggregateTypeStockItem, logs[0].ModelType)
}

func TestCreateItem_SKUSerialSkipsTakenValue(t *testing.T) {
	f := newFixture(t, testutil.DefaultLedgerOptions())
	sub := f.subCategory(t, "Tablets")

	taken := itemRequest(f.ledger.SubCategory.ID, "Squatter")
	taken.SKU = inventory.FormatSKU(2026, sub.ID, 1)
	_, err := f.service.CreateItem(context.Background(), f.ledger.Actor, taken)
	require.NoError(t, err)

	view, err := f.service.CreateItem(context.Background(), f.ledger.Actor, itemRequest(sub.ID, "Slate"))

	require.NoError(t, err)
	assert.Equal(t, inventory.FormatSKU(2026, sub.ID, 2), view.Item.SKU)
}

func TestCreateItem_SuppliedSKU(t *testing.T) {
	f := newFixture(t, testutil.DefaultLedgerOptions())

	req := itemRequest(f.ledger.SubCategory.ID, "Charger")
	req.SKU = "CHG-1"
	view, err := f.service.CreateItem(context.Background(), f.ledger.Actor, req)
	require.NoError(t, err)
	assert.Equal(t, "CHG-1", view.Item.SKU)

	req.Name = "Charger copy"
	_, err = f.service.CreateItem(context.Background(), f.ledger.Actor, req)
	assert.ErrorIs(t, err, shared.ErrConflict)

	short := itemRequest(f.ledger.SubCategory.ID, "Cable")
	short.SKU = "X"
	view, err = f.service.CreateItem(context.Background(), f.ledger.Actor, short)
	require.NoError(t, err)
	assert.Equal(t, inventory.FormatSKU(2026, f.ledger.SubCategory.ID, 3), view.Item.SKU)
}

func TestCreateItem_BelowCostIsAllowed(t *testing.T) {
	f := newFixture(t, testutil.DefaultLedgerOptions())
	req := itemRequest(f.ledger.SubCategory.ID, "Clearance")
	req.SellingPrice = decimal.NewFromInt(90)

	view, err := f.service.CreateItem(context.Background(), f.ledger.Actor, req)

	require.NoError(t, err)
	assert.True(t, view.BelowCost)
}

func TestCreateItem_Errors(t *testing.T) {
	tests := []struct {
		name    string
		opts    func(o *testutil.LedgerOptions)
		req     func(f *fixture) stock.ItemRequest
		wantErr error
	}{
		{
			name:    "no active period",
			opts:    func(o *testutil.LedgerOptions) { o.NoPeriod = true },
			req:     func(f *fixture) stock.ItemRequest { return itemRequest(f.ledger.SubCategory.ID, "Late") },
			wantErr: shared.ErrNoActivePeriod,
		},
		{
			name:    "unknown sub-category",
			req:     func(f *fixture) stock.ItemRequest { return itemRequest(uuid.New(), "Ghost") },
			wantErr: shared.ErrNotFound,
		},
		{
			name: "negative price",
			req: func(f *fixture) stock.ItemRequest {
				r := itemRequest(f.ledger.SubCategory.ID, "Broken")
				r.BuyingPrice = decimal.NewFromInt(-1)
				return r
			},
			wantErr: shared.ErrValidation,
		},
		{
			name:    "empty name",
			req:     func(f *fixture) stock.ItemRequest { return itemRequest(f.ledger.SubCategory.ID, "  ") },
			wantErr: shared.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := testutil.DefaultLedgerOptions()
			if tt.opts != nil {
				tt.opts(&opts)
			}
			f := newFixture(t, opts)

			_, err := f.service.CreateItem(context.Background(), f.ledger.Actor, tt.req(f))

			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCreateItem_ForeignSubCategory(t *testing.T) {
	f := newFixture(t, testutil.DefaultLedgerOptions())
	other := testutil.DefaultLedgerOptions()
	other.SKU = "OTHER-1"
	foreign := testutil.SeedLedger(t, f.db, testutil.OtherActor(), other)

	_, err := f.service.CreateItem(context.Background(), f.ledger.Actor, itemRequest(foreign.SubCategory.ID, "Stolen"))

	assert.ErrorIs(t, err, shared.ErrTenantMismatch)
}

func TestUpdateItem(t *testing.T) {
	opts := testutil.DefaultLedgerOptions()
	opts.Quantity = decimal.NewFromInt(8)
	f := newFixture(t, opts)
	target := f.subCategory(t, "Tablets")

	req := itemRequest(target.ID, "Handset Pro")
	req.OriginalQuantity = decimal.NewFromInt(100)
	view, err := f.service.UpdateItem(context.Background(), f.ledger.Actor, f.ledger.Item.ID, req)

	require.NoError(t, err)
	assert.Equal(t, "Handset Pro", view.Item.Name)
	assert.Equal(t, "SKU-001", view.Item.SKU)
	assert.True(t, view.Item.CurrentQuantity.Equal(decimal.NewFromInt(8)), "update must not touch current quantity")
	assert.Equal(t, target.ID, view.Item.StockSubCategoryID)

	assert.True(t, testutil.ReloadSubCategory(t, f.db, target).CurrentQuantity.Equal(decimal.NewFromInt(8)))
	assert.True(t, testutil.ReloadSubCategory(t, f.db, f.ledger.SubCategory).CurrentQuantity.IsZero())

	var logs []audit.Log
	require.NoError(t, f.db.Where("model_id = ? AND action = ?", f.ledger.Item.ID, audit.ActionUpdated).Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, "Handset Pro", logs[0].NewValues["Name"])
}

func TestUpdateItem_RegenerateSKU(t *testing.T) {
	f := newFixture(t, testutil.DefaultLedgerOptions())
	req := itemRequest(f.ledger.SubCategory.ID, "Handset")
	req.RegenerateSKU = true

	view, err := f.service.UpdateItem(context.Background(), f.ledger.Actor, f.ledger.Item.ID, req)

	require.NoError(t, err)
	assert.Equal(t, inventory.FormatSKU(2026, f.ledger.SubCategory.ID, 2), view.Item.SKU)
}

func TestDeleteItem(t *testing.T) {
	t.Run("remaining stock blocks delete", func(t *testing.T) {
		opts := testutil.DefaultLedgerOptions()
		opts.Quantity = decimal.NewFromInt(3)
		f := newFixture(t, opts)

		err := f.service.DeleteItem(context.Background(), f.ledger.Actor, f.ledger.Item.ID)

		assert.ErrorIs(t, err, shared.ErrDependency)
		assert.Contains(t, err.Error(), "3 pcs")
	})

	t.Run("empty item is deleted", func(t *testing.T) {
		f := newFixture(t, testutil.DefaultLedgerOptions())

		require.NoError(t, f.service.DeleteItem(context.Background(), f.ledger.Actor, f.ledger.Item.ID))

		_, err := f.service.GetItem(context.Background(), f.ledger.Actor, f.ledger.Item.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("other company cannot delete", func(t *testing.T) {
		f := newFixture(t, testutil.DefaultLedgerOptions())

		err := f.service.DeleteItem(context.Background(), testutil.OtherActor(), f.ledger.Item.ID)

		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestListItems(t *testing.T) {
	f := newFixture(t, testutil.DefaultLedgerOptions())
	sub := f.subCategory(t, "Tablets")
	for _, name := range []string{"Alpha", "Beta", "Gamma"} {
		_, err := f.service.CreateItem(context.Background(), f.ledger.Actor, itemRequest(sub.ID, name))
		require.NoError(t, err)
	}

	page, err := f.service.ListItems(context.Background(), f.ledger.Actor, stock.ItemListFilter{
		SubCategoryID: &sub.ID,
		OrderBy:       "name",
		OrderDir:      "asc",
		PageSize:      2,
	})

	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "Alpha", page.Items[0].Item.Name)
	assert.Equal(t, "Tablets", page.Items[0].SubCategory.Name)

	other, err := f.service.ListItems(context.Background(), testutil.OtherActor(), stock.ItemListFilter{})
	require.NoError(t, err)
	assert.Empty(t, other.Items)
}

func TestCategories(t *testing.T) {
	f := newFixture(t, testutil.DefaultLedgerOptions())
	ctx := context.Background()

	_, err := f.service.CreateCategory(ctx, f.ledger.Actor, stock.CategoryRequest{Name: "Electronics"})
	assert.ErrorIs(t, err, shared.ErrConflict)

	err = f.service.DeleteCategory(ctx, f.ledger.Actor, f.ledger.Category.ID)
	assert.ErrorIs(t, err, shared.ErrDependency)

	created, err := f.service.CreateCategory(ctx, f.ledger.Actor, stock.CategoryRequest{Name: "Apparel", MeasurementUnit: "pcs"})
	require.NoError(t, err)
	assert.Equal(t, inventory.StatusActive, created.Status)

	list, err := f.service.ListCategories(ctx, f.ledger.Actor)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Apparel", list[0].Name)

	require.NoError(t, f.service.DeleteCategory(ctx, f.ledger.Actor, created.ID))
	list, err = f.service.ListCategories(ctx, f.ledger.Actor)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestListCategories_ServedFromCache(t *testing.T) {
	f := newFixture(t, testutil.DefaultLedgerOptions())
	ctx := context.Background()

	first, err := f.service.ListCategories(ctx, f.ledger.Actor)
	require.NoError(t, err)
	require.Len(t, first, 1)

	// bypass the service so nothing invalidates
	sneaky, err := inventory.NewStockCategory(f.ledger.Actor, inventory.CategoryInput{Name: "Sneaky"})
	require.NoError(t, err)
	require.NoError(t, f.db.Create(sneaky).Error)

	cached, err := f.service.ListCategories(ctx, f.ledger.Actor)
	require.NoError(t, err)
	assert.Len(t, cached, 1)

	_, err = f.service.CreateCategory(ctx, f.ledger.Actor, stock.CategoryRequest{Name: "Visible"})
	require.NoError(t, err)
	fresh, err := f.service.ListCategories(ctx, f.ledger.Actor)
	require.NoError(t, err)
	assert.Len(t, fresh, 3)
}

func TestSubCategories(t *testing.T) {
	f := newFixture(t, testutil.DefaultLedgerOptions())
	ctx := context.Background()

	_, err := f.service.CreateSubCategory(ctx, f.ledger.Actor, stock.SubCategoryRequest{
		StockCategoryID: f.ledger.Category.ID,
		Name:            "Phones",
	})
	assert.ErrorIs(t, err, shared.ErrConflict)

	err = f.service.DeleteSubCategory(ctx, f.ledger.Actor, f.ledger.SubCategory.ID)
	assert.ErrorIs(t, err, shared.ErrDependency)

	tablets := f.subCategory(t, "Tablets")
	assert.Equal(t, "pcs", tablets.MeasurementUnit)

	options, err := f.service.SearchSubCategories(ctx, f.ledger.Actor, "tab")
	require.NoError(t, err)
	require.Len(t, options, 1)
	assert.Equal(t, tablets.ID, options[0].ID)
	assert.Equal(t, "Tablets (pcs)", options[0].Text)

	byCategory, err := f.service.ListSubCategories(ctx, f.ledger.Actor, &f.ledger.Category.ID)
	require.NoError(t, err)
	assert.Len(t, byCategory, 2)

	require.NoError(t, f.service.DeleteSubCategory(ctx, f.ledger.Actor, tablets.ID))
	byCategory, err = f.service.ListSubCategories(ctx, f.ledger.Actor, &f.ledger.Category.ID)
	require.NoError(t, err)
	assert.Len(t, byCategory, 1)
}

func TestCreateSubCategory_ForeignCategory(t *testing.T) {
	f := newFixture(t, testutil.DefaultLedgerOptions())
	other := testutil.DefaultLedgerOptions()
	other.SKU = "OTHER-1"
	foreign := testutil.SeedLedger(t, f.db, testutil.OtherActor(), other)

	_, err := f.service.CreateSubCategory(context.Background(), f.ledger.Actor, stock.SubCategoryRequest{
		StockCategoryID: foreign.Category.ID,
		Name:            "Borrowed",
	})

	assert.ErrorIs(t, err, shared.ErrTenantMismatch)
}

func TestWarmUp(t *testing.T) {
	f := newFixture(t, testutil.DefaultLedgerOptions())
	c := companycache.New(f.store)

	require.NoError(t, c.WarmUp(context.Background(), f.ledger.Actor.CompanyID, f.service))

	assert.GreaterOrEqual(t, f.store.Len(), 2)
}
