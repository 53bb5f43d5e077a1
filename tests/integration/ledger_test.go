package integration

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	financeapp "github.com/erp/stockledger/internal/application/finance"
	"github.com/erp/stockledger/internal/application/ledger"
	stockapp "github.com/erp/stockledger/internal/application/stock"
	"github.com/erp/stockledger/internal/domain/finance"
	"github.com/erp/stockledger/internal/domain/inventory"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/erp/stockledger/internal/infrastructure/persistence"
	"github.com/erp/stockledger/internal/infrastructure/persistence/company"
	"github.com/erp/stockledger/tests/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ledgerFixture struct {
	db      *TestDB
	engine  *ledger.Engine
	finance *financeapp.Service
	seed    *testutil.Ledger
}

func newLedgerFixture(t *testing.T, opening int64) *ledgerFixture {
	t.Helper()
	db := NewTestDB(t)
	repos := persistence.NewRepositories(db.DB)
	scope := persistence.NewGormTransactionScope(db.DB)
	financeService := financeapp.NewService(scope, repos)

	opts := testutil.DefaultLedgerOptions()
	opts.Quantity = decimal.NewFromInt(opening)
	return &ledgerFixture{
		db:      db,
		engine:  ledger.NewEngine(scope, repos, financeService, ledger.WithMaxAttempts(5)),
		finance: financeService,
		seed:    testutil.SeedLedger(t, db.DB, testutil.TestActor(), opts),
	}
}

func (f *ledgerFixture) move(ctx context.Context, txn inventory.TransactionType, qty int64) (*ledger.TransactionResult, error) {
	return f.engine.CreateTransaction(ctx, f.seed.Actor, ledger.CreateTransactionRequest{
		ItemID:   f.seed.Item.ID,
		Type:     txn,
		Quantity: decimal.NewFromInt(qty),
		Date:     time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
	})
}

func TestLedger_ConcurrentSalesNeverOversell(t *testing.T) {
	f := newLedgerFixture(t, 10)
	ctx := context.Background()

	const workers = 12
	var (
		wg           sync.WaitGroup
		succeeded    atomic.Int32
		insufficient atomic.Int32
	)
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.move(ctx, inventory.TransactionSale, 2)
			switch {
			case err == nil:
				succeeded.Add(1)
			case shared.KindOf(err) == shared.KindInsufficientStock:
				insufficient.Add(1)
			default:
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("unexpected error: %v", err)
	}
	assert.EqualValues(t, 5, succeeded.Load())
	assert.EqualValues(t, workers-5, insufficient.Load())

	item := testutil.ReloadItem(t, f.db.DB, f.seed.Item)
	assert.True(t, item.CurrentQuantity.IsZero(), item.CurrentQuantity.String())

	var records int64
	require.NoError(t, f.db.DB.Model(&inventory.StockRecord{}).
		Where("company_id = ? AND type = ?", f.seed.Actor.CompanyID, inventory.TransactionSale).
		Count(&records).Error)
	assert.EqualValues(t, 5, records)

	sub := testutil.ReloadSubCategory(t, f.db.DB, f.seed.SubCategory)
	assert.True(t, sub.EarnedProfit.Equal(decimal.NewFromInt(300)), sub.EarnedProfit.String())
	assert.True(t, sub.CurrentQuantity.IsZero(), sub.CurrentQuantity.String())
}

func TestLedger_ConcurrentStockInAndSale(t *testing.T) {
	f := newLedgerFixture(t, 0)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := f.move(ctx, inventory.TransactionStockIn, 3)
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			// a sale may run before any stock arrived
			_, err := f.move(ctx, inventory.TransactionSale, 1)
			if err != nil {
				assert.Equal(t, shared.KindInsufficientStock, shared.KindOf(err))
			}
		}()
	}
	wg.Wait()

	records, err := f.engine.ListRecords(ctx, f.seed.Actor, ledger.RecordListFilter{ItemID: &f.seed.Item.ID, PageSize: 100})
	require.NoError(t, err)

	expected := decimal.Zero
	for i := range records.Items {
		expected = expected.Add(records.Items[i].QuantityDelta())
	}
	item := testutil.ReloadItem(t, f.db.DB, f.seed.Item)
	assert.True(t, item.CurrentQuantity.Equal(expected),
		"quantity %s, records sum %s", item.CurrentQuantity, expected)
	assert.False(t, item.CurrentQuantity.IsNegative())
}

func TestLedger_DeleteReversesOnPostgres(t *testing.T) {
	f := newLedgerFixture(t, 10)
	ctx := context.Background()

	sale, err := f.move(ctx, inventory.TransactionSale, 4)
	require.NoError(t, err)
	require.NotNil(t, sale.FinancialRecord)

	deleted, err := f.engine.DeleteTransaction(ctx, f.seed.Actor, sale.Record.ID)
	require.NoError(t, err)
	assert.True(t, deleted.Reversed)

	item := testutil.ReloadItem(t, f.db.DB, f.seed.Item)
	assert.True(t, item.CurrentQuantity.Equal(decimal.NewFromInt(10)))

	var linked int64
	require.NoError(t, f.db.DB.Model(&finance.FinancialRecord{}).
		Where("company_id = ? AND stock_record_id = ?", f.seed.Actor.CompanyID, sale.Record.ID).
		Count(&linked).Error)
	assert.Zero(t, linked)
}

func TestFinance_ConcurrentProvisioning(t *testing.T) {
	f := newLedgerFixture(t, 0)
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		created atomic.Int32
	)
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := f.finance.ProvisionCategories(ctx, f.seed.Actor)
			assert.NoError(t, err)
			created.Add(int32(n))
		}()
	}
	wg.Wait()

	assert.EqualValues(t, len(finance.DefaultCategoryNames), created.Load())

	categories, err := f.finance.ListCategories(ctx, f.seed.Actor)
	require.NoError(t, err)
	assert.Len(t, categories, len(finance.DefaultCategoryNames))
}

func TestCompanyIsolation(t *testing.T) {
	f := newLedgerFixture(t, 10)
	ctx := context.Background()
	other := testutil.OtherActor()

	_, err := f.engine.CreateTransaction(ctx, other, ledger.CreateTransactionRequest{
		ItemID:   f.seed.Item.ID,
		Type:     inventory.TransactionSale,
		Quantity: decimal.NewFromInt(1),
	})
	require.Error(t, err)
	assert.Contains(t, []shared.ErrorKind{shared.KindNotFound, shared.KindTenantMismatch, shared.KindNoActivePeriod}, shared.KindOf(err))

	// the guard refuses unscoped writes on ledger tables
	err = f.db.DB.Model(&inventory.StockItem{}).Where("id = ?", f.seed.Item.ID).Update("name", "hijacked").Error
	assert.ErrorIs(t, err, company.ErrCompanyRequired)

	item := testutil.ReloadItem(t, f.db.DB, f.seed.Item)
	assert.Equal(t, "Handset", item.Name)
	assert.True(t, item.CurrentQuantity.Equal(decimal.NewFromInt(10)))
}

func TestStock_DeleteItemRacesStockIn(t *testing.T) {
	f := newLedgerFixture(t, 0)
	ctx := context.Background()
	repos := persistence.NewRepositories(f.db.DB)
	stockService := stockapp.NewService(persistence.NewGormTransactionScope(f.db.DB), repos, f.finance)

	var (
		wg                  sync.WaitGroup
		deleteErr, stockErr error
	)
	start := make(chan struct{})
	wg.Add(2)
	go func() {
		defer wg.Done()
		<-start
		deleteErr = stockService.DeleteItem(ctx, f.seed.Actor, f.seed.Item.ID)
	}()
	go func() {
		defer wg.Done()
		<-start
		_, stockErr = f.move(ctx, inventory.TransactionStockIn, 5)
	}()
	close(start)
	wg.Wait()

	records, err := repos.Records().CountByItem(ctx, f.seed.Actor.CompanyID, f.seed.Item.ID)
	require.NoError(t, err)
	if deleteErr == nil {
		// the delete won; the movement must have found no item
		assert.ErrorIs(t, stockErr, shared.ErrNotFound)
		assert.Zero(t, records)
		return
	}
	require.ErrorIs(t, deleteErr, shared.ErrDependency)
	require.NoError(t, stockErr)
	assert.EqualValues(t, 1, records)
	item := testutil.ReloadItem(t, f.db.DB, f.seed.Item)
	assert.True(t, item.CurrentQuantity.Equal(decimal.NewFromInt(5)))
}
