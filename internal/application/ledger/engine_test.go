package ledger_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/erp/stockledger/internal/application/companycache"
	"github.com/erp/stockledger/internal/application/ledger"
	"github.com/erp/stockledger/internal/domain/finance"
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

type recordingMetrics struct {
	mu           sync.Mutex
	outcomes     map[string]int
	insufficient int
	softFailures map[string]int
	lowStock     int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{outcomes: map[string]int{}, softFailures: map[string]int{}}
}

func (m *recordingMetrics) RecordTransaction(_ context.Context, _ string, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes[outcome]++
}

func (m *recordingMetrics) RecordInsufficientStock(context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.insufficient++
}

func (m *recordingMetrics) RecordSoftFailure(_ context.Context, kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.softFailures[kind]++
}

func (m *recordingMetrics) RecordLowStock(context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lowStock++
}

type fixture struct {
	db        *gorm.DB
	engine    *ledger.Engine
	ledger    *testutil.Ledger
	store     *cache.MemoryStore
	cache     *companycache.Cache
	publisher *testutil.RecordingPublisher
	metrics   *recordingMetrics
}

func newFixture(t *testing.T, opts testutil.LedgerOptions) *fixture {
	t.Helper()
	db := testutil.NewSQLiteDB(t, persistence.AutoMigrate)
	repos := persistence.NewRepositories(db)

	store := cache.NewMemoryStore(time.Minute)
	t.Cleanup(func() { _ = store.Close() })

	f := &fixture{
		db:        db,
		ledger:    testutil.SeedLedger(t, db, testutil.TestActor(), opts),
		store:     store,
		cache:     companycache.New(store),
		publisher: testutil.NewRecordingPublisher(),
		metrics:   newRecordingMetrics(),
	}
	f.engine = ledger.NewEngine(
		persistence.NewGormTransactionScope(db),
		repos,
		ledger.RepositoryPeriodProvider{Periods: repos.Periods()},
		ledger.WithCache(f.cache),
		ledger.WithPublisher(f.publisher),
		ledger.WithMetrics(f.metrics),
	)
	return f
}

func (f *fixture) move(t *testing.T, typ inventory.TransactionType, qty int64) *ledger.TransactionResult {
	t.Helper()
	res, err := f.engine.CreateTransaction(context.Background(), f.ledger.Actor, ledger.CreateTransactionRequest{
		ItemID:   f.ledger.Item.ID,
		Type:     typ,
		Quantity: decimal.NewFromInt(qty),
	})
	require.NoError(t, err)
	return res
}

func dec(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func TestCreateTransaction_StockInThenSale(t *testing.T) {
	f := newFixture(t, testutil.DefaultLedgerOptions())

	f.move(t, inventory.TransactionStockIn, 20)
	res := f.move(t, inventory.TransactionSale, 5)

	assert.True(t, res.Item.CurrentQuantity.Equal(dec(15)), "got %s", res.Item.CurrentQuantity)
	assert.True(t, res.Record.TotalSales.Equal(dec(400)))
	assert.True(t, res.Record.Profit.Equal(dec(150)))
	assert.Equal(t, "pcs", res.Record.MeasurementUnit)
	assert.Equal(t, f.ledger.Period.ID, res.Record.FinancialPeriodID)

	require.NotNil(t, res.FinancialRecord)
	assert.Equal(t, finance.RecordIncome, res.FinancialRecord.Type)
	assert.True(t, res.FinancialRecord.Amount.Equal(dec(400)))
	require.NotNil(t, res.FinancialRecord.StockRecordID)
	assert.Equal(t, res.Record.ID, *res.FinancialRecord.StockRecordID)

	sub := testutil.ReloadSubCategory(t, f.db, f.ledger.SubCategory)
	assert.True(t, sub.CurrentQuantity.Equal(dec(15)))
	assert.True(t, sub.EarnedProfit.Equal(dec(150)))
	assert.Equal(t, inventory.InStockYes, sub.InStock)

	category := testutil.ReloadCategory(t, f.db, f.ledger.Category)
	assert.True(t, category.CurrentQuantity.Equal(dec(15)))
	assert.True(t, category.EarnedProfit.Equal(dec(150)))

	assert.Equal(t, []string{inventory.EventTypeStockRecordCreated, inventory.EventTypeStockRecordCreated}, f.publisher.Types())
	assert.Equal(t, 2, f.metrics.outcomes[ledger.OutcomeSuccess])

	var audits int64
	require.NoError(t, f.db.Table("audit_logs").Where("company_id = ? AND model_type = ?", f.ledger.Actor.CompanyID, inventory.AggregateTypeStockRecord).Count(&audits).Error)
	assert.Equal(t, int64(2), audits)
}

func TestCreateTransaction_LossBooksExpense(t *testing.T) {
	f := newFixture(t, testutil.DefaultLedgerOptions())
	f.move(t, inventory.TransactionStockIn, 10)

	res := f.move(t, inventory.TransactionDamage, 2)

	assert.True(t, res.Record.Profit.Equal(dec(-100)))
	require.NotNil(t, res.FinancialRecord)
	assert.Equal(t, finance.RecordExpense, res.FinancialRecord.Type)
	assert.True(t, res.FinancialRecord.Amount.Equal(dec(100)))
	assert.Equal(t, finance.PaymentMethodNone, res.FinancialRecord.PaymentMethod)
}

func TestCreateTransaction_InsufficientStock(t *testing.T) {
	f := newFixture(t, testutil.DefaultLedgerOptions())
	f.move(t, inventory.TransactionStockIn, 3)

	_, err := f.engine.CreateTransaction(context.Background(), f.ledger.Actor, ledger.CreateTransactionRequest{
		ItemID:   f.ledger.Item.ID,
		Type:     inventory.TransactionSale,
		Quantity: dec(10),
	})

	require.ErrorIs(t, err, shared.ErrInsufficientStock)
	var de *shared.DomainError
	require.True(t, errors.As(err, &de))
	assert.Contains(t, de.Message, "pcs")
	assert.True(t, testutil.ReloadItem(t, f.db, f.ledger.Item).CurrentQuantity.Equal(dec(3)))

	var records int64
	require.NoError(t, f.db.Model(&inventory.StockRecord{}).Where("company_id = ?", f.ledger.Actor.CompanyID).Count(&records).Error)
	assert.Equal(t, int64(1), records)
	assert.Equal(t, 1, f.metrics.insufficient)
	assert.Equal(t, 1, f.metrics.outcomes[ledger.OutcomeInsufficientStock])
}

func TestCreateTransaction_Validation(t *testing.T) {
	f := newFixture(t, testutil.DefaultLedgerOptions())

	tests := []struct {
		name  string
		actor shared.Actor
		req   ledger.CreateTransactionRequest
		kind  shared.ErrorKind
	}{
		{"unknown type", f.ledger.Actor, ledger.CreateTransactionRequest{ItemID: f.ledger.Item.ID, Type: "Gift", Quantity: dec(1)}, shared.KindValidation},
		{"tiny quantity", f.ledger.Actor, ledger.CreateTransactionRequest{ItemID: f.ledger.Item.ID, Type: inventory.TransactionStockIn, Quantity: decimal.RequireFromString("0.001")}, shared.KindValidation},
		{"missing company", shared.Actor{UserID: uuid.New()}, ledger.CreateTransactionRequest{ItemID: f.ledger.Item.ID, Type: inventory.TransactionStockIn, Quantity: dec(1)}, shared.KindUnauthorized},
		{"unknown item", f.ledger.Actor, ledger.CreateTransactionRequest{ItemID: uuid.New(), Type: inventory.TransactionStockIn, Quantity: dec(1)}, shared.KindNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.engine.CreateTransaction(context.Background(), tt.actor, tt.req)

			require.Error(t, err)
			assert.Equal(t, tt.kind, shared.KindOf(err))
		})
	}
}

func TestCreateTransaction_NegativeQuantityIsAbsolute(t *testing.T) {
	f := newFixture(t, testutil.DefaultLedgerOptions())

	res, err := f.engine.CreateTransaction(context.Background(), f.ledger.Actor, ledger.CreateTransactionRequest{
		ItemID:   f.ledger.Item.ID,
		Type:     inventory.TransactionStockIn,
		Quantity: dec(-4),
	})

	require.NoError(t, err)
	assert.True(t, res.Record.Quantity.Equal(dec(4)))
	assert.True(t, res.Item.CurrentQuantity.Equal(dec(4)))
	assert.Equal(t, "Stock In transaction", res.Record.Description)
}

func TestCreateTransaction_NoActivePeriod(t *testing.T) {
	opts := testutil.DefaultLedgerOptions()
	opts.NoPeriod = true
	f := newFixture(t, opts)

	_, err := f.engine.CreateTransaction(context.Background(), f.ledger.Actor, ledger.CreateTransactionRequest{
		ItemID:   f.ledger.Item.ID,
		Type:     inventory.TransactionStockIn,
		Quantity: dec(1),
	})

	assert.ErrorIs(t, err, shared.ErrNoActivePeriod)
}

func TestCreateTransaction_CrossTenant(t *testing.T) {
	f := newFixture(t, testutil.DefaultLedgerOptions())
	f.move(t, inventory.TransactionStockIn, 5)
	other := testutil.OtherActor()
	testutil.SeedLedger(t, f.db, other, testutil.DefaultLedgerOptions())

	_, err := f.engine.CreateTransaction(context.Background(), other, ledger.CreateTransactionRequest{
		ItemID:   f.ledger.Item.ID,
		Type:     inventory.TransactionSale,
		Quantity: dec(1),
	})
	assert.ErrorIs(t, err, shared.ErrNotFound)

	page, err := f.engine.ListRecords(context.Background(), other, ledger.RecordListFilter{})
	require.NoError(t, err)
	assert.Empty(t, page.Items)

	mine, err := f.engine.ListRecords(context.Background(), f.ledger.Actor, ledger.RecordListFilter{})
	require.NoError(t, err)
	require.Len(t, mine.Items, 1)

	_, err = f.engine.GetRecord(context.Background(), other, mine.Items[0].ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	_, err = f.engine.DeleteTransaction(context.Background(), other, mine.Items[0].ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.True(t, testutil.ReloadItem(t, f.db, f.ledger.Item).CurrentQuantity.Equal(dec(5)))
}

func TestDeleteTransaction_RestoresState(t *testing.T) {
	f := newFixture(t, testutil.DefaultLedgerOptions())
	f.move(t, inventory.TransactionStockIn, 20)
	before := testutil.ReloadSubCategory(t, f.db, f.ledger.SubCategory)
	sale := f.move(t, inventory.TransactionSale, 5)

	res, err := f.engine.DeleteTransaction(context.Background(), f.ledger.Actor, sale.Record.ID)

	require.NoError(t, err)
	assert.True(t, res.Reversed)
	assert.True(t, res.Item.CurrentQuantity.Equal(dec(20)))

	after := testutil.ReloadSubCategory(t, f.db, f.ledger.SubCategory)
	assert.True(t, before.Totals.Equal(after.Totals), "before %+v after %+v", before.Totals, after.Totals)

	var financial int64
	require.NoError(t, f.db.Model(&finance.FinancialRecord{}).Where("company_id = ? AND stock_record_id = ?", f.ledger.Actor.CompanyID, sale.Record.ID).Count(&financial).Error)
	assert.Zero(t, financial)

	_, err = f.engine.GetRecord(context.Background(), f.ledger.Actor, sale.Record.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.Contains(t, f.publisher.Types(), inventory.EventTypeStockRecordDeleted)
}

func TestDeleteTransaction_ReversalWouldGoNegative(t *testing.T) {
	f := newFixture(t, testutil.DefaultLedgerOptions())
	stockIn := f.move(t, inventory.TransactionStockIn, 10)
	f.move(t, inventory.TransactionSale, 8)

	_, err := f.engine.DeleteTransaction(context.Background(), f.ledger.Actor, stockIn.Record.ID)

	require.ErrorIs(t, err, shared.ErrInsufficientStock)
	assert.True(t, testutil.ReloadItem(t, f.db, f.ledger.Item).CurrentQuantity.Equal(dec(2)))
	_, err = f.engine.GetRecord(context.Background(), f.ledger.Actor, stockIn.Record.ID)
	assert.NoError(t, err)
}

func TestDeleteTransaction_ItemGone(t *testing.T) {
	f := newFixture(t, testutil.DefaultLedgerOptions())
	rec := f.move(t, inventory.TransactionStockIn, 3)
	require.NoError(t, f.db.Where("company_id = ? AND id = ?", f.ledger.Actor.CompanyID, f.ledger.Item.ID).Delete(&inventory.StockItem{}).Error)

	res, err := f.engine.DeleteTransaction(context.Background(), f.ledger.Actor, rec.Record.ID)

	require.NoError(t, err)
	assert.False(t, res.Reversed)
	assert.Nil(t, res.Item)
}

func TestReplay_ItemQuantityMatchesRecords(t *testing.T) {
	opts := testutil.DefaultLedgerOptions()
	opts.Quantity = dec(7)
	f := newFixture(t, opts)

	moves := []struct {
		typ inventory.TransactionType
		qty int64
	}{
		{inventory.TransactionStockIn, 10},
		{inventory.TransactionSale, 4},
		{inventory.TransactionAdjustment, 2},
		{inventory.TransactionDamage, 1},
		{inventory.TransactionInternalUse, 3},
		{inventory.TransactionStockIn, 6},
		{inventory.TransactionLost, 2},
	}
	var toDelete uuid.UUID
	for i, m := range moves {
		res := f.move(t, m.typ, m.qty)
		if i == 1 {
			toDelete = res.Record.ID
		}
	}
	_, err := f.engine.DeleteTransaction(context.Background(), f.ledger.Actor, toDelete)
	require.NoError(t, err)

	var records []inventory.StockRecord
	require.NoError(t, f.db.Where("company_id = ? AND stock_item_id = ?", f.ledger.Actor.CompanyID, f.ledger.Item.ID).Find(&records).Error)
	expected := dec(7)
	for i := range records {
		expected = expected.Add(records[i].QuantityDelta())
	}

	item := testutil.ReloadItem(t, f.db, f.ledger.Item)
	assert.True(t, item.CurrentQuantity.Equal(expected), "item %s replay %s", item.CurrentQuantity, expected)
	assert.True(t, item.CurrentQuantity.Equal(dec(19)))
}

func TestRecompute_Idempotent(t *testing.T) {
	f := newFixture(t, testutil.DefaultLedgerOptions())
	f.move(t, inventory.TransactionStockIn, 12)
	f.move(t, inventory.TransactionSale, 2)

	first, err := f.engine.RecomputeSubCategory(context.Background(), f.ledger.Actor, f.ledger.SubCategory.ID)
	require.NoError(t, err)
	second, err := f.engine.RecomputeSubCategory(context.Background(), f.ledger.Actor, f.ledger.SubCategory.ID)
	require.NoError(t, err)

	assert.True(t, first.Totals.Equal(second.Totals))
	assert.True(t, second.CurrentQuantity.Equal(dec(10)))

	c1, err := f.engine.RecomputeCategory(context.Background(), f.ledger.Actor, f.ledger.Category.ID)
	require.NoError(t, err)
	c2, err := f.engine.RecomputeCategory(context.Background(), f.ledger.Actor, f.ledger.Category.ID)
	require.NoError(t, err)
	assert.True(t, c1.Totals.Equal(c2.Totals))
}

func TestConcurrentSales_OnlyOneSucceeds(t *testing.T) {
	f := newFixture(t, testutil.DefaultLedgerOptions())
	f.move(t, inventory.TransactionStockIn, 10)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.engine.CreateTransaction(context.Background(), f.ledger.Actor, ledger.CreateTransactionRequest{
				ItemID:   f.ledger.Item.ID,
				Type:     inventory.TransactionSale,
				Quantity: dec(6),
			})
		}(i)
	}
	wg.Wait()

	succeeded, insufficient := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, shared.ErrInsufficientStock):
			insufficient++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, insufficient)
	assert.True(t, testutil.ReloadItem(t, f.db, f.ledger.Item).CurrentQuantity.Equal(dec(4)))
}

func TestCreateTransaction_InvalidatesCache(t *testing.T) {
	f := newFixture(t, testutil.DefaultLedgerOptions())
	ctx := context.Background()
	cid := f.ledger.Actor.CompanyID

	_, err := companycache.Remember(ctx, f.cache, companycache.StockCategoriesKey(cid), companycache.TTLLong,
		func(context.Context) ([]string, error) { return []string{"stale"}, nil })
	require.NoError(t, err)
	_, found, err := f.store.Get(ctx, companycache.StockCategoriesKey(cid))
	require.NoError(t, err)
	require.True(t, found)

	f.move(t, inventory.TransactionStockIn, 1)

	_, found, err = f.store.Get(ctx, companycache.StockCategoriesKey(cid))
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCreateTransaction_LowStockEvent(t *testing.T) {
	f := newFixture(t, testutil.DefaultLedgerOptions())
	f.move(t, inventory.TransactionStockIn, 20)

	f.move(t, inventory.TransactionSale, 16)

	types := f.publisher.Types()
	require.Len(t, types, 3)
	assert.Equal(t, inventory.EventTypeLowStock, types[2])
	low := f.publisher.Events()[2].(*inventory.LowStockEvent)
	assert.True(t, low.CurrentQuantity.Equal(dec(4)))
	assert.Equal(t, 1, f.metrics.lowStock)
}

func TestCreateTransaction_PublishFailureIsSoft(t *testing.T) {
	f := newFixture(t, testutil.DefaultLedgerOptions())
	f.publisher.SetError(errors.New("bus down"))

	res := f.move(t, inventory.TransactionStockIn, 2)

	assert.True(t, res.Item.CurrentQuantity.Equal(dec(2)))
	assert.Equal(t, 1, f.metrics.softFailures[ledger.SoftFailureEventPublish])
}

func TestCreateTransaction_FailedFinancialWriteRollsBack(t *testing.T) {
	f := newFixture(t, testutil.DefaultLedgerOptions())
	f.move(t, inventory.TransactionStockIn, 5)
	require.NoError(t, f.db.Exec(`CREATE TRIGGER fail_financial_records BEFORE INSERT ON financial_records
		BEGIN SELECT RAISE(ABORT, 'boom'); END`).Error)

	_, err := f.engine.CreateTransaction(context.Background(), f.ledger.Actor, ledger.CreateTransactionRequest{
		ItemID:   f.ledger.Item.ID,
		Type:     inventory.TransactionSale,
		Quantity: dec(2),
	})
	require.Error(t, err)
	assert.ErrorContains(t, err, "boom")

	item := testutil.ReloadItem(t, f.db, f.ledger.Item)
	assert.True(t, item.CurrentQuantity.Equal(dec(5)), "got %s", item.CurrentQuantity)

	companyID := f.ledger.Actor.CompanyID
	var sales, financial int64
	require.NoError(t, f.db.Model(&inventory.StockRecord{}).
		Where("company_id = ? AND type = ?", companyID, inventory.TransactionSale).Count(&sales).Error)
	require.NoError(t, f.db.Model(&finance.FinancialRecord{}).Where("company_id = ?", companyID).Count(&financial).Error)
	assert.Zero(t, sales)
	assert.Equal(t, int64(1), financial)

	sub := testutil.ReloadSubCategory(t, f.db, f.ledger.SubCategory)
	assert.True(t, sub.CurrentQuantity.Equal(dec(5)))
	assert.True(t, sub.EarnedProfit.IsZero())
	assert.Equal(t, 1, f.metrics.outcomes[ledger.OutcomeError])
	assert.Len(t, f.publisher.Types(), 1)
}

func TestCreateTransaction_UnresolvedCategoryStillCommits(t *testing.T) {
	f := newFixture(t, testutil.DefaultLedgerOptions())
	require.NoError(t, f.db.Exec(`CREATE TRIGGER drop_financial_categories BEFORE INSERT ON financial_categories
		BEGIN SELECT RAISE(IGNORE); END`).Error)

	in := f.move(t, inventory.TransactionStockIn, 5)
	assert.Nil(t, in.FinancialRecord)

	res := f.move(t, inventory.TransactionSale, 2)
	assert.Nil(t, res.FinancialRecord)
	require.NotNil(t, res.Record)
	assert.True(t, res.Item.CurrentQuantity.Equal(dec(3)), "got %s", res.Item.CurrentQuantity)
	assert.Equal(t, 2, f.metrics.softFailures[ledger.SoftFailureFinancialRecord])

	companyID := f.ledger.Actor.CompanyID
	var records, financial int64
	require.NoError(t, f.db.Model(&inventory.StockRecord{}).Where("company_id = ?", companyID).Count(&records).Error)
	require.NoError(t, f.db.Model(&finance.FinancialRecord{}).Where("company_id = ?", companyID).Count(&financial).Error)
	assert.Equal(t, int64(2), records)
	assert.Zero(t, financial)
}

type flakyScope struct {
	inner    ledger.TransactionScope
	failures int
	calls    int
}

func (s *flakyScope) Execute(ctx context.Context, fn func(repos ledger.Repositories) error) error {
	s.calls++
	if s.calls <= s.failures {
		return shared.ErrConcurrencyConflict
	}
	return s.inner.Execute(ctx, fn)
}

func TestCreateTransaction_RetriesConflicts(t *testing.T) {
	tests := []struct {
		name     string
		failures int
		wantErr  error
		calls    int
	}{
		{"recovers", 2, nil, 3},
		{"gives up", 5, shared.ErrConcurrencyConflict, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := testutil.NewSQLiteDB(t, persistence.AutoMigrate)
			l := testutil.SeedLedger(t, db, testutil.TestActor(), testutil.DefaultLedgerOptions())
			repos := persistence.NewRepositories(db)
			scope := &flakyScope{inner: persistence.NewGormTransactionScope(db), failures: tt.failures}
			engine := ledger.NewEngine(scope, repos, ledger.RepositoryPeriodProvider{Periods: repos.Periods()})

			_, err := engine.CreateTransaction(context.Background(), l.Actor, ledger.CreateTransactionRequest{
				ItemID:   l.Item.ID,
				Type:     inventory.TransactionStockIn,
				Quantity: dec(1),
			})

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.calls, scope.calls)
		})
	}
}

func TestCreateTransaction_ReferenceScenario(t *testing.T) {
	opts := testutil.DefaultLedgerOptions()
	opts.BuyingPrice = dec(10)
	opts.SellingPrice = dec(15)
	f := newFixture(t, opts)

	f.move(t, inventory.TransactionStockIn, 20)
	res := f.move(t, inventory.TransactionSale, 5)

	assert.True(t, res.Item.CurrentQuantity.Equal(dec(15)))
	assert.True(t, res.Record.Profit.Equal(dec(25)))

	var income []finance.FinancialRecord
	require.NoError(t, f.db.Where("company_id = ? AND type = ?", f.ledger.Actor.CompanyID, finance.RecordIncome).Find(&income).Error)
	require.Len(t, income, 1)
	assert.True(t, income[0].Amount.Equal(dec(75)))

	var categories int64
	require.NoError(t, f.db.Model(&finance.FinancialCategory{}).Where("company_id = ?", f.ledger.Actor.CompanyID).Count(&categories).Error)
	assert.Equal(t, int64(3), categories)
}
