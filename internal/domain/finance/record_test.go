package finance

import (
	"testing"
	"time"

	"github.com/erp/stockledger/internal/domain/inventory"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stockRecord(t inventory.TransactionType, qty, buying, selling int64) *inventory.StockRecord {
	r := &inventory.StockRecord{
		CompanyEntity: shared.CompanyEntity{BaseEntity: shared.NewBaseEntity(), CompanyID: uuid.New()},
		Name:          "Cola",
		Type:          t,
		Quantity:      decimal.NewFromInt(qty),
		BuyingPrice:   decimal.NewFromInt(buying),
		SellingPrice:  decimal.NewFromInt(selling),
		Date:          time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
	}
	if t == inventory.TransactionSale {
		r.TotalSales = r.SellingPrice.Mul(r.Quantity)
	}
	return r
}

func TestEntryForStockRecord(t *testing.T) {
	t.Run("sale books income", func(t *testing.T) {
		r := stockRecord(inventory.TransactionSale, 5, 10, 15)

		e, ok := EntryForStockRecord(r)

		require.True(t, ok)
		assert.Equal(t, CategorySales, e.CategoryName)
		assert.Equal(t, RecordIncome, e.Type)
		assert.True(t, e.Amount.Equal(decimal.NewFromInt(75)))
		assert.Equal(t, PaymentMethodCash, e.PaymentMethod)
		assert.Equal(t, "Stock sale: Cola (Record #"+r.ID.String()+")", e.Description)
	})

	t.Run("losses book expense at cost", func(t *testing.T) {
		for _, tt := range []inventory.TransactionType{inventory.TransactionDamage, inventory.TransactionExpired, inventory.TransactionLost} {
			r := stockRecord(tt, 2, 10, 15)

			e, ok := EntryForStockRecord(r)

			require.True(t, ok)
			assert.Equal(t, CategoryExpense, e.CategoryName)
			assert.Equal(t, RecordExpense, e.Type)
			assert.True(t, e.Amount.Equal(decimal.NewFromInt(20)))
			assert.Equal(t, PaymentMethodNone, e.PaymentMethod)
			assert.Contains(t, e.Description, "Stock loss ("+string(tt)+")")
		}
	})

	t.Run("stock in books purchase", func(t *testing.T) {
		r := stockRecord(inventory.TransactionStockIn, 20, 10, 15)

		e, ok := EntryForStockRecord(r)

		require.True(t, ok)
		assert.Equal(t, CategoryPurchase, e.CategoryName)
		assert.True(t, e.Amount.Equal(decimal.NewFromInt(200)))
		assert.Equal(t, PaymentMethodCash, e.PaymentMethod)
	})

	t.Run("free stock in still produces a zero entry", func(t *testing.T) {
		r := stockRecord(inventory.TransactionStockIn, 20, 0, 15)

		e, ok := EntryForStockRecord(r)

		require.True(t, ok)
		assert.True(t, e.Amount.IsZero())
	})

	t.Run("no entry for adjustments and internal movements", func(t *testing.T) {
		for _, tt := range []inventory.TransactionType{inventory.TransactionAdjustment, inventory.TransactionInternalUse, inventory.TransactionOther} {
			_, ok := EntryForStockRecord(stockRecord(tt, 1, 1, 1))
			assert.False(t, ok, string(tt))
		}
	})
}

func TestNewStockFinancialRecord(t *testing.T) {
	r := stockRecord(inventory.TransactionSale, 5, 10, 15)
	r.FinancialPeriodID = uuid.New()
	actor := shared.NewActor(uuid.New(), r.CompanyID)
	cat, err := NewFinancialCategory(actor, CategorySales, "")
	require.NoError(t, err)
	entry, _ := EntryForStockRecord(r)

	fr := NewStockFinancialRecord(actor, r, cat, entry)

	require.NotNil(t, fr.StockRecordID)
	assert.Equal(t, r.ID, *fr.StockRecordID)
	assert.Equal(t, PaymentMethodCash, fr.PaymentMethod)
	assert.Equal(t, r.FinancialPeriodID, fr.FinancialPeriodID)
	assert.True(t, fr.Quantity.Equal(decimal.NewFromInt(5)))
	assert.Equal(t, r.Date, fr.Date)

	loss := stockRecord(inventory.TransactionDamage, 1, 10, 15)
	lossEntry, _ := EntryForStockRecord(loss)
	assert.Equal(t, PaymentMethodNone, NewStockFinancialRecord(actor, loss, cat, lossEntry).PaymentMethod)
}

func TestNewFinancialRecord(t *testing.T) {
	actor := shared.NewActor(uuid.New(), uuid.New())
	cat, err := NewFinancialCategory(actor, "Rent", "")
	require.NoError(t, err)

	t.Run("defaults payment method", func(t *testing.T) {
		fr, err := NewFinancialRecord(actor, cat, uuid.New(), RecordInput{Type: RecordExpense, Amount: decimal.NewFromInt(300)})

		require.NoError(t, err)
		assert.Equal(t, PaymentMethodCash, fr.PaymentMethod)
		assert.Nil(t, fr.StockRecordID)
	})

	t.Run("rejects category of another company", func(t *testing.T) {
		other := shared.NewActor(uuid.New(), uuid.New())

		_, err := NewFinancialRecord(other, cat, uuid.New(), RecordInput{Type: RecordExpense})

		assert.ErrorIs(t, err, shared.ErrTenantMismatch)
	})

	t.Run("rejects unknown type", func(t *testing.T) {
		_, err := NewFinancialRecord(actor, cat, uuid.New(), RecordInput{Type: "Transfer"})

		assert.ErrorIs(t, err, shared.ErrValidation)
	})
}
