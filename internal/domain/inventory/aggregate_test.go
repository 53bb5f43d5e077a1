package inventory

import (
	"testing"

	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeTotals(t *testing.T) {
	items := []StockItem{
		{BuyingPrice: decimal.NewFromInt(10), SellingPrice: decimal.NewFromInt(15), OriginalQuantity: decimal.NewFromInt(20), CurrentQuantity: decimal.NewFromInt(15)},
		{BuyingPrice: decimal.NewFromInt(2), SellingPrice: decimal.NewFromInt(5), OriginalQuantity: decimal.NewFromInt(10), CurrentQuantity: decimal.NewFromInt(10)},
	}

	totals := ComputeTotals(items, decimal.NewFromInt(25))

	assert.True(t, totals.BuyingPrice.Equal(decimal.NewFromInt(220)))
	assert.True(t, totals.SellingPrice.Equal(decimal.NewFromInt(350)))
	assert.True(t, totals.ExpectedProfit.Equal(decimal.NewFromInt(130)))
	assert.True(t, totals.EarnedProfit.Equal(decimal.NewFromInt(25)))
	assert.True(t, totals.CurrentQuantity.Equal(decimal.NewFromInt(25)))

	t.Run("same inputs give same totals", func(t *testing.T) {
		again := ComputeTotals(items, decimal.NewFromInt(25))
		assert.True(t, totals.Equal(again))
	})

	t.Run("no items give zero totals", func(t *testing.T) {
		assert.True(t, ComputeTotals(nil, decimal.Zero).Equal(ZeroTotals()))
	})
}

func TestStockSubCategory_ApplyTotals(t *testing.T) {
	actor := shared.NewActor(uuid.New(), uuid.New())
	cat, err := NewStockCategory(actor, CategoryInput{Name: "Dairy", MeasurementUnit: "litre"})
	require.NoError(t, err)
	sub, err := NewStockSubCategory(actor, cat, SubCategoryInput{Name: "Milk", ReorderLevel: decimal.NewFromInt(5)})
	require.NoError(t, err)
	assert.Equal(t, "litre", sub.MeasurementUnit)

	t.Run("above reorder level is in stock", func(t *testing.T) {
		low := sub.ApplyTotals(Totals{CurrentQuantity: decimal.NewFromInt(6)})

		assert.False(t, low)
		assert.Equal(t, InStockYes, sub.InStock)
	})

	t.Run("at reorder level is low stock", func(t *testing.T) {
		low := sub.ApplyTotals(Totals{CurrentQuantity: decimal.NewFromInt(5)})

		assert.True(t, low)
		assert.Equal(t, InStockNo, sub.InStock)
		assert.Equal(t, "Stock level low for sub-category 'Milk': 5 litre (Reorder level: 5)", sub.LowStockMessage())
	})

	t.Run("empty is not low stock", func(t *testing.T) {
		low := sub.ApplyTotals(Totals{CurrentQuantity: decimal.Zero})

		assert.False(t, low)
		assert.Equal(t, InStockNo, sub.InStock)
	})
}

func TestNewStockSubCategory_Guards(t *testing.T) {
	owner := shared.NewActor(uuid.New(), uuid.New())
	cat, err := NewStockCategory(owner, CategoryInput{Name: "Tools"})
	require.NoError(t, err)

	t.Run("category of another company", func(t *testing.T) {
		_, err := NewStockSubCategory(shared.NewActor(uuid.New(), uuid.New()), cat, SubCategoryInput{Name: "Saws"})

		assert.ErrorIs(t, err, shared.ErrTenantMismatch)
	})

	t.Run("empty name", func(t *testing.T) {
		_, err := NewStockSubCategory(owner, cat, SubCategoryInput{Name: "  "})

		assert.ErrorIs(t, err, shared.ErrValidation)
	})

	t.Run("search text", func(t *testing.T) {
		sub, err := NewStockSubCategory(owner, cat, SubCategoryInput{Name: "Saws", MeasurementUnit: "pcs"})
		require.NoError(t, err)

		assert.Equal(t, "Saws (pcs)", sub.SearchText())
		assert.Equal(t, "Saws - Tools", sub.DisplayName(cat.Name))
	})
}
