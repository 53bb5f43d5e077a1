package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/erp/stockledger/internal/domain/finance"
	"github.com/erp/stockledger/internal/domain/inventory"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// Ledger is a seeded stock hierarchy for one company
type Ledger struct {
	Actor       shared.Actor
	Period      *finance.FinancialPeriod
	Category    *inventory.StockCategory
	SubCategory *inventory.StockSubCategory
	Item        *inventory.StockItem
}

// LedgerOptions customises SeedLedger
type LedgerOptions struct {
	SKU          string
	Unit         string
	ReorderLevel decimal.Decimal
	BuyingPrice  decimal.Decimal
	SellingPrice decimal.Decimal
	Quantity     decimal.Decimal
	NoPeriod     bool
}

// DefaultLedgerOptions seeds an item bought at 50 and sold at 80 with no
// opening stock
func DefaultLedgerOptions() LedgerOptions {
	return LedgerOptions{
		SKU:          "SKU-001",
		Unit:         "pcs",
		ReorderLevel: decimal.NewFromInt(5),
		BuyingPrice:  decimal.NewFromInt(50),
		SellingPrice: decimal.NewFromInt(80),
		Quantity:     decimal.Zero,
	}
}

// SeedLedger inserts an active period, a category, a sub-category and an
// item for actor directly through gorm.
func SeedLedger(t *testing.T, db *gorm.DB, actor shared.Actor, opts LedgerOptions) *Ledger {
	t.Helper()
	ctx := context.Background()
	l := &Ledger{Actor: actor}

	periodID := NewTestUUID("no-period")
	if !opts.NoPeriod {
		period, err := finance.NewFinancialPeriod(actor, finance.PeriodInput{
			Name:      "FY2026",
			StartDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC),
			Currency:  "USD",
			Activate:  true,
		})
		require.NoError(t, err)
		require.NoError(t, db.WithContext(ctx).Create(period).Error)
		l.Period = period
		periodID = period.ID
	}

	category, err := inventory.NewStockCategory(actor, inventory.CategoryInput{
		Name:            "Electronics",
		MeasurementUnit: opts.Unit,
		ReorderLevel:    opts.ReorderLevel,
	})
	require.NoError(t, err)
	require.NoError(t, db.WithContext(ctx).Create(category).Error)
	l.Category = category

	sub, err := inventory.NewStockSubCategory(actor, category, inventory.SubCategoryInput{
		StockCategoryID: category.ID,
		Name:            "Phones",
		MeasurementUnit: opts.Unit,
		ReorderLevel:    opts.ReorderLevel,
	})
	require.NoError(t, err)
	require.NoError(t, db.WithContext(ctx).Create(sub).Error)
	l.SubCategory = sub

	item, _, err := inventory.NewStockItem(actor, sub, periodID, inventory.ItemInput{
		Name:             "Handset",
		SKU:              opts.SKU,
		BuyingPrice:      opts.BuyingPrice,
		SellingPrice:     opts.SellingPrice,
		OriginalQuantity: opts.Quantity,
	})
	require.NoError(t, err)
	require.NoError(t, db.WithContext(ctx).Create(item).Error)
	l.Item = item

	return l
}

// ReloadItem reads the item's current state
func ReloadItem(t *testing.T, db *gorm.DB, item *inventory.StockItem) *inventory.StockItem {
	t.Helper()
	var fresh inventory.StockItem
	require.NoError(t, db.Where("company_id = ? AND id = ?", item.CompanyID, item.ID).First(&fresh).Error)
	return &fresh
}

// ReloadSubCategory reads the sub-category's current state
func ReloadSubCategory(t *testing.T, db *gorm.DB, sub *inventory.StockSubCategory) *inventory.StockSubCategory {
	t.Helper()
	var fresh inventory.StockSubCategory
	require.NoError(t, db.Where("company_id = ? AND id = ?", sub.CompanyID, sub.ID).First(&fresh).Error)
	return &fresh
}

// ReloadCategory reads the category's current state
func ReloadCategory(t *testing.T, db *gorm.DB, c *inventory.StockCategory) *inventory.StockCategory {
	t.Helper()
	var fresh inventory.StockCategory
	require.NoError(t, db.Where("company_id = ? AND id = ?", c.CompanyID, c.ID).First(&fresh).Error)
	return &fresh
}
