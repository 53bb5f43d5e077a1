package inventory

import "github.com/shopspring/decimal"

// ComputeTotals derives category or sub-category aggregates from the items
// beneath it and the profit already earned by its stock records.
//
//	buying   = Σ buying_price × original_quantity
//	selling  = Σ selling_price × original_quantity
//	expected = selling - buying
//	current  = Σ current_quantity
func ComputeTotals(items []StockItem, earnedProfit decimal.Decimal) Totals {
	t := ZeroTotals()
	for i := range items {
		it := &items[i]
		t.BuyingPrice = t.BuyingPrice.Add(it.BuyingPrice.Mul(it.OriginalQuantity))
		t.SellingPrice = t.SellingPrice.Add(it.SellingPrice.Mul(it.OriginalQuantity))
		t.CurrentQuantity = t.CurrentQuantity.Add(it.CurrentQuantity)
	}
	t.ExpectedProfit = t.SellingPrice.Sub(t.BuyingPrice)
	t.EarnedProfit = earnedProfit
	return t
}

// SumProfit adds up record profits
func SumProfit(profits []decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, p := range profits {
		total = total.Add(p)
	}
	return total
}
