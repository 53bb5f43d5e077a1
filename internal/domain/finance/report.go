package finance

import (
	"time"

	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ReportPeriodType selects the date range of a report
type ReportPeriodType string

const (
	ReportToday     ReportPeriodType = "Today"
	ReportYesterday ReportPeriodType = "Yesterday"
	ReportWeek      ReportPeriodType = "Week"
	ReportMonth     ReportPeriodType = "Month"
	ReportCycle     ReportPeriodType = "Cycle"
	ReportYear      ReportPeriodType = "Year"
	ReportCustom    ReportPeriodType = "Custom"
)

// ReportType selects what a report measures
type ReportType string

const (
	ReportFinancial ReportType = "Financial"
	ReportInventory ReportType = "Inventory"
)

// IsValid reports whether the report type is known
func (t ReportType) IsValid() bool {
	return t == ReportFinancial || t == ReportInventory
}

// DateRange is an inclusive range of instants
type DateRange struct {
	Start time.Time
	End   time.Time
}

// ResolveRange computes the range a report covers. Weeks start on Monday.
// Cycle uses the active period, which must be supplied; Custom uses the
// caller's dates.
func ResolveRange(periodType ReportPeriodType, now time.Time, active *FinancialPeriod, custom DateRange) (DateRange, error) {
	startOfDay := func(t time.Time) time.Time {
		y, m, d := t.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	}
	endOfDay := func(t time.Time) time.Time {
		return startOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
	}

	switch periodType {
	case ReportToday:
		return DateRange{Start: startOfDay(now), End: endOfDay(now)}, nil
	case ReportYesterday:
		y := now.AddDate(0, 0, -1)
		return DateRange{Start: startOfDay(y), End: endOfDay(y)}, nil
	case ReportWeek:
		offset := (int(now.Weekday()) + 6) % 7
		start := startOfDay(now.AddDate(0, 0, -offset))
		return DateRange{Start: start, End: start.AddDate(0, 0, 7).Add(-time.Nanosecond)}, nil
	case ReportMonth:
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return DateRange{Start: start, End: start.AddDate(0, 1, 0).Add(-time.Nanosecond)}, nil
	case ReportCycle:
		if active == nil {
			return DateRange{}, shared.NewKindError(shared.KindNoActivePeriod, string(shared.KindNoActivePeriod),
				"Financial Period is not active. Please activate the financial period.")
		}
		return DateRange{Start: startOfDay(active.StartDate), End: endOfDay(active.EndDate)}, nil
	case ReportYear:
		start := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location())
		return DateRange{Start: start, End: start.AddDate(1, 0, 0).Add(-time.Nanosecond)}, nil
	case ReportCustom:
		if custom.Start.IsZero() || custom.End.IsZero() {
			return DateRange{}, shared.NewValidationError("INVALID_DATES", "Custom reports need a start and end date")
		}
		if custom.End.Before(custom.Start) {
			return DateRange{}, shared.NewValidationError("INVALID_DATES", "End date cannot be before start date")
		}
		return DateRange{Start: startOfDay(custom.Start), End: endOfDay(custom.End)}, nil
	}
	return DateRange{}, shared.NewValidationError("INVALID_PERIOD_TYPE", "Unknown report period type: "+string(periodType))
}

// CategoryLine is one stock category's contribution to an inventory report
type CategoryLine struct {
	Name            string          `json:"name"`
	BuyingPrice     decimal.Decimal `json:"buying_price"`
	SellingPrice    decimal.Decimal `json:"selling_price"`
	ExpectedProfit  decimal.Decimal `json:"expected_profit"`
	EarnedProfit    decimal.Decimal `json:"earned_profit"`
	CurrentQuantity decimal.Decimal `json:"current_quantity"`
}

// Report is a read-only projection over financial records or stock categories
type Report struct {
	Type       ReportType       `json:"type"`
	PeriodType ReportPeriodType `json:"period_type"`
	StartDate  time.Time        `json:"start_date"`
	EndDate    time.Time        `json:"end_date"`
	Currency   string           `json:"currency"`

	TotalIncome  decimal.Decimal `json:"total_income"`
	TotalExpense decimal.Decimal `json:"total_expense"`
	Profit       decimal.Decimal `json:"profit"`

	InventoryBuyingPrice    decimal.Decimal `json:"inventory_total_buying_price"`
	InventorySellingPrice   decimal.Decimal `json:"inventory_total_selling_price"`
	InventoryExpectedProfit decimal.Decimal `json:"inventory_total_expected_profit"`
	InventoryEarnedProfit   decimal.Decimal `json:"inventory_total_earned_profit"`
	Categories              []CategoryLine  `json:"categories,omitempty"`

	GeneratedAt time.Time `json:"generated_at"`
}

// AddCategory accumulates a category into an inventory report
func (r *Report) AddCategory(line CategoryLine) {
	r.InventoryBuyingPrice = r.InventoryBuyingPrice.Add(line.BuyingPrice)
	r.InventorySellingPrice = r.InventorySellingPrice.Add(line.SellingPrice)
	r.InventoryExpectedProfit = r.InventoryExpectedProfit.Add(line.ExpectedProfit)
	r.InventoryEarnedProfit = r.InventoryEarnedProfit.Add(line.EarnedProfit)
	r.Categories = append(r.Categories, line)
}

// SetFinancials fills the income/expense projection
func (r *Report) SetFinancials(income, expense decimal.Decimal) {
	r.TotalIncome = income
	r.TotalExpense = expense
	r.Profit = income.Sub(expense)
}
