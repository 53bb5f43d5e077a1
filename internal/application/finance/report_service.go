package finance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/erp/stockledger/internal/domain/finance"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/erp/stockledger/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
)

// Renderer turns a report into a downloadable document
type Renderer interface {
	// Format is the export format the renderer answers to, e.g. "xlsx"
	Format() string
	Render(ctx context.Context, report *finance.Report) (data []byte, contentType string, err error)
}

// ReportRequest selects a report
type ReportRequest struct {
	Type       finance.ReportType
	PeriodType finance.ReportPeriodType
	// Start and End are used by the Custom period type
	Start, End string
}

// dateLayout is the format of custom report dates
const dateLayout = "2006-01-02"

// Report builds the requested projection. The currency comes from the
// active period; Cycle reports need one.
func (s *Service) Report(ctx context.Context, actor shared.Actor, req ReportRequest) (*finance.Report, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "finance", "Report")
	defer span.End()

	report, err := s.report(ctx, actor, req)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return report, nil
}

func (s *Service) report(ctx context.Context, actor shared.Actor, req ReportRequest) (*finance.Report, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	if !req.Type.IsValid() {
		return nil, shared.NewValidationError("INVALID_REPORT_TYPE", "Report type must be Financial or Inventory")
	}
	active, err := s.ActivePeriod(ctx, actor.CompanyID)
	if err != nil && !errors.Is(err, shared.ErrNoActivePeriod) {
		return nil, err
	}
	custom, err := parseCustomRange(req)
	if err != nil {
		return nil, err
	}
	now := s.now()
	dates, err := finance.ResolveRange(req.PeriodType, now, active, custom)
	if err != nil {
		return nil, err
	}

	report := &finance.Report{
		Type:                    req.Type,
		PeriodType:              req.PeriodType,
		StartDate:               dates.Start,
		EndDate:                 dates.End,
		TotalIncome:             decimal.Zero,
		TotalExpense:            decimal.Zero,
		Profit:                  decimal.Zero,
		InventoryBuyingPrice:    decimal.Zero,
		InventorySellingPrice:   decimal.Zero,
		InventoryExpectedProfit: decimal.Zero,
		InventoryEarnedProfit:   decimal.Zero,
		GeneratedAt:             now,
	}
	if active != nil {
		report.Currency = active.Currency
	}

	switch req.Type {
	case finance.ReportFinancial:
		income, err := s.repos.FinancialRecords().SumAmount(ctx, actor.CompanyID, finance.RecordIncome, dates.Start, dates.End)
		if err != nil {
			return nil, fmt.Errorf("sum income: %w", err)
		}
		expense, err := s.repos.FinancialRecords().SumAmount(ctx, actor.CompanyID, finance.RecordExpense, dates.Start, dates.End)
		if err != nil {
			return nil, fmt.Errorf("sum expense: %w", err)
		}
		report.SetFinancials(income, expense)
	case finance.ReportInventory:
		categories, _, err := s.repos.Categories().FindAll(ctx, actor.CompanyID, shared.Filter{OrderBy: "name", OrderDir: "asc"})
		if err != nil {
			return nil, err
		}
		for _, c := range categories {
			report.AddCategory(finance.CategoryLine{
				Name:            c.Name,
				BuyingPrice:     c.BuyingPrice,
				SellingPrice:    c.SellingPrice,
				ExpectedProfit:  c.ExpectedProfit,
				EarnedProfit:    c.EarnedProfit,
				CurrentQuantity: c.CurrentQuantity,
			})
		}
	}
	return report, nil
}

// Export builds the report and renders it in the requested format
func (s *Service) Export(ctx context.Context, actor shared.Actor, req ReportRequest, format string) ([]byte, string, error) {
	renderer, ok := s.renderers[strings.ToLower(format)]
	if !ok {
		return nil, "", shared.NewValidationError("INVALID_FORMAT", "Unsupported export format: "+format)
	}
	report, err := s.Report(ctx, actor, req)
	if err != nil {
		return nil, "", err
	}
	data, contentType, err := renderer.Render(ctx, report)
	if err != nil {
		return nil, "", fmt.Errorf("render %s report: %w", format, err)
	}
	return data, contentType, nil
}

func parseCustomRange(req ReportRequest) (finance.DateRange, error) {
	if req.PeriodType != finance.ReportCustom {
		return finance.DateRange{}, nil
	}
	var r finance.DateRange
	if req.Start != "" {
		start, err := time.Parse(dateLayout, req.Start)
		if err != nil {
			return r, shared.NewValidationError("INVALID_DATES", "start_date must be YYYY-MM-DD")
		}
		r.Start = start
	}
	if req.End != "" {
		end, err := time.Parse(dateLayout, req.End)
		if err != nil {
			return r, shared.NewValidationError("INVALID_DATES", "end_date must be YYYY-MM-DD")
		}
		r.End = end
	}
	return r, nil
}
