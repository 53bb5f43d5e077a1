package printing

import (
	"bytes"
	"context"
	"fmt"

	"github.com/erp/stockledger/internal/domain/finance"
	"github.com/xuri/excelize/v2"
)

const reportSheet = "Report"

// XLSXRenderer writes a report as a single-sheet workbook
type XLSXRenderer struct {
	format *Formatter
}

// NewXLSXRenderer creates an XLSX renderer for locale
func NewXLSXRenderer(locale string) *XLSXRenderer {
	return &XLSXRenderer{format: NewFormatter(locale)}
}

// Format returns "xlsx"
func (r *XLSXRenderer) Format() string { return "xlsx" }

// Render builds the workbook. Amount cells hold numbers; the header block
// holds the formatted range and currency.
func (r *XLSXRenderer) Render(ctx context.Context, report *finance.Report) ([]byte, string, error) {
	if report == nil {
		return nil, "", NewRenderError(ErrCodeInvalidReport, "report is nil", nil)
	}
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", reportSheet); err != nil {
		return nil, "", fmt.Errorf("rename sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, "", fmt.Errorf("create style: %w", err)
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return nil, "", fmt.Errorf("create style: %w", err)
	}

	w := &sheetWriter{f: f, bold: bold, money: money}
	w.row(true, r.format.Title(string(report.Type)+" report"))
	w.row(false, "Period", string(report.PeriodType))
	w.row(false, "From", report.StartDate.Format("2006-01-02"))
	w.row(false, "To", report.EndDate.Format("2006-01-02"))
	w.row(false, "Currency", report.Currency)
	w.blank()

	switch report.Type {
	case finance.ReportInventory:
		w.row(true, "Category", "Buying price", "Selling price", "Expected profit", "Earned profit", "Current quantity")
		for _, c := range report.Categories {
			w.row(false, c.Name,
				c.BuyingPrice.InexactFloat64(), c.SellingPrice.InexactFloat64(),
				c.ExpectedProfit.InexactFloat64(), c.EarnedProfit.InexactFloat64(),
				c.CurrentQuantity.InexactFloat64())
		}
		w.row(true, "Total",
			report.InventoryBuyingPrice.InexactFloat64(), report.InventorySellingPrice.InexactFloat64(),
			report.InventoryExpectedProfit.InexactFloat64(), report.InventoryEarnedProfit.InexactFloat64())
	default:
		w.row(true, "Measure", "Amount")
		w.row(false, "Total income", report.TotalIncome.InexactFloat64())
		w.row(false, "Total expense", report.TotalExpense.InexactFloat64())
		w.row(true, "Profit", report.Profit.InexactFloat64())
	}
	if w.err != nil {
		return nil, "", fmt.Errorf("write sheet: %w", w.err)
	}

	_ = f.SetColWidth(reportSheet, "A", "A", 24)
	_ = f.SetColWidth(reportSheet, "B", "F", 18)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, "", fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), ContentTypeXLSX, nil
}

// sheetWriter appends rows and keeps the first error
type sheetWriter struct {
	f     *excelize.File
	bold  int
	money int
	n     int
	err   error
}

func (w *sheetWriter) blank() { w.n++ }

func (w *sheetWriter) row(header bool, values ...any) {
	w.n++
	if w.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(1, w.n)
	if err != nil {
		w.err = err
		return
	}
	if err := w.f.SetSheetRow(reportSheet, cell, &values); err != nil {
		w.err = err
		return
	}
	last, _ := excelize.CoordinatesToCellName(len(values), w.n)
	if header {
		w.err = w.f.SetCellStyle(reportSheet, cell, last, w.bold)
		return
	}
	if len(values) > 1 {
		if _, ok := values[1].(float64); ok {
			second, _ := excelize.CoordinatesToCellName(2, w.n)
			w.err = w.f.SetCellStyle(reportSheet, second, last, w.money)
		}
	}
}
