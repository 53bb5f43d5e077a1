package printing

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/erp/stockledger/internal/domain/finance"
)

var reportPage = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html><head><meta charset="UTF-8"><title>{{.Title}}</title>
<style>
body { font-family: Helvetica, Arial, sans-serif; font-size: 12px; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #ccc; padding: 4px 8px; }
td.num { text-align: right; }
tr.total td { font-weight: bold; }
</style></head>
<body>
<h2>{{.Title}}</h2>
<p>{{.PeriodType}}: {{.From}} to {{.To}}</p>
<table>
<tr>{{range .Header}}<th>{{.}}</th>{{end}}</tr>
{{range .Rows}}<tr{{if .Total}} class="total"{{end}}><td>{{.Label}}</td>{{range .Cells}}<td class="num">{{.}}</td>{{end}}</tr>
{{end}}</table>
<p><small>Generated {{.GeneratedAt}}</small></p>
</body></html>`))

type pageRow struct {
	Label string
	Cells []string
	Total bool
}

type pageData struct {
	Title       string
	PeriodType  string
	From, To    string
	Header      []string
	Rows        []pageRow
	GeneratedAt string
}

// PDFRenderer prints a report page through an HTMLPrinter
type PDFRenderer struct {
	printer HTMLPrinter
	format  *Formatter
}

// NewPDFRenderer creates a PDF renderer for locale
func NewPDFRenderer(printer HTMLPrinter, locale string) *PDFRenderer {
	return &PDFRenderer{printer: printer, format: NewFormatter(locale)}
}

// Format returns "pdf"
func (r *PDFRenderer) Format() string { return "pdf" }

// Render prints the report
func (r *PDFRenderer) Render(ctx context.Context, report *finance.Report) ([]byte, string, error) {
	if report == nil {
		return nil, "", NewRenderError(ErrCodeInvalidReport, "report is nil", nil)
	}

	html, err := r.HTML(report)
	if err != nil {
		return nil, "", err
	}

	pdf, err := r.printer.Print(ctx, &PrintRequest{
		HTML:      html,
		Title:     r.format.Title(string(report.Type) + " report"),
		Landscape: report.Type == finance.ReportInventory,
	})
	if err != nil {
		return nil, "", err
	}
	return pdf, ContentTypePDF, nil
}

// HTML renders the page that gets printed
func (r *PDFRenderer) HTML(report *finance.Report) (string, error) {
	cur := report.Currency
	data := pageData{
		Title:       r.format.Title(string(report.Type) + " report"),
		PeriodType:  string(report.PeriodType),
		From:        report.StartDate.Format("2006-01-02"),
		To:          report.EndDate.Format("2006-01-02"),
		GeneratedAt: report.GeneratedAt.Format("2006-01-02 15:04"),
	}

	switch report.Type {
	case finance.ReportInventory:
		data.Header = []string{"Category", "Buying price", "Selling price", "Expected profit", "Earned profit", "Current quantity"}
		for _, c := range report.Categories {
			data.Rows = append(data.Rows, pageRow{Label: c.Name, Cells: []string{
				r.format.Amount(c.BuyingPrice, cur), r.format.Amount(c.SellingPrice, cur),
				r.format.Amount(c.ExpectedProfit, cur), r.format.Amount(c.EarnedProfit, cur),
				r.format.Quantity(c.CurrentQuantity),
			}})
		}
		data.Rows = append(data.Rows, pageRow{Label: "Total", Total: true, Cells: []string{
			r.format.Amount(report.InventoryBuyingPrice, cur), r.format.Amount(report.InventorySellingPrice, cur),
			r.format.Amount(report.InventoryExpectedProfit, cur), r.format.Amount(report.InventoryEarnedProfit, cur),
			"",
		}})
	default:
		data.Header = []string{"Measure", "Amount"}
		data.Rows = []pageRow{
			{Label: "Total income", Cells: []string{r.format.Amount(report.TotalIncome, cur)}},
			{Label: "Total expense", Cells: []string{r.format.Amount(report.TotalExpense, cur)}},
			{Label: "Profit", Cells: []string{r.format.Amount(report.Profit, cur)}, Total: true},
		}
	}

	var buf bytes.Buffer
	if err := reportPage.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render report page: %w", err)
	}
	return buf.String(), nil
}
