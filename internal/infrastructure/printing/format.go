package printing

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Formatter prints amounts and labels for a locale
type Formatter struct {
	printer *message.Printer
	title   cases.Caser
}

// NewFormatter parses locale as a BCP 47 tag, falling back to English
func NewFormatter(locale string) *Formatter {
	tag, err := language.Parse(locale)
	if err != nil || locale == "" {
		tag = language.English
	}
	return &Formatter{
		printer: message.NewPrinter(tag),
		title:   cases.Title(tag),
	}
}

// Amount formats d with grouping and two decimals, prefixed by currency
func (f *Formatter) Amount(d decimal.Decimal, currency string) string {
	s := f.printer.Sprint(number.Decimal(d.Round(2).InexactFloat64(), number.Scale(2)))
	if currency == "" {
		return s
	}
	return currency + " " + s
}

// Quantity formats d with grouping and up to four decimals
func (f *Formatter) Quantity(d decimal.Decimal) string {
	return f.printer.Sprint(number.Decimal(d.InexactFloat64(), number.MaxFractionDigits(4)))
}

// Title title-cases a label
func (f *Formatter) Title(s string) string {
	return f.title.String(s)
}
