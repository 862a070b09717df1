// Package report renders ledger analytics as markdown for tool results.
package report

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.AmericanEnglish)

// FormatAmount renders cents as US dollars ("$1,234.56", "-$12.00"), or
// "N/A" when amount is nil.
func FormatAmount(amount *int64) string {
	if amount == nil {
		return "N/A"
	}
	return FormatCents(*amount)
}

func FormatCents(cents int64) string {
	sign := ""
	abs := uint64(cents)
	if cents < 0 {
		sign = "-"
		abs = uint64(-(cents + 1)) + 1
	}
	return fmt.Sprintf("%s$%s.%02d", sign, printer.Sprintf("%d", abs/100), abs%100)
}

// FormatDecimalCents rounds a fractional cent amount half away from zero.
func FormatDecimalCents(cents decimal.Decimal) string {
	return FormatCents(cents.Round(0).IntPart())
}

// FormatPercent renders a percentage with one decimal place.
func FormatPercent(rate decimal.Decimal) string {
	return rate.StringFixed(1) + "%"
}

func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
