// Package core provides the ledger domain types and money handling.
//
// Amounts are always integer cents. Decimal input (dollars typed by a user
// or an agent) is converted with shopspring/decimal so no float ever touches
// a stored amount.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

type Money struct {
	Cents int64
}

var hundred = decimal.NewFromInt(100)

// ParseDecimalToCents converts a decimal string to signed cents.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and rounds
// half away from zero on the third decimal place.
//
// Examples:
//
//	ParseDecimalToCents("12.34")  -> 1234, nil
//	ParseDecimalToCents("-12,34") -> -1234, nil
//	ParseDecimalToCents("12.345") -> 1235, nil
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return 0, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	return DollarsToCents(d)
}

// DollarsToCents converts a dollar amount to cents, rounding to the nearest cent.
func DollarsToCents(d decimal.Decimal) (int64, error) {
	c := d.Mul(hundred).Round(0)
	if !c.IsInteger() || c.Abs().GreaterThan(decimal.NewFromInt(1<<62)) {
		return 0, ErrInvalidAmount
	}
	return c.IntPart(), nil
}

// Dollars returns the amount as an exact decimal for display.
func (m Money) Dollars() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

func (m Money) Validate() error {
	if m.Cents == 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Abs returns the magnitude of cents.
func Abs(cents int64) int64 {
	if cents < 0 {
		return -cents
	}
	return cents
}
