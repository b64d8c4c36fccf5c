// Package core provides money parsing and handling utilities.
//
// Amounts are stored as integer cents. Parsing and percentage math go
// through shopspring/decimal so rounding stays exact and explicit.
package core

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var maxCents = decimal.NewFromInt(math.MaxInt64)

// ParseDecimalToCents converts a decimal string to cents with half-up
// rounding on the third decimal place. Both dot (12.34) and comma (12,34)
// separators are accepted. Returns an error for invalid formats, negative
// values, or zero amounts.
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	cents := d.Shift(2).Round(0)
	if cents.Sign() <= 0 || cents.Cmp(maxCents) > 0 {
		return 0, ErrInvalidAmount
	}
	return cents.IntPart(), nil
}

// PercentOf returns percent% of the amount, rounded half-up to whole cents.
func (m Money) PercentOf(percent int64) Money {
	cents := decimal.NewFromInt(m.Cents).
		Mul(decimal.NewFromInt(percent)).
		Div(decimal.NewFromInt(100)).
		Round(0)
	return Money{Cents: cents.IntPart()}
}

// String renders the amount with two decimals, e.g. 123456 -> "1234.56".
func (m Money) String() string {
	return decimal.NewFromInt(m.Cents).Shift(-2).StringFixed(2)
}

// Float64 returns the amount in major units for JSON payloads and display.
// Use cents for calculations.
func (m Money) Float64() float64 {
	return float64(m.Cents) / 100.0
}
