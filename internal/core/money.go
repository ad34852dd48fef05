// Package core provides the domain types shared by every layer:
// transactions, dates and money amounts.
package core

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ParseDecimalToCents converts a decimal amount string to cents.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and
// rounds half-up past the second decimal place. Only strictly positive
// amounts are accepted.
//
// Examples:
//
//	ParseDecimalToCents("12.34") -> 1234, nil
//	ParseDecimalToCents("12,34") -> 1234, nil
//	ParseDecimalToCents("12.345") -> 1235, nil (rounds up)
func ParseDecimalToCents(s string) (int64, error) {
	s = normalizeAmount(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	cents := d.Mul(hundred).Round(0)
	if !cents.IsPositive() {
		return 0, ErrInvalidAmount
	}
	return cents.IntPart(), nil
}

// FormatCents renders cents as a plain decimal string with two places,
// e.g. 1234 -> "12.34". Used for API payloads and sheet rows.
func FormatCents(cents int64) string {
	return decimal.NewFromInt(cents).Div(hundred).StringFixed(2)
}

func normalizeAmount(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch r {
		case ' ', '\t':
			continue
		case ',':
			out = append(out, '.')
		default:
			out = append(out, r)
		}
	}
	return string(out)
}

// Euros returns the euro value as a float64 for display purposes.
// Use cents for any arithmetic to avoid floating-point drift.
func (m Money) Euros() float64 {
	return float64(m.Cents) / 100.0
}
