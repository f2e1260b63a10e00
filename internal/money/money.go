// Package money formats and parses Brazilian real amounts.
package money

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned when input holds no digits.
var ErrInvalidAmount = errors.New("invalid amount")

var hundred = decimal.NewFromInt(100)

// FormatBRL renders d as "R$ 1.234,56", rounded half away from zero to cents.
func FormatBRL(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}

	fixed := d.StringFixed(2) // "1234.56"
	intPart, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}

	return sign + "R$ " + b.String() + "," + frac
}

// FromCents converts an integer number of cents to a decimal amount.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// ToCents rounds d to whole cents.
func ToCents(d decimal.Decimal) int64 {
	return d.Mul(hundred).Round(0).IntPart()
}

// ParseCents reads the digits of a masked input ("R$ 1.234,56", "123456")
// as a number of cents. Every other character is ignored; a leading minus
// makes the amount negative.
func ParseCents(input string) (decimal.Decimal, error) {
	input = strings.TrimSpace(input)
	negative := strings.HasPrefix(input, "-")

	var digits strings.Builder
	for _, r := range input {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return decimal.Zero, ErrInvalidAmount
	}

	cents, err := decimal.NewFromString(digits.String())
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	amount := cents.Shift(-2)
	if negative {
		amount = amount.Neg()
	}
	return amount, nil
}
