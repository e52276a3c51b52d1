// Package money provides the fixed-point amount and currency primitives used
// by the accounting core. All monetary values flow through decimal.Decimal;
// float64 is accepted only at API boundaries and quantized immediately.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Currency enumerates the currencies the ledger accepts.
type Currency string

const (
	ARS Currency = "ARS"
	USD Currency = "USD"
	EUR Currency = "EUR"
	BRL Currency = "BRL"
)

// Currencies lists every supported currency in stable order.
func Currencies() []Currency {
	return []Currency{ARS, USD, EUR, BRL}
}

// ParseCurrency validates a currency code.
func ParseCurrency(code string) (Currency, error) {
	c := Currency(strings.ToUpper(strings.TrimSpace(code)))
	switch c {
	case ARS, USD, EUR, BRL:
		return c, nil
	}
	return "", fmt.Errorf("money: unknown currency %q", code)
}

// Valid reports whether the currency is one of the supported codes.
func (c Currency) Valid() bool {
	switch c {
	case ARS, USD, EUR, BRL:
		return true
	}
	return false
}

// Amount is an exact fixed-point monetary value.
type Amount = decimal.Decimal

// Zero is the additive identity.
func Zero() Amount {
	return decimal.Zero
}

// FromFloat quantizes an upstream float to two decimal places. Callers that
// already hold decimals should never round-trip through this.
func FromFloat(v float64) Amount {
	return decimal.NewFromFloat(v).Round(2)
}

// FromString parses an exact decimal string.
func FromString(s string) (Amount, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("money: parse amount %q: %w", s, err)
	}
	return d, nil
}

// RoundingTolerance is the largest drift accepted on postings that carry an
// exchange rate. Same-currency postings must balance exactly.
var RoundingTolerance = decimal.RequireFromString("0.01")

// WithinTolerance reports whether |a-b| <= RoundingTolerance.
func WithinTolerance(a, b Amount) bool {
	return a.Sub(b).Abs().Cmp(RoundingTolerance) <= 0
}
