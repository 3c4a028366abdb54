// Package currency parses user-typed amounts and formats them for display.
package currency

import (
	"errors"
	"math"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// DefaultCode is used when no (or an unknown) currency code is configured.
const DefaultCode = money.USD

// ErrMalformedAmount is returned when the input is not a number, or when it
// is written with more digits or a larger exponent than any amount needs.
var ErrMalformedAmount = errors.New("currency: malformed amount")

// Bounds on parsed input. Rounding rescales the coefficient to the exponent,
// so an unbounded exponent costs time and memory proportional to its size.
const (
	maxExponent = 15
	minExponent = -18
	maxDigits   = 34
)

// Lookup returns the currency for code, falling back to DefaultCode.
func Lookup(code string) *money.Currency {
	if c := money.GetCurrency(strings.ToUpper(strings.TrimSpace(code))); c != nil {
		return c
	}
	return money.GetCurrency(DefaultCode)
}

// ParseAmount parses raw into a float rounded half away from zero to the
// currency's minor units. The currency symbol, grouping separators and
// surrounding whitespace are ignored. Sign and range are not checked here.
func ParseAmount(raw, code string) (float64, error) {
	cur := Lookup(code)

	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, cur.Grapheme, "")
	if cur.Thousand != "" && cur.Thousand != cur.Decimal {
		s = strings.ReplaceAll(s, cur.Thousand, "")
	}
	if cur.Decimal != "" && cur.Decimal != "." {
		s = strings.ReplaceAll(s, cur.Decimal, ".")
	}
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return math.NaN(), ErrMalformedAmount
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return math.NaN(), ErrMalformedAmount
	}
	if exp := d.Exponent(); exp > maxExponent || exp < minExponent || d.NumDigits() > maxDigits {
		return math.NaN(), ErrMalformedAmount
	}
	return d.Round(int32(cur.Fraction)).InexactFloat64(), nil
}

// Format renders amount in the currency's display format, e.g. "$1,234.50".
func Format(amount float64, code string) string {
	cur := Lookup(code)
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return cur.Grapheme + "?"
	}

	minor := decimal.NewFromFloat(amount).Shift(int32(cur.Fraction)).Round(0).IntPart()
	if minor < 0 {
		return "-" + cur.Formatter().Format(-minor)
	}
	return cur.Formatter().Format(minor)
}
