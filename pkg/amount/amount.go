// Package amount converts between decimal TON strings and integer nanoton amounts.
// Amounts never pass through float64.
package amount

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Decimals is the number of fractional digits of one TON.
const Decimals = 9

// MaxDigits bounds an amount in nanotons to what the NUMERIC(78, 0) columns hold.
const MaxDigits = 78

var (
	ErrInvalid   = errors.New("invalid amount")
	ErrPrecision = errors.New("amount has more than 9 fractional digits")
	ErrTooLarge  = errors.New("amount is too large")
)

var decimalPattern = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)

// Parse converts "1.25" into 1250000000 nanotons. Negative numbers and exponents are rejected.
func Parse(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if !decimalPattern.MatchString(s) {
		return decimal.Zero, errors.Wrapf(ErrInvalid, "%q", s)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, errors.Wrapf(ErrInvalid, "%q", s)
	}
	units := d.Shift(Decimals)
	if !units.IsInteger() {
		return decimal.Zero, errors.Wrapf(ErrPrecision, "%q", s)
	}
	units = units.Truncate(0)
	if len(units.String()) > MaxDigits {
		return decimal.Zero, errors.Wrapf(ErrTooLarge, "%q", s)
	}
	return units, nil
}

// MustParse is Parse for constants and tests.
func MustParse(s string) decimal.Decimal {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Format renders nanotons as a canonical decimal TON string without trailing zeros.
func Format(units decimal.Decimal) string {
	return units.Shift(-Decimals).String()
}

// Units builds an amount from a whole number of nanotons.
func Units(n int64) decimal.Decimal {
	return decimal.NewFromInt(n)
}
