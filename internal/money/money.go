// Package money provides the Amount type used for every balance in the
// ledger. Amounts are stored as integer cents and exchanged on the wire as
// two-decimal currency values.
package money

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Scale is the number of decimal places an Amount carries.
const Scale = 2

var (
	// ErrTooPrecise is returned when a value has more than two decimal places.
	ErrTooPrecise = errors.New("amount must have at most 2 decimal places")
	// ErrOutOfRange is returned when a value does not fit in an Amount.
	ErrOutOfRange = errors.New("amount is out of range")
)

var hundred = decimal.NewFromInt(100)

// Amount is a currency value in cents.
type Amount int64

// Zero is the zero Amount.
const Zero Amount = 0

// FromCents returns the Amount for a number of cents.
func FromCents(cents int64) Amount { return Amount(cents) }

// FromDecimal converts a decimal currency value to an Amount.
// Values with more than two decimal places are rejected rather than rounded.
func FromDecimal(d decimal.Decimal) (Amount, error) {
	if !d.Equal(d.Truncate(Scale)) {
		return 0, ErrTooPrecise
	}
	cents := d.Mul(hundred)
	if !cents.IsInteger() || cents.Abs().GreaterThan(decimal.NewFromInt(1<<53)) {
		return 0, ErrOutOfRange
	}
	return Amount(cents.IntPart()), nil
}

// Parse parses a decimal string such as "12.50".
func Parse(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	return FromDecimal(d)
}

// MustParse is like Parse but panics on error. Intended for tests and constants.
func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Cents returns the amount in cents.
func (a Amount) Cents() int64 { return int64(a) }

// Decimal returns the amount as a decimal currency value.
func (a Amount) Decimal() decimal.Decimal { return decimal.New(int64(a), -Scale) }

// String formats the amount with exactly two decimal places.
func (a Amount) String() string { return a.Decimal().StringFixed(Scale) }

// IsPositive reports whether a > 0.
func (a Amount) IsPositive() bool { return a > 0 }

// Neg returns -a.
func (a Amount) Neg() Amount { return -a }

// Abs returns |a|.
func (a Amount) Abs() Amount {
	if a < 0 {
		return -a
	}
	return a
}

// Percent returns a × rate / 100 rounded to cents, half away from zero.
func (a Amount) Percent(rate decimal.Decimal) Amount {
	v := a.Decimal().Mul(rate).Div(hundred).Round(Scale)
	return Amount(v.Mul(hundred).IntPart())
}

// MarshalJSON encodes the amount as a JSON number with two decimal places.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	data = bytes.Trim(data, `"`)
	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
