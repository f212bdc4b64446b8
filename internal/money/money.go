package money

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount occurs when an amount is not a finite decimal number with
// at most two fractional digits.
var ErrInvalidAmount = errors.New("invalid amount")

// Money is an exact fixed-point monetary amount with two decimal places. The
// zero value is 0.00 and ready to use.
type Money struct {
	d decimal.Decimal
}

// Zero returns the 0.00 amount.
func Zero() Money {
	return Money{}
}

// Parse validates and converts a decimal string into Money. Inputs that are
// not numeric or carry more than two fractional digits fail with
// ErrInvalidAmount.
func Parse(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q is not a number", ErrInvalidAmount, s)
	}
	return FromDecimal(d)
}

// FromDecimal wraps an existing decimal, enforcing the two-decimal-place rule.
func FromDecimal(d decimal.Decimal) (Money, error) {
	if d.Exponent() < -2 {
		return Money{}, fmt.Errorf("%w: at most 2 decimal places allowed, got %s", ErrInvalidAmount, d.String())
	}
	return Money{d: d}, nil
}

// MustParse is Parse for trusted literals; it panics on invalid input.
func MustParse(s string) Money {
	m, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return m
}

// Add returns m + o.
func (m Money) Add(o Money) Money {
	return Money{d: m.d.Add(o.d)}
}

// Sub returns m - o.
func (m Money) Sub(o Money) Money {
	return Money{d: m.d.Sub(o.d)}
}

// Cmp compares two amounts: -1 if m < o, 0 if equal, +1 if m > o.
func (m Money) Cmp(o Money) int {
	return m.d.Cmp(o.d)
}

// Equal reports exact equality of value.
func (m Money) Equal(o Money) bool {
	return m.d.Equal(o.d)
}

// LessThan reports m < o.
func (m Money) LessThan(o Money) bool {
	return m.d.Cmp(o.d) < 0
}

// IsPositive reports m > 0.
func (m Money) IsPositive() bool {
	return m.d.IsPositive()
}

// IsZero reports m == 0.
func (m Money) IsZero() bool {
	return m.d.IsZero()
}

// Neg returns -m.
func (m Money) Neg() Money {
	return Money{d: m.d.Neg()}
}

// String renders the amount with exactly two fractional digits, e.g. "0.00".
func (m Money) String() string {
	return m.d.StringFixed(2)
}

// Decimal exposes the underlying decimal value.
func (m Money) Decimal() decimal.Decimal {
	return m.d
}

// MarshalJSON encodes the amount as a quoted 2-dp decimal string.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

// UnmarshalJSON accepts either a quoted decimal string or a bare number.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
