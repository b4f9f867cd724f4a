// Package money provides the arbitrary-precision decimal value type used
// for every price, subtotal, and balance in the system.
package money

import (
	"database/sql/driver"
	"fmt"

	"github.com/shopspring/decimal"
)

// Money wraps decimal.Decimal so domain code has a named type instead of
// importing decimal directly everywhere — comparisons and associative
// add/multiply are exact, matching spec's decimal requirement.
type Money struct {
	decimal.Decimal
}

// Zero is the additive identity.
var Zero = Money{decimal.Zero}

// NewFromString parses a decimal literal such as "200.00".
func NewFromString(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("money: parse %q: %w", s, err)
	}
	return Money{d}, nil
}

// NewFromInt builds a Money from a whole number of cents-free units,
// e.g. NewFromInt(50) == "50".
func NewFromInt(i int64) Money {
	return Money{decimal.NewFromInt(i)}
}

// Add returns m+other. decimal.Decimal.Add is associative and exact.
func (m Money) Add(other Money) Money {
	return Money{m.Decimal.Add(other.Decimal)}
}

// Sub returns m-other.
func (m Money) Sub(other Money) Money {
	return Money{m.Decimal.Sub(other.Decimal)}
}

// MultiplyByQuantity returns m*qty, exact for integer qty.
func (m Money) MultiplyByQuantity(qty int) Money {
	return Money{m.Decimal.Mul(decimal.NewFromInt(int64(qty)))}
}

// Equals compares by value, not representation (e.g. "1.0" == "1.00").
func (m Money) Equals(other Money) bool {
	return m.Decimal.Equal(other.Decimal)
}

// IsZero reports whether m is exactly zero.
func (m Money) IsZero() bool {
	return m.Decimal.IsZero()
}

// IsNegative reports whether m is strictly less than zero.
func (m Money) IsNegative() bool {
	return m.Decimal.IsNegative()
}

// IsGreaterThanZero reports whether m is strictly greater than zero.
func (m Money) IsGreaterThanZero() bool {
	return m.Decimal.Sign() > 0

}

// GreaterThanOrEqual reports whether m >= other. Used by the payment
// service's credit-history invariant check (total credits >= total debits).
func (m Money) GreaterThanOrEqual(other Money) bool {
	return m.Decimal.Cmp(other.Decimal) >= 0
}

// Sum adds a slice of Money values left to right.
func Sum(values []Money) Money {
	total := Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// Value implements driver.Valuer so Money can be written with sqlx.
func (m Money) Value() (driver.Value, error) {
	return m.Decimal.Value()
}

// Scan implements sql.Scanner so Money can be read back with sqlx.
func (m *Money) Scan(value interface{}) error {
	return m.Decimal.Scan(value)
}

// MarshalJSON delegates to the underlying decimal so wire payloads carry
// the canonical decimal string form.
func (m Money) MarshalJSON() ([]byte, error) {
	return m.Decimal.MarshalJSON()
}

// UnmarshalJSON delegates to the underlying decimal.
func (m *Money) UnmarshalJSON(data []byte) error {
	return m.Decimal.UnmarshalJSON(data)
}

func (m Money) String() string {
	return m.Decimal.String()
}
