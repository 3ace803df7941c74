// Package types provides the value types shared across mercato.
package types

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// Amount is a non-fractional quantity of base units: wei-like token units, or
// USD scaled by 10^18. Arithmetic never rounds except in QuoTrunc, which
// truncates toward zero.
type Amount struct {
	d decimal.Decimal
}

// Zero is the zero Amount.
var Zero = Amount{}

// NewAmount creates an Amount of n base units.
func NewAmount(n int64) Amount { return Amount{d: decimal.NewFromInt(n)} }

// Units returns whole * 10^decimals, e.g. Units(100, 18) for 100 USD.
func Units(whole int64, decimals int32) Amount {
	return Amount{d: decimal.New(whole, decimals)}
}

// ParseAmount parses an integer string of base units.
func ParseAmount(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero, fmt.Errorf("types: parse amount %q: %w", s, err)
	}
	if !d.IsInteger() {
		return Zero, fmt.Errorf("types: parse amount %q: fractional base units", s)
	}
	return Amount{d: d}, nil
}

// MustAmount is like ParseAmount but panics on error. Use for literals.
func MustAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

// ParseUnits parses a decimal string in major units ("0.12") and scales it
// by 10^decimals, truncating any digits beyond that precision.
func ParseUnits(s string, decimals int32) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero, fmt.Errorf("types: parse units %q: %w", s, err)
	}
	return Amount{d: d.Shift(decimals).Truncate(0)}, nil
}

// Add returns a + b.
func (a Amount) Add(b Amount) Amount { return Amount{d: a.d.Add(b.d)} }

// Sub returns a - b.
func (a Amount) Sub(b Amount) Amount { return Amount{d: a.d.Sub(b.d)} }

// Mul returns a * n.
func (a Amount) Mul(n uint64) Amount {
	return Amount{d: a.d.Mul(decimal.NewFromBigInt(new(big.Int).SetUint64(n), 0))}
}

// MulAmount returns a * b.
func (a Amount) MulAmount(b Amount) Amount { return Amount{d: a.d.Mul(b.d)} }

// Shift returns a * 10^exp.
func (a Amount) Shift(exp int32) Amount { return Amount{d: a.d.Shift(exp)} }

// QuoTrunc returns a / b truncated toward zero. Panics if b is zero.
func (a Amount) QuoTrunc(b Amount) Amount {
	if b.d.IsZero() {
		panic("amount: division by zero")
	}
	q, _ := a.d.QuoRem(b.d, 0)
	return Amount{d: q}
}

// Cmp compares a and b and returns -1, 0 or +1.
func (a Amount) Cmp(b Amount) int { return a.d.Cmp(b.d) }

// Equal reports whether a == b.
func (a Amount) Equal(b Amount) bool { return a.d.Equal(b.d) }

// LessThan reports whether a < b.
func (a Amount) LessThan(b Amount) bool { return a.d.LessThan(b.d) }

// GreaterThan reports whether a > b.
func (a Amount) GreaterThan(b Amount) bool { return a.d.GreaterThan(b.d) }

// IsZero reports whether a == 0.
func (a Amount) IsZero() bool { return a.d.IsZero() }

// IsPositive reports whether a > 0.
func (a Amount) IsPositive() bool { return a.d.Sign() > 0 }

// IsNegative reports whether a < 0.
func (a Amount) IsNegative() bool { return a.d.Sign() < 0 }

// String returns the base units as an integer string.
func (a Amount) String() string { return a.d.String() }

// FormatUnits renders the amount in major units given the token decimals,
// e.g. "1.75" for 1.75e18 with 18 decimals.
func (a Amount) FormatUnits(decimals int32) string {
	return a.d.Shift(-decimals).String()
}

// Decimal exposes the underlying value.
func (a Amount) Decimal() decimal.Decimal { return a.d }

// MarshalJSON encodes the amount as a quoted integer string so values beyond
// 2^53 survive JSON consumers.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.d.String())
}

// UnmarshalJSON accepts a quoted or bare integer.
func (a *Amount) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("types: decode amount: %w", err)
	}
	if !d.IsInteger() {
		return fmt.Errorf("types: decode amount %s: fractional base units", d.String())
	}
	a.d = d
	return nil
}

// Sum adds all values.
func Sum(values ...Amount) Amount {
	total := Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}
