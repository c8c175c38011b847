// Package money holds the currency amount type shared by every budget entity.
//
// Amounts are backed by shopspring/decimal so sums of many small amounts never
// drift. Decoding is lenient: anything that is not a number (or a numeric
// string) decodes to zero instead of failing the whole document.
package money

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)
var half = decimal.NewFromFloat(0.5)

// Money is a currency amount. The zero value is 0.
type Money struct {
	d decimal.Decimal
}

var Zero = Money{}

func FromInt(v int64) Money {
	return Money{decimal.NewFromInt(v)}
}

func FromFloat(v float64) Money {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Zero
	}
	return Money{decimal.NewFromFloat(v)}
}

// Parse reads a decimal amount. Blank or non-numeric input yields zero.
func Parse(s string) Money {
	s = strings.TrimSpace(s)
	if s == "" {
		return Zero
	}
	s = strings.ReplaceAll(s, ",", "")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero
	}
	return Money{d}
}

// Lenient decodes a raw JSON value: numbers and numeric strings are kept,
// everything else (null, booleans, objects, garbage) becomes zero.
func Lenient(data []byte) Money {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return Zero
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return Zero
		}
		return Parse(s)
	}
	d, err := decimal.NewFromString(string(data))
	if err != nil {
		return Zero
	}
	return Money{d}
}

func Sum(values ...Money) Money {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v.d)
	}
	return Money{total}
}

func (m Money) Add(o Money) Money { return Money{m.d.Add(o.d)} }
func (m Money) Sub(o Money) Money { return Money{m.d.Sub(o.d)} }
func (m Money) Neg() Money { return Money{m.d.Neg()} }
func (m Money) Abs() Money { return Money{m.d.Abs()} }

// MulPercent returns m × percent / 100.
func (m Money) MulPercent(percent float64) Money {
	if math.IsNaN(percent) || math.IsInf(percent, 0) {
		return Zero
	}
	return Money{m.d.Mul(decimal.NewFromFloat(percent)).Div(hundred)}
}

// Round rounds to a whole unit, halves towards positive infinity.
func (m Money) Round() Money {
	return Money{m.d.Add(half).Floor()}
}

// Ratio returns m / base as a float, or 0 when base is zero.
func (m Money) Ratio(base Money) float64 {
	if base.d.IsZero() {
		return 0
	}
	return m.d.Div(base.d).InexactFloat64()
}

// PercentOf returns round(m / base × 100), or 0 when base is zero.
func (m Money) PercentOf(base Money) int64 {
	if base.d.IsZero() {
		return 0
	}
	return m.d.Mul(hundred).Div(base.d).Add(half).Floor().IntPart()
}

// NonNegative clamps negative amounts to zero.
func (m Money) NonNegative() Money {
	if m.d.IsNegative() {
		return Zero
	}
	return m
}

func (m Money) Cmp(o Money) int { return m.d.Cmp(o.d) }
func (m Money) Equal(o Money) bool { return m.d.Equal(o.d) }
func (m Money) GreaterThan(o Money) bool { return m.d.GreaterThan(o.d) }
func (m Money) LessThan(o Money) bool { return m.d.LessThan(o.d) }
func (m Money) IsZero() bool { return m.d.IsZero() }
func (m Money) IsNegative() bool { return m.d.IsNegative() }
func (m Money) IsPositive() bool { return m.d.IsPositive() }
func (m Money) Float64() float64 { return m.d.InexactFloat64() }
func (m Money) String() string { return m.d.String() }

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.d.String()), nil
}

func (m *Money) UnmarshalJSON(data []byte) error {
	*m = Lenient(data)
	return nil
}
