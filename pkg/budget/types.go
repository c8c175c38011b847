package budget

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// TransactionType tags which bucket a transaction belongs to.
type TransactionType string

const (
	Savings TransactionType = "savings"
	Expense TransactionType = "expense"
	Buffer  TransactionType = "buffer"
)

// ParseTransactionType maps the legacy "saving" tag to Savings. Unknown tags
// are kept verbatim so they survive a load/save round trip.
func ParseTransactionType(s string) TransactionType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "saving", "savings":
		return Savings
	case "expense":
		return Expense
	case "buffer":
		return Buffer
	}
	return TransactionType(s)
}

func (t TransactionType) Normalize() TransactionType {
	return ParseTransactionType(string(t))
}

func (t TransactionType) IsKnown() bool {
	switch t.Normalize() {
	case Savings, Expense, Buffer:
		return true
	}
	return false
}

func (t *TransactionType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*t = ""
		return nil
	}
	*t = ParseTransactionType(s)
	return nil
}

// Percent is a ratio component. It decodes leniently: anything that is not a
// number becomes 0.
type Percent float64

func (p *Percent) UnmarshalJSON(data []byte) error {
	*p = Percent(lenientFloat(data))
	return nil
}

// DayOfMonth is a subscription due day, always within 1..31.
type DayOfMonth int

func ClampDay(day int) DayOfMonth {
	if day < 1 {
		return 1
	}
	if day > 31 {
		return 31
	}
	return DayOfMonth(day)
}

func (d *DayOfMonth) UnmarshalJSON(data []byte) error {
	*d = ClampDay(int(math.Round(lenientFloat(data))))
	return nil
}

type Ratio struct {
	Savings  Percent `json:"savings"`
	Expenses Percent `json:"expenses"`
	Buffer   Percent `json:"buffer"`
}

func DefaultRatio() Ratio {
	return Ratio{Savings: 55, Expenses: 40, Buffer: 5}
}

func (r Ratio) Total() float64 {
	return float64(r.Savings + r.Expenses + r.Buffer)
}

// NonNegative clamps each negative component to zero. The sum is not enforced.
func (r Ratio) NonNegative() Ratio {
	clamp := func(p Percent) Percent {
		if p < 0 || math.IsNaN(float64(p)) {
			return 0
		}
		return p
	}
	return Ratio{Savings: clamp(r.Savings), Expenses: clamp(r.Expenses), Buffer: clamp(r.Buffer)}
}

// Of returns the share of type t, or 0 for an unknown type.
func (r Ratio) Of(t TransactionType) float64 {
	switch t.Normalize() {
	case Savings:
		return float64(r.Savings)
	case Expense:
		return float64(r.Expenses)
	case Buffer:
		return float64(r.Buffer)
	}
	return 0
}

func lenientFloat(data []byte) float64 {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return 0
	}
	var s string
	if data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return 0
		}
	} else {
		s = string(data)
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
