// Package metrics holds the pure functions every dashboard, report and
// recommendation is computed from. Nothing here keeps state.
package metrics

import (
	"math"
	"slices"
	"time"

	"github.com/ratiobudget/ratiobudget/pkg/budget"
	"github.com/ratiobudget/ratiobudget/pkg/money"
)

const DefaultTrendMonths = 6

const MonthKeyLayout = "2006-01"

// MonthTotals is one row of the monthly trend.
type MonthTotals struct {
	MonthKey string      `json:"monthKey"`
	Savings  money.Money `json:"savings"`
	Expenses money.Money `json:"expenses"`
	Buffer   money.Money `json:"buffer"`
}

func (m MonthTotals) Total() money.Money {
	return money.Sum(m.Savings, m.Expenses, m.Buffer)
}

func CurrentMonthKey(now time.Time) string {
	return now.Format(MonthKeyLayout)
}

// MonthKeyOf returns the month a transaction belongs to. Records written
// before monthKey existed count towards the current month.
func MonthKeyOf(tx budget.Transaction, now time.Time) string {
	if tx.MonthKey == "" {
		return CurrentMonthKey(now)
	}
	return tx.MonthKey
}

func FilterByMonth(transactions []budget.Transaction, monthKey string, now time.Time) []budget.Transaction {
	filtered := make([]budget.Transaction, 0)
	for _, tx := range transactions {
		if MonthKeyOf(tx, now) == monthKey {
			filtered = append(filtered, tx)
		}
	}
	return filtered
}

func SumByType(transactions []budget.Transaction, transactionType budget.TransactionType) money.Money {
	wanted := transactionType.Normalize()
	total := money.Zero
	for _, tx := range transactions {
		if tx.Type.Normalize() == wanted {
			total = total.Add(tx.Amount)
		}
	}
	return total
}

// PercentageOf returns round(value / base × 100), or 0 when base is zero.
func PercentageOf(value, base money.Money) int {
	return int(value.PercentOf(base))
}

// Variance is actual − target. Positive means the actual exceeds the target.
func Variance(actual, target money.Money) money.Money {
	return actual.Sub(target)
}

// MonthlyTrend sums every month per type, ascending by month, keeping the last
// lastN months. lastN <= 0 means DefaultTrendMonths.
func MonthlyTrend(transactions []budget.Transaction, lastN int, now time.Time) []MonthTotals {
	if lastN <= 0 {
		lastN = DefaultTrendMonths
	}
	byMonth := map[string]MonthTotals{}
	for _, tx := range transactions {
		key := MonthKeyOf(tx, now)
		totals := byMonth[key]
		totals.MonthKey = key
		switch tx.Type.Normalize() {
		case budget.Savings:
			totals.Savings = totals.Savings.Add(tx.Amount)
		case budget.Expense:
			totals.Expenses = totals.Expenses.Add(tx.Amount)
		case budget.Buffer:
			totals.Buffer = totals.Buffer.Add(tx.Amount)
		}
		byMonth[key] = totals
	}

	trend := make([]MonthTotals, 0, len(byMonth))
	for _, totals := range byMonth {
		trend = append(trend, totals)
	}
	slices.SortFunc(trend, func(a, b MonthTotals) int {
		if a.MonthKey < b.MonthKey {
			return -1
		}
		if a.MonthKey > b.MonthKey {
			return 1
		}
		return 0
	})
	if len(trend) > lastN {
		trend = trend[len(trend)-lastN:]
	}
	return trend
}

// EfficiencyScore is 100 minus the total absolute deviation from target as a
// percentage of income, floored at 0. Zero income scores 100.
func EfficiencyScore(savingsVariance, expensesVariance, bufferVariance, totalIncome money.Money) float64 {
	if totalIncome.IsZero() {
		return 100
	}
	deviation := money.Sum(savingsVariance.Abs(), expensesVariance.Abs(), bufferVariance.Abs())
	score := 100 - deviation.Ratio(totalIncome)*100
	if math.IsNaN(score) {
		return 100
	}
	return math.Min(100, math.Max(0, score))
}
