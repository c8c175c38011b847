package state

import (
	"github.com/ratiobudget/ratiobudget/pkg/budget"
	"github.com/ratiobudget/ratiobudget/pkg/metrics"
	"github.com/ratiobudget/ratiobudget/pkg/money"
)

// Totals are derived on every read and never stored.
type Totals struct {
	TotalIncome    money.Money              `json:"totalIncome"`
	SavingsTarget  money.Money              `json:"savingsTarget"`
	ExpensesTarget money.Money              `json:"expensesTarget"`
	BufferTarget   money.Money              `json:"bufferTarget"`
	RatioCheck     metrics.RatioCheckResult `json:"ratioCheck"`
}

// TotalsOf computes each target as round(totalIncome × share / 100) using the
// ratio as stored, balanced or not.
func TotalsOf(state budget.AppState) Totals {
	totalIncome := metrics.TotalIncome(state.IncomeSources)
	return Totals{
		TotalIncome:    totalIncome,
		SavingsTarget:  totalIncome.MulPercent(float64(state.Ratio.Savings)).Round(),
		ExpensesTarget: totalIncome.MulPercent(float64(state.Ratio.Expenses)).Round(),
		BufferTarget:   totalIncome.MulPercent(float64(state.Ratio.Buffer)).Round(),
		RatioCheck:     metrics.RatioCheck(state.Ratio),
	}
}

// Target returns the target of the given transaction type.
func (t Totals) Target(transactionType budget.TransactionType) money.Money {
	switch transactionType.Normalize() {
	case budget.Savings:
		return t.SavingsTarget
	case budget.Expense:
		return t.ExpensesTarget
	case budget.Buffer:
		return t.BufferTarget
	}
	return money.Zero
}
