package metrics

import (
	"time"

	"github.com/ratiobudget/ratiobudget/pkg/budget"
	"github.com/ratiobudget/ratiobudget/pkg/money"
)

func TotalIncome(sources []budget.IncomeSource) money.Money {
	total := money.Zero
	for _, source := range sources {
		total = total.Add(source.Amount)
	}
	return total
}

// ReconcileCategories rebuilds every category's actual/used counter as the
// all-time sum of transactions of the matching type referencing it.
func ReconcileCategories(state *budget.AppState) {
	sums := map[budget.TransactionType]map[string]money.Money{
		budget.Savings: {},
		budget.Expense: {},
		budget.Buffer:  {},
	}
	for _, tx := range state.Transactions {
		byCategory, ok := sums[tx.Type.Normalize()]
		if !ok || tx.CategoryId == "" {
			continue
		}
		byCategory[tx.CategoryId] = byCategory[tx.CategoryId].Add(tx.Amount)
	}

	for i := range state.SavingsCategories {
		state.SavingsCategories[i].Actual = sums[budget.Savings][state.SavingsCategories[i].Id]
	}
	for i := range state.ExpenseCategories {
		state.ExpenseCategories[i].Actual = sums[budget.Expense][state.ExpenseCategories[i].Id]
	}
	for i := range state.BufferCategories {
		state.BufferCategories[i].Used = sums[budget.Buffer][state.BufferCategories[i].Id]
	}
}

// BuildMonthlyData derives one snapshot per month that has transactions or a
// manual override. Override fields take precedence over derived sums; income
// falls back to the current total income.
func BuildMonthlyData(state budget.AppState, now time.Time) map[string]budget.MonthlySnapshot {
	totalIncome := TotalIncome(state.IncomeSources)
	monthly := map[string]budget.MonthlySnapshot{}

	for _, tx := range state.Transactions {
		key := MonthKeyOf(tx, now)
		snapshot, exists := monthly[key]
		if !exists {
			snapshot.Income = totalIncome
		}
		switch tx.Type.Normalize() {
		case budget.Savings:
			snapshot.SavingsActual = snapshot.SavingsActual.Add(tx.Amount)
		case budget.Expense:
			snapshot.ExpensesActual = snapshot.ExpensesActual.Add(tx.Amount)
		case budget.Buffer:
			snapshot.BufferUsed = snapshot.BufferUsed.Add(tx.Amount)
		}
		monthly[key] = snapshot
	}

	for key, override := range state.MonthlyOverrides {
		snapshot, exists := monthly[key]
		if !exists {
			snapshot.Income = totalIncome
		}
		if override.Income != nil {
			snapshot.Income = *override.Income
		}
		if override.SavingsActual != nil {
			snapshot.SavingsActual = *override.SavingsActual
		}
		if override.ExpensesActual != nil {
			snapshot.ExpensesActual = *override.ExpensesActual
		}
		if override.BufferUsed != nil {
			snapshot.BufferUsed = *override.BufferUsed
		}
		monthly[key] = snapshot
	}
	return monthly
}

// Reconcile refreshes every derived field of the state from its transactions.
func Reconcile(state *budget.AppState, now time.Time) {
	ReconcileCategories(state)
	state.MonthlyData = BuildMonthlyData(*state, now)
}
