package state

import (
	"time"

	"github.com/ratiobudget/ratiobudget/pkg/budget"
	"github.com/ratiobudget/ratiobudget/pkg/metrics"
)

func ensureId(id string) string {
	if id == "" {
		return budget.NewId()
	}
	return id
}

func normalizeIncomeSources(sources []budget.IncomeSource) []budget.IncomeSource {
	normalized := make([]budget.IncomeSource, 0, len(sources))
	for _, source := range sources {
		source.Id = ensureId(source.Id)
		source.Amount = source.Amount.NonNegative()
		normalized = append(normalized, source)
	}
	return normalized
}

func normalizeSavingsCategories(categories []budget.SavingsCategory) []budget.SavingsCategory {
	normalized := make([]budget.SavingsCategory, 0, len(categories))
	for _, category := range categories {
		category.Id = ensureId(category.Id)
		category.Target = category.Target.NonNegative()
		normalized = append(normalized, category)
	}
	return normalized
}

func normalizeExpenseCategories(categories []budget.ExpenseCategory) []budget.ExpenseCategory {
	normalized := make([]budget.ExpenseCategory, 0, len(categories))
	for _, category := range categories {
		category.Id = ensureId(category.Id)
		category.Limit = category.Limit.NonNegative()
		normalized = append(normalized, category)
	}
	return normalized
}

func normalizeBufferCategories(categories []budget.BufferCategory) []budget.BufferCategory {
	normalized := make([]budget.BufferCategory, 0, len(categories))
	for _, category := range categories {
		category.Id = ensureId(category.Id)
		category.Amount = category.Amount.NonNegative()
		normalized = append(normalized, category)
	}
	return normalized
}

func normalizeSubscriptions(subscriptions []budget.Subscription) []budget.Subscription {
	normalized := make([]budget.Subscription, 0, len(subscriptions))
	for _, subscription := range subscriptions {
		subscription.Id = ensureId(subscription.Id)
		subscription.Amount = subscription.Amount.NonNegative()
		subscription.DueDay = budget.ClampDay(int(subscription.DueDay))
		normalized = append(normalized, subscription)
	}
	return normalized
}

func normalizeSavingsGoals(goals []budget.SavingsGoal) []budget.SavingsGoal {
	normalized := make([]budget.SavingsGoal, 0, len(goals))
	for _, goal := range goals {
		goal.Id = ensureId(goal.Id)
		goal.TargetAmount = goal.TargetAmount.NonNegative()
		goal.SavedAmount = goal.SavedAmount.NonNegative()
		normalized = append(normalized, goal)
	}
	return normalized
}

func normalizeTransactions(transactions []budget.Transaction) []budget.Transaction {
	normalized := make([]budget.Transaction, 0, len(transactions))
	for _, tx := range transactions {
		tx.Id = ensureId(tx.Id)
		tx.Type = tx.Type.Normalize()
		normalized = append(normalized, tx)
	}
	return normalized
}

// normalizeState gives every collection item an id and clamps the ratio. It
// runs on loaded and imported states alike.
func normalizeState(state budget.AppState, now time.Time) budget.AppState {
	state.IncomeSources = normalizeIncomeSources(state.IncomeSources)
	state.SavingsCategories = normalizeSavingsCategories(state.SavingsCategories)
	state.ExpenseCategories = normalizeExpenseCategories(state.ExpenseCategories)
	state.BufferCategories = normalizeBufferCategories(state.BufferCategories)
	state.Subscriptions = normalizeSubscriptions(state.Subscriptions)
	state.SavingsGoals = normalizeSavingsGoals(state.SavingsGoals)
	state.Transactions = normalizeTransactions(state.Transactions)
	state.Ratio = state.Ratio.NonNegative()
	if state.CurrentMonthKey == "" {
		state.CurrentMonthKey = metrics.CurrentMonthKey(now)
	}
	state.EnsureCollections()
	return state
}
