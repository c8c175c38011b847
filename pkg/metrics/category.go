package metrics

import (
	"slices"
	"strings"

	"github.com/ratiobudget/ratiobudget/pkg/budget"
	"github.com/ratiobudget/ratiobudget/pkg/money"
)

const Uncategorized = "Uncategorized"

// Unlinked names the category of a subscription not tied to any category.
const Unlinked = "Unlinked"

type CategoryAmount struct {
	Name   string      `json:"name"`
	Amount money.Money `json:"amount"`
}

// CategoryIndex maps a category id to its display name. The first definition of
// an id wins.
type CategoryIndex map[string]string

func NewCategoryIndex(refs []budget.CategoryRef) CategoryIndex {
	index := make(CategoryIndex, len(refs))
	for _, ref := range refs {
		if _, exists := index[ref.Id]; !exists {
			index[ref.Id] = ref.Name
		}
	}
	return index
}

func (i CategoryIndex) Name(categoryId string) string {
	if name, ok := i[categoryId]; ok && categoryId != "" {
		return name
	}
	return Uncategorized
}

// ResolveCategory looks the id up in savings, expense and buffer categories,
// then subscriptions.
func ResolveCategory(state budget.AppState, categoryId string) string {
	return NewCategoryIndex(state.AllCategoryRefs()).Name(categoryId)
}

// SubscriptionCategory resolves the category a subscription is linked to,
// looking in expense then savings categories.
func SubscriptionCategory(state budget.AppState, categoryId string) string {
	refs := append(state.CategoryRefs(budget.Expense), state.CategoryRefs(budget.Savings)...)
	for _, ref := range refs {
		if ref.Id == categoryId && categoryId != "" {
			return ref.Name
		}
	}
	return Unlinked
}

// GroupByCategory sums transactions of the given type per category name,
// largest amount first. Ties are ordered by name.
func GroupByCategory(transactions []budget.Transaction, categories []budget.CategoryRef, transactionType budget.TransactionType) []CategoryAmount {
	index := NewCategoryIndex(categories)
	wanted := transactionType.Normalize()

	totals := map[string]money.Money{}
	var order []string
	for _, tx := range transactions {
		if tx.Type.Normalize() != wanted {
			continue
		}
		name := index.Name(tx.CategoryId)
		if _, seen := totals[name]; !seen {
			order = append(order, name)
		}
		totals[name] = totals[name].Add(tx.Amount)
	}

	grouped := make([]CategoryAmount, 0, len(order))
	for _, name := range order {
		grouped = append(grouped, CategoryAmount{Name: name, Amount: totals[name]})
	}
	slices.SortStableFunc(grouped, func(a, b CategoryAmount) int {
		if c := b.Amount.Cmp(a.Amount); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
	return grouped
}
