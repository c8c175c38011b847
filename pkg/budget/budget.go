package budget

import (
	"encoding/json"
	"maps"
	"slices"

	"github.com/google/uuid"
	"github.com/ratiobudget/ratiobudget/pkg/money"
)

// StorageKey names the single persisted document holding the whole AppState.
const StorageKey = "finance_55_40_5_app_v1"

type IncomeSource struct {
	Id     string      `json:"id"`
	Name   string      `json:"name"`
	Amount money.Money `json:"amount"`
}

type SavingsCategory struct {
	Id     string      `json:"id"`
	Name   string      `json:"name"`
	Target money.Money `json:"target"`
	// Actual is rebuilt from the transaction list on every state change.
	Actual money.Money `json:"actual"`
}

type ExpenseCategory struct {
	Id    string      `json:"id"`
	Name  string      `json:"name"`
	Limit money.Money `json:"limit"`
	// Actual is rebuilt from the transaction list on every state change.
	Actual money.Money `json:"actual"`
}

type BufferCategory struct {
	Id     string      `json:"id"`
	Name   string      `json:"name"`
	Amount money.Money `json:"amount"`
	// Used is rebuilt from the transaction list on every state change.
	Used money.Money `json:"used"`
}

type Transaction struct {
	Id          string          `json:"id"`
	Date        string          `json:"date"`
	Description string          `json:"description"`
	Amount      money.Money     `json:"amount"`
	CategoryId  string          `json:"categoryId"`
	Type        TransactionType `json:"type"`
	// MonthKey is the "YYYY-MM" budgeting period, fixed at creation.
	MonthKey string `json:"monthKey"`
}

// Subscription is a recurring obligation. It is a reminder only and never
// creates transactions by itself.
type Subscription struct {
	Id         string      `json:"id"`
	Name       string      `json:"name"`
	Amount     money.Money `json:"amount"`
	DueDay     DayOfMonth  `json:"dueDay"`
	CategoryId string      `json:"categoryId"`
	Active     bool        `json:"active"`
}

type SavingsGoal struct {
	Id           string      `json:"id"`
	Name         string      `json:"name"`
	TargetAmount money.Money `json:"targetAmount"`
	SavedAmount  money.Money `json:"savedAmount"`
}

type MonthlySnapshot struct {
	Income         money.Money `json:"income"`
	SavingsActual  money.Money `json:"savingsActual"`
	ExpensesActual money.Money `json:"expensesActual"`
	BufferUsed     money.Money `json:"bufferUsed"`
}

// SnapshotOverride holds manually entered monthly figures. A nil field keeps
// the value derived from transactions.
type SnapshotOverride struct {
	Income         *money.Money `json:"income,omitempty"`
	SavingsActual  *money.Money `json:"savingsActual,omitempty"`
	ExpensesActual *money.Money `json:"expensesActual,omitempty"`
	BufferUsed     *money.Money `json:"bufferUsed,omitempty"`
}

// Merge copies every field set in other over o.
func (o SnapshotOverride) Merge(other SnapshotOverride) SnapshotOverride {
	if other.Income != nil {
		o.Income = other.Income
	}
	if other.SavingsActual != nil {
		o.SavingsActual = other.SavingsActual
	}
	if other.ExpensesActual != nil {
		o.ExpensesActual = other.ExpensesActual
	}
	if other.BufferUsed != nil {
		o.BufferUsed = other.BufferUsed
	}
	return o
}

func (o SnapshotOverride) IsEmpty() bool {
	return o.Income == nil && o.SavingsActual == nil && o.ExpensesActual == nil && o.BufferUsed == nil
}

// AppState is the aggregate root. Its JSON form is the persisted document and
// the backup file format.
type AppState struct {
	IncomeSources     []IncomeSource              `json:"incomeSources"`
	SavingsCategories []SavingsCategory           `json:"savingsCategories"`
	ExpenseCategories []ExpenseCategory           `json:"expenseCategories"`
	BufferCategories  []BufferCategory            `json:"bufferCategories"`
	Ratio             Ratio                       `json:"ratio"`
	MonthlyData       map[string]MonthlySnapshot  `json:"monthlyData"`
	MonthlyOverrides  map[string]SnapshotOverride `json:"monthlyOverrides"`
	Transactions      []Transaction               `json:"transactions"`
	Subscriptions     []Subscription              `json:"subscriptions"`
	SavingsGoals      []SavingsGoal               `json:"savingsGoals"`
	Insights          []json.RawMessage           `json:"insights"`
	CurrentMonthKey   string                      `json:"currentMonthKey"`
}

// DefaultState returns an empty state viewing the given month.
func DefaultState(monthKey string) AppState {
	state := AppState{
		Ratio:           DefaultRatio(),
		CurrentMonthKey: monthKey,
	}
	state.EnsureCollections()
	return state
}

// EnsureCollections replaces nil collections with empty ones so that the
// document never carries null where a list or map is expected.
func (s *AppState) EnsureCollections() {
	if s.IncomeSources == nil {
		s.IncomeSources = []IncomeSource{}
	}
	if s.SavingsCategories == nil {
		s.SavingsCategories = []SavingsCategory{}
	}
	if s.ExpenseCategories == nil {
		s.ExpenseCategories = []ExpenseCategory{}
	}
	if s.BufferCategories == nil {
		s.BufferCategories = []BufferCategory{}
	}
	if s.MonthlyData == nil {
		s.MonthlyData = map[string]MonthlySnapshot{}
	}
	if s.MonthlyOverrides == nil {
		s.MonthlyOverrides = map[string]SnapshotOverride{}
	}
	if s.Transactions == nil {
		s.Transactions = []Transaction{}
	}
	if s.Subscriptions == nil {
		s.Subscriptions = []Subscription{}
	}
	if s.SavingsGoals == nil {
		s.SavingsGoals = []SavingsGoal{}
	}
	if s.Insights == nil {
		s.Insights = []json.RawMessage{}
	}
}

// Clone returns a copy that shares no slices or maps with s.
func (s AppState) Clone() AppState {
	c := s
	c.IncomeSources = slices.Clone(s.IncomeSources)
	c.SavingsCategories = slices.Clone(s.SavingsCategories)
	c.ExpenseCategories = slices.Clone(s.ExpenseCategories)
	c.BufferCategories = slices.Clone(s.BufferCategories)
	c.MonthlyData = maps.Clone(s.MonthlyData)
	c.MonthlyOverrides = maps.Clone(s.MonthlyOverrides)
	c.Transactions = slices.Clone(s.Transactions)
	c.Subscriptions = slices.Clone(s.Subscriptions)
	c.SavingsGoals = slices.Clone(s.SavingsGoals)
	c.Insights = slices.Clone(s.Insights)
	c.EnsureCollections()
	return c
}

// CategoryRef is the id/name pair used to resolve a transaction's category.
type CategoryRef struct {
	Id   string
	Name string
}

// CategoryRefs lists the categories that hold transactions of type t.
func (s AppState) CategoryRefs(t TransactionType) []CategoryRef {
	var refs []CategoryRef
	switch t.Normalize() {
	case Savings:
		for _, c := range s.SavingsCategories {
			refs = append(refs, CategoryRef{c.Id, c.Name})
		}
	case Expense:
		for _, c := range s.ExpenseCategories {
			refs = append(refs, CategoryRef{c.Id, c.Name})
		}
	case Buffer:
		for _, c := range s.BufferCategories {
			refs = append(refs, CategoryRef{c.Id, c.Name})
		}
	}
	return refs
}

// AllCategoryRefs lists savings, expense, buffer categories and subscriptions,
// in that lookup order.
func (s AppState) AllCategoryRefs() []CategoryRef {
	refs := make([]CategoryRef, 0, len(s.SavingsCategories)+len(s.ExpenseCategories)+len(s.BufferCategories)+len(s.Subscriptions))
	refs = append(refs, s.CategoryRefs(Savings)...)
	refs = append(refs, s.CategoryRefs(Expense)...)
	refs = append(refs, s.CategoryRefs(Buffer)...)
	for _, sub := range s.Subscriptions {
		refs = append(refs, CategoryRef{sub.Id, sub.Name})
	}
	return refs
}

func NewId() string {
	return uuid.NewString()
}
