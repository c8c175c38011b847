package state

import (
	"context"
	"errors"
	"sync"

	"github.com/ratiobudget/ratiobudget/internal/event_bus"
	"github.com/ratiobudget/ratiobudget/internal/utils"
	"github.com/ratiobudget/ratiobudget/pkg/budget"
	"github.com/ratiobudget/ratiobudget/pkg/metrics"
	"github.com/ratiobudget/ratiobudget/pkg/money"
	log "github.com/sirupsen/logrus"
)

var ErrTransactionNotFound = errors.New("transaction not found")

const DateLayout = "2006-01-02"

// Store is the persistence the service depends on; *store.Store satisfies it.
type Store interface {
	Load(ctx context.Context) budget.AppState
	Save(ctx context.Context, state budget.AppState) bool
	Clear(ctx context.Context) bool
}

// TransactionUpdate carries the editable fields of a transaction. Nil fields
// are left unchanged.
type TransactionUpdate struct {
	Date        *string
	Description *string
	Amount      *money.Money
	CategoryId  *string
}

type Service interface {
	Snapshot() budget.AppState
	Totals() Totals
	Transactions(monthKey string) []budget.Transaction

	SetIncomeSources(ctx context.Context, sources []budget.IncomeSource) []budget.IncomeSource
	SetSavingsCategories(ctx context.Context, categories []budget.SavingsCategory) []budget.SavingsCategory
	SetExpenseCategories(ctx context.Context, categories []budget.ExpenseCategory) []budget.ExpenseCategory
	SetBufferCategories(ctx context.Context, categories []budget.BufferCategory) []budget.BufferCategory
	SetSubscriptions(ctx context.Context, subscriptions []budget.Subscription) []budget.Subscription
	SetSavingsGoals(ctx context.Context, goals []budget.SavingsGoal) []budget.SavingsGoal
	SetRatio(ctx context.Context, ratio budget.Ratio) budget.Ratio
	ResetRatioToDefault(ctx context.Context) budget.Ratio
	SetCurrentMonthKey(ctx context.Context, monthKey string) string

	AddTransaction(ctx context.Context, tx budget.Transaction) budget.Transaction
	UpdateTransaction(ctx context.Context, id string, update TransactionUpdate) (budget.Transaction, bool)
	DeleteTransaction(ctx context.Context, id string) bool
	UpdateMonthlySnapshot(ctx context.Context, monthKey string, override budget.SnapshotOverride) budget.MonthlySnapshot

	ClearAll(ctx context.Context) budget.AppState
	Replace(ctx context.Context, state budget.AppState) budget.AppState
}

// ServiceImpl owns the single in-memory AppState. Every command runs
// mutate, reconcile and persist under one lock, then publishes a
// state.changed event after the lock is released. Events are published in
// the order the mutations happened.
type ServiceImpl struct {
	mu sync.Mutex
	// publishMu is taken before mu is released and held through Publish.
	// Subscribers must not run commands.
	publishMu sync.Mutex

	state    budget.AppState
	store    Store
	eventBus *event_bus.EventBus
	clock    utils.Clock
}

func NewStateService(ctx context.Context, store Store, eventBus *event_bus.EventBus, clock utils.Clock) Service {
	state := normalizeState(store.Load(ctx), clock.Now())
	metrics.Reconcile(&state, clock.Now())
	return &ServiceImpl{state: state, store: store, eventBus: eventBus, clock: clock}
}

// commit applies mutate to the state and returns a copy of the result. When
// mutate reports no change nothing is persisted or published.
func (s *ServiceImpl) commit(ctx context.Context, command string, mutate func(state *budget.AppState) bool) budget.AppState {
	s.mu.Lock()
	if !mutate(&s.state) {
		snapshot := s.state.Clone()
		s.mu.Unlock()
		return snapshot
	}
	s.state.EnsureCollections()
	metrics.Reconcile(&s.state, s.clock.Now())
	persisted := s.store.Save(ctx, s.state)
	snapshot := s.state.Clone()
	s.publishMu.Lock()
	s.mu.Unlock()

	s.publish(ctx, command, persisted, snapshot.Clone())
	s.publishMu.Unlock()
	return snapshot
}

func (s *ServiceImpl) publish(ctx context.Context, command string, persisted bool, snapshot budget.AppState) {
	if s.eventBus == nil {
		return
	}
	err := s.eventBus.Publish(event_bus.NewEvent(
		context.WithoutCancel(ctx),
		event_bus.StateChangedType,
		event_bus.StateChanged{Command: command, Persisted: persisted, State: snapshot},
	))
	if err != nil {
		log.Errorf("failed to publish state change %s: %v", command, err)
	}
}

func (s *ServiceImpl) Snapshot() budget.AppState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

func (s *ServiceImpl) Totals() Totals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return TotalsOf(s.state)
}

// Transactions lists the transactions of one month, or all of them when
// monthKey is empty.
func (s *ServiceImpl) Transactions(monthKey string) []budget.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	if monthKey == "" {
		return append(make([]budget.Transaction, 0, len(s.state.Transactions)), s.state.Transactions...)
	}
	return metrics.FilterByMonth(s.state.Transactions, monthKey, s.clock.Now())
}

func (s *ServiceImpl) SetIncomeSources(ctx context.Context, sources []budget.IncomeSource) []budget.IncomeSource {
	normalized := normalizeIncomeSources(sources)
	return s.commit(ctx, "income_sources.set", func(state *budget.AppState) bool {
		state.IncomeSources = normalized
		return true
	}).IncomeSources
}

func (s *ServiceImpl) SetSavingsCategories(ctx context.Context, categories []budget.SavingsCategory) []budget.SavingsCategory {
	normalized := normalizeSavingsCategories(categories)
	return s.commit(ctx, "savings_categories.set", func(state *budget.AppState) bool {
		state.SavingsCategories = normalized
		return true
	}).SavingsCategories
}

func (s *ServiceImpl) SetExpenseCategories(ctx context.Context, categories []budget.ExpenseCategory) []budget.ExpenseCategory {
	normalized := normalizeExpenseCategories(categories)
	return s.commit(ctx, "expense_categories.set", func(state *budget.AppState) bool {
		state.ExpenseCategories = normalized
		return true
	}).ExpenseCategories
}

func (s *ServiceImpl) SetBufferCategories(ctx context.Context, categories []budget.BufferCategory) []budget.BufferCategory {
	normalized := normalizeBufferCategories(categories)
	return s.commit(ctx, "buffer_categories.set", func(state *budget.AppState) bool {
		state.BufferCategories = normalized
		return true
	}).BufferCategories
}

func (s *ServiceImpl) SetSubscriptions(ctx context.Context, subscriptions []budget.Subscription) []budget.Subscription {
	normalized := normalizeSubscriptions(subscriptions)
	return s.commit(ctx, "subscriptions.set", func(state *budget.AppState) bool {
		state.Subscriptions = normalized
		return true
	}).Subscriptions
}

func (s *ServiceImpl) SetSavingsGoals(ctx context.Context, goals []budget.SavingsGoal) []budget.SavingsGoal {
	normalized := normalizeSavingsGoals(goals)
	return s.commit(ctx, "savings_goals.set", func(state *budget.AppState) bool {
		state.SavingsGoals = normalized
		return true
	}).SavingsGoals
}

// SetRatio stores the ratio as given apart from clamping negatives. A sum
// other than 100 is reported by RatioCheck, never rejected.
func (s *ServiceImpl) SetRatio(ctx context.Context, ratio budget.Ratio) budget.Ratio {
	ratio = ratio.NonNegative()
	s.commit(ctx, "ratio.set", func(state *budget.AppState) bool {
		state.Ratio = ratio
		return true
	})
	return ratio
}

func (s *ServiceImpl) ResetRatioToDefault(ctx context.Context) budget.Ratio {
	return s.SetRatio(ctx, budget.DefaultRatio())
}

func (s *ServiceImpl) SetCurrentMonthKey(ctx context.Context, monthKey string) string {
	s.commit(ctx, "month.set", func(state *budget.AppState) bool {
		state.CurrentMonthKey = monthKey
		return true
	})
	return monthKey
}

// AddTransaction appends tx under a fresh id. Date defaults to today and
// monthKey to the current calendar month.
func (s *ServiceImpl) AddTransaction(ctx context.Context, tx budget.Transaction) budget.Transaction {
	now := s.clock.Now()
	tx.Id = budget.NewId()
	tx.Type = tx.Type.Normalize()
	if tx.Date == "" {
		tx.Date = now.Format(DateLayout)
	}
	if tx.MonthKey == "" {
		tx.MonthKey = metrics.CurrentMonthKey(now)
	}
	s.commit(ctx, "transaction.added", func(state *budget.AppState) bool {
		state.Transactions = append(state.Transactions, tx)
		return true
	})
	return tx
}

// UpdateTransaction edits date, description, amount and category. Id, type and
// monthKey never change.
func (s *ServiceImpl) UpdateTransaction(ctx context.Context, id string, update TransactionUpdate) (budget.Transaction, bool) {
	var updated budget.Transaction
	found := false
	s.commit(ctx, "transaction.updated", func(state *budget.AppState) bool {
		for i, tx := range state.Transactions {
			if tx.Id != id {
				continue
			}
			if update.Date != nil {
				tx.Date = *update.Date
			}
			if update.Description != nil {
				tx.Description = *update.Description
			}
			if update.Amount != nil {
				tx.Amount = *update.Amount
			}
			if update.CategoryId != nil {
				tx.CategoryId = *update.CategoryId
			}
			state.Transactions[i] = tx
			updated = tx
			found = true
			return true
		}
		return false
	})
	return updated, found
}

func (s *ServiceImpl) DeleteTransaction(ctx context.Context, id string) bool {
	deleted := false
	s.commit(ctx, "transaction.deleted", func(state *budget.AppState) bool {
		kept := make([]budget.Transaction, 0, len(state.Transactions))
		for _, tx := range state.Transactions {
			if tx.Id == id {
				deleted = true
				continue
			}
			kept = append(kept, tx)
		}
		state.Transactions = kept
		return deleted
	})
	return deleted
}

// UpdateMonthlySnapshot merges the given fields into the manual override of
// monthKey. Overrides win over figures derived from transactions.
func (s *ServiceImpl) UpdateMonthlySnapshot(ctx context.Context, monthKey string, override budget.SnapshotOverride) budget.MonthlySnapshot {
	return s.commit(ctx, "monthly_snapshot.updated", func(state *budget.AppState) bool {
		state.EnsureCollections()
		state.MonthlyOverrides[monthKey] = state.MonthlyOverrides[monthKey].Merge(override)
		return true
	}).MonthlyData[monthKey]
}

// ClearAll resets to the default state and removes the stored document.
func (s *ServiceImpl) ClearAll(ctx context.Context) budget.AppState {
	s.mu.Lock()
	s.state = budget.DefaultState(metrics.CurrentMonthKey(s.clock.Now()))
	cleared := s.store.Clear(ctx)
	snapshot := s.state.Clone()
	s.mu.Unlock()

	s.publish(ctx, "state.cleared", cleared, snapshot)
	return snapshot
}

// Replace swaps the whole state, as when a confirmed backup is imported.
func (s *ServiceImpl) Replace(ctx context.Context, replacement budget.AppState) budget.AppState {
	replacement = normalizeState(replacement.Clone(), s.clock.Now())

	return s.commit(ctx, "state.replaced", func(state *budget.AppState) bool {
		*state = replacement
		return true
	})
}
