package state

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ratiobudget/ratiobudget/internal/event_bus"
	"github.com/ratiobudget/ratiobudget/internal/utils"
	"github.com/ratiobudget/ratiobudget/pkg/budget"
	"github.com/ratiobudget/ratiobudget/pkg/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ctx = context.Background()

var clock = &utils.MockClock{FixedNow: time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC)}

type serviceFixture struct {
	service  Service
	store    *StoreStub
	bus      *event_bus.EventBus
	commands []string
}

func setupService(t *testing.T, initial budget.AppState) *serviceFixture {
	f := &serviceFixture{store: NewStoreStub(initial), bus: event_bus.NewEventBus()}
	unsubscribe := event_bus.SubscribeTyped(f.bus, event_bus.StateChangedType, func(e event_bus.EventT[event_bus.StateChanged]) error {
		f.commands = append(f.commands, e.Data.Command)
		return nil
	})
	t.Cleanup(unsubscribe)
	f.service = NewStateService(ctx, f.store, f.bus, clock)
	return f
}

func amount(v int64) money.Money {
	return money.FromInt(v)
}

func ptr[T any](v T) *T {
	return &v
}

func withRent(limit int64) budget.AppState {
	state := budget.DefaultState("2024-03")
	state.ExpenseCategories = []budget.ExpenseCategory{{Id: "rent", Name: "Rent", Limit: amount(limit)}}
	state.SavingsCategories = []budget.SavingsCategory{{Id: "emergency", Name: "Emergency Fund", Target: amount(10000)}}
	return state
}

func TestService_Totals(t *testing.T) {
	t.Run("should split a salary 55/40/5", func(t *testing.T) {
		// given
		f := setupService(t, budget.DefaultState("2024-03"))
		f.service.SetIncomeSources(ctx, []budget.IncomeSource{{Name: "Salary", Amount: amount(50000)}})

		// when
		totals := f.service.Totals()

		// then
		assert.Equal(t, "50000", totals.TotalIncome.String())
		assert.Equal(t, "27500", totals.SavingsTarget.String())
		assert.Equal(t, "20000", totals.ExpensesTarget.String())
		assert.Equal(t, "2500", totals.BufferTarget.String())
		assert.True(t, totals.RatioCheck.Balanced)
	})

	t.Run("should be zero without income", func(t *testing.T) {
		f := setupService(t, budget.DefaultState("2024-03"))

		totals := f.service.Totals()

		assert.True(t, totals.TotalIncome.IsZero())
		assert.True(t, totals.SavingsTarget.IsZero())
	})

	t.Run("should keep targets close to income for odd amounts", func(t *testing.T) {
		f := setupService(t, budget.DefaultState("2024-03"))
		f.service.SetIncomeSources(ctx, []budget.IncomeSource{
			{Name: "Salary", Amount: amount(33333)},
			{Name: "Side", Amount: money.Parse("1234.57")},
		})

		totals := f.service.Totals()

		sum := money.Sum(totals.SavingsTarget, totals.ExpensesTarget, totals.BufferTarget)
		assert.LessOrEqual(t, sum.Sub(totals.TotalIncome).Abs().Float64(), 3.0)
		assert.Equal(t, "34567.57", totals.TotalIncome.String())
	})

	t.Run("should compute targets from an unbalanced ratio as stored", func(t *testing.T) {
		f := setupService(t, budget.DefaultState("2024-03"))
		f.service.SetIncomeSources(ctx, []budget.IncomeSource{{Name: "Salary", Amount: amount(1000)}})

		f.service.SetRatio(ctx, budget.Ratio{Savings: 60, Expenses: 30, Buffer: 5})
		totals := f.service.Totals()

		assert.Equal(t, "600", totals.SavingsTarget.String())
		assert.Equal(t, "300", totals.ExpensesTarget.String())
		assert.Equal(t, "50", totals.BufferTarget.String())
		assert.False(t, totals.RatioCheck.Balanced)
		assert.Equal(t, "Total: 95% (Need: 5% more)", totals.RatioCheck.Message)
	})
}

func TestTotalsOf_TargetsCoverIncome(t *testing.T) {
	for _, income := range []string{"0", "1", "999", "12345.67", "33333", "50000.5"} {
		state := budget.DefaultState("2024-03")
		state.IncomeSources = []budget.IncomeSource{{Id: "a", Name: "Salary", Amount: money.Parse(income)}}

		totals := TotalsOf(state)

		allocated := money.Sum(totals.SavingsTarget, totals.ExpensesTarget, totals.BufferTarget)
		gap := totals.TotalIncome.Sub(allocated).Abs()
		assert.LessOrEqual(t, gap.Cmp(money.FromInt(3)), 0, "income %s allocated %s", income, allocated)
	}
}

func TestService_SetCollections(t *testing.T) {
	t.Run("should assign ids and clamp negative amounts", func(t *testing.T) {
		f := setupService(t, budget.DefaultState("2024-03"))

		sources := f.service.SetIncomeSources(ctx, []budget.IncomeSource{
			{Name: "Salary", Amount: amount(-5)},
			{Id: "kept", Name: "Bonus", Amount: amount(10)},
		})

		require.Len(t, sources, 2)
		assert.NotEmpty(t, sources[0].Id)
		assert.True(t, sources[0].Amount.IsZero())
		assert.Equal(t, "kept", sources[1].Id)
		assert.Equal(t, 1, f.store.Saves())
		assert.Equal(t, []string{"income_sources.set"}, f.commands)
	})

	t.Run("should clamp subscription due days", func(t *testing.T) {
		f := setupService(t, budget.DefaultState("2024-03"))

		subscriptions := f.service.SetSubscriptions(ctx, []budget.Subscription{
			{Name: "Gym", Amount: amount(50), DueDay: 45, Active: true},
			{Name: "News", Amount: amount(10), DueDay: 0},
		})

		assert.Equal(t, budget.DayOfMonth(31), subscriptions[0].DueDay)
		assert.Equal(t, budget.DayOfMonth(1), subscriptions[1].DueDay)
	})

	t.Run("should replace nil with an empty collection", func(t *testing.T) {
		f := setupService(t, budget.DefaultState("2024-03"))
		f.service.SetSavingsGoals(ctx, []budget.SavingsGoal{{Name: "Car", TargetAmount: amount(100)}})

		goals := f.service.SetSavingsGoals(ctx, nil)

		assert.NotNil(t, goals)
		assert.Empty(t, goals)
		assert.NotNil(t, f.store.LastSaved().SavingsGoals)
	})

	t.Run("should not share the returned slice with the state", func(t *testing.T) {
		f := setupService(t, budget.DefaultState("2024-03"))
		categories := f.service.SetExpenseCategories(ctx, []budget.ExpenseCategory{{Name: "Food", Limit: amount(300)}})

		categories[0].Name = "Changed"

		assert.Equal(t, "Food", f.service.Snapshot().ExpenseCategories[0].Name)
	})
}

func TestService_Ratio(t *testing.T) {
	f := setupService(t, budget.DefaultState("2024-03"))

	ratio := f.service.SetRatio(ctx, budget.Ratio{Savings: -10, Expenses: 70, Buffer: 5})
	assert.Equal(t, budget.Ratio{Savings: 0, Expenses: 70, Buffer: 5}, ratio)

	ratio = f.service.ResetRatioToDefault(ctx)
	assert.Equal(t, budget.DefaultRatio(), ratio)
	assert.Equal(t, budget.DefaultRatio(), f.store.LastSaved().Ratio)
	assert.Equal(t, 2, f.store.Saves())
}

func TestService_SetCurrentMonthKey(t *testing.T) {
	f := setupService(t, budget.DefaultState("2024-03"))

	f.service.SetCurrentMonthKey(ctx, "2023-12")

	assert.Equal(t, "2023-12", f.service.Snapshot().CurrentMonthKey)
	assert.Equal(t, "2023-12", f.store.LastSaved().CurrentMonthKey)
}

func TestService_AddTransaction(t *testing.T) {
	t.Run("should append exactly one transaction with a unique id", func(t *testing.T) {
		// given
		f := setupService(t, withRent(5000))
		first := f.service.AddTransaction(ctx, budget.Transaction{Amount: amount(400), CategoryId: "rent", Type: budget.Expense})

		// when
		second := f.service.AddTransaction(ctx, budget.Transaction{Amount: amount(600), CategoryId: "rent", Type: budget.Expense})

		// then
		snapshot := f.service.Snapshot()
		require.Len(t, snapshot.Transactions, 2)
		assert.NotEqual(t, first.Id, second.Id)
		assert.Equal(t, second, snapshot.Transactions[1])
		assert.Equal(t, 2, f.store.Saves())
	})

	t.Run("should default date and month to today", func(t *testing.T) {
		f := setupService(t, withRent(5000))

		tx := f.service.AddTransaction(ctx, budget.Transaction{Amount: amount(10), Type: "saving"})

		assert.Equal(t, "2024-03-15", tx.Date)
		assert.Equal(t, "2024-03", tx.MonthKey)
		assert.Equal(t, budget.Savings, tx.Type)
	})

	t.Run("should keep an explicit month", func(t *testing.T) {
		f := setupService(t, withRent(5000))

		tx := f.service.AddTransaction(ctx, budget.Transaction{Amount: amount(10), Type: budget.Expense, MonthKey: "2024-01", Date: "2024-01-31"})

		assert.Equal(t, "2024-01", tx.MonthKey)
		assert.Equal(t, "2024-01-31", tx.Date)
		assert.Equal(t, "10", f.service.Snapshot().MonthlyData["2024-01"].ExpensesActual.String())
	})

	t.Run("should update category actual and monthly data", func(t *testing.T) {
		f := setupService(t, withRent(5000))
		f.service.SetIncomeSources(ctx, []budget.IncomeSource{{Name: "Salary", Amount: amount(50000)}})

		f.service.AddTransaction(ctx, budget.Transaction{Amount: amount(1000), CategoryId: "rent", Type: budget.Expense})
		f.service.AddTransaction(ctx, budget.Transaction{Amount: amount(700), CategoryId: "emergency", Type: budget.Savings})

		snapshot := f.service.Snapshot()
		assert.Equal(t, "1000", snapshot.ExpenseCategories[0].Actual.String())
		assert.Equal(t, "700", snapshot.SavingsCategories[0].Actual.String())
		month := snapshot.MonthlyData["2024-03"]
		assert.Equal(t, "50000", month.Income.String())
		assert.Equal(t, "1000", month.ExpensesActual.String())
		assert.Equal(t, "700", month.SavingsActual.String())
		assert.True(t, month.BufferUsed.IsZero())
	})

	t.Run("should keep state when persisting fails", func(t *testing.T) {
		// given
		f := setupService(t, withRent(5000))
		f.store.Fail = true
		var persisted []bool
		event_bus.SubscribeTyped(f.bus, event_bus.StateChangedType, func(e event_bus.EventT[event_bus.StateChanged]) error {
			persisted = append(persisted, e.Data.Persisted)
			return nil
		})

		// when
		tx := f.service.AddTransaction(ctx, budget.Transaction{Amount: amount(25), CategoryId: "rent", Type: budget.Expense})

		// then
		assert.Equal(t, 0, f.store.Saves())
		assert.Equal(t, []bool{false}, persisted)
		snapshot := f.service.Snapshot()
		require.Len(t, snapshot.Transactions, 1)
		assert.Equal(t, tx.Id, snapshot.Transactions[0].Id)
		assert.Equal(t, "25", snapshot.ExpenseCategories[0].Actual.String())

		// and the next change persists everything
		f.store.Fail = false
		f.service.SetCurrentMonthKey(ctx, "2024-04")
		assert.Len(t, f.store.LastSaved().Transactions, 1)
	})
}

func TestService_UpdateTransaction(t *testing.T) {
	t.Run("should change editable fields and reconcile", func(t *testing.T) {
		// given
		f := setupService(t, withRent(5000))
		tx := f.service.AddTransaction(ctx, budget.Transaction{Amount: amount(1000), CategoryId: "rent", Type: budget.Expense, Description: "March rent"})

		// when
		updated, found := f.service.UpdateTransaction(ctx, tx.Id, TransactionUpdate{
			Amount:      ptr(amount(1500)),
			Description: ptr("March rent, corrected"),
		})

		// then
		require.True(t, found)
		assert.Equal(t, tx.Id, updated.Id)
		assert.Equal(t, tx.Type, updated.Type)
		assert.Equal(t, tx.MonthKey, updated.MonthKey)
		assert.Equal(t, tx.Date, updated.Date)
		assert.Equal(t, "March rent, corrected", updated.Description)
		snapshot := f.service.Snapshot()
		assert.Equal(t, "1500", snapshot.ExpenseCategories[0].Actual.String())
		assert.Equal(t, "1500", snapshot.MonthlyData["2024-03"].ExpensesActual.String())
	})

	t.Run("should move the amount to the new category", func(t *testing.T) {
		f := setupService(t, withRent(5000))
		f.service.SetExpenseCategories(ctx, []budget.ExpenseCategory{
			{Id: "rent", Name: "Rent", Limit: amount(5000)},
			{Id: "food", Name: "Food", Limit: amount(800)},
		})
		tx := f.service.AddTransaction(ctx, budget.Transaction{Amount: amount(90), CategoryId: "rent", Type: budget.Expense})

		_, found := f.service.UpdateTransaction(ctx, tx.Id, TransactionUpdate{CategoryId: ptr("food")})

		require.True(t, found)
		categories := f.service.Snapshot().ExpenseCategories
		assert.True(t, categories[0].Actual.IsZero())
		assert.Equal(t, "90", categories[1].Actual.String())
	})

	t.Run("should not persist an unknown id", func(t *testing.T) {
		f := setupService(t, withRent(5000))
		f.service.AddTransaction(ctx, budget.Transaction{Amount: amount(1), Type: budget.Expense})
		saves := f.store.Saves()

		_, found := f.service.UpdateTransaction(ctx, "missing", TransactionUpdate{Amount: ptr(amount(5))})

		assert.False(t, found)
		assert.Equal(t, saves, f.store.Saves())
		assert.Equal(t, []string{"transaction.added"}, f.commands)
	})
}

func TestService_DeleteTransaction(t *testing.T) {
	t.Run("should remove the transaction and reconcile", func(t *testing.T) {
		// given
		f := setupService(t, withRent(5000))
		kept := f.service.AddTransaction(ctx, budget.Transaction{Amount: amount(200), CategoryId: "rent", Type: budget.Expense})
		removed := f.service.AddTransaction(ctx, budget.Transaction{Amount: amount(800), CategoryId: "rent", Type: budget.Expense})

		// when
		deleted := f.service.DeleteTransaction(ctx, removed.Id)

		// then
		assert.True(t, deleted)
		snapshot := f.service.Snapshot()
		require.Len(t, snapshot.Transactions, 1)
		assert.Equal(t, kept.Id, snapshot.Transactions[0].Id)
		assert.Equal(t, "200", snapshot.ExpenseCategories[0].Actual.String())
		assert.Equal(t, "200", snapshot.MonthlyData["2024-03"].ExpensesActual.String())
	})

	t.Run("should drop a month left without transactions", func(t *testing.T) {
		f := setupService(t, withRent(5000))
		tx := f.service.AddTransaction(ctx, budget.Transaction{Amount: amount(200), CategoryId: "rent", Type: budget.Expense, MonthKey: "2024-02"})

		f.service.DeleteTransaction(ctx, tx.Id)

		assert.NotContains(t, f.service.Snapshot().MonthlyData, "2024-02")
		assert.True(t, f.service.Snapshot().ExpenseCategories[0].Actual.IsZero())
	})

	t.Run("should not persist an unknown id", func(t *testing.T) {
		f := setupService(t, withRent(5000))

		deleted := f.service.DeleteTransaction(ctx, "missing")

		assert.False(t, deleted)
		assert.Equal(t, 0, f.store.Saves())
		assert.Empty(t, f.commands)
	})
}

func TestService_Transactions(t *testing.T) {
	initial := withRent(5000)
	initial.Transactions = []budget.Transaction{
		{Id: "a", Amount: amount(1), Type: budget.Expense, MonthKey: "2024-02"},
		{Id: "b", Amount: amount(2), Type: budget.Expense, MonthKey: "2024-03"},
		{Id: "legacy", Amount: amount(3), Type: budget.Expense},
	}
	f := setupService(t, initial)

	assert.Len(t, f.service.Transactions(""), 3)

	march := f.service.Transactions("2024-03")
	require.Len(t, march, 2)
	assert.Equal(t, "b", march[0].Id)
	assert.Equal(t, "legacy", march[1].Id)

	assert.Empty(t, f.service.Transactions("2023-01"))
}

func TestService_UpdateMonthlySnapshot(t *testing.T) {
	t.Run("should let overrides win over transactions", func(t *testing.T) {
		// given
		f := setupService(t, withRent(5000))
		f.service.SetIncomeSources(ctx, []budget.IncomeSource{{Name: "Salary", Amount: amount(3000)}})
		f.service.AddTransaction(ctx, budget.Transaction{Amount: amount(500), CategoryId: "emergency", Type: budget.Savings})
		f.service.AddTransaction(ctx, budget.Transaction{Amount: amount(250), CategoryId: "rent", Type: budget.Expense})

		// when
		snapshot := f.service.UpdateMonthlySnapshot(ctx, "2024-03", budget.SnapshotOverride{SavingsActual: ptr(amount(800))})

		// then
		assert.Equal(t, "800", snapshot.SavingsActual.String())
		assert.Equal(t, "250", snapshot.ExpensesActual.String())
		assert.Equal(t, "3000", snapshot.Income.String())

		// and the override survives later transactions
		f.service.AddTransaction(ctx, budget.Transaction{Amount: amount(100), CategoryId: "emergency", Type: budget.Savings})
		assert.Equal(t, "800", f.service.Snapshot().MonthlyData["2024-03"].SavingsActual.String())
		assert.Equal(t, "600", f.service.Snapshot().SavingsCategories[0].Actual.String())
	})

	t.Run("should merge fields across updates", func(t *testing.T) {
		f := setupService(t, withRent(5000))

		f.service.UpdateMonthlySnapshot(ctx, "2024-01", budget.SnapshotOverride{Income: ptr(amount(4200))})
		snapshot := f.service.UpdateMonthlySnapshot(ctx, "2024-01", budget.SnapshotOverride{BufferUsed: ptr(amount(30))})

		assert.Equal(t, "4200", snapshot.Income.String())
		assert.Equal(t, "30", snapshot.BufferUsed.String())
		override := f.store.LastSaved().MonthlyOverrides["2024-01"]
		require.NotNil(t, override.Income)
		require.NotNil(t, override.BufferUsed)
		assert.Nil(t, override.SavingsActual)
	})
}

func TestService_ClearAll(t *testing.T) {
	// given
	f := setupService(t, withRent(5000))
	f.service.SetRatio(ctx, budget.Ratio{Savings: 50, Expenses: 50})
	f.service.AddTransaction(ctx, budget.Transaction{Amount: amount(1), Type: budget.Expense})

	// when
	state := f.service.ClearAll(ctx)

	// then
	assert.Equal(t, budget.DefaultState("2024-03"), state)
	assert.Equal(t, budget.DefaultState("2024-03"), f.service.Snapshot())
	assert.Equal(t, 1, f.store.Cleared())
	assert.Equal(t, "state.cleared", f.commands[len(f.commands)-1])
}

func TestService_Replace(t *testing.T) {
	// given
	f := setupService(t, withRent(5000))
	replacement := budget.AppState{
		IncomeSources:     []budget.IncomeSource{{Name: "Imported", Amount: amount(1200)}},
		ExpenseCategories: []budget.ExpenseCategory{{Id: "food", Name: "Food", Limit: amount(400)}},
		Transactions: []budget.Transaction{
			{Amount: amount(40), CategoryId: "food", Type: "EXPENSE", MonthKey: "2023-11"},
		},
		Ratio: budget.Ratio{Savings: 50, Expenses: 45, Buffer: -5},
	}

	// when
	state := f.service.Replace(ctx, replacement)

	// then
	assert.Equal(t, "2024-03", state.CurrentMonthKey)
	assert.NotEmpty(t, state.IncomeSources[0].Id)
	assert.NotEmpty(t, state.Transactions[0].Id)
	assert.Equal(t, budget.Expense, state.Transactions[0].Type)
	assert.Equal(t, budget.Percent(0), state.Ratio.Buffer)
	assert.Equal(t, "40", state.ExpenseCategories[0].Actual.String())
	assert.Equal(t, "40", state.MonthlyData["2023-11"].ExpensesActual.String())
	assert.NotNil(t, state.Subscriptions)
	assert.Equal(t, state, f.store.LastSaved())
}

func TestNewStateService_ReconcilesLoadedState(t *testing.T) {
	// given
	initial := withRent(5000)
	initial.ExpenseCategories[0].Actual = amount(999)
	initial.Transactions = []budget.Transaction{{Id: "t1", Amount: amount(120), CategoryId: "rent", Type: budget.Expense, MonthKey: "2024-03"}}

	// when
	f := setupService(t, initial)

	// then
	snapshot := f.service.Snapshot()
	assert.Equal(t, "120", snapshot.ExpenseCategories[0].Actual.String())
	assert.Equal(t, "120", snapshot.MonthlyData["2024-03"].ExpensesActual.String())
	assert.Equal(t, 0, f.store.Saves())
}

func TestService_PublishesInMutationOrder(t *testing.T) {
	// given
	f := setupService(t, withRent(5000))
	var seen []int
	unsubscribe := event_bus.SubscribeTyped(f.bus, event_bus.StateChangedType, func(e event_bus.EventT[event_bus.StateChanged]) error {
		seen = append(seen, len(e.Data.State.Transactions))
		return nil
	})
	defer unsubscribe()

	// when
	var wg sync.WaitGroup
	for range 64 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.service.AddTransaction(ctx, budget.Transaction{Amount: amount(10), CategoryId: "rent", Type: budget.Expense})
		}()
	}
	wg.Wait()

	// then
	require.Len(t, seen, 64)
	for i, count := range seen {
		assert.Equal(t, i+1, count, "event %d", i)
	}
}

func TestNewStateService_NormalizesLoadedState(t *testing.T) {
	// given
	initial := withRent(5000)
	initial.Transactions = []budget.Transaction{{Amount: amount(120), CategoryId: "rent", Type: "EXPENSE", MonthKey: "2024-03"}}
	initial.CurrentMonthKey = ""

	// when
	f := setupService(t, initial)

	// then
	snapshot := f.service.Snapshot()
	require.Len(t, snapshot.Transactions, 1)
	id := snapshot.Transactions[0].Id
	assert.NotEmpty(t, id)
	assert.Equal(t, budget.Expense, snapshot.Transactions[0].Type)
	assert.Equal(t, "2024-03", snapshot.CurrentMonthKey)

	updated, found := f.service.UpdateTransaction(ctx, id, TransactionUpdate{Amount: ptr(amount(300))})
	assert.True(t, found)
	assert.Equal(t, "300", updated.Amount.String())
	assert.True(t, f.service.DeleteTransaction(ctx, id))
}
