package backup

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ratiobudget/ratiobudget/internal/event_bus"
	"github.com/ratiobudget/ratiobudget/internal/utils"
	"github.com/ratiobudget/ratiobudget/pkg/budget"
	"github.com/ratiobudget/ratiobudget/pkg/money"
	"github.com/ratiobudget/ratiobudget/pkg/state"
	"github.com/ratiobudget/ratiobudget/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ctx = context.Background()

type fixture struct {
	clock   *utils.MockClock
	repo    *store.MemoryRepository
	store   *store.Store
	bus     *event_bus.EventBus
	state   state.Service
	service *ServiceImpl
}

func setup(t *testing.T) *fixture {
	f := &fixture{
		clock: &utils.MockClock{FixedNow: time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC)},
		repo:  store.NewMemoryRepository(),
		bus:   event_bus.NewEventBus(),
	}
	f.store = store.NewStore(f.repo, budget.StorageKey, f.clock)
	f.state = state.NewStateService(ctx, f.store, f.bus, f.clock)
	f.service = NewBackupService(f.state, f.clock, time.Minute)

	f.state.SetIncomeSources(ctx, []budget.IncomeSource{{Id: "salary", Name: "Salary", Amount: money.FromInt(50000)}})
	f.state.AddTransaction(ctx, budget.Transaction{Amount: money.FromInt(1000), Type: budget.Expense, Description: "Rent"})
	return f
}

const importedDocument = `{
	"incomeSources": [{"id": "a", "name": "Freelance", "amount": 1200}],
	"transactions": [
		{"id": "t1", "amount": 40, "type": "expense", "monthKey": "2023-11"},
		{"id": "t2", "amount": 60, "type": "saving", "monthKey": "2023-12"}
	],
	"currentMonthKey": "2023-12"
}`

func assertSameDocument(t *testing.T, expected, actual budget.AppState) {
	t.Helper()
	expectedJSON, err := store.Encode(expected)
	require.NoError(t, err)
	actualJSON, err := store.Encode(actual)
	require.NoError(t, err)
	assert.JSONEq(t, string(expectedJSON), string(actualJSON))
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "55-40-5-backup-2024-03-05.json", Filename(time.Date(2024, time.March, 5, 23, 0, 0, 0, time.UTC)))
}

func TestService_Export(t *testing.T) {
	// given
	f := setup(t)

	// when
	data, filename, err := f.service.Export()

	// then
	require.NoError(t, err)
	assert.Equal(t, "55-40-5-backup-2024-03-15.json", filename)
	assert.Contains(t, string(data), "\n  \"incomeSources\": [\n    {\n")

	decoded, err := store.Decode(data, "2024-03")
	require.NoError(t, err)
	assertSameDocument(t, f.state.Snapshot(), decoded)
}

func TestService_Stage(t *testing.T) {
	t.Run("should preview a document without touching state", func(t *testing.T) {
		// given
		f := setup(t)
		before, err := f.store.Raw(ctx)
		require.NoError(t, err)

		// when
		preview, err := f.service.Stage([]byte(importedDocument))

		// then
		require.NoError(t, err)
		assert.NotEmpty(t, preview.Token)
		assert.Equal(t, "2023-12", preview.CurrentMonthKey)
		assert.Equal(t, []string{"2023-11", "2023-12"}, preview.Months)
		assert.Equal(t, Counts{IncomeSources: 1, Transactions: 2}, preview.Counts)
		assert.Equal(t, f.clock.FixedNow.Add(time.Minute), preview.ExpiresAt)

		after, err := f.store.Raw(ctx)
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})

	t.Run("should reject malformed documents", func(t *testing.T) {
		f := setup(t)

		for _, document := range []string{"", "not json", "[1,2]", "42", `{"incomeSources": [`} {
			_, err := f.service.Stage([]byte(document))
			assert.ErrorIs(t, err, ErrInvalidBackup, document)
		}
	})
}

func TestService_Cancel(t *testing.T) {
	// given
	f := setup(t)
	before, err := f.store.Raw(ctx)
	require.NoError(t, err)
	preview, err := f.service.Stage([]byte(importedDocument))
	require.NoError(t, err)

	// when
	err = f.service.Cancel(preview.Token)

	// then
	require.NoError(t, err)
	after, err := f.store.Raw(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	_, err = f.service.Confirm(ctx, preview.Token)
	assert.ErrorIs(t, err, ErrPreviewNotFound)
	assert.ErrorIs(t, f.service.Cancel(preview.Token), ErrPreviewNotFound)
}

func TestService_Confirm(t *testing.T) {
	t.Run("should replace the state with the staged document", func(t *testing.T) {
		// given
		f := setup(t)
		preview, err := f.service.Stage([]byte(importedDocument))
		require.NoError(t, err)

		// when
		imported, err := f.service.Confirm(ctx, preview.Token)

		// then
		require.NoError(t, err)
		assert.Equal(t, "2023-12", imported.CurrentMonthKey)
		require.Len(t, imported.Transactions, 2)
		assert.Equal(t, budget.Savings, imported.Transactions[1].Type)
		assert.Equal(t, "60", imported.MonthlyData["2023-12"].SavingsActual.String())
		assert.Equal(t, budget.DefaultRatio(), imported.Ratio)

		assertSameDocument(t, imported, f.store.Load(ctx))
	})

	t.Run("should forget an expired preview", func(t *testing.T) {
		f := setup(t)
		preview, err := f.service.Stage([]byte(importedDocument))
		require.NoError(t, err)

		f.clock.Advance(2 * time.Minute)
		_, err = f.service.Confirm(ctx, preview.Token)

		assert.ErrorIs(t, err, ErrPreviewNotFound)
		assert.Len(t, f.state.Snapshot().Transactions, 1)
	})

	t.Run("should confirm a previous export unchanged", func(t *testing.T) {
		f := setup(t)
		exported, _, err := f.service.Export()
		require.NoError(t, err)
		original := f.state.Snapshot()
		f.state.ClearAll(ctx)

		preview, err := f.service.Stage(exported)
		require.NoError(t, err)
		restored, err := f.service.Confirm(ctx, preview.Token)

		require.NoError(t, err)
		assertSameDocument(t, original, restored)
	})
}

func TestSubscribeAutoBackup(t *testing.T) {
	// given
	f := setup(t)
	dir := filepath.Join(t.TempDir(), "backups")
	unsubscribe, err := SubscribeAutoBackup(f.bus, dir, f.clock)
	require.NoError(t, err)
	defer unsubscribe()

	// when
	f.state.SetCurrentMonthKey(ctx, "2024-02")

	// then
	data, err := os.ReadFile(filepath.Join(dir, "55-40-5-backup-2024-03-15.json"))
	require.NoError(t, err)
	var document map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &document))
	assert.JSONEq(t, `"2024-02"`, string(document["currentMonthKey"]))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSubscribeAutoBackup_KeepsLatestStateUnderConcurrentChanges(t *testing.T) {
	// given
	f := setup(t)
	dir := t.TempDir()
	unsubscribe, err := SubscribeAutoBackup(f.bus, dir, f.clock)
	require.NoError(t, err)
	defer unsubscribe()
	path := filepath.Join(dir, Filename(f.clock.Now()))

	for round := range 20 {
		// when
		var wg sync.WaitGroup
		for range 16 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				f.state.AddTransaction(ctx, budget.Transaction{Amount: money.FromInt(10), Type: budget.Expense})
			}()
		}
		wg.Wait()

		// then
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		var document struct {
			Transactions []json.RawMessage `json:"transactions"`
		}
		require.NoError(t, json.Unmarshal(data, &document))
		require.Len(t, document.Transactions, len(f.state.Snapshot().Transactions), "round %d", round)
	}
}
