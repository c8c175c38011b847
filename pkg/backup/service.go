package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ratiobudget/ratiobudget/internal/utils"
	"github.com/ratiobudget/ratiobudget/pkg/budget"
	"github.com/ratiobudget/ratiobudget/pkg/metrics"
	"github.com/ratiobudget/ratiobudget/pkg/store"
	log "github.com/sirupsen/logrus"
)

var ErrInvalidBackup = errors.New("invalid backup file")
var ErrPreviewNotFound = errors.New("import preview not found or expired")

const DefaultPreviewTTL = 15 * time.Minute

// Filename names a backup taken on the given day.
func Filename(now time.Time) string {
	return fmt.Sprintf("55-40-5-backup-%s.json", now.Format(time.DateOnly))
}

// Encode renders the state exactly as exported: 2-space indented JSON.
func Encode(state budget.AppState) ([]byte, error) {
	state.EnsureCollections()
	return json.MarshalIndent(state, "", "  ")
}

type Counts struct {
	IncomeSources     int `json:"incomeSources"`
	SavingsCategories int `json:"savingsCategories"`
	ExpenseCategories int `json:"expenseCategories"`
	BufferCategories  int `json:"bufferCategories"`
	Transactions      int `json:"transactions"`
	Subscriptions     int `json:"subscriptions"`
	SavingsGoals      int `json:"savingsGoals"`
}

// Preview describes a staged import so the user can confirm it.
type Preview struct {
	Token           string    `json:"token"`
	ExpiresAt       time.Time `json:"expiresAt"`
	CurrentMonthKey string    `json:"currentMonthKey"`
	Months          []string  `json:"months"`
	Counts          Counts    `json:"counts"`
}

// StateService is the part of state.Service a backup needs.
type StateService interface {
	Snapshot() budget.AppState
	Replace(ctx context.Context, state budget.AppState) budget.AppState
}

type Service interface {
	Export() ([]byte, string, error)
	Stage(data []byte) (Preview, error)
	Confirm(ctx context.Context, token string) (budget.AppState, error)
	Cancel(token string) error
}

type staged struct {
	state   budget.AppState
	preview Preview
}

// ServiceImpl keeps staged imports in memory until they are confirmed,
// cancelled or expire. Nothing is persisted before Confirm.
type ServiceImpl struct {
	state StateService
	clock utils.Clock
	ttl   time.Duration

	mu     sync.Mutex
	staged map[string]staged
}

func NewBackupService(state StateService, clock utils.Clock, ttl time.Duration) *ServiceImpl {
	if ttl <= 0 {
		ttl = DefaultPreviewTTL
	}
	return &ServiceImpl{state: state, clock: clock, ttl: ttl, staged: map[string]staged{}}
}

// Export returns the current state as a backup file and its name.
func (s *ServiceImpl) Export() ([]byte, string, error) {
	data, err := Encode(s.state.Snapshot())
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode backup: %w", err)
	}
	return data, Filename(s.clock.Now()), nil
}

// Stage parses an import document and keeps it until confirmed.
func (s *ServiceImpl) Stage(data []byte) (Preview, error) {
	now := s.clock.Now()
	imported, err := store.Decode(data, metrics.CurrentMonthKey(now))
	if err != nil {
		return Preview{}, fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}

	preview := Preview{
		Token:           uuid.NewString(),
		ExpiresAt:       now.Add(s.ttl),
		CurrentMonthKey: imported.CurrentMonthKey,
		Months:          months(imported, now),
		Counts: Counts{
			IncomeSources:     len(imported.IncomeSources),
			SavingsCategories: len(imported.SavingsCategories),
			ExpenseCategories: len(imported.ExpenseCategories),
			BufferCategories:  len(imported.BufferCategories),
			Transactions:      len(imported.Transactions),
			Subscriptions:     len(imported.Subscriptions),
			SavingsGoals:      len(imported.SavingsGoals),
		},
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneExpired(now)
	s.staged[preview.Token] = staged{state: imported, preview: preview}
	log.Debugf("Staged backup import %s with %d transactions", preview.Token, preview.Counts.Transactions)
	return preview, nil
}

// Confirm replaces the application state with a staged import.
func (s *ServiceImpl) Confirm(ctx context.Context, token string) (budget.AppState, error) {
	s.mu.Lock()
	s.pruneExpired(s.clock.Now())
	entry, ok := s.staged[token]
	delete(s.staged, token)
	s.mu.Unlock()

	if !ok {
		return budget.AppState{}, ErrPreviewNotFound
	}
	log.Infof("Importing backup %s", token)
	return s.state.Replace(ctx, entry.state), nil
}

func (s *ServiceImpl) Cancel(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneExpired(s.clock.Now())
	if _, ok := s.staged[token]; !ok {
		return ErrPreviewNotFound
	}
	delete(s.staged, token)
	return nil
}

func (s *ServiceImpl) pruneExpired(now time.Time) {
	for token, entry := range s.staged {
		if !now.Before(entry.preview.ExpiresAt) {
			delete(s.staged, token)
		}
	}
}

// months lists every month the document has figures for, ascending.
func months(state budget.AppState, now time.Time) []string {
	set := map[string]struct{}{}
	for _, tx := range state.Transactions {
		set[metrics.MonthKeyOf(tx, now)] = struct{}{}
	}
	for key := range state.MonthlyData {
		set[key] = struct{}{}
	}
	for key := range state.MonthlyOverrides {
		set[key] = struct{}{}
	}
	if len(set) == 0 {
		return []string{}
	}
	return slices.Sorted(maps.Keys(set))
}
