package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ratiobudget/ratiobudget/internal/utils"
	"github.com/ratiobudget/ratiobudget/pkg/budget"
	"github.com/ratiobudget/ratiobudget/pkg/metrics"
	"github.com/ratiobudget/ratiobudget/pkg/money"
	log "github.com/sirupsen/logrus"
)

var ErrNotAnObject = errors.New("document is not a JSON object")

// Store reads and writes the whole AppState as one document under a fixed key.
type Store struct {
	repo  Repository
	key   string
	clock utils.Clock
}

func NewStore(repo Repository, key string, clock utils.Clock) *Store {
	if key == "" {
		key = budget.StorageKey
	}
	return &Store{repo: repo, key: key, clock: clock}
}

func (s *Store) Key() string {
	return s.key
}

// Load never fails: a missing, unreadable or corrupt document yields the
// default state.
func (s *Store) Load(ctx context.Context) budget.AppState {
	monthKey := metrics.CurrentMonthKey(s.clock.Now())
	data, err := s.repo.Get(ctx, s.key)
	if err != nil {
		if errors.Is(err, ErrDocumentNotFound) {
			log.Infof("No stored document under %s, starting with defaults", s.key)
		} else {
			log.Errorf("failed to read stored document: %v", err)
		}
		return budget.DefaultState(monthKey)
	}

	state, err := Decode(data, monthKey)
	if err != nil {
		log.Warnf("stored document is corrupt, starting with defaults: %v", err)
		return budget.DefaultState(monthKey)
	}
	return state
}

// Save writes the full state and reports whether it was persisted. Failures
// are logged only; the next save tries again.
func (s *Store) Save(ctx context.Context, state budget.AppState) bool {
	data, err := Encode(state)
	if err != nil {
		log.Errorf("failed to serialize state: %v", err)
		return false
	}
	if err := s.repo.Put(ctx, s.key, data); err != nil {
		log.Errorf("failed to persist state: %v", err)
		return false
	}
	return true
}

// Clear deletes the stored document.
func (s *Store) Clear(ctx context.Context) bool {
	if err := s.repo.Delete(ctx, s.key); err != nil {
		log.Errorf("failed to clear stored document: %v", err)
		return false
	}
	return true
}

// Raw returns the stored bytes as they are.
func (s *Store) Raw(ctx context.Context) ([]byte, error) {
	return s.repo.Get(ctx, s.key)
}

func Encode(state budget.AppState) ([]byte, error) {
	state.EnsureCollections()
	return json.Marshal(state)
}

// Decode reads a stored or imported document. Fields present in the document
// replace the defaults; absent or null collections become empty. Legacy
// monthlyData income figures are kept as manual overrides when the document
// predates monthlyOverrides.
func Decode(data []byte, monthKey string) (budget.AppState, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return budget.AppState{}, ErrNotAnObject
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return budget.AppState{}, fmt.Errorf("failed to parse document: %w", err)
	}

	state := budget.DefaultState(monthKey)
	// A stored ratio replaces the default whole; missing shares are zero.
	if raw, ok := fields["ratio"]; ok && !isNull(raw) {
		state.Ratio = budget.Ratio{}
	}
	if err := json.Unmarshal(data, &state); err != nil {
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) {
			return budget.AppState{}, fmt.Errorf("failed to parse document: %w", err)
		}
		log.Warnf("ignoring mistyped field %q in document: %v", typeErr.Field, err)
		if strings.HasPrefix(typeErr.Field, "ratio") {
			state.Ratio = budget.DefaultRatio()
		}
	}
	if raw, ok := fields["ratio"]; !ok || isNull(raw) {
		state.Ratio = budget.DefaultRatio()
	}
	if state.CurrentMonthKey == "" {
		state.CurrentMonthKey = monthKey
	}
	state.EnsureCollections()

	if raw, ok := fields["monthlyOverrides"]; !ok || isNull(raw) {
		seedLegacyOverrides(&state, fields["monthlyData"])
	}
	return state, nil
}

func seedLegacyOverrides(state *budget.AppState, monthlyData json.RawMessage) {
	if len(monthlyData) == 0 {
		return
	}
	var months map[string]map[string]json.RawMessage
	if err := json.Unmarshal(monthlyData, &months); err != nil {
		return
	}
	for key, snapshot := range months {
		income := money.Lenient(snapshot["income"])
		if income.IsZero() {
			continue
		}
		state.MonthlyOverrides[key] = state.MonthlyOverrides[key].Merge(budget.SnapshotOverride{Income: &income})
	}
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
