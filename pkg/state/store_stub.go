package state

import (
	"context"
	"sync"

	"github.com/ratiobudget/ratiobudget/pkg/budget"
)

// StoreStub is an in-memory Store recording every save.
type StoreStub struct {
	mu      sync.Mutex
	initial budget.AppState
	saves   []budget.AppState
	cleared int
	// Fail makes Save and Clear report failure.
	Fail bool
}

func NewStoreStub(initial budget.AppState) *StoreStub {
	return &StoreStub{initial: initial}
}

func (s *StoreStub) Load(ctx context.Context) budget.AppState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.saves) > 0 {
		return s.saves[len(s.saves)-1].Clone()
	}
	return s.initial.Clone()
}

func (s *StoreStub) Save(ctx context.Context, state budget.AppState) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail {
		return false
	}
	s.saves = append(s.saves, state.Clone())
	return true
}

func (s *StoreStub) Clear(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail {
		return false
	}
	s.cleared++
	s.saves = nil
	s.initial = budget.AppState{}
	return true
}

func (s *StoreStub) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.saves)
}

func (s *StoreStub) Cleared() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cleared
}

func (s *StoreStub) LastSaved() budget.AppState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.saves) == 0 {
		return budget.AppState{}
	}
	return s.saves[len(s.saves)-1].Clone()
}
