package event_bus

import "github.com/ratiobudget/ratiobudget/pkg/budget"

const StateChangedType EventType = "state.changed"

// StateChanged is published after every state command, once the new state has
// been handed to the store.
type StateChanged struct {
	// Command names the operation, e.g. "transaction.added".
	Command   string
	Persisted bool
	// State is a copy owned by the subscriber.
	State budget.AppState
}
