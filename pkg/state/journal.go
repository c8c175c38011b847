package state

import (
	"github.com/ratiobudget/ratiobudget/internal/event_bus"
	log "github.com/sirupsen/logrus"
)

// SubscribeJournal logs every state change.
func SubscribeJournal(bus *event_bus.EventBus) (unsubscribe func()) {
	return event_bus.SubscribeTyped(bus, event_bus.StateChangedType, func(e event_bus.EventT[event_bus.StateChanged]) error {
		if !e.Data.Persisted {
			log.Warnf("state change %s was not persisted; it will be retried with the next change", e.Data.Command)
			return nil
		}
		log.WithFields(log.Fields{
			"command":      e.Data.Command,
			"month":        e.Data.State.CurrentMonthKey,
			"transactions": len(e.Data.State.Transactions),
		}).Info("state changed")
		return nil
	})
}
