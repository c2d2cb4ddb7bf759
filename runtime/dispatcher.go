package runtime

import (
	"log/slog"

	"chat-desk/contract"
	"chat-desk/domain/event"
)

// Dispatcher bridges persistence and live delivery. The caller persists
// first; Deliver then pushes to the target's live connection if one
// exists. Fire-and-forget: a miss or a push failure never reaches the
// request that triggered the write, because the write already succeeded.
type Dispatcher struct {
	log      *slog.Logger
	registry contract.Registry
}

func NewDispatcher(log *slog.Logger, registry contract.Registry) *Dispatcher {
	return &Dispatcher{log: log, registry: registry}
}

func (d *Dispatcher) Deliver(targetID string, evt event.DomainEvent) {
	sink, ok := d.registry.Lookup(targetID)
	if !ok {
		// Normal offline case: the persisted record is picked up on the
		// next history fetch or reconnect.
		d.log.Debug("no live connection, delivery skipped", "user", targetID, "event", evt.Name)
		return
	}
	if err := sink.Push(evt); err != nil {
		d.log.Warn("live delivery dropped", "user", targetID, "event", evt.Name, "error", err)
	}
}
