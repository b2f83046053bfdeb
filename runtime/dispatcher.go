package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"log/slog"
)

// Dispatcher fans an outbound event out to every connection of a room.
//
// Connections whose Send fails are evicted once the fan-out attempt is over,
// and each eviction produces at most one leave event for the members left.
// Those leave events are delivered by the same loop, so the work is bounded
// by the number of connections in the room.
//
// Callers hold the room lock for the duration of Broadcast.
type Dispatcher struct {
	log      *slog.Logger
	registry contract.IRegistry
}

func NewDispatcher(log *slog.Logger, registry contract.IRegistry) *Dispatcher {
	return &Dispatcher{log: log, registry: registry}
}

func (d *Dispatcher) Broadcast(roomID domain.RoomID, evt event.Outbound) {
	pending := []event.Outbound{evt}
	for len(pending) > 0 {
		current := pending[0]
		pending = pending[1:]

		for _, participant := range d.fanout(roomID, current) {
			pending = append(pending, event.Left{User: participant.Name, Online: d.registry.Roster(roomID)})
		}
	}
}

// fanout delivers one event and returns the participants evicted because of it
// that still have somebody left in the room to be told about.
func (d *Dispatcher) fanout(roomID domain.RoomID, evt event.Outbound) []domain.Participant {
	connections := d.registry.Connections(roomID)
	if len(connections) == 0 {
		return nil
	}

	payload, err := event.Encode(evt)
	if err != nil {
		d.log.Error("Unable to encode outbound event", "room", roomID, "type", evt.OutboundType(), "error", err)
		return nil
	}

	var failed []contract.Connection
	for _, conn := range connections {
		if err := conn.Send(payload); err != nil {
			d.log.Warn("Delivery failed, evicting connection",
				"room", roomID, "connection_id", conn.ID(), "type", evt.OutboundType(), "error", err)
			failed = append(failed, conn)
		}
	}

	var evicted []domain.Participant
	for _, conn := range failed {
		_ = conn.Close()
		participant, roster, ok := d.registry.Leave(roomID, conn.ID())
		if !ok || len(roster) == 0 {
			continue
		}
		evicted = append(evicted, participant)
	}
	return evicted
}
