package state

import (
	"github.com/ardanlabs/powchain/foundation/blockchain/database"
)

// Set of event names the node emits.
const (
	EventBlockMined           = "block:mined"
	EventBlockAdded           = "block:added"
	EventBlockDiscarded       = "block:discarded"
	EventTransactionAdded     = "transaction:added"
	EventTransactionDiscarded = "transaction:discarded"
	EventSupplyChanged        = "supply:changed"
	EventChainReplaced        = "chain:replaced"
)

// Event describes a change to the node state. Only the fields relevant to
// the named event are set.
type Event struct {
	Name        string                      `json:"name"`
	Block       *database.BlockRecord       `json:"block,omitempty"`
	Transaction *database.TransactionRecord `json:"transaction,omitempty"`
	Supply      float64                     `json:"supply,omitempty"`
	Reason      string                      `json:"reason,omitempty"`
}

// SubscribeEvents registers the id to receive node events. Events are
// dropped for a subscriber that falls behind.
func (s *State) SubscribeEvents(id string) <-chan Event {
	return s.events.Acquire(id)
}

// UnsubscribeEvents stops the delivery of events to the id and closes its
// channel.
func (s *State) UnsubscribeEvents(id string) error {
	return s.events.Release(id)
}

// emit delivers the event to every subscriber without blocking.
func (s *State) emit(evt Event) {
	if dropped := s.events.Send(evt); dropped > 0 {
		s.evHandler("state: emit: event[%s]: dropped for subscribers[%d]", evt.Name, dropped)
	}
}

func (s *State) emitSupply() {
	s.emit(Event{Name: EventSupplyChanged, Supply: s.confirmed.Total()})
}
