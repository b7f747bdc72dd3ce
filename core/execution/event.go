package execution

import (
	"sync"

	"github.com/rs/xid"
)

// Event is a notification produced by a contract while executing a
// transaction. Observers receive it only if the transaction is committed.
type Event struct {
	ID         string            `json:"id"`
	Contract   string            `json:"contract"`
	Name       string            `json:"name"`
	Timestamp  uint64            `json:"timestamp"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// NewEvent creates an event with a unique identifier.
func NewEvent(contract, name string, attrs map[string]string) Event {
	return Event{
		ID:         xid.New().String(),
		Contract:   contract,
		Name:       name,
		Attributes: attrs,
	}
}

// Emitter is the sink of the events produced during an execution.
type Emitter interface {
	Emit(Event)
}

// EventBuffer is an emitter that holds the events in memory until they are
// either flushed or discarded.
//
// - implements execution.Emitter
type EventBuffer struct {
	sync.Mutex
	events []Event
}

// NewEventBuffer returns an empty buffer.
func NewEventBuffer() *EventBuffer {
	return &EventBuffer{}
}

// Emit implements execution.Emitter. It appends the event to the buffer.
func (b *EventBuffer) Emit(evt Event) {
	b.Lock()
	b.events = append(b.events, evt)
	b.Unlock()
}

// Flush returns the buffered events in emission order and empties the buffer.
func (b *EventBuffer) Flush() []Event {
	b.Lock()
	defer b.Unlock()

	events := b.events
	b.events = nil

	return events
}

// Len returns the number of buffered events.
func (b *EventBuffer) Len() int {
	b.Lock()
	defer b.Unlock()

	return len(b.events)
}
