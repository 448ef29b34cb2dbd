// Package events allows for the registering and receiving of events.
package events

import (
	"fmt"
	"sync"
)

// messageBuffer is the number of events a receiver can fall behind before
// events are dropped for that receiver.
const messageBuffer = 100

// Events maintains a mapping of unique id and channels so goroutines
// can register and receive events of type T.
type Events[T any] struct {
	m  map[string]chan T
	mu sync.RWMutex
}

// New constructs an events for registering and receiving events.
func New[T any]() *Events[T] {
	return &Events[T]{
		m: make(map[string]chan T),
	}
}

// Shutdown closes and removes all channels that were provided by
// the call to Acquire.
func (evt *Events[T]) Shutdown() {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	for id, ch := range evt.m {
		delete(evt.m, id)
		close(ch)
	}
}

// Acquire takes a unique id and returns a channel that can be used
// to receive events.
func (evt *Events[T]) Acquire(id string) <-chan T {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	ch, exists := evt.m[id]
	if exists {
		return ch
	}

	evt.m[id] = make(chan T, messageBuffer)
	return evt.m[id]
}

// Release closes and removes the channel that was provided by
// the call to Acquire.
func (evt *Events[T]) Release(id string) error {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	ch, exists := evt.m[id]
	if !exists {
		return fmt.Errorf("id %q does not exist", id)
	}

	delete(evt.m, id)
	close(ch)
	return nil
}

// Count returns the number of registered receivers.
func (evt *Events[T]) Count() int {
	evt.mu.RLock()
	defer evt.mu.RUnlock()

	return len(evt.m)
}

// Send signals an event to every registered channel. Send will not block
// waiting for a receiver on any given channel. It returns the number of
// receivers that did not have room for the event.
func (evt *Events[T]) Send(v T) int {
	evt.mu.RLock()
	defer evt.mu.RUnlock()

	var dropped int
	for _, ch := range evt.m {
		select {
		case ch <- v:
		default:
			dropped++
		}
	}

	return dropped
}
