// Package bridge is an in-process publish/subscribe channel connecting the
// generation surface to independently attached result viewers. Delivery is
// at-most-once: there is no replay, and a message published before anyone
// subscribes is lost.
package bridge

import (
	"sync"
)

// Message type tags.
const (
	TypeResult = "result"
	TypeError  = "error"
)

// Meta describes the request that produced a result.
type Meta struct {
	Prompt string `json:"prompt"`
	Model  string `json:"model"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Message is one of the two shapes exchanged over the bridge.
type Message struct {
	Type    string `json:"type"`
	URL     string `json:"url,omitempty"`
	Meta    *Meta  `json:"meta,omitempty"`
	Message string `json:"message,omitempty"`
}

// Result builds a result message.
func Result(url string, meta *Meta) Message {
	return Message{Type: TypeResult, URL: url, Meta: meta}
}

// Error builds an error message.
func Error(message string) Message {
	return Message{Type: TypeError, Message: message}
}

const subscriberBuffer = 8

// Bus fans published messages out to all current subscribers.
type Bus struct {
	mu   sync.Mutex
	subs map[*Subscriber]struct{}
}

// Subscriber receives messages on C until Close is called. Close must be
// called on teardown or the subscription leaks.
type Subscriber struct {
	C chan Message

	bus    *Bus
	closed bool
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[*Subscriber]struct{})}
}

// Subscribe registers a new listener. Messages published before this call
// are not replayed.
func (b *Bus) Subscribe() *Subscriber {
	sub := &Subscriber{
		C:   make(chan Message, subscriberBuffer),
		bus: b,
	}
	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()
	return sub
}

// Publish delivers the message to every current subscriber. Sends never
// block: a subscriber whose buffer is full misses the message.
func (b *Bus) Publish(msg Message) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for sub := range b.subs {
		select {
		case sub.C <- msg:
		default:
		}
	}
}

// Close removes the subscriber from the bus and closes its channel.
// Safe to call more than once.
func (s *Subscriber) Close() {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	delete(s.bus.subs, s)
	close(s.C)
}
