// Package events provides the in-process pub/sub bus used to surface run
// lifecycle changes to SSE clients and other subscribers.
package events

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Event is a single published event.
type Event struct {
	Type      EventType   `json:"type"`
	Module    string      `json:"module"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// Handler receives published events. Handlers must not block: slow consumers
// (SSE connections) buffer internally and drop on overflow.
type Handler func(event *Event)

// Bus is a synchronous fan-out event bus. Publish calls every subscriber for
// the event's type in registration order, on the publisher's goroutine.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[EventType][]Handler
	log         zerolog.Logger
}

// NewBus creates a new event bus.
func NewBus(log zerolog.Logger) *Bus {
	return &Bus{
		subscribers: make(map[EventType][]Handler),
		log:         log.With().Str("component", "events").Logger(),
	}
}

// Subscribe registers a handler for a single event type.
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish delivers an event to all subscribers of its type.
func (b *Bus) Publish(event *Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	b.mu.RLock()
	handlers := b.subscribers[event.Type]
	b.mu.RUnlock()

	b.log.Debug().
		Str("event_type", string(event.Type)).
		Str("module", event.Module).
		Int("subscribers", len(handlers)).
		Msg("Publishing event")

	for _, handler := range handlers {
		handler(event)
	}
}

// Emit is a convenience wrapper that builds and publishes an event.
func (b *Bus) Emit(eventType EventType, module string, data interface{}) {
	b.Publish(&Event{
		Type:      eventType,
		Module:    module,
		Timestamp: time.Now(),
		Data:      data,
	})
}
