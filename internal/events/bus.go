// Package events carries lifecycle notifications from the store mutations to
// whatever wants to fan them out (the WebSocket hub, push notifications).
// Delivery is synchronous and in emission order; there is no replay buffer, so
// a subscriber registered after an event was published never sees it.
package events

import (
	"sync"

	"wastetrack-backend/internal/models"
)

// Kind identifies a lifecycle event on the notification channel.
type Kind string

const (
	KindNewPickup       Kind = "new_pickup"
	KindStatusUpdate    Kind = "status_update"
	KindPickupCollected Kind = "pickup_collected"
)

// ValidKind reports whether k is one of the known event kinds.
func ValidKind(k Kind) bool {
	switch k {
	case KindNewPickup, KindStatusUpdate, KindPickupCollected:
		return true
	}
	return false
}

// Event is the wire shape pushed to clients: {"event": ..., "data": ...}.
type Event struct {
	Kind Kind                      `json:"event"`
	Data models.WasteEntryResponse `json:"data"`
}

// Handler consumes one event. Handlers must not block; slow consumers should
// hand off to their own channel (the hub's send buffers do exactly that).
type Handler func(Event)

// Bus is a typed publish/subscribe registry keyed by event kind.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[Kind]map[int]Handler
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[Kind]map[int]Handler)}
}

// Subscribe registers handler for one event kind and returns an unsubscribe
// token. Calling the token more than once is a no-op.
func (b *Bus) Subscribe(kind Kind, handler Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subs[kind] == nil {
		b.subs[kind] = make(map[int]Handler)
	}
	id := b.nextID
	b.nextID++
	b.subs[kind][id] = handler

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs[kind], id)
		})
	}
}

// SubscribeAll registers handler for every event kind.
func (b *Bus) SubscribeAll(handler Handler) (unsubscribe func()) {
	tokens := make([]func(), 0, 3)
	for _, k := range []Kind{KindNewPickup, KindStatusUpdate, KindPickupCollected} {
		tokens = append(tokens, b.Subscribe(k, handler))
	}
	return func() {
		for _, t := range tokens {
			t()
		}
	}
}

// Publish delivers e to every subscriber of its kind. Publish is synchronous,
// so each subscriber sees events in emission order; the order across
// subscribers is unspecified.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs[e.Kind]))
	for _, h := range b.subs[e.Kind] {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(e)
	}
}

// SubscriberCount returns the number of handlers registered for kind.
func (b *Bus) SubscriberCount(kind Kind) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[kind])
}
