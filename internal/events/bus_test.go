package events

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"wastetrack-backend/internal/models"
)

func entry(id string) models.WasteEntryResponse {
	return models.WasteEntryResponse{ID: id, Status: models.StatusPending}
}

func TestSubscribePublish(t *testing.T) {
	bus := NewBus()

	var got []Event
	bus.Subscribe(KindNewPickup, func(e Event) {
		got = append(got, e)
	})

	bus.Publish(Event{Kind: KindNewPickup, Data: entry("a")})
	bus.Publish(Event{Kind: KindStatusUpdate, Data: entry("b")})
	bus.Publish(Event{Kind: KindNewPickup, Data: entry("c")})

	assert.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Data.ID)
	assert.Equal(t, "c", got[1].Data.ID)
}

func TestUnsubscribe(t *testing.T) {
	bus := NewBus()

	calls := 0
	unsub := bus.Subscribe(KindStatusUpdate, func(Event) { calls++ })

	bus.Publish(Event{Kind: KindStatusUpdate, Data: entry("a")})
	assert.Equal(t, 1, bus.SubscriberCount(KindStatusUpdate))

	unsub()
	unsub() // Second call is a no-op

	bus.Publish(Event{Kind: KindStatusUpdate, Data: entry("b")})
	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, bus.SubscriberCount(KindStatusUpdate))
}

func TestNoReplayForLateSubscriber(t *testing.T) {
	bus := NewBus()

	bus.Publish(Event{Kind: KindPickupCollected, Data: entry("early")})

	var got []Event
	bus.Subscribe(KindPickupCollected, func(e Event) { got = append(got, e) })

	bus.Publish(Event{Kind: KindPickupCollected, Data: entry("late")})

	assert.Len(t, got, 1)
	assert.Equal(t, "late", got[0].Data.ID)
}

func TestSubscribeAll(t *testing.T) {
	bus := NewBus()

	var kinds []Kind
	unsub := bus.SubscribeAll(func(e Event) { kinds = append(kinds, e.Kind) })

	bus.Publish(Event{Kind: KindNewPickup, Data: entry("a")})
	bus.Publish(Event{Kind: KindStatusUpdate, Data: entry("a")})
	bus.Publish(Event{Kind: KindPickupCollected, Data: entry("a")})

	assert.Equal(t, []Kind{KindNewPickup, KindStatusUpdate, KindPickupCollected}, kinds)

	unsub()
	bus.Publish(Event{Kind: KindNewPickup, Data: entry("b")})
	assert.Len(t, kinds, 3)
}

func TestConcurrentPublish(t *testing.T) {
	bus := NewBus()

	var mu sync.Mutex
	count := 0
	bus.Subscribe(KindNewPickup, func(Event) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bus.Publish(Event{Kind: KindNewPickup, Data: entry("x")})
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, count)
}

func TestValidKind(t *testing.T) {
	assert.True(t, ValidKind(KindNewPickup))
	assert.True(t, ValidKind(KindStatusUpdate))
	assert.True(t, ValidKind(KindPickupCollected))
	assert.False(t, ValidKind(Kind("pickup_cancelled")))
}
