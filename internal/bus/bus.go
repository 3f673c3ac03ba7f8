// Package bus fans out change notifications to live dashboard clients.
// It replaces the reactive-query push of the hosted document store: every
// committed write publishes one event, and subscribers re-fetch the
// affected resource when they receive it.
package bus

import (
	"sync"

	"github.com/google/uuid"
)

// Event describes a single committed write.
type Event struct {
	Resource string `json:"resource"`
	Action   string `json:"action"`
	ID       int64  `json:"id"`
}

// Actions carried by events.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

const subscriberBuffer = 64

// Bus is an in-process publish/subscribe hub. Publish never blocks: a
// subscriber that stops draining its channel loses its oldest events once
// its buffer fills.
type Bus struct {
	mu   sync.RWMutex
	subs map[string]chan Event
}

// New returns an empty bus.
func New() *Bus {
	return &Bus{subs: make(map[string]chan Event)}
}

// Subscribe registers a new listener and returns its id along with the
// channel events arrive on. The channel is closed by Unsubscribe.
func (b *Bus) Subscribe() (string, <-chan Event) {
	id := uuid.NewString()
	ch := make(chan Event, subscriberBuffer)

	b.mu.Lock()
	b.subs[id] = ch
	b.mu.Unlock()

	return id, ch
}

// Unsubscribe removes a listener and closes its channel. Unknown ids are
// ignored.
func (b *Bus) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
}

// Publish delivers the event to every subscriber without blocking the
// caller. When a subscriber's buffer is full its oldest event is dropped
// to make room, so slow websocket clients cannot stall mutations.
func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subs {
		for {
			select {
			case ch <- ev:
			default:
				select {
				case <-ch:
				default:
				}
				continue
			}
			break
		}
	}
}

// Len reports the number of active subscribers.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
