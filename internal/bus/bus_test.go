package bus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishFanOut(t *testing.T) {
	b := New()
	_, ch1 := b.Subscribe()
	_, ch2 := b.Subscribe()
	require.Equal(t, 2, b.Len())

	b.Publish(Event{Resource: "tasks", Action: ActionCreated, ID: 7})

	for _, ch := range []<-chan Event{ch1, ch2} {
		select {
		case ev := <-ch:
			assert.Equal(t, "tasks", ev.Resource)
			assert.Equal(t, ActionCreated, ev.Action)
			assert.Equal(t, int64(7), ev.ID)
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive event")
		}
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b := New()
	id, ch := b.Subscribe()
	b.Unsubscribe(id)

	_, open := <-ch
	assert.False(t, open)
	assert.Equal(t, 0, b.Len())

	// Unknown ids are a no-op.
	b.Unsubscribe("missing")
}

// A subscriber that never drains must not block publishers; the bus drops
// its oldest events instead.
func TestSlowSubscriberDoesNotBlockPublish(t *testing.T) {
	b := New()
	_, ch := b.Subscribe()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < subscriberBuffer*3; i++ {
			b.Publish(Event{Resource: "notes", Action: ActionUpdated, ID: int64(i)})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publisher blocked on slow subscriber")
	}

	// The newest event survived the overflow.
	var last Event
	for len(ch) > 0 {
		last = <-ch
	}
	assert.Equal(t, int64(subscriberBuffer*3-1), last.ID)
}
