package room

import (
	"sync"

	"github.com/oklog/ulid/v2"
)

// Subscriber is the wait handle for one blocked reader (stream or long-poll).
// Transient: created per connection or poll request and discarded when it
// ends. LastSeen is owned by the subscriber's goroutine; the hub only touches
// the signal channel.
type Subscriber struct {
	ID       ulid.ULID
	LastSeen uint64

	// Buffered to one: a pending signal coalesces with later ones. The woken
	// reader re-reads MessagesAfter, so one wake can deliver a whole batch.
	signal chan struct{}
}

// Hub decouples "a message was appended" from "who is waiting to hear about
// it". The store calls Wake after every append; readers register before
// waiting and unregister when done.
type Hub struct {
	mu   sync.Mutex
	subs map[ulid.ULID]*Subscriber
}

func newHub() *Hub {
	return &Hub{subs: make(map[ulid.ULID]*Subscriber)}
}

// Register creates a subscriber seeded with the caller's last-seen sequence
// number and adds it to the wake set.
func (h *Hub) Register(lastSeen uint64) *Subscriber {
	sub := &Subscriber{
		ID:       ulid.Make(),
		LastSeen: lastSeen,
		signal:   make(chan struct{}, 1),
	}
	h.mu.Lock()
	h.subs[sub.ID] = sub
	h.mu.Unlock()
	return sub
}

// Unregister removes the subscriber from the wake set. Idempotent; safe to
// call after a timeout or a double teardown.
func (h *Hub) Unregister(sub *Subscriber) {
	if sub == nil {
		return
	}
	h.mu.Lock()
	delete(h.subs, sub.ID)
	h.mu.Unlock()
}

// Wake signals every registered subscriber. Non-blocking: a subscriber whose
// buffer already holds a signal is skipped, which is exactly the coalescing
// the readers expect.
func (h *Hub) Wake() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, sub := range h.subs {
		select {
		case sub.signal <- struct{}{}:
		default:
		}
	}
}

// Waiting returns the number of currently registered subscribers.
func (h *Hub) Waiting() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
