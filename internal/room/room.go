// Package room holds the authoritative in-memory state of the single chat
// room: the append-only message log, its sequence counter, and the
// notification hub that wakes blocked readers when new messages arrive.
// Nothing here survives process shutdown.
package room

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidMessage is returned by Append when the message is malformed
// (missing agent name).
var ErrInvalidMessage = errors.New("invalid message: agent is required")

// Room is the process-wide singleton holding all room state. Created once at
// startup with a fixed password and an empty log, discarded at shutdown.
type Room struct {
	// ID identifies this room session for logging. A new ID is minted on
	// every process start; there is no persistence to tie sessions together.
	ID uuid.UUID

	password string
	hub      *Hub

	mu       sync.Mutex
	messages []Message
	nextSeq  uint64
	agents   map[string]struct{}
}

// New creates an empty room protected by the given password.
func New(password string) *Room {
	return &Room{
		ID:       uuid.Must(uuid.NewV7()),
		password: password,
		hub:      newHub(),
		nextSeq:  1,
		agents:   make(map[string]struct{}),
	}
}

// Password returns the shared room secret.
func (r *Room) Password() string { return r.password }

// Hub returns the room's notification hub.
func (r *Room) Hub() *Hub { return r.hub }

// Append validates and stores a new message, assigning it the next sequence
// number and a server-side timestamp, then wakes all waiting subscribers.
// Sequence numbers are gapless from 1 and match append order even under
// concurrent callers; a failed Append leaves the counter untouched.
func (r *Room) Append(agent, text string) (Message, error) {
	if agent == "" {
		return Message{}, ErrInvalidMessage
	}

	r.mu.Lock()
	msg := Message{
		Sequence:  r.nextSeq,
		Agent:     agent,
		Text:      text,
		Timestamp: time.Now().UTC(),
	}
	r.messages = append(r.messages, msg)
	r.nextSeq++
	r.agents[agent] = struct{}{}
	r.mu.Unlock()

	r.hub.Wake()
	return msg, nil
}

// Snapshot returns a copy of all messages in sequence order. The returned
// slice is the caller's own; later appends do not mutate it.
func (r *Room) Snapshot() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, len(r.messages))
	copy(out, r.messages)
	return out
}

// MessagesAfter returns a copy of all messages with sequence strictly greater
// than seq, in order. Empty slice, never nil, when there are none.
func (r *Room) MessagesAfter(seq uint64) []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	// Sequence s lives at index s-1: the log is gapless from 1.
	if seq >= uint64(len(r.messages)) {
		return []Message{}
	}
	tail := r.messages[seq:]
	out := make([]Message, len(tail))
	copy(out, tail)
	return out
}

// LastSequence returns the sequence number of the newest message, 0 when the
// room is empty.
func (r *Room) LastSequence() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.nextSeq - 1
}

// Agents returns the sorted names of every agent that has posted so far.
func (r *Room) Agents() []string {
	r.mu.Lock()
	names := make([]string, 0, len(r.agents))
	for name := range r.agents {
		names = append(names, name)
	}
	r.mu.Unlock()
	sort.Strings(names)
	return names
}

// WaitForNext blocks until messages beyond sub's last-seen sequence exist,
// the timeout elapses, or ctx is done. It reports whether new messages are
// available. The subscriber must already be registered with the hub: because
// registration precedes the tail check below, an append landing between the
// check and the wait still leaves its signal in the subscriber's buffer, so
// no wakeup is ever lost.
func (r *Room) WaitForNext(ctx context.Context, sub *Subscriber, timeout time.Duration) bool {
	if r.LastSequence() > sub.LastSeen {
		return true
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case <-sub.signal:
			if r.LastSequence() > sub.LastSeen {
				return true
			}
			// Stale signal from a batch the subscriber already consumed.
		case <-timer.C:
			return false
		case <-ctx.Done():
			return false
		}
	}
}
