package room

import "time"

// Message is a single chat message. Immutable once appended; the sequence
// number is the sole ordering key.
type Message struct {
	Sequence  uint64    `json:"sequence"`
	Agent     string    `json:"agent"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"` // server-assigned, UTC
}
