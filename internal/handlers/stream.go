package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/Olafs-World/agent-chatroom/internal/metrics"
	"github.com/Olafs-World/agent-chatroom/internal/room"
)

// StreamMessages is the SSE push-stream endpoint. On connect it emits the
// full history as discrete events, then holds the connection open and emits
// each new message the moment it is appended. On idle it writes a keep-alive
// comment so dead connections surface as write failures. A write failure or
// client disconnect is a normal teardown, not a server error.
func (h *Handler) StreamMessages(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		h.Error(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache, no-transform")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	// Register before reading the snapshot: an append landing in between is
	// picked up by the first wait instead of being lost.
	sub := h.room.Hub().Register(0)
	defer h.room.Hub().Unregister(sub)

	metrics.StreamClients.Inc()
	defer metrics.StreamClients.Dec()

	h.logger.Debug().Str("subscriber", sub.ID.String()).Msg("stream client connected")
	defer h.logger.Debug().Str("subscriber", sub.ID.String()).Msg("stream client disconnected")

	if _, err := io.WriteString(w, ": connected\n\n"); err != nil {
		return
	}
	flusher.Flush()

	if !h.sendTail(w, flusher, sub) {
		return
	}

	ctx := r.Context()
	for {
		woke := h.room.WaitForNext(ctx, sub, h.keepAlive)
		if ctx.Err() != nil {
			return
		}
		if !woke {
			if _, err := io.WriteString(w, ": keepalive\n\n"); err != nil {
				return
			}
			flusher.Flush()
			continue
		}
		if !h.sendTail(w, flusher, sub) {
			return
		}
	}
}

// sendTail emits everything past the subscriber's last-seen sequence, one SSE
// event per message, advancing last-seen as it goes. Reports whether the
// connection is still writable.
func (h *Handler) sendTail(w io.Writer, flusher http.Flusher, sub *room.Subscriber) bool {
	for _, msg := range h.room.MessagesAfter(sub.LastSeen) {
		data, err := json.Marshal(msg)
		if err != nil {
			return false
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return false
		}
		sub.LastSeen = msg.Sequence
	}
	flusher.Flush()
	return true
}
