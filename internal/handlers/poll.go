package handlers

import (
	"net/http"

	"github.com/Olafs-World/agent-chatroom/internal/metrics"
)

// PollMessages is the long-poll endpoint. The request parks until a message
// beyond `after` exists or the poll timeout elapses, then answers once with
// the (possibly empty) tail. A timeout is the defined "no news" response,
// never an error; the client re-polls with the highest sequence it has seen.
func (h *Handler) PollMessages(w http.ResponseWriter, r *http.Request) {
	after, err := afterParam(r)
	if err != nil {
		h.Error(w, http.StatusBadRequest, "invalid after parameter")
		return
	}

	sub := h.room.Hub().Register(after)
	defer h.room.Hub().Unregister(sub)

	metrics.PollWaiters.Inc()
	woke := h.room.WaitForNext(r.Context(), sub, h.pollTimeout)
	metrics.PollWaiters.Dec()

	if !woke {
		if r.Context().Err() != nil {
			// Client went away while we were parked; nothing to answer.
			return
		}
		metrics.PollTimeouts.Inc()
	}

	h.JSON(w, http.StatusOK, h.room.MessagesAfter(after))
}
