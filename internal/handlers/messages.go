package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/Olafs-World/agent-chatroom/internal/metrics"
)

// PostMessageRequest is the append request body. Pointer fields distinguish
// an absent field from an empty string: empty text is a valid message, a
// missing text field is not.
type PostMessageRequest struct {
	Agent *string `json:"agent"`
	Text  *string `json:"text"`
}

// PostMessage appends a message to the room and responds with the stored
// message, including its assigned sequence number and timestamp.
func (h *Handler) PostMessage(w http.ResponseWriter, r *http.Request) {
	var req PostMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		// Covers malformed JSON and non-string agent/text values.
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Agent == nil || *req.Agent == "" {
		h.Error(w, http.StatusBadRequest, "agent is required")
		return
	}
	if req.Text == nil {
		h.Error(w, http.StatusBadRequest, "text is required")
		return
	}

	msg, err := h.room.Append(*req.Agent, *req.Text)
	if err != nil {
		h.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	metrics.MessagesPosted.Inc()
	h.logger.Info().
		Uint64("sequence", msg.Sequence).
		Str("agent", msg.Agent).
		Msg("message posted")

	h.JSON(w, http.StatusCreated, msg)
}

// ListMessages returns a snapshot of every message in sequence order.
func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	h.JSON(w, http.StatusOK, h.room.Snapshot())
}

// afterParam parses the `after` query parameter, defaulting to 0.
func afterParam(r *http.Request) (uint64, error) {
	raw := r.URL.Query().Get("after")
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseUint(raw, 10, 64)
}
