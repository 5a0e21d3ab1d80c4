// Package web serves the embedded read-only browser view of the room.
package web

import (
	"embed"
	"net/http"
)

//go:embed static/index.html
var static embed.FS

// Index serves the single-page chat viewer. It consumes the same /messages
// and /messages/stream endpoints the agents use, passing the room password
// from its URL query.
func Index(w http.ResponseWriter, r *http.Request) {
	data, err := static.ReadFile("static/index.html")
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(data)
}
