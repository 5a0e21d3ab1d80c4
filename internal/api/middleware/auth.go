package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/Olafs-World/agent-chatroom/internal/metrics"
)

// RoomAuth gates endpoints behind the shared room password, taken from the
// X-Room-Password header or, failing that, the password query parameter
// (browsers opening the SSE stream cannot set headers).
type RoomAuth struct {
	// Pre-hashed room secret. Comparing fixed-length digests keeps the
	// comparison time independent of both mismatch position and credential
	// length.
	want [sha256.Size]byte
}

// NewRoomAuth creates the auth middleware for the given room password.
func NewRoomAuth(password string) *RoomAuth {
	return &RoomAuth{want: sha256.Sum256([]byte(password))}
}

// Check reports whether the presented credential matches the room password.
// A missing credential takes the same comparison path as a wrong one.
func (a *RoomAuth) Check(presented string) bool {
	got := sha256.Sum256([]byte(presented))
	return subtle.ConstantTimeCompare(got[:], a.want[:]) == 1
}

// RequirePassword rejects requests without a valid room password. The 401
// body never distinguishes a wrong password from a missing one.
func (a *RoomAuth) RequirePassword(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		presented := r.Header.Get("X-Room-Password")
		if presented == "" {
			presented = r.URL.Query().Get("password")
		}

		if !a.Check(presented) {
			metrics.AuthFailures.Inc()
			jsonError(w, http.StatusUnauthorized, "invalid password")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func jsonError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
