package api_test

import (
	"bufio"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Olafs-World/agent-chatroom/internal/api"
	"github.com/Olafs-World/agent-chatroom/internal/api/middleware"
	"github.com/Olafs-World/agent-chatroom/internal/handlers"
	"github.com/Olafs-World/agent-chatroom/internal/room"
)

const testPassword = "hunter2"

func newTestServer(t *testing.T, pollTimeout time.Duration) (*httptest.Server, *room.Room) {
	t.Helper()
	rm := room.New(testPassword)
	h := handlers.NewHandler(rm, zerolog.Nop(), pollTimeout, 100*time.Millisecond)
	auth := middleware.NewRoomAuth(testPassword)
	srv := httptest.NewServer(api.NewRouter(zerolog.Nop(), h, auth))
	t.Cleanup(srv.Close)
	return srv, rm
}

func postMessage(t *testing.T, srv *httptest.Server, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/messages", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Room-Password", testPassword)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func getJSON(t *testing.T, srv *httptest.Server, path string, out interface{}) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, srv.URL+path, nil)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("X-Room-Password", testPassword)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatal(err)
		}
	}
	return resp
}

func TestUnauthorizedRequests(t *testing.T) {
	srv, rm := newTestServer(t, time.Second)
	rm.Append("alice", "secret content")

	for _, tc := range []struct {
		name    string
		headers map[string]string
	}{
		{"missing password", nil},
		{"wrong password", map[string]string{"X-Room-Password": "wrong"}},
	} {
		req, _ := http.NewRequest(http.MethodGet, srv.URL+"/messages", nil)
		for k, v := range tc.headers {
			req.Header.Set(k, v)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		resp.Body.Close()

		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", tc.name, resp.StatusCode)
		}
		if body["error"] != "invalid password" {
			t.Fatalf("%s: expected uniform error body, got %v", tc.name, body)
		}
		if _, leaked := body["text"]; leaked {
			t.Fatalf("%s: message content leaked to unauthorized caller", tc.name)
		}
	}
}

func TestPasswordViaQueryParam(t *testing.T) {
	srv, _ := newTestServer(t, time.Second)

	resp, err := http.Get(srv.URL + "/messages?password=" + testPassword)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 with query-param password, got %d", resp.StatusCode)
	}
}

func TestPostAndListMessages(t *testing.T) {
	srv, _ := newTestServer(t, time.Second)

	resp := postMessage(t, srv, `{"agent":"alice","text":"hi"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var created room.Message
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if created.Sequence != 1 || created.Agent != "alice" || created.Text != "hi" {
		t.Fatalf("unexpected created message: %+v", created)
	}
	if created.Timestamp.IsZero() {
		t.Fatal("expected server-assigned timestamp")
	}

	resp = postMessage(t, srv, `{"agent":"bob","text":"yo"}`)
	var second room.Message
	json.NewDecoder(resp.Body).Decode(&second)
	resp.Body.Close()
	if second.Sequence != 2 {
		t.Fatalf("expected sequence 2, got %d", second.Sequence)
	}

	var msgs []room.Message
	getJSON(t, srv, "/messages", &msgs)
	if len(msgs) != 2 || msgs[0].Agent != "alice" || msgs[1].Agent != "bob" {
		t.Fatalf("unexpected message list: %+v", msgs)
	}
	if msgs[0].Sequence != 1 || msgs[1].Sequence != 2 {
		t.Fatalf("messages out of sequence order: %+v", msgs)
	}
}

func TestPostValidation(t *testing.T) {
	srv, rm := newTestServer(t, time.Second)

	cases := []struct {
		name string
		body string
	}{
		{"missing text", `{"agent":"alice"}`},
		{"missing agent", `{"text":"hi"}`},
		{"empty agent", `{"agent":"","text":"hi"}`},
		{"non-string text", `{"agent":"alice","text":5}`},
		{"non-string agent", `{"agent":42,"text":"hi"}`},
		{"malformed JSON", `{"agent":`},
	}
	for _, tc := range cases {
		resp := postMessage(t, srv, tc.body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", tc.name, resp.StatusCode)
		}
	}
	if rm.LastSequence() != 0 {
		t.Fatalf("rejected posts advanced the sequence counter to %d", rm.LastSequence())
	}

	// Empty text is allowed.
	resp := postMessage(t, srv, `{"agent":"alice","text":""}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("empty text: expected 201, got %d", resp.StatusCode)
	}
}

func TestHealthRequiresNoAuth(t *testing.T) {
	srv, _ := newTestServer(t, time.Second)

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body map[string]string
	json.NewDecoder(resp.Body).Decode(&body)
	if body["status"] != "ok" {
		t.Fatalf("unexpected health body: %v", body)
	}
}

func TestNotFound(t *testing.T) {
	srv, _ := newTestServer(t, time.Second)

	resp, err := http.Get(srv.URL + "/nope")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestLongPollWakesOnAppend(t *testing.T) {
	srv, rm := newTestServer(t, 10*time.Second)
	rm.Append("alice", "one")
	rm.Append("bob", "two")

	go func() {
		time.Sleep(150 * time.Millisecond)
		rm.Append("carol", "three")
	}()

	start := time.Now()
	var msgs []room.Message
	resp := getJSON(t, srv, "/messages/poll?after=2", &msgs)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("poll took %v, expected to wake promptly", elapsed)
	}
	if len(msgs) != 1 || msgs[0].Sequence != 3 || msgs[0].Text != "three" {
		t.Fatalf("expected only message 3, got %+v", msgs)
	}
}

func TestLongPollTimeoutReturnsEmptyArray(t *testing.T) {
	srv, _ := newTestServer(t, 100*time.Millisecond)

	start := time.Now()
	var msgs []room.Message
	resp := getJSON(t, srv, "/messages/poll", &msgs)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("timeout must be a 200 with an empty array, got %d", resp.StatusCode)
	}
	if len(msgs) != 0 {
		t.Fatalf("expected empty result, got %+v", msgs)
	}
	if time.Since(start) < 100*time.Millisecond {
		t.Fatal("poll returned before the timeout window elapsed")
	}
}

func TestLongPollRejectsBadAfter(t *testing.T) {
	srv, _ := newTestServer(t, time.Second)

	resp := getJSON(t, srv, "/messages/poll?after=banana", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

// readStreamMessages reads SSE data events off the stream until it has n
// messages or the deadline hits.
func readStreamMessages(t *testing.T, scanner *bufio.Scanner, n int, deadline time.Duration) []room.Message {
	t.Helper()
	done := make(chan []room.Message, 1)
	go func() {
		var msgs []room.Message
		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			var msg room.Message
			if err := json.Unmarshal([]byte(line[len("data: "):]), &msg); err != nil {
				continue
			}
			msgs = append(msgs, msg)
			if len(msgs) == n {
				break
			}
		}
		done <- msgs
	}()

	select {
	case msgs := <-done:
		return msgs
	case <-time.After(deadline):
		t.Fatalf("timed out waiting for %d stream messages", n)
		return nil
	}
}

func TestStreamDeliversHistoryThenLive(t *testing.T) {
	srv, rm := newTestServer(t, time.Second)
	rm.Append("alice", "one")
	rm.Append("bob", "two")

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/messages/stream", nil)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("X-Room-Password", testPassword)

	client := &http.Client{} // no timeout, the stream stays open
	resp, err := client.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("expected text/event-stream, got %q", ct)
	}

	scanner := bufio.NewScanner(resp.Body)

	history := readStreamMessages(t, scanner, 2, 5*time.Second)
	if history[0].Sequence != 1 || history[1].Sequence != 2 {
		t.Fatalf("unexpected history: %+v", history)
	}

	rm.Append("carol", "three")

	live := readStreamMessages(t, scanner, 1, 5*time.Second)
	if live[0].Sequence != 3 || live[0].Text != "three" {
		t.Fatalf("expected message 3 with no duplicates, got %+v", live)
	}
}

func TestStreamUnregistersOnDisconnect(t *testing.T) {
	srv, rm := newTestServer(t, time.Second)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/messages/stream", nil)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("X-Room-Password", testPassword)

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatal(err)
	}

	// Wait until the handler has registered its subscriber.
	waitFor(t, func() bool { return rm.Hub().Waiting() == 1 })

	resp.Body.Close()

	// Teardown is driven by the request context; the keep-alive tick also
	// surfaces the dead connection. Either way the subscriber must go away.
	waitFor(t, func() bool { return rm.Hub().Waiting() == 0 })
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not reached within deadline")
}
