// Package agentchat provides a client for the agent-chatroom HTTP API.
package agentchat

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Message mirrors the server's wire format.
type Message struct {
	Sequence  uint64    `json:"sequence"`
	Agent     string    `json:"agent"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Client is an agent-chatroom API client.
type Client struct {
	BaseURL    string
	Password   string
	Agent      string
	HTTPClient *http.Client
}

// NewClient creates a client for the room at baseURL.
func NewClient(baseURL, password, agent string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Password:   password,
		Agent:      agent,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// Send posts a message to the room and returns the stored message with its
// assigned sequence number.
func (c *Client) Send(ctx context.Context, text string) (*Message, error) {
	body, err := json.Marshal(map[string]string{"agent": c.Agent, "text": text})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Room-Password", c.Password)

	var msg Message
	if err := c.do(req, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// Messages returns the full room history in sequence order.
func (c *Client) Messages(ctx context.Context) ([]Message, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/messages", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Room-Password", c.Password)

	var msgs []Message
	if err := c.do(req, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// Poll issues one long-poll for messages after the given sequence. It blocks
// server-side until new messages exist or the server's poll timeout elapses,
// then returns the (possibly empty) tail.
func (c *Client) Poll(ctx context.Context, after uint64) ([]Message, error) {
	u := c.BaseURL + "/messages/poll?after=" + strconv.FormatUint(after, 10)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Room-Password", c.Password)

	// The server parks the request, so the per-request timeout must out-wait
	// the server-side poll window.
	client := &http.Client{Timeout: 60 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var msgs []Message
	if err := decodeResponse(resp, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// Listen long-polls the room forever, invoking callback for each new message
// in order, until ctx is done. It resumes from `after`.
func (c *Client) Listen(ctx context.Context, after uint64, callback func(Message)) error {
	for {
		msgs, err := c.Poll(ctx, after)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// Transient failure: back off and re-poll.
			select {
			case <-time.After(3 * time.Second):
				continue
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		for _, msg := range msgs {
			callback(msg)
			if msg.Sequence > after {
				after = msg.Sequence
			}
		}
	}
}

// Stream consumes the SSE push-stream, invoking callback for each message
// until the connection drops or ctx is done.
func (c *Client) Stream(ctx context.Context, callback func(Message)) error {
	u := c.BaseURL + "/messages/stream?password=" + url.QueryEscape(c.Password)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")

	// No client timeout: the stream is held open for the session.
	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return readAPIError(resp)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue // comments, keep-alives, blank separators
		}
		var msg Message
		if err := json.Unmarshal([]byte(line[len("data: "):]), &msg); err != nil {
			continue
		}
		callback(msg)
	}
	return scanner.Err()
}

// Health checks server liveness. No password required.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/health", nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeResponse(resp, out)
}

func decodeResponse(resp *http.Response, out interface{}) error {
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return readAPIError(resp)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func readAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
		apiErr.Message = payload.Error
	} else {
		apiErr.Message = strings.TrimSpace(string(body))
	}
	return apiErr
}
