// Package tunnel provisions a public URL for the room by driving an external
// cloudflared binary and parsing its output.
package tunnel

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"time"
)

var urlPattern = regexp.MustCompile(`https://[a-zA-Z0-9-]+\.trycloudflare\.com`)

// ErrNotFound indicates no cloudflared binary could be located.
var ErrNotFound = errors.New("cloudflared binary not found")

// startTimeout bounds how long we wait for cloudflared to report its URL.
const startTimeout = 30 * time.Second

// Tunnel is a running cloudflared process exposing the local server.
type Tunnel struct {
	URL string
	cmd *exec.Cmd
}

// Find locates the cloudflared binary: ~/cloudflared first, then PATH.
func Find() (string, error) {
	if home, err := os.UserHomeDir(); err == nil {
		candidate := filepath.Join(home, "cloudflared")
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() && info.Mode()&0111 != 0 {
			return candidate, nil
		}
	}
	if path, err := exec.LookPath("cloudflared"); err == nil {
		return path, nil
	}
	return "", ErrNotFound
}

// Start launches cloudflared against the local port and waits for it to
// report its public trycloudflare URL on stderr. The process keeps running
// after Start returns; call Stop to tear it down.
func Start(ctx context.Context, binary, port string) (*Tunnel, error) {
	cmd := exec.Command(binary, "tunnel",
		"--url", "http://localhost:"+port,
		"--protocol", "http2",
		"--no-autoupdate",
	)
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}

	urlCh := make(chan string, 1)
	go func() {
		// Keep draining stderr for the process lifetime so cloudflared never
		// blocks on a full pipe.
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			if url := ExtractURL(scanner.Text()); url != "" {
				select {
				case urlCh <- url:
				default:
				}
			}
		}
		io.Copy(io.Discard, stderr)
	}()

	select {
	case url := <-urlCh:
		return &Tunnel{URL: url, cmd: cmd}, nil
	case <-time.After(startTimeout):
		cmd.Process.Kill()
		return nil, errors.New("timed out waiting for tunnel URL from cloudflared")
	case <-ctx.Done():
		cmd.Process.Kill()
		return nil, ctx.Err()
	}
}

// Stop terminates the tunnel process.
func (t *Tunnel) Stop() {
	if t == nil || t.cmd == nil || t.cmd.Process == nil {
		return
	}
	t.cmd.Process.Signal(os.Interrupt)

	done := make(chan struct{})
	go func() {
		t.cmd.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.cmd.Process.Kill()
	}
}

// ExtractURL returns the trycloudflare URL embedded in a cloudflared log
// line, or "" if the line has none.
func ExtractURL(line string) string {
	return urlPattern.FindString(line)
}
