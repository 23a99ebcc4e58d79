// internal/executor/executor.go
package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"
)

// Gateway runs one code+input pair in isolation. The only guarantee is
// isolated, time-bounded execution; the judging logic must never depend on
// the sandboxing mechanism behind it. A returned error means the gateway
// itself failed (unreachable, timed out); sandbox-reported failures of the
// submitted code come back in RunResult.
type Gateway interface {
	Run(ctx context.Context, req RunRequest) (RunResult, error)
}

type RunRequest struct {
	Language string `json:"language"`
	Code     string `json:"code"`
	Stdin    string `json:"stdin,omitempty"`
}

type RunResult struct {
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	ExitCode int    `json:"exit_code"`
}

// Failed reports whether the sandbox observed a runtime failure.
func (r RunResult) Failed() bool {
	return r.ExitCode != 0
}

// ErrorText is the human-readable failure description for a failed run.
func (r RunResult) ErrorText() string {
	if r.Stderr != "" {
		return r.Stderr
	}
	return fmt.Sprintf("process exited with code %d", r.ExitCode)
}

// DefaultTimeout bounds a single gateway call. The runner applies its own
// per-process limits; this is the ceiling on the whole round trip.
const DefaultTimeout = 10 * time.Second

// HTTPGateway calls an external runner service over HTTP. There is no way to
// cancel a run once the request is in flight beyond the fixed timeout.
type HTTPGateway struct {
	url     string
	client  *http.Client
	timeout time.Duration
}

// NewHTTPGateway builds a gateway against the runner at url. A zero timeout
// selects DefaultTimeout.
func NewHTTPGateway(url string, timeout time.Duration) *HTTPGateway {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPGateway{
		url:     url,
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
	}
}

// NewHTTPGatewayFromEnv reads RUNNER_URL and RUNNER_TIMEOUT.
func NewHTTPGatewayFromEnv() *HTTPGateway {
	url := os.Getenv("RUNNER_URL")
	if url == "" {
		url = "http://localhost:2358/run"
	}
	timeout := DefaultTimeout
	if raw := os.Getenv("RUNNER_TIMEOUT"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil {
			timeout = d
		}
	}
	return NewHTTPGateway(url, timeout)
}

func (g *HTTPGateway) Run(ctx context.Context, req RunRequest) (RunResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return RunResult{}, fmt.Errorf("marshal run request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(body))
	if err != nil {
		return RunResult{}, fmt.Errorf("build run request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return RunResult{}, fmt.Errorf("execution gateway unavailable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return RunResult{}, fmt.Errorf("execution gateway returned status %d", resp.StatusCode)
	}

	var result RunResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return RunResult{}, fmt.Errorf("decode run result: %w", err)
	}
	return result, nil
}
