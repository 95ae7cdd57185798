package loadtest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const maxBodyBytes = 1 << 20

// client wraps http.Client with the base URL and a per-request timeout.
type client struct {
	http    *http.Client
	baseURL string
	timeout time.Duration
}

func newClient(baseURL string, timeout time.Duration) *client {
	return &client{http: &http.Client{}, baseURL: baseURL, timeout: timeout}
}

// do sends one request and returns the status and the body read in full.
func (c *client) do(ctx context.Context, method, path string, body any) (int, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("marshal request body: %w", err)
		}
		rd = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read %s %s: %w", method, path, err)
	}
	return resp.StatusCode, raw, nil
}

// checkHealth verifies the server answers its liveness probe.
func (c *client) checkHealth(ctx context.Context) error {
	status, _, err := c.do(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return fmt.Errorf("connect to server: %w", err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("health check returned status %d", status)
	}
	return nil
}

// fighters fetches the autocomplete list.
func (c *client) fighters(ctx context.Context) ([]string, error) {
	status, raw, err := c.do(ctx, http.MethodGet, "/api/fighters", nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("list fighters returned status %d", status)
	}
	var names []string
	if err := json.Unmarshal(raw, &names); err != nil {
		return nil, fmt.Errorf("decode fighters: %w", err)
	}
	return names, nil
}

// predict posts one matchup.
func (c *client) predict(ctx context.Context, m Matchup) Outcome {
	start := time.Now()
	status, raw, err := c.do(ctx, http.MethodPost, "/api/predict", m)
	out := Outcome{Matchup: m, Status: status, Latency: time.Since(start)}
	if err != nil {
		out.Problem = err.Error()
		return out
	}
	out.Problem = verify(m, status, raw)
	return out
}
