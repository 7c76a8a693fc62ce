// Package collab provides HTTP clients for the external collaborator
// services: mail, calendar, tasks, and the email-sync/extraction service
// that supplies evaluation contexts.
package collab

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jobtrail/jobtrail/internal/resilience"
)

// client is the shared HTTP plumbing for all collaborator clients.
type client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	breaker    *resilience.Breaker
}

func newClient(baseURL, apiKey string) client {
	return client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// setBreaker attaches a circuit breaker to all outgoing HTTP calls.
func (c *client) setBreaker(b *resilience.Breaker) {
	c.breaker = b
}

// doRequest performs an HTTP request against the collaborator, routed
// through the circuit breaker when one is attached. Non-2xx responses are
// errors; the caller's context carries the per-call timeout.
func (c *client) doRequest(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var result []byte

	call := func() error {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("%s %s: %w", method, path, err)
		}
		defer func() { _ = resp.Body.Close() }()

		data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, truncate(data, 256))
		}

		result = data
		return nil
	}

	if c.breaker != nil {
		if err := c.breaker.Execute(call); err != nil {
			return nil, err
		}
		return result, nil
	}
	if err := call(); err != nil {
		return nil, err
	}
	return result, nil
}

func truncate(data []byte, n int) string {
	if len(data) > n {
		return string(data[:n]) + "..."
	}
	return string(data)
}
