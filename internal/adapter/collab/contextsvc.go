package collab

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jobtrail/jobtrail/internal/domain/email"
	"github.com/jobtrail/jobtrail/internal/resilience"
)

// ContextClient fetches email context snapshots from the email-sync and
// extraction service.
type ContextClient struct {
	client
}

// NewContextClient creates an email-context client.
func NewContextClient(baseURL, apiKey string) *ContextClient {
	return &ContextClient{client: newClient(baseURL, apiKey)}
}

// SetBreaker attaches a circuit breaker to all outgoing calls.
func (c *ContextClient) SetBreaker(b *resilience.Breaker) { c.setBreaker(b) }

// ListEmailContexts returns snapshots for up to limit unprocessed emails.
// The Now instant is stamped here, once, so every policy evaluated against a
// snapshot sees the same clock.
func (c *ContextClient) ListEmailContexts(ctx context.Context, limit int) ([]email.Context, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/v1/contexts?limit="+strconv.Itoa(limit), nil)
	if err != nil {
		return nil, fmt.Errorf("list email contexts: %w", err)
	}

	var result struct {
		Contexts []email.Context `json:"contexts"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, fmt.Errorf("unmarshal contexts: %w", err)
	}

	now := time.Now().UTC()
	for i := range result.Contexts {
		if result.Contexts[i].Now.IsZero() {
			result.Contexts[i].Now = now
		}
	}
	return result.Contexts, nil
}

// GetEmailContext returns the snapshot for one email.
func (c *ContextClient) GetEmailContext(ctx context.Context, emailID string) (*email.Context, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/v1/contexts/"+url.PathEscape(emailID), nil)
	if err != nil {
		return nil, fmt.Errorf("get email context %s: %w", emailID, err)
	}

	var ec email.Context
	if err := json.Unmarshal(resp, &ec); err != nil {
		return nil, fmt.Errorf("unmarshal context: %w", err)
	}
	if ec.Now.IsZero() {
		ec.Now = time.Now().UTC()
	}
	return &ec, nil
}
