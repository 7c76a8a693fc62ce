package collab

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/jobtrail/jobtrail/internal/resilience"
)

// MailClient talks to the mail service's action API. All endpoints are
// idempotent on the service side: re-archiving an archived email succeeds.
type MailClient struct {
	client
}

// NewMailClient creates a mail service client.
func NewMailClient(baseURL, apiKey string) *MailClient {
	return &MailClient{client: newClient(baseURL, apiKey)}
}

// SetBreaker attaches a circuit breaker to all outgoing calls.
func (c *MailClient) SetBreaker(b *resilience.Breaker) { c.setBreaker(b) }

// Label applies a label to an email.
func (c *MailClient) Label(ctx context.Context, emailID, label string) error {
	body, err := json.Marshal(map[string]string{"label": label})
	if err != nil {
		return fmt.Errorf("marshal label: %w", err)
	}
	_, err = c.doRequest(ctx, http.MethodPost, "/v1/emails/"+url.PathEscape(emailID)+"/label", body)
	return err
}

// Archive moves an email out of the inbox.
func (c *MailClient) Archive(ctx context.Context, emailID string) error {
	_, err := c.doRequest(ctx, http.MethodPost, "/v1/emails/"+url.PathEscape(emailID)+"/archive", nil)
	return err
}

// Move files an email into a folder.
func (c *MailClient) Move(ctx context.Context, emailID, folder string) error {
	body, err := json.Marshal(map[string]string{"folder": folder})
	if err != nil {
		return fmt.Errorf("marshal move: %w", err)
	}
	_, err = c.doRequest(ctx, http.MethodPost, "/v1/emails/"+url.PathEscape(emailID)+"/move", body)
	return err
}

// Unsubscribe triggers the list-unsubscribe flow for an email's sender.
func (c *MailClient) Unsubscribe(ctx context.Context, emailID string) error {
	_, err := c.doRequest(ctx, http.MethodPost, "/v1/emails/"+url.PathEscape(emailID)+"/unsubscribe", nil)
	return err
}

// BlockSender blocks the email's sender.
func (c *MailClient) BlockSender(ctx context.Context, emailID string) error {
	_, err := c.doRequest(ctx, http.MethodPost, "/v1/emails/"+url.PathEscape(emailID)+"/block-sender", nil)
	return err
}

// QuarantineAttachment quarantines the email's attachments.
func (c *MailClient) QuarantineAttachment(ctx context.Context, emailID string) error {
	_, err := c.doRequest(ctx, http.MethodPost, "/v1/emails/"+url.PathEscape(emailID)+"/quarantine", nil)
	return err
}
