package collab

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jobtrail/jobtrail/internal/resilience"
)

// CalendarClient talks to the calendar service.
type CalendarClient struct {
	client
}

// NewCalendarClient creates a calendar service client.
func NewCalendarClient(baseURL, apiKey string) *CalendarClient {
	return &CalendarClient{client: newClient(baseURL, apiKey)}
}

// SetBreaker attaches a circuit breaker to all outgoing calls.
func (c *CalendarClient) SetBreaker(b *resilience.Breaker) { c.setBreaker(b) }

// CreateEvent creates a calendar event derived from an email. The service
// deduplicates on (email_id, calendar) so replays are no-op successes.
func (c *CalendarClient) CreateEvent(ctx context.Context, emailID, calendar, title string, startAt time.Time) error {
	body, err := json.Marshal(map[string]any{
		"email_id": emailID,
		"calendar": calendar,
		"title":    title,
		"start_at": startAt.Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	_, err = c.doRequest(ctx, http.MethodPost, "/v1/events", body)
	return err
}
