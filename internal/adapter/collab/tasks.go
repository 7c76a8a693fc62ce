package collab

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/jobtrail/jobtrail/internal/resilience"
)

// TaskClient talks to the task service.
type TaskClient struct {
	client
}

// NewTaskClient creates a task service client.
func NewTaskClient(baseURL, apiKey string) *TaskClient {
	return &TaskClient{client: newClient(baseURL, apiKey)}
}

// SetBreaker attaches a circuit breaker to all outgoing calls.
func (c *TaskClient) SetBreaker(b *resilience.Breaker) { c.setBreaker(b) }

// CreateTask creates a task derived from an email. The service deduplicates
// on (email_id, list) so replays are no-op successes.
func (c *TaskClient) CreateTask(ctx context.Context, emailID, list, title string) error {
	body, err := json.Marshal(map[string]string{
		"email_id": emailID,
		"list":     list,
		"title":    title,
	})
	if err != nil {
		return fmt.Errorf("marshal task: %w", err)
	}
	_, err = c.doRequest(ctx, http.MethodPost, "/v1/tasks", body)
	return err
}
