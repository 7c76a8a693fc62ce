package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/jobtrail/jobtrail/internal/port/messagequeue"
)

// publishJSON marshals and publishes an event payload. Event publication is
// best-effort: a queue outage must not fail the originating operation, so
// errors are logged and dropped.
func publishJSON(ctx context.Context, queue messagequeue.Queue, subject string, payload any) {
	if queue == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal event payload", "subject", subject, "error", err)
		return
	}
	if err := queue.Publish(ctx, subject, data); err != nil {
		slog.Warn("publish event", "subject", subject, "error", err)
	}
}
