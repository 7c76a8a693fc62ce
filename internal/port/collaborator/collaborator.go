// Package collaborator defines the port interfaces for the external
// subsystems the engine calls: the email-sync/extraction service that
// supplies evaluation contexts, and the mail/calendar/task services that
// carry out approved actions.
//
// Effect methods are required to be idempotent per action: archiving an
// already-archived email is a no-op success, so an operator re-running a
// failed action is always safe. That contract belongs to the collaborator,
// not the executor.
package collaborator

import (
	"context"
	"time"

	"github.com/jobtrail/jobtrail/internal/domain/email"
)

// ContextProvider supplies read-only email context snapshots.
type ContextProvider interface {
	// ListEmailContexts returns snapshots for up to limit emails awaiting
	// classification, with Now injected by the provider.
	ListEmailContexts(ctx context.Context, limit int) ([]email.Context, error)

	// GetEmailContext returns the snapshot for a single email.
	GetEmailContext(ctx context.Context, emailID string) (*email.Context, error)
}

// MailService performs mailbox side effects.
type MailService interface {
	Label(ctx context.Context, emailID, label string) error
	Archive(ctx context.Context, emailID string) error
	Move(ctx context.Context, emailID, folder string) error
	Unsubscribe(ctx context.Context, emailID string) error
	BlockSender(ctx context.Context, emailID string) error
	QuarantineAttachment(ctx context.Context, emailID string) error
}

// CalendarService creates calendar events from email metadata.
type CalendarService interface {
	CreateEvent(ctx context.Context, emailID, calendar, title string, startAt time.Time) error
}

// TaskService creates tasks from email metadata.
type TaskService interface {
	CreateTask(ctx context.Context, emailID, list, title string) error
}
