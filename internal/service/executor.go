package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	jtotel "github.com/jobtrail/jobtrail/internal/adapter/otel"
	"github.com/jobtrail/jobtrail/internal/adapter/ws"
	"github.com/jobtrail/jobtrail/internal/domain"
	"github.com/jobtrail/jobtrail/internal/domain/audit"
	"github.com/jobtrail/jobtrail/internal/domain/policy"
	"github.com/jobtrail/jobtrail/internal/domain/proposal"
	"github.com/jobtrail/jobtrail/internal/port/collaborator"
	"github.com/jobtrail/jobtrail/internal/port/database"
	"github.com/jobtrail/jobtrail/internal/port/messagequeue"
)

// Handler performs one action's side effect. Handlers must be idempotent
// per email so an operator re-running a failed action is safe.
type Handler func(ctx context.Context, emailID string, params map[string]any) error

// Executor dispatches approved proposals to effect handlers and records the
// terminal outcome. It contains no business logic beyond dispatch, timeout
// handling, and the terminal-state transition.
type Executor struct {
	store    database.Store
	handlers map[policy.ActionType]Handler
	timeout  time.Duration
	queue    messagequeue.Queue
	hub      *ws.Hub
	metrics  *jtotel.Metrics
}

// NewExecutor builds the dispatch table over the collaborator services.
// The table is static: policy validation guarantees every stored action_type
// has an entry here.
func NewExecutor(
	store database.Store,
	mail collaborator.MailService,
	calendar collaborator.CalendarService,
	tasks collaborator.TaskService,
	timeout time.Duration,
	queue messagequeue.Queue,
	hub *ws.Hub,
	metrics *jtotel.Metrics,
) *Executor {
	handlers := map[policy.ActionType]Handler{
		policy.ActionLabel: func(ctx context.Context, emailID string, params map[string]any) error {
			label, err := requireStringParam(params, "label")
			if err != nil {
				return err
			}
			return mail.Label(ctx, emailID, label)
		},
		policy.ActionArchive: func(ctx context.Context, emailID string, _ map[string]any) error {
			return mail.Archive(ctx, emailID)
		},
		policy.ActionMove: func(ctx context.Context, emailID string, params map[string]any) error {
			folder, err := requireStringParam(params, "folder")
			if err != nil {
				return err
			}
			return mail.Move(ctx, emailID, folder)
		},
		policy.ActionUnsubscribe: func(ctx context.Context, emailID string, _ map[string]any) error {
			return mail.Unsubscribe(ctx, emailID)
		},
		policy.ActionBlockSender: func(ctx context.Context, emailID string, _ map[string]any) error {
			return mail.BlockSender(ctx, emailID)
		},
		policy.ActionQuarantineAttachment: func(ctx context.Context, emailID string, _ map[string]any) error {
			return mail.QuarantineAttachment(ctx, emailID)
		},
		policy.ActionCreateEvent: func(ctx context.Context, emailID string, params map[string]any) error {
			startRaw, err := requireStringParam(params, "start_at")
			if err != nil {
				return err
			}
			startAt, err := time.Parse(time.RFC3339, startRaw)
			if err != nil {
				return fmt.Errorf("parse start_at %q: %w", startRaw, err)
			}
			return calendar.CreateEvent(ctx, emailID,
				stringParam(params, "calendar", "default"),
				stringParam(params, "title", "Event"),
				startAt)
		},
		policy.ActionCreateTask: func(ctx context.Context, emailID string, params map[string]any) error {
			return tasks.CreateTask(ctx, emailID,
				stringParam(params, "list", "inbox"),
				stringParam(params, "title", "Follow up"))
		},
	}

	return &Executor{
		store:    store,
		handlers: handlers,
		timeout:  timeout,
		queue:    queue,
		hub:      hub,
		metrics:  metrics,
	}
}

// Execute runs the effect handler for an approved proposal and moves it to
// its terminal state. Handler errors (including timeouts) end in Failed with
// an audit entry; they are recorded, never propagated past this boundary.
// The returned error covers infrastructure failures only.
func (e *Executor) Execute(ctx context.Context, p *proposal.ProposedAction) (*proposal.ProposedAction, error) {
	if p.Status != proposal.StatusApproved {
		return nil, fmt.Errorf("execute proposal %s in state %s: %w", p.ID, p.Status, domain.ErrInvalidTransition)
	}

	ctx, span := jtotel.StartExecuteSpan(ctx, p.ID, string(p.ActionType))
	defer span.End()

	handler, ok := e.handlers[p.ActionType]
	if !ok {
		// Unreachable for stored policies: validation checks the dispatch
		// table. Manually crafted rows still end in Failed, not a panic.
		return e.fail(ctx, p, fmt.Sprintf("no handler for action_type %q", p.ActionType))
	}

	hctx, cancel := context.WithTimeout(ctx, e.timeout)
	err := handler(hctx, p.EmailID, p.ActionParams)
	cancel()

	if err != nil {
		return e.fail(ctx, p, err.Error())
	}
	return e.succeed(ctx, p)
}

func (e *Executor) succeed(ctx context.Context, p *proposal.ProposedAction) (*proposal.ProposedAction, error) {
	updated, err := e.store.TransitionProposal(ctx, p.ID, proposal.StatusApproved, proposal.StatusExecuted, "")
	if err != nil {
		return nil, err
	}
	if err := e.writeAudit(ctx, updated, audit.OutcomeExecuted, proposal.ActorSystem, ""); err != nil {
		return nil, err
	}
	if e.metrics != nil {
		e.metrics.Executions.Add(ctx, 1)
	}
	e.notifyExecuted(ctx, updated, "")

	slog.Info("action executed",
		"proposal_id", updated.ID,
		"email_id", updated.EmailID,
		"action_type", updated.ActionType,
	)
	return updated, nil
}

func (e *Executor) fail(ctx context.Context, p *proposal.ProposedAction, detail string) (*proposal.ProposedAction, error) {
	updated, err := e.store.TransitionProposal(ctx, p.ID, proposal.StatusApproved, proposal.StatusFailed, detail)
	if err != nil {
		return nil, err
	}
	if err := e.writeAudit(ctx, updated, audit.OutcomeFailed, proposal.ActorSystem, detail); err != nil {
		return nil, err
	}
	if e.metrics != nil {
		e.metrics.ExecutionsFailed.Add(ctx, 1)
	}
	e.notifyExecuted(ctx, updated, detail)

	slog.Warn("action failed",
		"proposal_id", updated.ID,
		"email_id", updated.EmailID,
		"action_type", updated.ActionType,
		"detail", detail,
	)
	return updated, nil
}

func (e *Executor) writeAudit(ctx context.Context, p *proposal.ProposedAction, outcome audit.Outcome, actor, detail string) error {
	return e.store.CreateAuditEntry(ctx, &audit.Entry{
		ID:         uuid.NewString(),
		EmailID:    p.EmailID,
		ProposalID: p.ID,
		ActionType: p.ActionType,
		Outcome:    outcome,
		Actor:      actor,
		Detail:     detail,
	})
}

func (e *Executor) notifyExecuted(ctx context.Context, p *proposal.ProposedAction, detail string) {
	outcome := string(p.Status)
	if e.hub != nil {
		e.hub.BroadcastEvent(ctx, ws.EventActionExecuted, ws.ActionExecutedEvent{
			ProposalID: p.ID,
			EmailID:    p.EmailID,
			ActionType: string(p.ActionType),
			Outcome:    outcome,
			Detail:     detail,
		})
	}
	publishJSON(ctx, e.queue, messagequeue.SubjectActionExecuted, messagequeue.ActionExecutedPayload{
		ProposalID: p.ID,
		EmailID:    p.EmailID,
		ActionType: string(p.ActionType),
		Outcome:    outcome,
		Detail:     detail,
	})
}

// requireStringParam extracts a mandatory string parameter.
func requireStringParam(params map[string]any, key string) (string, error) {
	v, ok := params[key]
	if !ok {
		return "", fmt.Errorf("missing action param %q", key)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("action param %q must be a non-empty string", key)
	}
	return s, nil
}

// stringParam extracts an optional string parameter with a fallback.
func stringParam(params map[string]any, key, fallback string) string {
	if v, ok := params[key]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return fallback
}
