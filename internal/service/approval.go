package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	jtotel "github.com/jobtrail/jobtrail/internal/adapter/otel"
	"github.com/jobtrail/jobtrail/internal/adapter/ws"
	"github.com/jobtrail/jobtrail/internal/domain"
	"github.com/jobtrail/jobtrail/internal/domain/audit"
	"github.com/jobtrail/jobtrail/internal/domain/proposal"
	"github.com/jobtrail/jobtrail/internal/port/database"
	"github.com/jobtrail/jobtrail/internal/port/messagequeue"
)

// ApprovalService owns the proposal status state machine. It is the only
// component that moves proposals out of Pending; the executor does the final
// terminal transition.
type ApprovalService struct {
	store    database.Store
	executor *Executor
	queue    messagequeue.Queue
	hub      *ws.Hub
	metrics  *jtotel.Metrics
}

// NewApprovalService creates an ApprovalService. The executor is invoked
// synchronously on approval: the caller sees approval and execution as one
// operation.
func NewApprovalService(store database.Store, executor *Executor, queue messagequeue.Queue, hub *ws.Hub, metrics *jtotel.Metrics) *ApprovalService {
	return &ApprovalService{
		store:    store,
		executor: executor,
		queue:    queue,
		hub:      hub,
		metrics:  metrics,
	}
}

// Tray returns all pending proposals, oldest first.
func (s *ApprovalService) Tray(ctx context.Context) ([]proposal.ProposedAction, error) {
	return s.store.ListPendingProposals(ctx)
}

// Get returns one proposal by id.
func (s *ApprovalService) Get(ctx context.Context, id string) (*proposal.ProposedAction, error) {
	return s.store.GetProposal(ctx, id)
}

// Approve moves a Pending proposal to Approved, writes the audit entry, and
// synchronously executes the action. Concurrent approve/reject on the same
// proposal has exactly one winner: the loser's check-and-set matches zero
// rows and surfaces domain.ErrInvalidTransition.
func (s *ApprovalService) Approve(ctx context.Context, id, actor string) (*proposal.ProposedAction, error) {
	if actor == "" {
		return nil, fmt.Errorf("actor is required: %w", domain.ErrValidation)
	}

	p, err := s.store.TransitionProposal(ctx, id, proposal.StatusPending, proposal.StatusApproved, "")
	if err != nil {
		return nil, err
	}
	if err := s.writeAudit(ctx, p, audit.OutcomeApproved, actor, ""); err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.Approvals.Add(ctx, 1)
	}
	s.notifyDecided(ctx, p, audit.OutcomeApproved, actor)

	slog.Info("proposal approved",
		"proposal_id", p.ID,
		"email_id", p.EmailID,
		"actor", actor,
	)

	return s.executor.Execute(ctx, p)
}

// Reject moves a Pending proposal to Rejected and writes the audit entry.
// No executor call.
func (s *ApprovalService) Reject(ctx context.Context, id, actor string) (*proposal.ProposedAction, error) {
	if actor == "" {
		return nil, fmt.Errorf("actor is required: %w", domain.ErrValidation)
	}

	p, err := s.store.TransitionProposal(ctx, id, proposal.StatusPending, proposal.StatusRejected, "")
	if err != nil {
		return nil, err
	}
	if err := s.writeAudit(ctx, p, audit.OutcomeRejected, actor, ""); err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.Rejections.Add(ctx, 1)
	}
	s.notifyDecided(ctx, p, audit.OutcomeRejected, actor)

	slog.Info("proposal rejected",
		"proposal_id", p.ID,
		"email_id", p.EmailID,
		"actor", actor,
	)
	return p, nil
}

func (s *ApprovalService) writeAudit(ctx context.Context, p *proposal.ProposedAction, outcome audit.Outcome, actor, detail string) error {
	return s.store.CreateAuditEntry(ctx, &audit.Entry{
		ID:         uuid.NewString(),
		EmailID:    p.EmailID,
		ProposalID: p.ID,
		ActionType: p.ActionType,
		Outcome:    outcome,
		Actor:      actor,
		Detail:     detail,
	})
}

func (s *ApprovalService) notifyDecided(ctx context.Context, p *proposal.ProposedAction, outcome audit.Outcome, actor string) {
	if s.hub != nil {
		s.hub.BroadcastEvent(ctx, ws.EventProposalDecided, ws.ProposalDecidedEvent{
			ProposalID: p.ID,
			EmailID:    p.EmailID,
			Outcome:    string(outcome),
			Actor:      actor,
		})
	}
	publishJSON(ctx, s.queue, messagequeue.SubjectProposalDecided, messagequeue.ProposalDecidedPayload{
		ProposalID: p.ID,
		EmailID:    p.EmailID,
		Outcome:    string(outcome),
		Actor:      actor,
	})
}

// Audit returns audit entries for the operator read model.
func (s *ApprovalService) Audit(ctx context.Context, f audit.Filter) ([]audit.Entry, error) {
	return s.store.ListAuditEntries(ctx, f)
}
