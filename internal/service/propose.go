package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	jtotel "github.com/jobtrail/jobtrail/internal/adapter/otel"
	"github.com/jobtrail/jobtrail/internal/adapter/ws"
	"github.com/jobtrail/jobtrail/internal/domain"
	"github.com/jobtrail/jobtrail/internal/domain/email"
	"github.com/jobtrail/jobtrail/internal/domain/policy"
	"github.com/jobtrail/jobtrail/internal/domain/proposal"
	"github.com/jobtrail/jobtrail/internal/port/collaborator"
	"github.com/jobtrail/jobtrail/internal/port/database"
	"github.com/jobtrail/jobtrail/internal/port/messagequeue"
)

// ProposalService generates proposed actions from email contexts and the
// enabled-policy snapshot.
type ProposalService struct {
	store       database.Store
	policies    *PolicyService
	provider    collaborator.ContextProvider
	approvals   *ApprovalService
	queue       messagequeue.Queue
	hub         *ws.Hub
	metrics     *jtotel.Metrics
	maxParallel int64
}

// NewProposalService creates a ProposalService. maxParallel bounds how many
// emails are evaluated concurrently within one run.
func NewProposalService(
	store database.Store,
	policies *PolicyService,
	provider collaborator.ContextProvider,
	approvals *ApprovalService,
	queue messagequeue.Queue,
	hub *ws.Hub,
	metrics *jtotel.Metrics,
	maxParallel int64,
) *ProposalService {
	if maxParallel < 1 {
		maxParallel = 1
	}
	return &ProposalService{
		store:       store,
		policies:    policies,
		provider:    provider,
		approvals:   approvals,
		queue:       queue,
		hub:         hub,
		metrics:     metrics,
		maxParallel: maxParallel,
	}
}

// Propose runs one proposal pass over up to limit emails. Emails are
// evaluated in parallel; the policy scan within one email is strictly
// sequential in (priority, id) order, so results are deterministic. Emails
// that already have an outstanding Pending proposal are skipped, which makes
// re-runs idempotent.
func (s *ProposalService) Propose(ctx context.Context, limit int) ([]proposal.ProposedAction, error) {
	start := time.Now()

	policies, err := s.policies.EnabledSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	ctx, span := jtotel.StartProposeSpan(ctx, limit, len(policies))
	defer span.End()

	emails, err := s.provider.ListEmailContexts(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list email contexts: %w", err)
	}

	var (
		mu      sync.Mutex
		created []proposal.ProposedAction
		wg      sync.WaitGroup
		sem     = semaphore.NewWeighted(s.maxParallel)
	)

	for i := range emails {
		if err := sem.Acquire(ctx, 1); err != nil {
			break // context cancelled; keep what we have
		}
		wg.Add(1)
		go func(ectx email.Context) {
			defer wg.Done()
			defer sem.Release(1)

			p := s.proposeOne(ctx, policies, ectx)
			if p == nil {
				return
			}
			mu.Lock()
			created = append(created, *p)
			mu.Unlock()
		}(emails[i])
	}
	wg.Wait()

	if s.metrics != nil {
		s.metrics.ProposeDuration.Record(ctx, time.Since(start).Seconds())
	}
	slog.Info("proposal run complete",
		"emails", len(emails),
		"policies", len(policies),
		"created", len(created),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return created, nil
}

// proposeOne evaluates one email against the sorted policy snapshot and
// creates at most one Pending proposal. Returns nil when nothing was
// proposed.
func (s *ProposalService) proposeOne(ctx context.Context, policies []policy.Policy, ectx email.Context) *proposal.ProposedAction {
	match := firstMatch(policies, &ectx)
	if match == nil {
		return nil
	}
	// First-match-wins: a match below its own confidence threshold still
	// short-circuits, so the email gets no proposal this run.
	if match.Confidence < match.ConfidenceThreshold {
		return nil
	}

	p := &proposal.ProposedAction{
		ID:           uuid.NewString(),
		EmailID:      ectx.EmailID,
		PolicyID:     match.ID,
		ActionType:   match.ActionType,
		ActionParams: deriveParams(match, &ectx),
		Confidence:   match.Confidence,
	}

	if err := s.store.CreateProposal(ctx, p); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			// Outstanding Pending proposal for this email; skip.
			if s.metrics != nil {
				s.metrics.ProposalsSkipped.Add(ctx, 1)
			}
			return nil
		}
		slog.Error("create proposal", "email_id", ectx.EmailID, "error", err)
		return nil
	}

	if s.metrics != nil {
		s.metrics.ProposalsCreated.Add(ctx, 1)
	}
	if s.hub != nil {
		s.hub.BroadcastEvent(ctx, ws.EventProposalCreated, ws.ProposalCreatedEvent{
			ProposalID: p.ID,
			EmailID:    p.EmailID,
			ActionType: string(p.ActionType),
			Confidence: p.Confidence,
		})
	}
	publishJSON(ctx, s.queue, messagequeue.SubjectProposalCreated, messagequeue.ProposalCreatedPayload{
		ProposalID: p.ID,
		EmailID:    p.EmailID,
		PolicyID:   p.PolicyID,
		ActionType: string(p.ActionType),
		Confidence: p.Confidence,
	})

	if match.AutoApprove {
		// The one place automation bypasses a human.
		final, err := s.approvals.Approve(ctx, p.ID, proposal.ActorSystem)
		if err != nil {
			slog.Error("auto-approve", "proposal_id", p.ID, "error", err)
			return p
		}
		return final
	}
	return p
}

// firstMatch returns the first policy (in snapshot order) whose condition
// matches. Lower-priority policies never get a chance once a higher-priority
// one fires.
func firstMatch(policies []policy.Policy, ectx *email.Context) *policy.Policy {
	for i := range policies {
		if policy.Evaluate(policies[i].Condition, ectx) {
			return &policies[i]
		}
	}
	return nil
}

// deriveParams copies the policy's action params and fills in the
// context-derived values the handlers need, so execution only ever touches
// (email_id, action_params).
func deriveParams(p *policy.Policy, ectx *email.Context) map[string]any {
	params := make(map[string]any, len(p.ActionParams)+2)
	for k, v := range p.ActionParams {
		params[k] = v
	}

	switch p.ActionType {
	case policy.ActionCreateEvent:
		if _, ok := params["start_at"]; !ok && ectx.EventStartAt != nil {
			params["start_at"] = ectx.EventStartAt.Format(time.RFC3339)
		}
		if _, ok := params["title"]; !ok && ectx.Subject != "" {
			params["title"] = ectx.Subject
		}
	case policy.ActionCreateTask:
		if _, ok := params["title"]; !ok && ectx.Subject != "" {
			params["title"] = ectx.Subject
		}
	}
	return params
}
