// Package database defines the database store port (interface).
package database

import (
	"context"

	"github.com/jobtrail/jobtrail/internal/domain/audit"
	"github.com/jobtrail/jobtrail/internal/domain/policy"
	"github.com/jobtrail/jobtrail/internal/domain/proposal"
)

// Store is the port interface for database operations.
type Store interface {
	// Policies
	ListPolicies(ctx context.Context) ([]policy.Policy, error)
	ListEnabledPolicies(ctx context.Context) ([]policy.Policy, error)
	GetPolicy(ctx context.Context, id string) (*policy.Policy, error)
	CreatePolicy(ctx context.Context, req policy.CreateRequest) (*policy.Policy, error)
	UpdatePolicy(ctx context.Context, p *policy.Policy) error
	DeletePolicy(ctx context.Context, id string) error

	// Proposals
	ListPendingProposals(ctx context.Context) ([]proposal.ProposedAction, error)
	GetProposal(ctx context.Context, id string) (*proposal.ProposedAction, error)
	// CreateProposal inserts a Pending proposal. It returns
	// domain.ErrConflict when the email already has an outstanding Pending
	// proposal (enforced by a partial unique index, so concurrent runs
	// cannot both insert one).
	CreateProposal(ctx context.Context, p *proposal.ProposedAction) error
	// TransitionProposal performs a check-and-set status update
	// (WHERE status = from). It returns domain.ErrInvalidTransition when
	// the proposal is not in the expected state, and records detail on the
	// row for terminal failures.
	TransitionProposal(ctx context.Context, id string, from, to proposal.Status, detail string) (*proposal.ProposedAction, error)

	// Audit (append-only; the engine is the single writer)
	CreateAuditEntry(ctx context.Context, e *audit.Entry) error
	ListAuditEntries(ctx context.Context, f audit.Filter) ([]audit.Entry, error)
}
