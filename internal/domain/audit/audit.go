// Package audit defines the append-only audit trail. Entries are written by
// the approval gate and the executor and never updated, deleted, or read
// back by the engine itself.
package audit

import (
	"time"

	"github.com/jobtrail/jobtrail/internal/domain/policy"
)

// Outcome classifies what an audit entry records.
type Outcome string

const (
	OutcomeApproved Outcome = "approved"
	OutcomeRejected Outcome = "rejected"
	OutcomeExecuted Outcome = "executed"
	OutcomeFailed   Outcome = "failed"
)

// Entry is one immutable audit record.
type Entry struct {
	ID         string            `json:"id"`
	EmailID    string            `json:"email_id"`
	ProposalID string            `json:"proposal_id"`
	ActionType policy.ActionType `json:"action_type"`
	Outcome    Outcome           `json:"outcome"`
	Actor      string            `json:"actor"` // user id or "system"
	Detail     string            `json:"detail,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}

// Filter narrows audit listings for the operator read model.
type Filter struct {
	EmailID string
	Limit   int
}
