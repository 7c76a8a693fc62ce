// Package proposal defines the ProposedAction entity and its status state
// machine. Proposals are created Pending by the generator, decided through
// the approval gate, and terminally resolved by the executor.
package proposal

import (
	"time"

	"github.com/jobtrail/jobtrail/internal/domain/policy"
)

// Status represents the current state of a proposed action.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusExecuted Status = "executed"
	StatusFailed   Status = "failed"
)

// ActorSystem is the actor recorded when automation decides instead of a user.
const ActorSystem = "system"

// ProposedAction is a candidate action awaiting approval, tied to one email
// and (usually) one policy. PolicyID is empty for manually created proposals.
type ProposedAction struct {
	ID           string            `json:"id"`
	EmailID      string            `json:"email_id"`
	PolicyID     string            `json:"policy_id,omitempty"`
	ActionType   policy.ActionType `json:"action_type"`
	ActionParams map[string]any    `json:"action_params,omitempty"`
	Confidence   float64           `json:"confidence"`
	Status       Status            `json:"status"`
	Detail       string            `json:"detail,omitempty"` // failure detail for terminal states
	CreatedAt    time.Time         `json:"created_at"`
	DecidedAt    *time.Time        `json:"decided_at,omitempty"`
	ExecutedAt   *time.Time        `json:"executed_at,omitempty"`
}

// transitions is the closed successor relation. Rejected, Executed and
// Failed are terminal.
var transitions = map[Status][]Status{
	StatusPending:  {StatusApproved, StatusRejected},
	StatusApproved: {StatusExecuted, StatusFailed},
	StatusRejected: nil,
	StatusExecuted: nil,
	StatusFailed:   nil,
}

// CanTransition reports whether from may move to to.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether s is a terminal state.
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}
