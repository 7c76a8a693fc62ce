// Package policy defines the domain model for Jobtrail's action-automation
// layer. A policy pairs a condition tree with an action template; the engine
// evaluates enabled policies against email contexts and proposes actions for
// human approval.
package policy

import "time"

// ActionType identifies the effect a policy proposes.
type ActionType string

const (
	ActionLabel                ActionType = "label"
	ActionArchive              ActionType = "archive"
	ActionMove                 ActionType = "move"
	ActionUnsubscribe          ActionType = "unsubscribe"
	ActionCreateEvent          ActionType = "create_event"
	ActionCreateTask           ActionType = "create_task"
	ActionBlockSender          ActionType = "block_sender"
	ActionQuarantineAttachment ActionType = "quarantine_attachment"
)

// ActionTypes returns all dispatchable action types.
func ActionTypes() []ActionType {
	return []ActionType{
		ActionLabel,
		ActionArchive,
		ActionMove,
		ActionUnsubscribe,
		ActionCreateEvent,
		ActionCreateTask,
		ActionBlockSender,
		ActionQuarantineAttachment,
	}
}

// KnownActionType reports whether t is part of the executor's dispatch table.
func KnownActionType(t ActionType) bool {
	for _, a := range ActionTypes() {
		if a == t {
			return true
		}
	}
	return false
}

// Policy is a named, prioritized rule. Lower priority values are evaluated
// first; ties are broken by id ascending so evaluation order is deterministic.
// The engine never mutates stored policies.
type Policy struct {
	ID                  string         `json:"id"`
	Name                string         `json:"name"`
	Enabled             bool           `json:"enabled"`
	Priority            int            `json:"priority"`
	AutoApprove         bool           `json:"auto_approve"`
	Condition           Condition      `json:"condition"`
	ActionType          ActionType     `json:"action_type"`
	ActionParams        map[string]any `json:"action_params,omitempty"`
	Confidence          float64        `json:"confidence"`
	ConfidenceThreshold float64        `json:"confidence_threshold"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
}

// CreateRequest holds the fields needed to create a policy.
type CreateRequest struct {
	Name                string         `json:"name"`
	Enabled             *bool          `json:"enabled,omitempty"` // default true
	Priority            int            `json:"priority"`
	AutoApprove         bool           `json:"auto_approve"`
	Condition           Condition      `json:"condition"`
	ActionType          ActionType     `json:"action_type"`
	ActionParams        map[string]any `json:"action_params,omitempty"`
	Confidence          *float64       `json:"confidence,omitempty"` // default 1.0
	ConfidenceThreshold float64        `json:"confidence_threshold"`
}

// UpdateRequest holds a partial policy update. Nil fields are left unchanged.
type UpdateRequest struct {
	Name                *string         `json:"name,omitempty"`
	Enabled             *bool           `json:"enabled,omitempty"`
	Priority            *int            `json:"priority,omitempty"`
	AutoApprove         *bool           `json:"auto_approve,omitempty"`
	Condition           *Condition      `json:"condition,omitempty"`
	ActionType          *ActionType     `json:"action_type,omitempty"`
	ActionParams        *map[string]any `json:"action_params,omitempty"`
	Confidence          *float64        `json:"confidence,omitempty"`
	ConfidenceThreshold *float64        `json:"confidence_threshold,omitempty"`
}

// Apply overlays the non-nil fields of req onto p.
func (req *UpdateRequest) Apply(p *Policy) {
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Enabled != nil {
		p.Enabled = *req.Enabled
	}
	if req.Priority != nil {
		p.Priority = *req.Priority
	}
	if req.AutoApprove != nil {
		p.AutoApprove = *req.AutoApprove
	}
	if req.Condition != nil {
		p.Condition = *req.Condition
	}
	if req.ActionType != nil {
		p.ActionType = *req.ActionType
	}
	if req.ActionParams != nil {
		p.ActionParams = *req.ActionParams
	}
	if req.Confidence != nil {
		p.Confidence = *req.Confidence
	}
	if req.ConfidenceThreshold != nil {
		p.ConfidenceThreshold = *req.ConfidenceThreshold
	}
}
