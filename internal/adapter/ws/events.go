package ws

import (
	"context"
	"encoding/json"
	"log/slog"
)

// Event type constants for WebSocket messages.
const (
	EventProposalCreated = "proposal.created"
	EventProposalDecided = "proposal.decided"
	EventActionExecuted  = "action.executed"
)

// ProposalCreatedEvent is broadcast when a new pending proposal enters the tray.
type ProposalCreatedEvent struct {
	ProposalID string  `json:"proposal_id"`
	EmailID    string  `json:"email_id"`
	ActionType string  `json:"action_type"`
	Confidence float64 `json:"confidence"`
}

// ProposalDecidedEvent is broadcast when a proposal is approved or rejected.
type ProposalDecidedEvent struct {
	ProposalID string `json:"proposal_id"`
	EmailID    string `json:"email_id"`
	Outcome    string `json:"outcome"`
	Actor      string `json:"actor"`
}

// ActionExecutedEvent is broadcast when an approved action reaches a terminal state.
type ActionExecutedEvent struct {
	ProposalID string `json:"proposal_id"`
	EmailID    string `json:"email_id"`
	ActionType string `json:"action_type"`
	Outcome    string `json:"outcome"` // executed | failed
	Detail     string `json:"detail,omitempty"`
}

// BroadcastEvent is a convenience method that marshals a typed event and broadcasts it.
func (h *Hub) BroadcastEvent(ctx context.Context, eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal ws event payload", "type", eventType, "error", err)
		return
	}

	h.Broadcast(ctx, Message{
		Type:    eventType,
		Payload: json.RawMessage(data),
	})
}
