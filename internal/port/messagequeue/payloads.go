package messagequeue

// ProposalCreatedPayload is the schema for proposals.created messages.
type ProposalCreatedPayload struct {
	ProposalID string  `json:"proposal_id"`
	EmailID    string  `json:"email_id"`
	PolicyID   string  `json:"policy_id,omitempty"`
	ActionType string  `json:"action_type"`
	Confidence float64 `json:"confidence"`
}

// ProposalDecidedPayload is the schema for proposals.decided messages.
type ProposalDecidedPayload struct {
	ProposalID string `json:"proposal_id"`
	EmailID    string `json:"email_id"`
	Outcome    string `json:"outcome"` // approved | rejected
	Actor      string `json:"actor"`
}

// ActionExecutedPayload is the schema for actions.executed messages.
type ActionExecutedPayload struct {
	ProposalID string `json:"proposal_id"`
	EmailID    string `json:"email_id"`
	ActionType string `json:"action_type"`
	Outcome    string `json:"outcome"` // executed | failed
	Detail     string `json:"detail,omitempty"`
}
