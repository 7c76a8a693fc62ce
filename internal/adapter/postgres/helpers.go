package postgres

import (
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jobtrail/jobtrail/internal/domain/policy"
	"github.com/jobtrail/jobtrail/internal/domain/proposal"
)

// scanPolicy reads one policy row, decoding the JSONB columns.
func scanPolicy(row pgx.Row) (policy.Policy, error) {
	var (
		p             policy.Policy
		conditionJSON []byte
		paramsJSON    []byte
	)
	if err := row.Scan(
		&p.ID, &p.Name, &p.Enabled, &p.Priority, &p.AutoApprove,
		&conditionJSON, &p.ActionType, &paramsJSON,
		&p.Confidence, &p.ConfidenceThreshold, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return policy.Policy{}, err
	}
	if err := json.Unmarshal(conditionJSON, &p.Condition); err != nil {
		return policy.Policy{}, fmt.Errorf("decode condition: %w", err)
	}
	if err := json.Unmarshal(paramsJSON, &p.ActionParams); err != nil {
		return policy.Policy{}, fmt.Errorf("decode action_params: %w", err)
	}
	return p, nil
}

// scanProposal reads one proposed_actions row.
func scanProposal(row pgx.Row) (proposal.ProposedAction, error) {
	var (
		p          proposal.ProposedAction
		policyID   *string
		paramsJSON []byte
	)
	if err := row.Scan(
		&p.ID, &p.EmailID, &policyID, &p.ActionType, &paramsJSON,
		&p.Confidence, &p.Status, &p.Detail,
		&p.CreatedAt, &p.DecidedAt, &p.ExecutedAt,
	); err != nil {
		return proposal.ProposedAction{}, err
	}
	if policyID != nil {
		p.PolicyID = *policyID
	}
	if err := json.Unmarshal(paramsJSON, &p.ActionParams); err != nil {
		return proposal.ProposedAction{}, fmt.Errorf("decode action_params: %w", err)
	}
	return p, nil
}

// nullableID maps an empty string to SQL NULL for uuid columns.
func nullableID(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}
