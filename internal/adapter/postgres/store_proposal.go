package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jobtrail/jobtrail/internal/domain"
	"github.com/jobtrail/jobtrail/internal/domain/proposal"
)

const proposalColumns = `id, email_id, policy_id, action_type, action_params, confidence, status, detail, created_at, decided_at, executed_at`

func (s *Store) ListPendingProposals(ctx context.Context) ([]proposal.ProposedAction, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+proposalColumns+`
		 FROM proposed_actions WHERE status = 'pending' ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list pending proposals: %w", err)
	}
	defer rows.Close()

	var proposals []proposal.ProposedAction
	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return nil, err
		}
		proposals = append(proposals, p)
	}
	return proposals, rows.Err()
}

func (s *Store) GetProposal(ctx context.Context, id string) (*proposal.ProposedAction, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+proposalColumns+` FROM proposed_actions WHERE id = $1`, id)

	p, err := scanProposal(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get proposal %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get proposal %s: %w", id, err)
	}
	return &p, nil
}

// CreateProposal inserts a Pending proposal. The partial unique index on
// (email_id) WHERE status = 'pending' turns a concurrent duplicate into a
// unique violation, surfaced as domain.ErrConflict.
func (s *Store) CreateProposal(ctx context.Context, p *proposal.ProposedAction) error {
	paramsJSON, err := marshalParams(p.ActionParams)
	if err != nil {
		return err
	}

	err = s.pool.QueryRow(ctx,
		`INSERT INTO proposed_actions (id, email_id, policy_id, action_type, action_params, confidence, status)
		 VALUES ($1, $2, $3, $4, $5, $6, 'pending')
		 RETURNING created_at`,
		p.ID, p.EmailID, nullableID(p.PolicyID), p.ActionType, paramsJSON, p.Confidence,
	).Scan(&p.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("create proposal for email %s: %w", p.EmailID, domain.ErrConflict)
		}
		return fmt.Errorf("create proposal: %w", err)
	}
	p.Status = proposal.StatusPending
	return nil
}

// TransitionProposal performs the check-and-set status update. Zero rows
// affected means the proposal was not in the expected state: the caller gets
// domain.ErrInvalidTransition (or ErrNotFound if no such proposal exists)
// and the row is untouched.
func (s *Store) TransitionProposal(ctx context.Context, id string, from, to proposal.Status, detail string) (*proposal.ProposedAction, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE proposed_actions
		 SET status = $3,
		     detail = $4,
		     decided_at = CASE WHEN $3 IN ('approved', 'rejected') THEN now() ELSE decided_at END,
		     executed_at = CASE WHEN $3 IN ('executed', 'failed') THEN now() ELSE executed_at END
		 WHERE id = $1 AND status = $2
		 RETURNING `+proposalColumns,
		id, from, to, detail)

	p, err := scanProposal(row)
	if err == nil {
		return &p, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("transition proposal %s: %w", id, err)
	}

	// Distinguish "wrong state" from "does not exist".
	if _, getErr := s.GetProposal(ctx, id); getErr != nil {
		return nil, getErr
	}
	return nil, fmt.Errorf("transition proposal %s from %s to %s: %w", id, from, to, domain.ErrInvalidTransition)
}
