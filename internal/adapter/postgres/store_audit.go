package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jobtrail/jobtrail/internal/domain/audit"
)

// CreateAuditEntry appends one audit record. Entries are never updated or
// deleted by the engine.
func (s *Store) CreateAuditEntry(ctx context.Context, e *audit.Entry) error {
	const q = `
		INSERT INTO audit_entries (id, email_id, proposal_id, action_type, outcome, actor, detail)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`

	err := s.pool.QueryRow(ctx, q,
		e.ID, e.EmailID, e.ProposalID, string(e.ActionType),
		string(e.Outcome), e.Actor, e.Detail,
	).Scan(&e.CreatedAt)
	if err != nil {
		return fmt.Errorf("create audit entry: %w", err)
	}
	return nil
}

// ListAuditEntries returns audit records for the operator read model,
// newest first.
func (s *Store) ListAuditEntries(ctx context.Context, f audit.Filter) ([]audit.Entry, error) {
	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	const base = `
		SELECT id, email_id, proposal_id, action_type, outcome, actor, detail, created_at
		FROM audit_entries`

	var (
		rows pgx.Rows
		err  error
	)
	if f.EmailID != "" {
		rows, err = s.pool.Query(ctx, base+` WHERE email_id = $1 ORDER BY created_at DESC LIMIT $2`, f.EmailID, limit)
	} else {
		rows, err = s.pool.Query(ctx, base+` ORDER BY created_at DESC LIMIT $1`, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []audit.Entry
	for rows.Next() {
		var e audit.Entry
		if err := rows.Scan(
			&e.ID, &e.EmailID, &e.ProposalID, &e.ActionType,
			&e.Outcome, &e.Actor, &e.Detail, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
