package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jobtrail/jobtrail/internal/domain"
	"github.com/jobtrail/jobtrail/internal/domain/policy"
)

// Store implements database.Store using PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const policyColumns = `id, name, enabled, priority, auto_approve, condition, action_type, action_params, confidence, confidence_threshold, created_at, updated_at`

// --- Policies ---

func (s *Store) ListPolicies(ctx context.Context) ([]policy.Policy, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+policyColumns+` FROM policies ORDER BY priority ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list policies: %w", err)
	}
	defer rows.Close()

	return collectPolicies(rows)
}

func (s *Store) ListEnabledPolicies(ctx context.Context) ([]policy.Policy, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+policyColumns+` FROM policies WHERE enabled ORDER BY priority ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list enabled policies: %w", err)
	}
	defer rows.Close()

	return collectPolicies(rows)
}

func collectPolicies(rows pgx.Rows) ([]policy.Policy, error) {
	var policies []policy.Policy
	for rows.Next() {
		p, err := scanPolicy(rows)
		if err != nil {
			return nil, err
		}
		policies = append(policies, p)
	}
	return policies, rows.Err()
}

func (s *Store) GetPolicy(ctx context.Context, id string) (*policy.Policy, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+policyColumns+` FROM policies WHERE id = $1`, id)

	p, err := scanPolicy(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get policy %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get policy %s: %w", id, err)
	}
	return &p, nil
}

func (s *Store) CreatePolicy(ctx context.Context, req policy.CreateRequest) (*policy.Policy, error) {
	conditionJSON, err := json.Marshal(req.Condition)
	if err != nil {
		return nil, fmt.Errorf("marshal condition: %w", err)
	}
	paramsJSON, err := marshalParams(req.ActionParams)
	if err != nil {
		return nil, err
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	confidence := 1.0
	if req.Confidence != nil {
		confidence = *req.Confidence
	}

	row := s.pool.QueryRow(ctx,
		`INSERT INTO policies (name, enabled, priority, auto_approve, condition, action_type, action_params, confidence, confidence_threshold)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING `+policyColumns,
		req.Name, enabled, req.Priority, req.AutoApprove, conditionJSON,
		req.ActionType, paramsJSON, confidence, req.ConfidenceThreshold)

	p, err := scanPolicy(row)
	if err != nil {
		return nil, fmt.Errorf("create policy: %w", err)
	}
	return &p, nil
}

func (s *Store) UpdatePolicy(ctx context.Context, p *policy.Policy) error {
	conditionJSON, err := json.Marshal(p.Condition)
	if err != nil {
		return fmt.Errorf("marshal condition: %w", err)
	}
	paramsJSON, err := marshalParams(p.ActionParams)
	if err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE policies
		 SET name = $2, enabled = $3, priority = $4, auto_approve = $5, condition = $6,
		     action_type = $7, action_params = $8, confidence = $9, confidence_threshold = $10,
		     updated_at = now()
		 WHERE id = $1 AND updated_at = $11`,
		p.ID, p.Name, p.Enabled, p.Priority, p.AutoApprove, conditionJSON,
		p.ActionType, paramsJSON, p.Confidence, p.ConfidenceThreshold, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update policy %s: %w", p.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update policy %s: %w", p.ID, domain.ErrConflict)
	}
	return nil
}

func (s *Store) DeletePolicy(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM policies WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete policy %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete policy %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// marshalParams encodes action params, defaulting nil to an empty object so
// the jsonb column never holds SQL NULL.
func marshalParams(params map[string]any) ([]byte, error) {
	if params == nil {
		return []byte(`{}`), nil
	}
	data, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("marshal action_params: %w", err)
	}
	return data, nil
}
