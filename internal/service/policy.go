// Package service implements the engine's business logic: policy
// management, proposal generation, the approval gate, and action execution.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/jobtrail/jobtrail/internal/domain/email"
	"github.com/jobtrail/jobtrail/internal/domain/policy"
	"github.com/jobtrail/jobtrail/internal/port/cache"
	"github.com/jobtrail/jobtrail/internal/port/database"
)

// policySnapshotKey caches the enabled-policy snapshot between proposal runs.
const policySnapshotKey = "policies:enabled"

// PolicyService manages the policy store and serves the read snapshot the
// proposal generator evaluates against.
type PolicyService struct {
	store       database.Store
	cache       cache.Cache
	snapshotTTL time.Duration
}

// NewPolicyService creates a PolicyService. The cache is optional; without
// one every snapshot read goes to the store.
func NewPolicyService(store database.Store, c cache.Cache, snapshotTTL time.Duration) *PolicyService {
	return &PolicyService{
		store:       store,
		cache:       c,
		snapshotTTL: snapshotTTL,
	}
}

// List returns all policies, enabled or not.
func (s *PolicyService) List(ctx context.Context) ([]policy.Policy, error) {
	return s.store.ListPolicies(ctx)
}

// Get returns one policy by id.
func (s *PolicyService) Get(ctx context.Context, id string) (*policy.Policy, error) {
	return s.store.GetPolicy(ctx, id)
}

// Create validates and stores a new policy. Malformed condition trees and
// invalid regex patterns are rejected here so evaluation never fails.
func (s *PolicyService) Create(ctx context.Context, req policy.CreateRequest) (*policy.Policy, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	p, err := s.store.CreatePolicy(ctx, req)
	if err != nil {
		return nil, err
	}
	s.invalidateSnapshot(ctx)
	return p, nil
}

// Update applies a partial update to a policy.
func (s *PolicyService) Update(ctx context.Context, id string, req policy.UpdateRequest) (*policy.Policy, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	p, err := s.store.GetPolicy(ctx, id)
	if err != nil {
		return nil, err
	}
	req.Apply(p)
	if err := s.store.UpdatePolicy(ctx, p); err != nil {
		return nil, err
	}
	s.invalidateSnapshot(ctx)
	return s.store.GetPolicy(ctx, id)
}

// Delete removes a policy. Existing proposals keep their audit trail; the
// proposal's policy reference is nulled at the storage layer.
func (s *PolicyService) Delete(ctx context.Context, id string) error {
	if err := s.store.DeletePolicy(ctx, id); err != nil {
		return err
	}
	s.invalidateSnapshot(ctx)
	return nil
}

// TestResult is the outcome of evaluating a policy against a sample context.
type TestResult struct {
	Matches    bool    `json:"matches"`
	Confidence float64 `json:"confidence"`
	// Proposed reports whether a match would clear the confidence
	// threshold and produce a proposal.
	Proposed bool `json:"proposed"`
}

// Test evaluates a stored policy against a caller-supplied sample context.
func (s *PolicyService) Test(ctx context.Context, id string, sample email.Context) (*TestResult, error) {
	p, err := s.store.GetPolicy(ctx, id)
	if err != nil {
		return nil, err
	}
	if sample.Now.IsZero() {
		sample.Now = time.Now().UTC()
	}

	matches := policy.Evaluate(p.Condition, &sample)
	return &TestResult{
		Matches:    matches,
		Confidence: p.Confidence,
		Proposed:   matches && p.Confidence >= p.ConfidenceThreshold,
	}, nil
}

// EnabledSnapshot returns enabled policies sorted by (priority, id). The
// snapshot is read once per proposal run and cached between runs; every
// policy mutation invalidates it.
func (s *PolicyService) EnabledSnapshot(ctx context.Context) ([]policy.Policy, error) {
	if s.cache != nil {
		if data, ok, err := s.cache.Get(ctx, policySnapshotKey); err == nil && ok {
			var policies []policy.Policy
			if err := json.Unmarshal(data, &policies); err == nil {
				return policies, nil
			}
			slog.Warn("policy snapshot cache corrupt, reloading")
		}
	}

	policies, err := s.store.ListEnabledPolicies(ctx)
	if err != nil {
		return nil, fmt.Errorf("load policy snapshot: %w", err)
	}
	sortPolicies(policies)

	if s.cache != nil {
		if data, err := json.Marshal(policies); err == nil {
			_ = s.cache.Set(ctx, policySnapshotKey, data, s.snapshotTTL)
		}
	}
	return policies, nil
}

// SeedPresets installs the built-in starter policies when the store is
// empty. Boot-time convenience; a no-op once any policy exists.
func (s *PolicyService) SeedPresets(ctx context.Context) error {
	existing, err := s.store.ListPolicies(ctx)
	if err != nil {
		return fmt.Errorf("seed presets: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	for _, req := range policy.Presets() {
		if _, err := s.Create(ctx, req); err != nil {
			return fmt.Errorf("seed preset %q: %w", req.Name, err)
		}
	}
	slog.Info("installed preset policies", "count", len(policy.Presets()))
	return nil
}

func (s *PolicyService) invalidateSnapshot(ctx context.Context) {
	if s.cache != nil {
		_ = s.cache.Delete(ctx, policySnapshotKey)
	}
}

// sortPolicies orders policies by priority ascending, ties broken by id
// ascending. Evaluation order is a correctness requirement: the first match
// wins, so it must be deterministic.
func sortPolicies(policies []policy.Policy) {
	sort.Slice(policies, func(i, j int) bool {
		if policies[i].Priority != policies[j].Priority {
			return policies[i].Priority < policies[j].Priority
		}
		return policies[i].ID < policies[j].ID
	})
}
