package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jobtrail/jobtrail/internal/domain"
	"github.com/jobtrail/jobtrail/internal/domain/audit"
	"github.com/jobtrail/jobtrail/internal/domain/email"
	"github.com/jobtrail/jobtrail/internal/domain/policy"
	"github.com/jobtrail/jobtrail/internal/domain/proposal"
	"github.com/jobtrail/jobtrail/internal/port/messagequeue"
)

// mockStore is an in-memory database.Store with the same contracts as the
// postgres adapter: pending-dedup on CreateProposal and check-and-set
// semantics on TransitionProposal.
type mockStore struct {
	mu        sync.Mutex
	policies  map[string]policy.Policy
	proposals map[string]proposal.ProposedAction
	audits    []audit.Entry
}

func newMockStore() *mockStore {
	return &mockStore{
		policies:  make(map[string]policy.Policy),
		proposals: make(map[string]proposal.ProposedAction),
	}
}

func (m *mockStore) ListPolicies(_ context.Context) ([]policy.Policy, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]policy.Policy, 0, len(m.policies))
	for _, p := range m.policies {
		out = append(out, p)
	}
	sortByPriorityID(out)
	return out, nil
}

func (m *mockStore) ListEnabledPolicies(_ context.Context) ([]policy.Policy, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []policy.Policy
	for _, p := range m.policies {
		if p.Enabled {
			out = append(out, p)
		}
	}
	sortByPriorityID(out)
	return out, nil
}

func sortByPriorityID(policies []policy.Policy) {
	sort.Slice(policies, func(i, j int) bool {
		if policies[i].Priority != policies[j].Priority {
			return policies[i].Priority < policies[j].Priority
		}
		return policies[i].ID < policies[j].ID
	})
}

func (m *mockStore) GetPolicy(_ context.Context, id string) (*policy.Policy, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.policies[id]
	if !ok {
		return nil, fmt.Errorf("get policy %s: %w", id, domain.ErrNotFound)
	}
	return &p, nil
}

func (m *mockStore) CreatePolicy(_ context.Context, req policy.CreateRequest) (*policy.Policy, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	confidence := 1.0
	if req.Confidence != nil {
		confidence = *req.Confidence
	}
	now := time.Now().UTC()
	p := policy.Policy{
		ID:                  uuid.NewString(),
		Name:                req.Name,
		Enabled:             enabled,
		Priority:            req.Priority,
		AutoApprove:         req.AutoApprove,
		Condition:           req.Condition,
		ActionType:          req.ActionType,
		ActionParams:        req.ActionParams,
		Confidence:          confidence,
		ConfidenceThreshold: req.ConfidenceThreshold,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	m.policies[p.ID] = p
	return &p, nil
}

func (m *mockStore) UpdatePolicy(_ context.Context, p *policy.Policy) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.policies[p.ID]; !ok {
		return fmt.Errorf("update policy %s: %w", p.ID, domain.ErrNotFound)
	}
	p.UpdatedAt = time.Now().UTC()
	m.policies[p.ID] = *p
	return nil
}

func (m *mockStore) DeletePolicy(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.policies[id]; !ok {
		return fmt.Errorf("delete policy %s: %w", id, domain.ErrNotFound)
	}
	delete(m.policies, id)
	return nil
}

func (m *mockStore) ListPendingProposals(_ context.Context) ([]proposal.ProposedAction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []proposal.ProposedAction
	for _, p := range m.proposals {
		if p.Status == proposal.StatusPending {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *mockStore) GetProposal(_ context.Context, id string) (*proposal.ProposedAction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.proposals[id]
	if !ok {
		return nil, fmt.Errorf("get proposal %s: %w", id, domain.ErrNotFound)
	}
	return &p, nil
}

func (m *mockStore) CreateProposal(_ context.Context, p *proposal.ProposedAction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.proposals {
		if existing.EmailID == p.EmailID && existing.Status == proposal.StatusPending {
			return fmt.Errorf("email %s already has a pending proposal: %w", p.EmailID, domain.ErrConflict)
		}
	}
	p.Status = proposal.StatusPending
	p.CreatedAt = time.Now().UTC()
	m.proposals[p.ID] = *p
	return nil
}

func (m *mockStore) TransitionProposal(_ context.Context, id string, from, to proposal.Status, detail string) (*proposal.ProposedAction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.proposals[id]
	if !ok {
		return nil, fmt.Errorf("transition proposal %s: %w", id, domain.ErrNotFound)
	}
	if p.Status != from {
		return nil, fmt.Errorf("transition proposal %s from %s to %s (currently %s): %w",
			id, from, to, p.Status, domain.ErrInvalidTransition)
	}
	now := time.Now().UTC()
	p.Status = to
	if detail != "" {
		p.Detail = detail
	}
	switch to {
	case proposal.StatusApproved, proposal.StatusRejected:
		p.DecidedAt = &now
	case proposal.StatusExecuted, proposal.StatusFailed:
		p.ExecutedAt = &now
	}
	m.proposals[id] = p
	return &p, nil
}

func (m *mockStore) CreateAuditEntry(_ context.Context, e *audit.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.CreatedAt = time.Now().UTC()
	m.audits = append(m.audits, *e)
	return nil
}

func (m *mockStore) ListAuditEntries(_ context.Context, f audit.Filter) ([]audit.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []audit.Entry
	for _, e := range m.audits {
		if f.EmailID != "" && e.EmailID != f.EmailID {
			continue
		}
		out = append(out, e)
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// auditOutcomes returns the recorded outcomes for one proposal, in order.
func (m *mockStore) auditOutcomes(proposalID string) []audit.Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []audit.Outcome
	for _, e := range m.audits {
		if e.ProposalID == proposalID {
			out = append(out, e.Outcome)
		}
	}
	return out
}

// mockMail records effect calls and optionally fails or blocks.
type mockMail struct {
	mu    sync.Mutex
	calls []string
	err   error
	delay time.Duration
}

func (m *mockMail) record(ctx context.Context, call string) error {
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	m.mu.Lock()
	m.calls = append(m.calls, call)
	m.mu.Unlock()
	return m.err
}

func (m *mockMail) callList() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *mockMail) Label(ctx context.Context, emailID, label string) error {
	return m.record(ctx, "label:"+emailID+":"+label)
}

func (m *mockMail) Archive(ctx context.Context, emailID string) error {
	return m.record(ctx, "archive:"+emailID)
}

func (m *mockMail) Move(ctx context.Context, emailID, folder string) error {
	return m.record(ctx, "move:"+emailID+":"+folder)
}

func (m *mockMail) Unsubscribe(ctx context.Context, emailID string) error {
	return m.record(ctx, "unsubscribe:"+emailID)
}

func (m *mockMail) BlockSender(ctx context.Context, emailID string) error {
	return m.record(ctx, "block:"+emailID)
}

func (m *mockMail) QuarantineAttachment(ctx context.Context, emailID string) error {
	return m.record(ctx, "quarantine:"+emailID)
}

type mockCalendar struct {
	mu     sync.Mutex
	events []string
	err    error
}

func (m *mockCalendar) CreateEvent(_ context.Context, emailID, calendar, title string, startAt time.Time) error {
	m.mu.Lock()
	m.events = append(m.events, fmt.Sprintf("%s:%s:%s:%s", emailID, calendar, title, startAt.Format(time.RFC3339)))
	m.mu.Unlock()
	return m.err
}

type mockTasks struct {
	mu    sync.Mutex
	tasks []string
	err   error
}

func (m *mockTasks) CreateTask(_ context.Context, emailID, list, title string) error {
	m.mu.Lock()
	m.tasks = append(m.tasks, fmt.Sprintf("%s:%s:%s", emailID, list, title))
	m.mu.Unlock()
	return m.err
}

// mockProvider serves a fixed set of email contexts.
type mockProvider struct {
	contexts []email.Context
	err      error
}

func (m *mockProvider) ListEmailContexts(_ context.Context, limit int) ([]email.Context, error) {
	if m.err != nil {
		return nil, m.err
	}
	if limit > 0 && len(m.contexts) > limit {
		return m.contexts[:limit], nil
	}
	return m.contexts, nil
}

func (m *mockProvider) GetEmailContext(_ context.Context, emailID string) (*email.Context, error) {
	for i := range m.contexts {
		if m.contexts[i].EmailID == emailID {
			return &m.contexts[i], nil
		}
	}
	return nil, fmt.Errorf("email context %s: %w", emailID, domain.ErrNotFound)
}

// mockCache is a TTL-less in-memory cache.Cache.
type mockCache struct {
	mu   sync.Mutex
	data map[string][]byte
	gets int
}

func newMockCache() *mockCache {
	return &mockCache{data: make(map[string][]byte)}
}

func (m *mockCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *mockCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *mockCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// mockQueue records published subjects.
type mockQueue struct {
	mu        sync.Mutex
	published []string
}

func (m *mockQueue) Publish(_ context.Context, subject string, _ []byte) error {
	m.mu.Lock()
	m.published = append(m.published, subject)
	m.mu.Unlock()
	return nil
}

func (m *mockQueue) Subscribe(_ context.Context, _ string, _ messagequeue.Handler) (func(), error) {
	return func() {}, nil
}

func (m *mockQueue) Drain() error      { return nil }
func (m *mockQueue) Close() error      { return nil }
func (m *mockQueue) IsConnected() bool { return true }

func (m *mockQueue) subjects() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.published...)
}
