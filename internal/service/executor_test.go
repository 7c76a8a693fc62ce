package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/jobtrail/jobtrail/internal/domain"
	"github.com/jobtrail/jobtrail/internal/domain/audit"
	"github.com/jobtrail/jobtrail/internal/domain/policy"
	"github.com/jobtrail/jobtrail/internal/domain/proposal"
)

// approve moves a seeded pending proposal to Approved without executing.
func approve(t *testing.T, e *engine, id string) *proposal.ProposedAction {
	t.Helper()
	p, err := e.store.TransitionProposal(context.Background(), id, proposal.StatusPending, proposal.StatusApproved, "")
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func newExecutorUnderTest(e *engine, timeout time.Duration) *Executor {
	return NewExecutor(e.store, e.mail, e.calendar, e.tasks, timeout, e.queue, nil, nil)
}

func TestExecuteHandlerErrorEndsFailed(t *testing.T) {
	e := newEngine()
	e.mail.err = errors.New("mailbox unreachable")
	exec := newExecutorUnderTest(e, time.Second)

	p := approve(t, e, seedPending(t, e, "em-1").ID)
	final, err := exec.Execute(context.Background(), p)
	if err != nil {
		t.Fatalf("handler errors must not propagate, got %v", err)
	}
	if final.Status != proposal.StatusFailed {
		t.Errorf("expected failed, got %s", final.Status)
	}
	if !strings.Contains(final.Detail, "mailbox unreachable") {
		t.Errorf("expected failure detail, got %q", final.Detail)
	}

	outcomes := e.store.auditOutcomes(p.ID)
	if len(outcomes) != 1 || outcomes[0] != audit.OutcomeFailed {
		t.Errorf("expected single failed entry, got %v", outcomes)
	}
}

func TestExecuteTimeoutEndsFailed(t *testing.T) {
	e := newEngine()
	e.mail.delay = 200 * time.Millisecond
	exec := newExecutorUnderTest(e, 10*time.Millisecond)

	p := approve(t, e, seedPending(t, e, "em-1").ID)
	final, err := exec.Execute(context.Background(), p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if final.Status != proposal.StatusFailed {
		t.Errorf("expected failed, got %s", final.Status)
	}
	if !strings.Contains(final.Detail, "deadline") {
		t.Errorf("expected deadline detail, got %q", final.Detail)
	}
}

func TestExecuteRequiresApproved(t *testing.T) {
	e := newEngine()
	exec := newExecutorUnderTest(e, time.Second)

	pending := seedPending(t, e, "em-1")
	_, err := exec.Execute(context.Background(), pending)
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if calls := e.mail.callList(); len(calls) != 0 {
		t.Errorf("pending proposal must not execute, got %v", calls)
	}
}

func TestExecuteUnknownActionTypeEndsFailed(t *testing.T) {
	e := newEngine()
	exec := newExecutorUnderTest(e, time.Second)

	p := &proposal.ProposedAction{
		ID:         uuid.NewString(),
		EmailID:    "em-1",
		ActionType: policy.ActionType("teleport"),
		Confidence: 1,
	}
	if err := e.store.CreateProposal(context.Background(), p); err != nil {
		t.Fatal(err)
	}
	approved := approve(t, e, p.ID)

	final, err := exec.Execute(context.Background(), approved)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if final.Status != proposal.StatusFailed {
		t.Errorf("expected failed, got %s", final.Status)
	}
	if !strings.Contains(final.Detail, "no handler") {
		t.Errorf("expected no-handler detail, got %q", final.Detail)
	}
}

func TestExecuteMissingRequiredParamEndsFailed(t *testing.T) {
	e := newEngine()
	exec := newExecutorUnderTest(e, time.Second)

	p := &proposal.ProposedAction{
		ID:         uuid.NewString(),
		EmailID:    "em-1",
		ActionType: policy.ActionLabel, // requires the "label" param
		Confidence: 1,
	}
	if err := e.store.CreateProposal(context.Background(), p); err != nil {
		t.Fatal(err)
	}
	approved := approve(t, e, p.ID)

	final, err := exec.Execute(context.Background(), approved)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if final.Status != proposal.StatusFailed {
		t.Errorf("expected failed, got %s", final.Status)
	}
	if !strings.Contains(final.Detail, "label") {
		t.Errorf("expected param name in detail, got %q", final.Detail)
	}
}

func TestExecuteCreateEvent(t *testing.T) {
	e := newEngine()
	exec := newExecutorUnderTest(e, time.Second)

	start := time.Now().UTC().Add(24 * time.Hour).Truncate(time.Second)
	p := &proposal.ProposedAction{
		ID:         uuid.NewString(),
		EmailID:    "em-1",
		ActionType: policy.ActionCreateEvent,
		ActionParams: map[string]any{
			"start_at": start.Format(time.RFC3339),
			"title":    "Interview",
		},
		Confidence: 1,
	}
	if err := e.store.CreateProposal(context.Background(), p); err != nil {
		t.Fatal(err)
	}
	approved := approve(t, e, p.ID)

	final, err := exec.Execute(context.Background(), approved)
	if err != nil {
		t.Fatal(err)
	}
	if final.Status != proposal.StatusExecuted {
		t.Errorf("expected executed, got %s (%s)", final.Status, final.Detail)
	}
	if len(e.calendar.events) != 1 {
		t.Fatalf("expected one calendar event, got %d", len(e.calendar.events))
	}
	want := "em-1:default:Interview:" + start.Format(time.RFC3339)
	if e.calendar.events[0] != want {
		t.Errorf("expected %q, got %q", want, e.calendar.events[0])
	}
}

func TestExecuteCreateTaskDefaults(t *testing.T) {
	e := newEngine()
	exec := newExecutorUnderTest(e, time.Second)

	p := &proposal.ProposedAction{
		ID:         uuid.NewString(),
		EmailID:    "em-1",
		ActionType: policy.ActionCreateTask,
		Confidence: 1,
	}
	if err := e.store.CreateProposal(context.Background(), p); err != nil {
		t.Fatal(err)
	}
	approved := approve(t, e, p.ID)

	final, err := exec.Execute(context.Background(), approved)
	if err != nil {
		t.Fatal(err)
	}
	if final.Status != proposal.StatusExecuted {
		t.Errorf("expected executed, got %s", final.Status)
	}
	if len(e.tasks.tasks) != 1 || e.tasks.tasks[0] != "em-1:inbox:Follow up" {
		t.Errorf("expected default task params, got %v", e.tasks.tasks)
	}
}
