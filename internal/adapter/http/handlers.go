package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/jobtrail/jobtrail/internal/adapter/ws"
	"github.com/jobtrail/jobtrail/internal/domain/audit"
	"github.com/jobtrail/jobtrail/internal/domain/email"
	"github.com/jobtrail/jobtrail/internal/domain/policy"
	"github.com/jobtrail/jobtrail/internal/port/messagequeue"
	"github.com/jobtrail/jobtrail/internal/service"
)

const maxProposeLimit = 1000

// Handlers holds the HTTP handler dependencies.
type Handlers struct {
	Policies  *service.PolicyService
	Proposals *service.ProposalService
	Approvals *service.ApprovalService
	Hub       *ws.Hub
	Queue     messagequeue.Queue

	// DefaultLimit caps how many emails one proposal run scans when the
	// request does not say.
	DefaultLimit int
}

// ---------------------------------------------------------------------------
// Policies
// ---------------------------------------------------------------------------

func (h *Handlers) ListPolicies(w http.ResponseWriter, r *http.Request) {
	policies, err := h.Policies.List(r.Context())
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, policies)
}

func (h *Handlers) CreatePolicy(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[policy.CreateRequest](w, r)
	if !ok {
		return
	}
	p, err := h.Policies.Create(r.Context(), req)
	if err != nil {
		writeDomainError(w, err, "policy not found")
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *Handlers) GetPolicy(w http.ResponseWriter, r *http.Request) {
	p, err := h.Policies.Get(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "policy not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handlers) UpdatePolicy(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[policy.UpdateRequest](w, r)
	if !ok {
		return
	}
	p, err := h.Policies.Update(r.Context(), urlParam(r, "id"), req)
	if err != nil {
		writeDomainError(w, err, "policy not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handlers) DeletePolicy(w http.ResponseWriter, r *http.Request) {
	if err := h.Policies.Delete(r.Context(), urlParam(r, "id")); err != nil {
		writeDomainError(w, err, "policy not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// TestPolicy dry-runs one policy against a caller-supplied email context.
// Nothing is persisted.
func (h *Handlers) TestPolicy(w http.ResponseWriter, r *http.Request) {
	sample, ok := readJSON[email.Context](w, r)
	if !ok {
		return
	}
	if sample.Now.IsZero() {
		sample.Now = time.Now().UTC()
	}
	result, err := h.Policies.Test(r.Context(), urlParam(r, "id"), sample)
	if err != nil {
		writeDomainError(w, err, "policy not found")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ---------------------------------------------------------------------------
// Proposals
// ---------------------------------------------------------------------------

type proposeRequest struct {
	Limit int `json:"limit"`
}

type proposeResponse struct {
	Created int `json:"created"`
	Actions any `json:"actions"`
}

// Propose triggers one proposal run over recent email contexts.
func (h *Handlers) Propose(w http.ResponseWriter, r *http.Request) {
	limit := h.DefaultLimit
	if r.ContentLength > 0 {
		req, ok := readJSON[proposeRequest](w, r)
		if !ok {
			return
		}
		if req.Limit > 0 {
			limit = req.Limit
		}
	}
	if limit > maxProposeLimit {
		limit = maxProposeLimit
	}

	created, err := h.Proposals.Propose(r.Context(), limit)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, proposeResponse{Created: len(created), Actions: created})
}

func (h *Handlers) Tray(w http.ResponseWriter, r *http.Request) {
	pending, err := h.Approvals.Tray(r.Context())
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pending)
}

func (h *Handlers) GetProposal(w http.ResponseWriter, r *http.Request) {
	p, err := h.Approvals.Get(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "proposed action not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type decisionRequest struct {
	Actor string `json:"actor"`
}

func (h *Handlers) ApproveProposal(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[decisionRequest](w, r)
	if !ok {
		return
	}
	p, err := h.Approvals.Approve(r.Context(), urlParam(r, "id"), req.Actor)
	if err != nil {
		writeDomainError(w, err, "proposed action not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handlers) RejectProposal(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[decisionRequest](w, r)
	if !ok {
		return
	}
	p, err := h.Approvals.Reject(r.Context(), urlParam(r, "id"), req.Actor)
	if err != nil {
		writeDomainError(w, err, "proposed action not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// ---------------------------------------------------------------------------
// Audit
// ---------------------------------------------------------------------------

func (h *Handlers) AuditTrail(w http.ResponseWriter, r *http.Request) {
	f := audit.Filter{EmailID: r.URL.Query().Get("email_id")}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		f.Limit = n
	}

	entries, err := h.Approvals.Audit(r.Context(), f)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// ---------------------------------------------------------------------------
// Health
// ---------------------------------------------------------------------------

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"status": "ok",
		"ws":     h.Hub.ConnectionCount(),
	}
	if h.Queue != nil {
		status["nats"] = h.Queue.IsConnected()
	}
	writeJSON(w, http.StatusOK, status)
}
