package http

import (
	"github.com/go-chi/chi/v5"
)

// MountRoutes registers all API routes on the given chi router.
func MountRoutes(r chi.Router, h *Handlers) {
	r.Route("/api/v1", func(r chi.Router) {
		// Policies
		r.Get("/policies", h.ListPolicies)
		r.Post("/policies", h.CreatePolicy)
		r.Get("/policies/{id}", h.GetPolicy)
		r.Put("/policies/{id}", h.UpdatePolicy)
		r.Delete("/policies/{id}", h.DeletePolicy)
		r.Post("/policies/{id}/test", h.TestPolicy)

		// Proposal runs
		r.Post("/propose", h.Propose)

		// Approval tray
		r.Get("/tray", h.Tray)
		r.Get("/actions/{id}", h.GetProposal)
		r.Post("/actions/{id}/approve", h.ApproveProposal)
		r.Post("/actions/{id}/reject", h.RejectProposal)

		// Audit trail
		r.Get("/audit", h.AuditTrail)
	})

	r.Get("/health", h.Health)
	r.Get("/ws", h.Hub.HandleWS)
}
