/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the ops frontend

ROUTE GROUPS:
  /api/accounts/*       Account balance and history views
  /api/withdrawals/*    Withdrawal review queue
  /api/ach/*            ACH reconciliation
  /api/documents/*      Document listing and bulk download
  /api/jobs/*           Bulk-download job polling
  /api/status           Health and Harbor reachability

SECURITY NOTE:
  No authentication middleware. The portal is for internal operators
  behind the company VPN.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Account routes
		r.Route("/accounts/{accountId}", func(r chi.Router) {
			r.Get("/balance", h.GetAccountBalance)
			r.Get("/transactions", h.GetAccountTransactions)
			r.Get("/positions", h.GetAccountPositions)
		})

		// Withdrawal routes
		r.Route("/withdrawals", func(r chi.Router) {
			r.Get("/", h.ListWithdrawals)
			r.Post("/", h.CreateWithdrawal)
			r.Get("/export", h.ExportWithdrawals)
			r.Get("/{id}", h.GetWithdrawal)
			r.Post("/{id}/approve", h.ApproveWithdrawal)
			r.Post("/{id}/reject", h.RejectWithdrawal)
		})

		// ACH routes
		r.Route("/ach", func(r chi.Router) {
			r.Get("/", h.ListACH)
			r.Post("/{id}/reconcile", h.ReconcileACH)
		})

		// Document routes
		r.Route("/documents", func(r chi.Router) {
			r.Get("/", h.ListDocuments)
			r.Post("/bulk-download", h.BulkDownload)
		})

		// Job routes
		r.Route("/jobs", func(r chi.Router) {
			r.Get("/{id}", h.GetJob)
		})

		// Status
		r.Get("/status", h.GetStatus)
	})

	return r
}
