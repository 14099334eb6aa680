/*
handlers.go - HTTP API handlers for the ops portal

PURPOSE:
  Exposes the portal via REST API. Handles HTTP request/response and JSON
  serialization, delegating all decisions to the portal service, the job
  manager, and the Harbor client.

ENDPOINTS:
  Accounts:
    GET  /api/accounts/{accountId}/balance       Seasoned-cash partition
    GET  /api/accounts/{accountId}/transactions  Classified history
    GET  /api/accounts/{accountId}/positions     Holdings (pass-through)

  Withdrawals:
    GET  /api/withdrawals                List (optional ?status=)
    POST /api/withdrawals                Enqueue a request
    GET  /api/withdrawals/export         CSV export
    GET  /api/withdrawals/{id}           Details
    POST /api/withdrawals/{id}/approve   Eligibility-checked approval
    POST /api/withdrawals/{id}/reject    Rejection with note

  ACH:
    GET  /api/ach                        List (optional ?status=)
    POST /api/ach/{id}/reconcile         Mark reconciled

  Documents:
    GET  /api/documents                  List (optional ?accountId=)
    POST /api/documents/bulk-download    Start an archive job (202)
    GET  /api/jobs/{id}                  Poll job state

  Status:
    GET  /api/status                     Health + Harbor reachability

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Invalid input
  - 404: Resource not found
  - 409: Conflict (invalid status transition)
  - 422: Withdrawal exceeds seasoned balance
  - 500: Internal errors
  - 502: Harbor unreachable

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/darren-olevson/wts-admin-portal-sub000/harbor"
	"github.com/darren-olevson/wts-admin-portal-sub000/jobs"
	"github.com/darren-olevson/wts-admin-portal-sub000/portal"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service  *portal.Service
	Store    portal.Store
	Harbor   harbor.Provider
	Session  *harbor.SessionContext
	Jobs     *jobs.Manager
	JobStore jobs.Store
	Log      *logrus.Logger
}

// NewHandler creates a handler with the given dependencies.
func NewHandler(svc *portal.Service, store portal.Store, provider harbor.Provider,
	session *harbor.SessionContext, mgr *jobs.Manager, jobStore jobs.Store, log *logrus.Logger) *Handler {
	return &Handler{
		Service:  svc,
		Store:    store,
		Harbor:   provider,
		Session:  session,
		Jobs:     mgr,
		JobStore: jobStore,
		Log:      log,
	}
}

// =============================================================================
// ACCOUNT HANDLERS
// =============================================================================

// GetAccountBalance returns the seasoned-cash partition for an account.
func (h *Handler) GetAccountBalance(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountId")

	result, err := h.Service.SeasonedBalance(r.Context(), accountID)
	if err != nil {
		h.writeUpstreamError(w, "Failed to compute balance", err)
		return
	}

	writeJSON(w, http.StatusOK, toSeasonedCashDTO(result))
}

// GetAccountTransactions returns recent history with per-entry seasoning tags.
func (h *Handler) GetAccountTransactions(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountId")

	classified, err := h.Service.ClassifiedHistory(r.Context(), accountID)
	if err != nil {
		h.writeUpstreamError(w, "Failed to fetch transactions", err)
		return
	}

	writeJSON(w, http.StatusOK, toClassifiedHistoryDTO(classified))
}

// GetAccountPositions passes through the account's holdings from Harbor.
func (h *Handler) GetAccountPositions(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountId")

	positions, err := h.Harbor.Positions(r.Context(), accountID)
	if err != nil {
		h.writeUpstreamError(w, "Failed to fetch positions", err)
		return
	}

	writeJSON(w, http.StatusOK, toPositionDTOs(positions))
}

// =============================================================================
// WITHDRAWAL HANDLERS
// =============================================================================

// ListWithdrawals returns the withdrawal queue, optionally filtered by status.
func (h *Handler) ListWithdrawals(w http.ResponseWriter, r *http.Request) {
	status := portal.WithdrawalStatus(r.URL.Query().Get("status"))

	withdrawals, err := h.Store.ListWithdrawals(r.Context(), status)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list withdrawals", err)
		return
	}

	writeJSON(w, http.StatusOK, toWithdrawalDTOs(withdrawals))
}

// GetWithdrawal returns one withdrawal request.
func (h *Handler) GetWithdrawal(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	withdrawal, err := h.Store.GetWithdrawal(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get withdrawal", err)
		return
	}
	if withdrawal == nil {
		writeError(w, http.StatusNotFound, "Withdrawal not found", nil)
		return
	}

	writeJSON(w, http.StatusOK, toWithdrawalDTO(*withdrawal))
}

// CreateWithdrawal enqueues a new pending withdrawal.
func (h *Handler) CreateWithdrawal(w http.ResponseWriter, r *http.Request) {
	var req CreateWithdrawalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.AccountID == "" {
		writeError(w, http.StatusBadRequest, "accountId is required", nil)
		return
	}

	withdrawal, err := h.Service.CreateWithdrawal(r.Context(), req.AccountID, req.ClientName,
		decimal.NewFromFloat(req.Amount))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to create withdrawal", err)
		return
	}

	writeJSON(w, http.StatusCreated, toWithdrawalDTO(*withdrawal))
}

// ApproveWithdrawal approves a pending withdrawal if it fits inside the
// account's seasoned cash.
func (h *Handler) ApproveWithdrawal(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req ReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	withdrawal, err := h.Service.ApproveWithdrawal(r.Context(), id, req.Reviewer)
	if err != nil {
		h.writeWithdrawalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toWithdrawalDTO(*withdrawal))
}

// RejectWithdrawal rejects a pending withdrawal with a reviewer note.
func (h *Handler) RejectWithdrawal(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req ReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	withdrawal, err := h.Service.RejectWithdrawal(r.Context(), id, req.Reviewer, req.Reason)
	if err != nil {
		h.writeWithdrawalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toWithdrawalDTO(*withdrawal))
}

// ExportWithdrawals streams the queue as CSV.
func (h *Handler) ExportWithdrawals(w http.ResponseWriter, r *http.Request) {
	status := portal.WithdrawalStatus(r.URL.Query().Get("status"))

	withdrawals, err := h.Store.ListWithdrawals(r.Context(), status)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list withdrawals", err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="withdrawals.csv"`)
	if err := portal.WriteWithdrawalsCSV(w, withdrawals); err != nil {
		h.Log.WithError(err).Error("csv export failed mid-stream")
	}
}

// writeWithdrawalError maps service errors onto HTTP statuses.
func (h *Handler) writeWithdrawalError(w http.ResponseWriter, err error) {
	var inel *portal.IneligibleError
	switch {
	case errors.As(err, &inel):
		details := map[string]any{
			"requested":  decimalToFloat(inel.Requested),
			"available":  decimalToFloat(inel.Available),
			"unseasoned": decimalToFloat(inel.Unseasoned),
		}
		if inel.NextSeasoningDate != nil {
			details["nextSeasoningDate"] = inel.NextSeasoningDate.Format(dateOnly)
		}
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "Withdrawal exceeds available seasoned balance",
			Code:    "ineligible",
			Details: details,
		})
	case portal.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Withdrawal not found", err)
	case errors.Is(err, portal.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "Invalid status transition", err)
	case errors.Is(err, harbor.ErrUnreachable), errors.Is(err, harbor.ErrAccountNotFound):
		h.writeUpstreamError(w, "Failed to verify eligibility", err)
	default:
		writeError(w, http.StatusInternalServerError, "Failed to update withdrawal", err)
	}
}

// =============================================================================
// ACH HANDLERS
// =============================================================================

// ListACH returns tracked ACH transactions, optionally filtered by status.
func (h *Handler) ListACH(w http.ResponseWriter, r *http.Request) {
	status := portal.ACHStatus(r.URL.Query().Get("status"))

	transactions, err := h.Store.ListACH(r.Context(), status)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list ach transactions", err)
		return
	}

	dtos := make([]ACHTransactionDTO, len(transactions))
	for i, tx := range transactions {
		dtos[i] = toACHDTO(tx)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ReconcileACH marks an ACH transaction reconciled.
func (h *Handler) ReconcileACH(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req ReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	tx, err := h.Service.ReconcileACH(r.Context(), id, req.Reviewer)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, toACHDTO(*tx))
	case portal.IsNotFound(err):
		writeError(w, http.StatusNotFound, "ACH transaction not found", err)
	case errors.Is(err, portal.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "Invalid status transition", err)
	default:
		writeError(w, http.StatusInternalServerError, "Failed to reconcile", err)
	}
}

// =============================================================================
// DOCUMENT & JOB HANDLERS
// =============================================================================

// ListDocuments returns document metadata, optionally filtered by account.
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	accountID := r.URL.Query().Get("accountId")

	docs, err := h.Store.ListDocuments(r.Context(), accountID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list documents", err)
		return
	}

	writeJSON(w, http.StatusOK, toDocumentDTOs(docs))
}

// BulkDownload starts an archive job and returns 202 with the job record.
func (h *Handler) BulkDownload(w http.ResponseWriter, r *http.Request) {
	var req BulkDownloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	job, err := h.Jobs.Start(r.Context(), req.AccountID, req.DocumentIDs)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to start bulk download", err)
		return
	}

	writeJSON(w, http.StatusAccepted, toJobDTO(*job))
}

// GetJob returns the current state of a bulk-download job.
func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	job, err := h.JobStore.Get(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get job", err)
		return
	}
	if job == nil {
		writeError(w, http.StatusNotFound, "Job not found", nil)
		return
	}

	writeJSON(w, http.StatusOK, toJobDTO(*job))
}

// =============================================================================
// STATUS
// =============================================================================

// GetStatus reports portal health and Harbor reachability.
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"harbor": h.Session.Status(),
	})
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func (h *Handler) writeUpstreamError(w http.ResponseWriter, message string, err error) {
	switch {
	case errors.Is(err, harbor.ErrAccountNotFound):
		writeError(w, http.StatusNotFound, "Account not found", err)
	case errors.Is(err, harbor.ErrUnreachable):
		writeError(w, http.StatusBadGateway, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
