/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

WIRE FORMAT:
  Field names are camelCase, matching the portal frontend's expectations.
  Money is serialized as JSON numbers; dates as RFC3339, except seasoning
  dates which are plain YYYY-MM-DD (they are calendar dates, not instants).

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/darren-olevson/wts-admin-portal-sub000/harbor"
	"github.com/darren-olevson/wts-admin-portal-sub000/jobs"
	"github.com/darren-olevson/wts-admin-portal-sub000/portal"
	"github.com/darren-olevson/wts-admin-portal-sub000/seasoning"
)

const dateOnly = "2006-01-02"

// =============================================================================
// SEASONED BALANCE
// =============================================================================

// SeasonedCashDTO is the balance endpoint's response.
type SeasonedCashDTO struct {
	TotalBalance       float64                `json:"totalBalance"`
	AvailableBalance   float64                `json:"availableBalance"`
	UnseasonedAmount   float64                `json:"unseasonedAmount"`
	NextSeasoningDate  *string                `json:"nextSeasoningDate"`
	DaysUntilSeasoned  *int                   `json:"daysUntilSeasoned"`
	UnseasonedDeposits []UnseasonedDepositDTO `json:"unseasonedDeposits"`
	UnseasonedSchedule []ScheduleEntryDTO     `json:"unseasonedSchedule"`
}

type UnseasonedDepositDTO struct {
	Amount                float64 `json:"amount"`
	DepositDate           string  `json:"depositDate"`
	SeasoningDate         string  `json:"seasoningDate"`
	BusinessDaysRemaining int     `json:"businessDaysRemaining"`
}

type ScheduleEntryDTO struct {
	SeasoningDate         string  `json:"seasoningDate"`
	Amount                float64 `json:"amount"`
	BusinessDaysRemaining int     `json:"businessDaysRemaining"`
}

func toSeasonedCashDTO(r seasoning.Result) SeasonedCashDTO {
	dto := SeasonedCashDTO{
		TotalBalance:       decimalToFloat(r.TotalBalance),
		AvailableBalance:   decimalToFloat(r.AvailableBalance),
		UnseasonedAmount:   decimalToFloat(r.UnseasonedAmount),
		UnseasonedDeposits: make([]UnseasonedDepositDTO, len(r.UnseasonedDeposits)),
		UnseasonedSchedule: make([]ScheduleEntryDTO, len(r.UnseasonedSchedule)),
	}
	if r.NextSeasoningDate != nil {
		s := r.NextSeasoningDate.Format(dateOnly)
		dto.NextSeasoningDate = &s
	}
	dto.DaysUntilSeasoned = r.DaysUntilSeasoned

	for i, d := range r.UnseasonedDeposits {
		dto.UnseasonedDeposits[i] = UnseasonedDepositDTO{
			Amount:                decimalToFloat(d.Amount),
			DepositDate:           d.DepositDate.Format(time.RFC3339),
			SeasoningDate:         d.SeasoningDate.Format(dateOnly),
			BusinessDaysRemaining: d.BusinessDaysRemaining,
		}
	}
	for i, e := range r.UnseasonedSchedule {
		dto.UnseasonedSchedule[i] = ScheduleEntryDTO{
			SeasoningDate:         e.SeasoningDate.Format(dateOnly),
			Amount:                decimalToFloat(e.Amount),
			BusinessDaysRemaining: e.BusinessDaysRemaining,
		}
	}
	return dto
}

// =============================================================================
// TRANSACTIONS & POSITIONS
// =============================================================================

// ClassifiedTransactionDTO is one history entry tagged with seasoning state.
type ClassifiedTransactionDTO struct {
	Amount                float64 `json:"amount"`
	Date                  string  `json:"date"`
	Seasoned              bool    `json:"seasoned"`
	SeasoningDate         *string `json:"seasoningDate,omitempty"`
	BusinessDaysRemaining int     `json:"businessDaysRemaining,omitempty"`
}

type ClassifiedHistoryDTO struct {
	TotalBalance     float64                    `json:"totalBalance"`
	AvailableBalance float64                    `json:"availableBalance"`
	UnseasonedAmount float64                    `json:"unseasonedAmount"`
	Transactions     []ClassifiedTransactionDTO `json:"transactions"`
}

func toClassifiedHistoryDTO(c seasoning.Classification) ClassifiedHistoryDTO {
	dto := ClassifiedHistoryDTO{
		TotalBalance:     decimalToFloat(c.TotalBalance),
		AvailableBalance: decimalToFloat(c.AvailableBalance),
		UnseasonedAmount: decimalToFloat(c.UnseasonedAmount),
		Transactions:     make([]ClassifiedTransactionDTO, len(c.Transactions)),
	}
	for i, tx := range c.Transactions {
		d := ClassifiedTransactionDTO{
			Amount:                decimalToFloat(tx.Amount),
			Date:                  tx.Date.Format(time.RFC3339),
			Seasoned:              tx.Seasoned,
			BusinessDaysRemaining: tx.BusinessDaysRemaining,
		}
		if tx.SeasoningDate != nil {
			s := tx.SeasoningDate.Format(dateOnly)
			d.SeasoningDate = &s
		}
		dto.Transactions[i] = d
	}
	return dto
}

// PositionDTO is one holding in an account.
type PositionDTO struct {
	Symbol      string  `json:"symbol"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	MarketValue float64 `json:"marketValue"`
}

func toPositionDTOs(positions []harbor.Position) []PositionDTO {
	dtos := make([]PositionDTO, len(positions))
	for i, p := range positions {
		dtos[i] = PositionDTO{
			Symbol:      p.Symbol,
			Description: p.Description,
			Quantity:    decimalToFloat(p.Quantity),
			MarketValue: decimalToFloat(p.MarketValue),
		}
	}
	return dtos
}

// =============================================================================
// WITHDRAWALS
// =============================================================================

type WithdrawalDTO struct {
	ID          string  `json:"id"`
	AccountID   string  `json:"accountId"`
	ClientName  string  `json:"clientName"`
	Amount      float64 `json:"amount"`
	Status      string  `json:"status"`
	Reason      string  `json:"reason,omitempty"`
	RequestedAt string  `json:"requestedAt"`
	ReviewedAt  *string `json:"reviewedAt,omitempty"`
	ReviewedBy  string  `json:"reviewedBy,omitempty"`
}

// CreateWithdrawalRequest is the request to enqueue a withdrawal.
type CreateWithdrawalRequest struct {
	AccountID  string  `json:"accountId"`
	ClientName string  `json:"clientName"`
	Amount     float64 `json:"amount"`
}

// ReviewRequest carries the reviewer identity for approve/reject.
type ReviewRequest struct {
	Reviewer string `json:"reviewer"`
	Reason   string `json:"reason,omitempty"`
}

func toWithdrawalDTO(w portal.WithdrawalRequest) WithdrawalDTO {
	dto := WithdrawalDTO{
		ID:          w.ID,
		AccountID:   w.AccountID,
		ClientName:  w.ClientName,
		Amount:      decimalToFloat(w.Amount),
		Status:      string(w.Status),
		Reason:      w.Reason,
		RequestedAt: w.RequestedAt.Format(time.RFC3339),
		ReviewedBy:  w.ReviewedBy,
	}
	if w.ReviewedAt != nil {
		s := w.ReviewedAt.Format(time.RFC3339)
		dto.ReviewedAt = &s
	}
	return dto
}

func toWithdrawalDTOs(ws []portal.WithdrawalRequest) []WithdrawalDTO {
	dtos := make([]WithdrawalDTO, len(ws))
	for i, w := range ws {
		dtos[i] = toWithdrawalDTO(w)
	}
	return dtos
}

// =============================================================================
// ACH
// =============================================================================

type ACHTransactionDTO struct {
	ID           string  `json:"id"`
	AccountID    string  `json:"accountId"`
	Amount       float64 `json:"amount"`
	Direction    string  `json:"direction"`
	Status       string  `json:"status"`
	TraceNumber  string  `json:"traceNumber,omitempty"`
	EffectiveAt  string  `json:"effectiveAt"`
	ReconciledAt *string `json:"reconciledAt,omitempty"`
	ReconciledBy string  `json:"reconciledBy,omitempty"`
}

func toACHDTO(tx portal.ACHTransaction) ACHTransactionDTO {
	dto := ACHTransactionDTO{
		ID:           tx.ID,
		AccountID:    tx.AccountID,
		Amount:       decimalToFloat(tx.Amount),
		Direction:    tx.Direction,
		Status:       string(tx.Status),
		TraceNumber:  tx.TraceNumber,
		EffectiveAt:  tx.EffectiveAt.Format(time.RFC3339),
		ReconciledBy: tx.ReconciledBy,
	}
	if tx.ReconciledAt != nil {
		s := tx.ReconciledAt.Format(time.RFC3339)
		dto.ReconciledAt = &s
	}
	return dto
}

// =============================================================================
// DOCUMENTS & JOBS
// =============================================================================

type DocumentDTO struct {
	ID         string `json:"id"`
	AccountID  string `json:"accountId"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	SizeBytes  int64  `json:"sizeBytes"`
	UploadedAt string `json:"uploadedAt"`
}

func toDocumentDTOs(docs []portal.Document) []DocumentDTO {
	dtos := make([]DocumentDTO, len(docs))
	for i, d := range docs {
		dtos[i] = DocumentDTO{
			ID:         d.ID,
			AccountID:  d.AccountID,
			Name:       d.Name,
			Type:       d.Type,
			SizeBytes:  d.SizeBytes,
			UploadedAt: d.UploadedAt.Format(time.RFC3339),
		}
	}
	return dtos
}

// BulkDownloadRequest asks for an archive of the given documents.
type BulkDownloadRequest struct {
	AccountID   string   `json:"accountId"`
	DocumentIDs []string `json:"documentIds"`
}

type JobDTO struct {
	ID         string   `json:"id"`
	AccountID  string   `json:"accountId"`
	Status     string   `json:"status"`
	CreatedAt  string   `json:"createdAt"`
	UpdatedAt  string   `json:"updatedAt"`
	ArchiveKey string   `json:"archiveKey,omitempty"`
	TotalBytes int64    `json:"totalBytes,omitempty"`
	Missing    []string `json:"missing,omitempty"`
	Error      string   `json:"error,omitempty"`
}

func toJobDTO(j jobs.Job) JobDTO {
	return JobDTO{
		ID:         j.ID,
		AccountID:  j.AccountID,
		Status:     string(j.Status),
		CreatedAt:  j.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  j.UpdatedAt.Format(time.RFC3339),
		ArchiveKey: j.ArchiveKey,
		TotalBytes: j.TotalBytes,
		Missing:    j.Missing,
		Error:      j.Error,
	}
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

func decimalToFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
