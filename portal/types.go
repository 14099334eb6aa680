/*
Package portal holds the ops-portal domain: the withdrawal queue, ACH
reconciliation, client documents, and the eligibility service that ties
withdrawal approval to the seasoned-cash calculation.

PURPOSE:
  Support/ops staff work a queue of client withdrawal requests. Approval is
  not a rubber stamp: the requested amount must fit inside the account's
  seasoned (withdrawable) cash, computed fresh from Harbor data at approval
  time. ACH entries and document records are display/reconciliation plumbing
  around that decision.

SEE ALSO:
  - service.go: eligibility checks and state transitions
  - errors.go: sentinel errors and structured refusal details
  - export.go: CSV export of the withdrawal queue
*/
package portal

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// WITHDRAWAL QUEUE
// =============================================================================

type WithdrawalStatus string

const (
	WithdrawalPending   WithdrawalStatus = "pending"
	WithdrawalApproved  WithdrawalStatus = "approved"
	WithdrawalRejected  WithdrawalStatus = "rejected"
	WithdrawalCompleted WithdrawalStatus = "completed"
)

// WithdrawalRequest is one client withdrawal awaiting ops review.
type WithdrawalRequest struct {
	ID          string
	AccountID   string
	ClientName  string
	Amount      decimal.Decimal
	Status      WithdrawalStatus
	Reason      string // reviewer note on approve/reject
	RequestedAt time.Time
	ReviewedAt  *time.Time
	ReviewedBy  string
}

// =============================================================================
// ACH RECONCILIATION
// =============================================================================

type ACHStatus string

const (
	ACHPending    ACHStatus = "pending"
	ACHSettled    ACHStatus = "settled"
	ACHReconciled ACHStatus = "reconciled"
	ACHReturned   ACHStatus = "returned"
)

// ACHTransaction is one ACH leg tracked for reconciliation against Harbor.
type ACHTransaction struct {
	ID           string
	AccountID    string
	Amount       decimal.Decimal
	Direction    string // "credit" or "debit"
	Status       ACHStatus
	TraceNumber  string
	EffectiveAt  time.Time
	ReconciledAt *time.Time
	ReconciledBy string
}

// =============================================================================
// CLIENT DOCUMENTS
// =============================================================================

// Document is metadata for one client document held in object storage.
type Document struct {
	ID         string
	AccountID  string
	Name       string
	Type       string // "statement", "tax", "confirm", "agreement"
	StorageKey string
	SizeBytes  int64
	UploadedAt time.Time
}

// =============================================================================
// STORE - persistence boundary
// =============================================================================

// Store is the portal's working-data persistence boundary, implemented by
// store/sqlite.
type Store interface {
	SaveWithdrawal(ctx context.Context, w WithdrawalRequest) error
	GetWithdrawal(ctx context.Context, id string) (*WithdrawalRequest, error)
	ListWithdrawals(ctx context.Context, status WithdrawalStatus) ([]WithdrawalRequest, error)
	UpdateWithdrawal(ctx context.Context, w WithdrawalRequest) error

	SaveACH(ctx context.Context, tx ACHTransaction) error
	GetACH(ctx context.Context, id string) (*ACHTransaction, error)
	ListACH(ctx context.Context, status ACHStatus) ([]ACHTransaction, error)
	UpdateACH(ctx context.Context, tx ACHTransaction) error

	SaveDocument(ctx context.Context, d Document) error
	ListDocuments(ctx context.Context, accountID string) ([]Document, error)
	GetDocuments(ctx context.Context, ids []string) ([]Document, error)
}
