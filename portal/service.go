package portal

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/darren-olevson/wts-admin-portal-sub000/harbor"
	"github.com/darren-olevson/wts-admin-portal-sub000/seasoning"
)

// historyLookback bounds how far back transaction history is fetched from
// Harbor. The seasoning window is 5 business days; 30 calendar days gives
// comfortable slack and keeps the classified-history view useful.
const historyLookback = 30 * 24 * time.Hour

// Service wires the withdrawal queue to Harbor data and the seasoning
// calculation. All state lives in Store and Harbor; the service itself is
// stateless and safe for concurrent use.
type Service struct {
	Store  Store
	Harbor harbor.Provider
	Calc   seasoning.Calculator
	Log    *logrus.Logger

	// Now is injectable for tests; defaults to time.Now.
	Now func() time.Time
}

// NewService creates a portal service.
func NewService(store Store, provider harbor.Provider, log *logrus.Logger) *Service {
	return &Service{
		Store:  store,
		Harbor: provider,
		Log:    log,
		Now:    time.Now,
	}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// =============================================================================
// SEASONED BALANCE
// =============================================================================

// SeasonedBalance fetches fresh balance and transaction data from Harbor and
// computes the seasoned-cash partition for the account.
func (s *Service) SeasonedBalance(ctx context.Context, accountID string) (seasoning.Result, error) {
	now := s.now()

	bal, err := s.Harbor.AccountBalance(ctx, accountID)
	if err != nil {
		return seasoning.Result{}, err
	}
	history, err := s.Harbor.Transactions(ctx, accountID, now.Add(-historyLookback))
	if err != nil {
		return seasoning.Result{}, err
	}

	result := s.Calc.ComputeSeasonedCash(bal.TotalBalance, toSeasoningTxs(history), now)
	if result.Clamped() {
		// Stale balance vs fresh transaction feed. Not a calculator bug;
		// surface it so the balance provider discrepancy gets chased.
		s.Log.WithFields(logrus.Fields{
			"account":    accountID,
			"total":      result.TotalBalance,
			"unseasoned": result.UnseasonedAmount,
		}).Warn("unseasoned amount exceeds reported balance; available clamped to zero")
	}
	return result, nil
}

// ClassifiedHistory returns the account's recent transactions, each tagged
// seasoned or unseasoned, with the balance derived from the ledger itself.
func (s *Service) ClassifiedHistory(ctx context.Context, accountID string) (seasoning.Classification, error) {
	now := s.now()
	history, err := s.Harbor.Transactions(ctx, accountID, now.Add(-historyLookback))
	if err != nil {
		return seasoning.Classification{}, err
	}
	return s.Calc.ClassifyTransactions(toSeasoningTxs(history), now), nil
}

func toSeasoningTxs(history []harbor.Transaction) []seasoning.Transaction {
	txs := make([]seasoning.Transaction, len(history))
	for i, h := range history {
		txs[i] = seasoning.Transaction{Amount: h.Amount, Date: h.Date}
	}
	return txs
}

// =============================================================================
// WITHDRAWAL LIFECYCLE
// =============================================================================

// CreateWithdrawal enqueues a new pending withdrawal request.
func (s *Service) CreateWithdrawal(ctx context.Context, accountID, clientName string, amount decimal.Decimal) (*WithdrawalRequest, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("withdrawal amount must be positive, got %s", amount)
	}
	w := WithdrawalRequest{
		ID:          uuid.NewString(),
		AccountID:   accountID,
		ClientName:  clientName,
		Amount:      amount,
		Status:      WithdrawalPending,
		RequestedAt: s.now().UTC(),
	}
	if err := s.Store.SaveWithdrawal(ctx, w); err != nil {
		return nil, err
	}
	return &w, nil
}

// ApproveWithdrawal checks the request against the account's seasoned cash
// and, if it fits, marks it approved. Requests over the available balance are
// refused with an IneligibleError carrying the seasoning schedule headline.
func (s *Service) ApproveWithdrawal(ctx context.Context, id, reviewer string) (*WithdrawalRequest, error) {
	w, err := s.Store.GetWithdrawal(ctx, id)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, ErrWithdrawalNotFound
	}
	if w.Status != WithdrawalPending {
		return nil, &TransitionError{ID: id, From: w.Status, To: WithdrawalApproved}
	}

	result, err := s.SeasonedBalance(ctx, w.AccountID)
	if err != nil {
		return nil, err
	}
	if w.Amount.GreaterThan(result.AvailableBalance) {
		return nil, &IneligibleError{
			AccountID:         w.AccountID,
			Requested:         w.Amount,
			Available:         result.AvailableBalance,
			Unseasoned:        result.UnseasonedAmount,
			NextSeasoningDate: result.NextSeasoningDate,
		}
	}

	reviewed := s.now().UTC()
	w.Status = WithdrawalApproved
	w.ReviewedAt = &reviewed
	w.ReviewedBy = reviewer
	if err := s.Store.UpdateWithdrawal(ctx, *w); err != nil {
		return nil, err
	}

	s.Log.WithFields(logrus.Fields{
		"withdrawal": w.ID,
		"account":    w.AccountID,
		"amount":     w.Amount,
		"reviewer":   reviewer,
	}).Info("withdrawal approved")
	return w, nil
}

// RejectWithdrawal marks a pending request rejected with a reviewer note.
func (s *Service) RejectWithdrawal(ctx context.Context, id, reviewer, reason string) (*WithdrawalRequest, error) {
	w, err := s.Store.GetWithdrawal(ctx, id)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, ErrWithdrawalNotFound
	}
	if w.Status != WithdrawalPending {
		return nil, &TransitionError{ID: id, From: w.Status, To: WithdrawalRejected}
	}

	reviewed := s.now().UTC()
	w.Status = WithdrawalRejected
	w.ReviewedAt = &reviewed
	w.ReviewedBy = reviewer
	w.Reason = reason
	if err := s.Store.UpdateWithdrawal(ctx, *w); err != nil {
		return nil, err
	}
	return w, nil
}

// =============================================================================
// ACH RECONCILIATION
// =============================================================================

// ReconcileACH marks a settled ACH transaction reconciled.
func (s *Service) ReconcileACH(ctx context.Context, id, reviewer string) (*ACHTransaction, error) {
	tx, err := s.Store.GetACH(ctx, id)
	if err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, ErrACHNotFound
	}
	if tx.Status != ACHSettled && tx.Status != ACHPending {
		return nil, fmt.Errorf("%w: ach %s is %s", ErrInvalidTransition, id, tx.Status)
	}

	when := s.now().UTC()
	tx.Status = ACHReconciled
	tx.ReconciledAt = &when
	tx.ReconciledBy = reviewer
	if err := s.Store.UpdateACH(ctx, *tx); err != nil {
		return nil, err
	}
	return tx, nil
}
