package portal

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrWithdrawalNotFound is returned when a withdrawal ID has no record.
	ErrWithdrawalNotFound = errors.New("withdrawal not found")

	// ErrACHNotFound is returned when an ACH transaction ID has no record.
	ErrACHNotFound = errors.New("ach transaction not found")

	// ErrInvalidTransition is returned when a state change is not allowed
	// from the record's current status (e.g. approving a rejected request).
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrIneligible is returned when a withdrawal exceeds seasoned cash.
	ErrIneligible = errors.New("withdrawal exceeds available seasoned balance")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// IneligibleError explains why a withdrawal was refused and when enough
// cash will have seasoned, so ops staff can tell the client.
type IneligibleError struct {
	AccountID         string
	Requested         decimal.Decimal
	Available         decimal.Decimal
	Unseasoned        decimal.Decimal
	NextSeasoningDate *time.Time
}

func (e *IneligibleError) Error() string {
	return fmt.Sprintf("withdrawal of %s exceeds available seasoned balance %s (unseasoned: %s)",
		e.Requested, e.Available, e.Unseasoned)
}

func (e *IneligibleError) Unwrap() error { return ErrIneligible }

// TransitionError reports a disallowed status change.
type TransitionError struct {
	ID   string
	From WithdrawalStatus
	To   WithdrawalStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("withdrawal %s: cannot move from %s to %s", e.ID, e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// IsClientError reports whether the error is the caller's fault (4xx) rather
// than a portal failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrIneligible) || errors.Is(err, ErrInvalidTransition)
}

// IsNotFound reports whether the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrWithdrawalNotFound) || errors.Is(err, ErrACHNotFound)
}
