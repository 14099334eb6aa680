/*
Package harbor wraps the upstream Harbor brokerage API.

PURPOSE:
  The admin portal does not own account data; balances, transaction history,
  and positions live in Harbor. This package is a thin pass-through client:
  it speaks Harbor's REST dialect, decodes the wire shapes into portal types,
  and reports reachability. No business logic lives here.

INTERFACE:
  Handlers depend on the Provider interface, not the concrete Client, so
  tests substitute a fake without a network.

SEE ALSO:
  - session.go: injected reachability state (replaces a global flag)
*/
package harbor

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// AccountBalance is Harbor's balance snapshot for a brokerage account.
type AccountBalance struct {
	AccountID    string
	TotalBalance decimal.Decimal
	CashBalance  decimal.Decimal
	AsOf         time.Time
}

// Transaction is one cash ledger entry from Harbor. Positive amounts are
// deposits/credits, negative amounts are withdrawals/debits.
type Transaction struct {
	ID          string
	Amount      decimal.Decimal
	Date        time.Time
	Type        string
	Description string
}

// Position is one holding in a brokerage account.
type Position struct {
	Symbol      string
	Description string
	Quantity    decimal.Decimal
	MarketValue decimal.Decimal
}

// Provider fetches account data from Harbor.
type Provider interface {
	AccountBalance(ctx context.Context, accountID string) (*AccountBalance, error)
	Transactions(ctx context.Context, accountID string, since time.Time) ([]Transaction, error)
	Positions(ctx context.Context, accountID string) ([]Position, error)
}
