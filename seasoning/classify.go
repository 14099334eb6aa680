package seasoning

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// TRANSACTION CLASSIFICATION - balance-free view
// =============================================================================

// ClassifiedTransaction is a ledger entry tagged with its seasoning state.
// Non-deposit entries (amount <= 0) are always Seasoned: they carry no hold.
type ClassifiedTransaction struct {
	Transaction
	Seasoned              bool
	SeasoningDate         *time.Time // nil for seasoned entries
	BusinessDaysRemaining int        // 0 for seasoned entries
}

// Classification is the full-ledger seasoning view. Unlike Result it takes no
// externally supplied balance: TotalBalance is the sum of every transaction,
// so AvailableBalance + UnseasonedAmount always reconciles exactly.
type Classification struct {
	TotalBalance     decimal.Decimal
	AvailableBalance decimal.Decimal
	UnseasonedAmount decimal.Decimal
	Transactions     []ClassifiedTransaction
}

// ClassifyTransactions tags every transaction as seasoned or unseasoned as of
// now, deriving the total balance from the transaction sum itself, using the
// default weekend-only calendar.
func ClassifyTransactions(txs []Transaction, now time.Time) Classification {
	return Calculator{}.ClassifyTransactions(txs, now)
}

// ClassifyTransactions tags every transaction as seasoned or unseasoned as of
// now, deriving the total balance from the transaction sum itself.
func (c Calculator) ClassifyTransactions(txs []Transaction, now time.Time) Classification {
	out := Classification{
		TotalBalance:     decimal.Zero,
		UnseasonedAmount: decimal.Zero,
		Transactions:     make([]ClassifiedTransaction, 0, len(txs)),
	}

	for _, tx := range txs {
		out.TotalBalance = out.TotalBalance.Add(tx.Amount)

		ct := ClassifiedTransaction{Transaction: tx, Seasoned: true}
		if tx.Amount.IsPositive() {
			txDate := midnight(tx.Date)
			if elapsed := c.Calendar.Elapsed(txDate, now); elapsed < Window {
				seasons := c.Calendar.AddBusinessDays(txDate, Window)
				ct.Seasoned = false
				ct.SeasoningDate = &seasons
				ct.BusinessDaysRemaining = Window - elapsed
				out.UnseasonedAmount = out.UnseasonedAmount.Add(tx.Amount)
			}
		}
		out.Transactions = append(out.Transactions, ct)
	}

	out.AvailableBalance = out.TotalBalance.Sub(out.UnseasonedAmount)
	if out.AvailableBalance.IsNegative() {
		out.AvailableBalance = decimal.Zero
	}
	return out
}
