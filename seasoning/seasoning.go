/*
Package seasoning computes seasoned-cash availability for brokerage accounts.

PURPOSE:
  Recently deposited funds are held for a fixed window of 5 business days
  before they may be withdrawn. This package partitions an account's cash
  balance into a seasoned (withdrawable) portion and an unseasoned (held)
  portion, and produces the forward schedule of when each held tranche
  becomes available. Withdrawal eligibility decisions hang off this result.

BOUNDARY CONVENTION:
  The deposit's own date is business-day ZERO and is never counted. A deposit
  made on a Thursday has elapsed 1 business day on Friday, and seasons on the
  5th business day after the deposit date (Thursday deposit -> seasons the
  following Thursday). Elapsed counting and seasoning-date arithmetic share
  one Calendar so the two can never drift apart.

FILTERING:
  The window-start date filter is a coarse pre-filter only; the authoritative
  test for every deposit is its business-day count. A deposit exactly at the
  window boundary passes the date filter but is excluded by the count.

KEY PROPERTIES:
  - Pure: no I/O, no shared state, safe for concurrent use.
  - Total: always returns a Result for well-formed input; an empty
    transaction list yields a fully seasoned balance.
  - Exact: amounts are decimal.Decimal, never floats.

SEE ALSO:
  - calendar.go: business-day arithmetic, injectable holiday predicate
  - classify.go: balance-free per-transaction classification view
*/
package seasoning

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Window is the regulatory/operational holding period for fresh deposits,
// in business days.
const Window = 5

// =============================================================================
// INPUT / OUTPUT TYPES
// =============================================================================

// Transaction is a single cash ledger entry. Positive amounts are deposits
// and participate in seasoning; negative amounts (withdrawals, purchases)
// are ignored by the calculator. The calculator never mutates its input.
type Transaction struct {
	Amount decimal.Decimal
	Date   time.Time
}

// UnseasonedDeposit is one deposit still inside the holding window.
type UnseasonedDeposit struct {
	Amount                decimal.Decimal
	DepositDate           time.Time
	SeasoningDate         time.Time // 5th business day after DepositDate
	BusinessDaysRemaining int
}

// ScheduleEntry aggregates all deposits that season on the same date.
type ScheduleEntry struct {
	SeasoningDate         time.Time
	Amount                decimal.Decimal
	BusinessDaysRemaining int
}

// Result is the computed partition of an account's cash balance.
//
// Invariants:
//   - AvailableBalance = max(0, TotalBalance - UnseasonedAmount)
//   - sum(UnseasonedDeposits) == sum(UnseasonedSchedule) == UnseasonedAmount
//   - NextSeasoningDate / DaysUntilSeasoned are nil when nothing is held
type Result struct {
	TotalBalance       decimal.Decimal
	AvailableBalance   decimal.Decimal
	UnseasonedAmount   decimal.Decimal
	NextSeasoningDate  *time.Time
	DaysUntilSeasoned  *int
	UnseasonedDeposits []UnseasonedDeposit
	UnseasonedSchedule []ScheduleEntry
}

// Clamped reports whether the unseasoned amount exceeded the supplied total
// balance, i.e. the available balance was floored at zero. This signals a
// stale balance or an inconsistent transaction feed upstream; callers should
// surface it (log, alert) rather than treat it as a calculator error.
func (r Result) Clamped() bool {
	return r.UnseasonedAmount.GreaterThan(r.TotalBalance)
}

// =============================================================================
// CALCULATOR
// =============================================================================

// Calculator computes seasoned-cash results against a business calendar.
type Calculator struct {
	Calendar Calendar
}

// ComputeSeasonedCash partitions totalBalance into seasoned and unseasoned
// amounts as of now, using the default weekend-only calendar.
func ComputeSeasonedCash(totalBalance decimal.Decimal, txs []Transaction, now time.Time) Result {
	return Calculator{}.ComputeSeasonedCash(totalBalance, txs, now)
}

// ComputeSeasonedCash partitions totalBalance into seasoned and unseasoned
// amounts as of now.
func (c Calculator) ComputeSeasonedCash(totalBalance decimal.Decimal, txs []Transaction, now time.Time) Result {
	windowStart := c.Calendar.SubtractBusinessDays(now, Window)

	var deposits []UnseasonedDeposit
	unseasoned := decimal.Zero

	for _, tx := range txs {
		if !tx.Amount.IsPositive() {
			continue
		}
		txDate := midnight(tx.Date)
		if txDate.Before(windowStart) {
			continue
		}
		elapsed := c.Calendar.Elapsed(txDate, now)
		if elapsed >= Window {
			// Passed the coarse date filter but is already seasoned.
			continue
		}
		deposits = append(deposits, UnseasonedDeposit{
			Amount:                tx.Amount,
			DepositDate:           txDate,
			SeasoningDate:         c.Calendar.AddBusinessDays(txDate, Window),
			BusinessDaysRemaining: Window - elapsed,
		})
		unseasoned = unseasoned.Add(tx.Amount)
	}

	sort.SliceStable(deposits, func(i, j int) bool {
		if !deposits[i].SeasoningDate.Equal(deposits[j].SeasoningDate) {
			return deposits[i].SeasoningDate.Before(deposits[j].SeasoningDate)
		}
		return deposits[i].DepositDate.Before(deposits[j].DepositDate)
	})

	schedule := buildSchedule(deposits)

	available := totalBalance.Sub(unseasoned)
	if available.IsNegative() {
		available = decimal.Zero
	}

	result := Result{
		TotalBalance:       totalBalance,
		AvailableBalance:   available,
		UnseasonedAmount:   unseasoned,
		UnseasonedDeposits: deposits,
		UnseasonedSchedule: schedule,
	}
	if len(schedule) > 0 {
		next := schedule[0].SeasoningDate
		days := schedule[0].BusinessDaysRemaining
		result.NextSeasoningDate = &next
		result.DaysUntilSeasoned = &days
	}
	return result
}

// buildSchedule groups deposits by seasoning date, summing amounts.
// Input must already be sorted by seasoning date.
func buildSchedule(deposits []UnseasonedDeposit) []ScheduleEntry {
	var schedule []ScheduleEntry
	for _, d := range deposits {
		if n := len(schedule); n > 0 && schedule[n-1].SeasoningDate.Equal(d.SeasoningDate) {
			schedule[n-1].Amount = schedule[n-1].Amount.Add(d.Amount)
			continue
		}
		schedule = append(schedule, ScheduleEntry{
			SeasoningDate:         d.SeasoningDate,
			Amount:                d.Amount,
			BusinessDaysRemaining: d.BusinessDaysRemaining,
		})
	}
	return schedule
}
