package seasoning

import "time"

// =============================================================================
// BUSINESS-DAY CALENDAR
// =============================================================================

// HolidayFunc reports whether a date is a market holiday. The portal ships
// without a holiday set; deployments that need one inject their own predicate
// instead of patching the day-counting logic.
type HolidayFunc func(time.Time) bool

// Calendar answers business-day questions. The zero value treats every
// Monday-Friday as a business day.
type Calendar struct {
	IsHoliday HolidayFunc
}

// DefaultCalendar is the weekend-only calendar used throughout the portal.
var DefaultCalendar = Calendar{}

// IsBusinessDay reports whether t falls on a business day.
func (c Calendar) IsBusinessDay(t time.Time) bool {
	wd := t.Weekday()
	if wd == time.Saturday || wd == time.Sunday {
		return false
	}
	if c.IsHoliday != nil && c.IsHoliday(t) {
		return false
	}
	return true
}

// Elapsed counts the business days that have elapsed between from and to.
// The starting date itself is day zero and is never counted; counting walks
// day by day from the day after `from` through `to` inclusive.
//
//	Elapsed(Fri, following Mon) == 1
//	Elapsed(d, d)               == 0
//
// Returns 0 when to precedes from.
func (c Calendar) Elapsed(from, to time.Time) int {
	from = midnight(from)
	to = midnight(to)

	n := 0
	for d := from.AddDate(0, 0, 1); !d.After(to); d = d.AddDate(0, 0, 1) {
		if c.IsBusinessDay(d) {
			n++
		}
	}
	return n
}

// AddBusinessDays returns the n-th business day after t. The starting date is
// not counted, so AddBusinessDays(Mon, 5) lands on the following Monday.
func (c Calendar) AddBusinessDays(t time.Time, n int) time.Time {
	d := midnight(t)
	for n > 0 {
		d = d.AddDate(0, 0, 1)
		if c.IsBusinessDay(d) {
			n--
		}
	}
	return d
}

// SubtractBusinessDays steps backward one calendar day at a time, decrementing
// only on business days, until n decrements have occurred.
func (c Calendar) SubtractBusinessDays(t time.Time, n int) time.Time {
	d := midnight(t)
	for n > 0 {
		d = d.AddDate(0, 0, -1)
		if c.IsBusinessDay(d) {
			n--
		}
	}
	return d
}

// midnight truncates t to its calendar date in UTC.
func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
