package domain

import "time"

// Period represents a ranking time window.
type Period string

// Period constants for ranking windows.
const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodAllTime Period = "all_time"
)

// Periods returns every ranking window, in rebuild order.
func Periods() []Period {
	return []Period{PeriodDaily, PeriodWeekly, PeriodAllTime}
}

// Valid returns true if the period is a recognized value.
func (p Period) Valid() bool {
	switch p {
	case PeriodDaily, PeriodWeekly, PeriodAllTime:
		return true
	default:
		return false
	}
}

// Start returns the inclusive lower bound of the window relative to now.
// Daily starts at the beginning of the current UTC day, weekly at the
// most recent Sunday 00:00 UTC, and all_time is unbounded (zero time).
func (p Period) Start(now time.Time) time.Time {
	now = now.UTC()
	year, month, day := now.Date()
	today := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)

	switch p {
	case PeriodDaily:
		return today
	case PeriodWeekly:
		// Sunday = 0, so this lands on today when now is a Sunday.
		return today.AddDate(0, 0, -int(today.Weekday()))
	case PeriodAllTime:
		return time.Time{}
	default:
		return today
	}
}
