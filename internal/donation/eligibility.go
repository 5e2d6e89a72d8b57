package donation

import "time"

// Eligibility rules are pure functions over a donor's approved donation
// history: no I/O, no side effects. The service feeds them dates from the
// store; tests feed them dates directly.

// CalendarDay truncates t to its UTC calendar day. Donation dates carry DATE
// semantics: the deferral window moves in calendar days, never hours.
func CalendarDay(t time.Time) time.Time {
	year, month, d := t.UTC().Date()
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

// daysBetween counts whole calendar days from a to b, ignoring time of day.
func daysBetween(a, b time.Time) int {
	return int(CalendarDay(b).Sub(CalendarDay(a)).Hours() / 24)
}

// CanDonate reports whether a donor whose most recent approved donation was
// on lastApproved may donate again as of asOf. A nil lastApproved means the
// donor never donated and is always eligible.
func CanDonate(lastApproved *time.Time, asOf time.Time) bool {
	if lastApproved == nil {
		return true
	}
	return daysBetween(*lastApproved, asOf) >= DeferralDays
}

// DaysUntilEligible returns how many days remain before the donor may donate
// again: max(0, 56 - daysSinceLast), or 0 if the donor never donated.
func DaysUntilEligible(lastApproved *time.Time, asOf time.Time) int {
	if lastApproved == nil {
		return 0
	}
	remaining := DeferralDays - daysBetween(*lastApproved, asOf)
	if remaining < 0 {
		return 0
	}
	return remaining
}
