// Package recurring computes the dates on which recurring entries fall due.
//
// Everything here is pure date arithmetic on UTC calendar dates; persisting
// the resulting occurrences is the caller's job.
package recurring

import (
	"sort" // Merging twice-monthly sequences
	"time" // Date arithmetic

	"finance_tracker/internal/domain" // Frequencies
)

// step is a calendar interval. Months are applied before days.
type step struct {
	months int
	days   int
}

var intervals = map[domain.Frequency]step{
	domain.Weekly:   {days: 7},
	domain.Biweekly: {days: 14},
	domain.Monthly:  {months: 1},
	domain.Yearly:   {months: 12},
}

// Occurrences returns the dates after latest, up to and including today, on
// which an entry with the given frequency falls due. Each date is derived
// from the previous one. One-time entries never recur.
func Occurrences(latest time.Time, freq domain.Frequency, today time.Time) []time.Time {
	latest = domain.NormalizeDate(latest)
	today = domain.NormalizeDate(today)

	if freq == domain.TwiceMonthly {
		return twiceMonthly(latest, today)
	}
	iv, ok := intervals[freq]
	if !ok {
		return nil
	}
	return advance(iv.apply(latest), iv, today)
}

// twiceMonthly runs two monthly sequences half a month apart. The first
// starts one month after the anchor; the second starts half a month from it,
// which for an anchor in the second half of the month lands in the next one.
func twiceMonthly(anchor, today time.Time) []time.Time {
	monthly := step{months: 1}

	var second time.Time
	if anchor.Day() >= 15 {
		second = step{months: 1, days: -14}.apply(anchor)
	} else {
		second = anchor.AddDate(0, 0, 14)
	}

	dates := append(advance(monthly.apply(anchor), monthly, today), advance(second, monthly, today)...)
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

func advance(next time.Time, iv step, today time.Time) []time.Time {
	var dates []time.Time
	for !next.After(today) {
		dates = append(dates, next)
		next = iv.apply(next)
	}
	return dates
}

func (s step) apply(t time.Time) time.Time {
	if s.months != 0 {
		t = AddMonths(t, s.months)
	}
	return t.AddDate(0, 0, s.days)
}

// AddMonths moves t by n calendar months, clamping the day to the last day of
// the target month (Jan 31 + 1 month = Feb 28 or 29).
func AddMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	if last := daysIn(first); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysIn(firstOfMonth time.Time) int {
	return firstOfMonth.AddDate(0, 1, -1).Day()
}
