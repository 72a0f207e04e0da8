package occasion

import (
	"fmt"
	"time"
)

// Calendar arithmetic for recurring yearly dates. All functions operate on
// calendar dates, not instants: inputs are truncated to year/month/day and
// time zones are ignored.
//
// A Feb-29 birth or start date is observed on Feb-28 in non-leap years, so
// every recurring date has exactly one occurrence per calendar year.

func isLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// observedDate returns the concrete date on which target's month/day is
// observed in the given year, applying the Feb-29 rule.
func observedDate(year int, target time.Time) time.Time {
	month, day := target.Month(), target.Day()
	if month == time.February && day == 29 && !isLeapYear(year) {
		day = 28
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// NextOccurrence returns the next calendar date matching target's month/day,
// on or after the reference date. It rolls into the next year when the
// month/day has already passed.
func NextOccurrence(reference, target time.Time) time.Time {
	ref := dateOnly(reference)
	next := observedDate(ref.Year(), target)
	if next.Before(ref) {
		next = observedDate(ref.Year()+1, target)
	}
	return next
}

// DaysUntilNextOccurrence returns the non-negative number of days from the
// reference date to the next occurrence of target's month/day. Zero means the
// reference date itself matches.
func DaysUntilNextOccurrence(reference, target time.Time) int {
	ref := dateOnly(reference)
	return int(NextOccurrence(ref, target).Sub(ref).Hours() / 24)
}

// SameMonthDay reports whether target's month/day is observed on the
// reference date, ignoring years.
func SameMonthDay(reference, target time.Time) bool {
	return DaysUntilNextOccurrence(reference, target) == 0
}

// ElapsedYears returns the number of whole years between start and reference.
// A year counts as complete only once start's month/day has been reached in
// the reference year.
func ElapsedYears(start, reference time.Time) int {
	ref := dateOnly(reference)
	years := ref.Year() - start.Year()
	if ref.Before(observedDate(ref.Year(), start)) {
		years--
	}
	return years
}

// WithinWindow reports whether a day distance falls inside the lookahead
// window, inclusive on both ends.
func WithinWindow(daysUntil, windowDays int) bool {
	return daysUntil >= 0 && daysUntil <= windowDays
}

// FormatDisplayDate formats a date for greeting text, e.g. "August 15th".
func FormatDisplayDate(t time.Time) string {
	day := t.Day()
	suffix := "th"
	if day%100 < 11 || day%100 > 13 {
		switch day % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return fmt.Sprintf("%s %d%s", t.Month().String(), day, suffix)
}
