// Package recurrence computes due dates for recurring dividend schedules.
// All computation is calendar-date based: times are truncated to midnight UTC
// and time-of-day never influences the result.
package recurrence

import (
	"errors"
	"fmt"
	"time"
)

// Frequency is the cadence of a recurring dividend schedule.
type Frequency string

const (
	Monthly   Frequency = "monthly"
	Quarterly Frequency = "quarterly"
	Annually  Frequency = "annually"
)

var (
	// ErrInvalidFrequency indicates a frequency other than monthly, quarterly or annually.
	ErrInvalidFrequency = errors.New("invalid frequency")

	// ErrInvalidDayOfMonth indicates a target day outside 1..31.
	ErrInvalidDayOfMonth = errors.New("day of month must be between 1 and 31")
)

// Months returns the number of calendar months between two occurrences.
func (f Frequency) Months() (int, error) {
	switch f {
	case Monthly:
		return 1, nil
	case Quarterly:
		return 3, nil
	case Annually:
		return 12, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidFrequency, string(f))
	}
}

// Valid reports whether f is a supported frequency.
func (f Frequency) Valid() bool {
	_, err := f.Months()
	return err == nil
}

// Next returns the next occurrence of a schedule.
//
// Without a last run, a start date after today is itself the first occurrence.
// Otherwise the first occurrence is the earliest date on the period grid anchored
// at the start month, clamped to dayOfMonth, that is not before the start date.
//
// With a last run, the next occurrence is the last run's month advanced by one
// period and clamped to dayOfMonth (day 31 in February resolves to the 28th or 29th).
// The result is always strictly after lastRun and never before the first occurrence.
func Next(freq Frequency, dayOfMonth int, start time.Time, lastRun *time.Time, today time.Time) (time.Time, error) {
	months, err := freq.Months()
	if err != nil {
		return time.Time{}, err
	}
	if dayOfMonth < 1 || dayOfMonth > 31 {
		return time.Time{}, fmt.Errorf("%w: %d", ErrInvalidDayOfMonth, dayOfMonth)
	}

	start = DateOnly(start)
	today = DateOnly(today)

	first := firstOccurrence(months, dayOfMonth, start, today)
	if lastRun == nil {
		return first, nil
	}

	last := DateOnly(*lastRun)
	next := clampedDate(last.Year(), last.Month()+time.Month(months), dayOfMonth)
	for !next.After(last) {
		next = advance(next, months, dayOfMonth)
	}
	if next.Before(first) {
		return first, nil
	}
	return next, nil
}

// Occurrences returns up to limit occurrences starting with the next one after lastRun
// and ending no later than until. A zero until means no upper bound.
func Occurrences(freq Frequency, dayOfMonth int, start time.Time, lastRun *time.Time, today, until time.Time, limit int) ([]time.Time, error) {
	months, err := freq.Months()
	if err != nil {
		return nil, err
	}

	next, err := Next(freq, dayOfMonth, start, lastRun, today)
	if err != nil {
		return nil, err
	}

	until = DateOnly(until)
	var out []time.Time
	for len(out) < limit {
		if !until.IsZero() && next.After(until) {
			break
		}
		out = append(out, next)
		next = advance(next, months, dayOfMonth)
	}
	return out, nil
}

// DateOnly truncates t to midnight UTC of its calendar date.
func DateOnly(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func firstOccurrence(months, dayOfMonth int, start, today time.Time) time.Time {
	if start.After(today) {
		return start
	}
	candidate := clampedDate(start.Year(), start.Month(), dayOfMonth)
	for candidate.Before(start) {
		candidate = advance(candidate, months, dayOfMonth)
	}
	return candidate
}

// advance moves from an occurrence by whole months, re-clamping to the target day
// so that a short month does not permanently pull the schedule earlier.
func advance(from time.Time, months, dayOfMonth int) time.Time {
	return clampedDate(from.Year(), from.Month()+time.Month(months), dayOfMonth)
}

// clampedDate builds year/month/day, using the last day of the month when day
// does not exist in it. Months outside 1..12 are normalised first.
func clampedDate(year int, month time.Month, day int) time.Time {
	firstOfMonth := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	lastDay := firstOfMonth.AddDate(0, 1, -1).Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(firstOfMonth.Year(), firstOfMonth.Month(), day, 0, 0, 0, 0, time.UTC)
}
