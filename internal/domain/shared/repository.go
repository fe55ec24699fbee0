package shared

import "time"

// DateRange is a half-open time interval [From, To) used by repository
// queries. A zero To means "no upper bound".
type DateRange struct {
	From time.Time
	To   time.Time
}

// Contains reports whether t falls inside the range
func (r DateRange) Contains(t time.Time) bool {
	if !r.From.IsZero() && t.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && !t.Before(r.To) {
		return false
	}
	return true
}

// DayRange returns the range covering one local calendar day. The bounds are
// returned in UTC because that is how timestamps are stored.
func DayRange(day time.Time) DateRange {
	return CalendarRange(day, day, day.Location())
}

// CalendarRange covers the calendar days first through last, inclusive, as
// they are lived in loc. Only the year, month and day of first and last are
// read, so business dates keyed at UTC midnight map to the shop's local
// days.
func CalendarRange(first, last time.Time, loc *time.Location) DateRange {
	if loc == nil {
		loc = time.Local
	}
	fy, fm, fd := first.Date()
	ly, lm, ld := last.Date()
	return DateRange{
		From: time.Date(fy, fm, fd, 0, 0, 0, 0, loc).UTC(),
		To:   time.Date(ly, lm, ld+1, 0, 0, 0, 0, loc).UTC(),
	}
}

// Actor identifies who performs an operation. Credential checks happen
// outside the core; the name is recorded in audit fields.
type Actor struct {
	Name    string
	IsAdmin bool
}

// Clock returns the current time. Services take one so tests can pin "now".
type Clock func() time.Time

// SystemClock is the default clock
func SystemClock() time.Time {
	return time.Now()
}
