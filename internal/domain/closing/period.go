package closing

import (
	"strings"
	"time"

	"github.com/sklad/pos/internal/domain/shared"
)

// PeriodType selects the calendar range of an export
type PeriodType string

const (
	PeriodWeek     PeriodType = "WEEK"
	PeriodMonth    PeriodType = "MONTH"
	PeriodQuarter  PeriodType = "QUARTER"
	PeriodHalfYear PeriodType = "HALF_YEAR"
	PeriodYear     PeriodType = "YEAR"
)

// ParsePeriodType accepts the names case-insensitively
func ParsePeriodType(s string) (PeriodType, error) {
	p := PeriodType(strings.ToUpper(strings.TrimSpace(s)))
	switch p {
	case PeriodWeek, PeriodMonth, PeriodQuarter, PeriodHalfYear, PeriodYear:
		return p, nil
	}
	return "", shared.NewValidationError("INVALID_PERIOD", "Period must be WEEK, MONTH, QUARTER, HALF_YEAR or YEAR")
}

// Period is an inclusive range of business dates
type Period struct {
	Type  PeriodType
	First time.Time
	Last  time.Time
}

// ResolvePeriod returns the calendar range containing ref. Weeks run Monday
// to Sunday, quarters are three-month blocks from January and half-years
// are January-June and July-December.
func ResolvePeriod(p PeriodType, ref time.Time) (Period, error) {
	day := BusinessDate(ref)
	y, m, _ := day.Date()
	var first, last time.Time

	switch p {
	case PeriodWeek:
		offset := (int(day.Weekday()) + 6) % 7
		first = day.AddDate(0, 0, -offset)
		last = first.AddDate(0, 0, 6)
	case PeriodMonth:
		first = time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
		last = first.AddDate(0, 1, -1)
	case PeriodQuarter:
		startMonth := time.Month((int(m)-1)/3*3 + 1)
		first = time.Date(y, startMonth, 1, 0, 0, 0, 0, time.UTC)
		last = first.AddDate(0, 3, -1)
	case PeriodHalfYear:
		startMonth := time.January
		if m > time.June {
			startMonth = time.July
		}
		first = time.Date(y, startMonth, 1, 0, 0, 0, 0, time.UTC)
		last = first.AddDate(0, 6, -1)
	case PeriodYear:
		first = time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC)
		last = time.Date(y, time.December, 31, 0, 0, 0, 0, time.UTC)
	default:
		return Period{}, shared.NewValidationError("INVALID_PERIOD", "Unknown period type")
	}
	return Period{Type: p, First: first, Last: last}, nil
}

// Contains reports whether the business date lies within the period
func (p Period) Contains(date time.Time) bool {
	d := BusinessDate(date)
	return !d.Before(p.First) && !d.After(p.Last)
}
