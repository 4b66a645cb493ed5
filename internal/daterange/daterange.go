// Package daterange carries the inclusive day range a report covers and the
// per-store boundary conventions derived from it.
package daterange

import (
	"errors"
	"fmt"
	"time"
)

// DayFormat is the wire format for report date boundaries.
const DayFormat = "2006-01-02"

// ErrInvalidRange marks a malformed or reversed date range.
var ErrInvalidRange = errors.New("invalid date range")

// DateRange is an inclusive day range. Start and End sit at midnight in the
// range's location; both days belong to the range.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Parse builds a DateRange from wire-format day strings, interpreted in UTC.
func Parse(from, to string) (DateRange, error) {
	return ParseIn(from, to, time.UTC)
}

// ParseIn builds a DateRange from wire-format day strings in the given
// location. A nil location means UTC.
func ParseIn(from, to string, loc *time.Location) (DateRange, error) {
	if loc == nil {
		loc = time.UTC
	}

	start, err := time.ParseInLocation(DayFormat, from, loc)
	if err != nil {
		return DateRange{}, fmt.Errorf("%w: bad 'from' date %q", ErrInvalidRange, from)
	}
	end, err := time.ParseInLocation(DayFormat, to, loc)
	if err != nil {
		return DateRange{}, fmt.Errorf("%w: bad 'to' date %q", ErrInvalidRange, to)
	}

	r := DateRange{Start: start, End: end}
	if err := r.Validate(); err != nil {
		return DateRange{}, err
	}
	return r, nil
}

// Validate checks the range ordering.
func (r DateRange) Validate() error {
	if r.End.Before(r.Start) {
		return fmt.Errorf("%w: end date precedes start date", ErrInvalidRange)
	}
	return nil
}

// VisitBounds returns the timestamp boundaries used by the visit store:
// the first instant of the start day through the last whole second of the
// end day.
func (r DateRange) VisitBounds() (time.Time, time.Time) {
	from := time.Date(r.Start.Year(), r.Start.Month(), r.Start.Day(), 0, 0, 0, 0, r.Start.Location())
	to := time.Date(r.End.Year(), r.End.Month(), r.End.Day(), 0, 0, 0, 0, r.End.Location()).
		AddDate(0, 0, 1).Add(-1 * time.Second)
	return from, to
}

// CRMBounds returns the date-only boundaries used by the CRM store.
func (r DateRange) CRMBounds() (string, string) {
	return r.Start.Format(DayFormat), r.End.Format(DayFormat)
}

// Days returns the number of days the range spans, inclusive.
func (r DateRange) Days() int {
	return int(r.End.Sub(r.Start).Hours()/24) + 1
}
