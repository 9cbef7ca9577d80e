package availability

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// Date is a civil calendar day with no time zone attached. Reservation dates
// are wall-calendar concepts: "2025-09-01" means the same day to everyone
// looking at the room calendar, regardless of where the server runs.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate parses a date in YYYY-MM-DD form.
func ParseDate(raw string) (Date, error) {
	parsed, err := time.Parse(dateLayout, raw)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", raw, err)
	}
	year, month, day := parsed.Date()
	return Date{Year: year, Month: month, Day: day}, nil
}

// DateOf truncates t to the civil day it falls on in t's location.
func DateOf(t time.Time) Date {
	year, month, day := t.Date()
	return Date{Year: year, Month: month, Day: day}
}

// Today returns the current civil day in local time.
func Today() Date {
	return DateOf(time.Now())
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Before reports whether d is strictly earlier than other.
func (d Date) Before(other Date) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

// After reports whether d is strictly later than other.
func (d Date) After(other Date) bool {
	return other.Before(d)
}

// Next returns the civil day after d. Noon anchors the conversion so that a
// zone transition on d cannot shift the result onto the wrong day.
func (d Date) Next() Date {
	t := time.Date(d.Year, d.Month, d.Day+1, 12, 0, 0, 0, time.UTC)
	return DateOf(t)
}

// ExpandDateRange enumerates every civil day from start to end inclusive, in
// ascending order. An inverted range yields nil. Used for legacy bookings that
// carry a start/end pair instead of an explicit date set.
func ExpandDateRange(start, end Date) []Date {
	if start.After(end) {
		return nil
	}
	var days []Date
	for d := start; !d.After(end); d = d.Next() {
		days = append(days, d)
	}
	return days
}
