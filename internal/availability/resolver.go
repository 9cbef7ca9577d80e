package availability

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrInvalidTimeFormat is returned by MinutesSinceMidnight for input that is
// not a 24-hour "HH:MM" string.
var ErrInvalidTimeFormat = errors.New("invalid time format, expected HH:MM")

// MinutesSinceMidnight converts a 24-hour "HH:MM" wall-clock string to minutes
// past midnight.
func MinutesSinceMidnight(raw string) (int, error) {
	if len(raw) != 5 || raw[2] != ':' {
		return 0, fmt.Errorf("%q: %w", raw, ErrInvalidTimeFormat)
	}
	hour, ok := twoDigits(raw[0], raw[1])
	if !ok || hour > 23 {
		return 0, fmt.Errorf("%q: %w", raw, ErrInvalidTimeFormat)
	}
	minute, ok := twoDigits(raw[3], raw[4])
	if !ok || minute > 59 {
		return 0, fmt.Errorf("%q: %w", raw, ErrInvalidTimeFormat)
	}
	return hour*60 + minute, nil
}

func twoDigits(hi, lo byte) (int, bool) {
	if hi < '0' || hi > '9' || lo < '0' || lo > '9' {
		return 0, false
	}
	return int(hi-'0')*10 + int(lo-'0'), true
}

// IntervalsOverlap reports whether the half-open minute intervals
// [startA, endA) and [startB, endB) intersect. Touching intervals do not
// overlap, and zero-length intervals overlap nothing. This is the single
// overlap rule used everywhere in the service.
func IntervalsOverlap(startA, endA, startB, endB int) bool {
	if endA <= startA || endB <= startB {
		return false
	}
	return startA < endB && endA > startB
}

// ResolveDayAvailability reduces a day's slot flags to a coarse status. A nil
// day, or a day with no defined slots, is fully open.
func ResolveDayAvailability(day *CalendarDay) DayStatus {
	if day == nil || len(day.Slots) == 0 {
		return DayAvailable
	}
	free, taken := 0, 0
	for _, slot := range day.Slots {
		if slot.Available {
			free++
		} else {
			taken++
		}
	}
	switch {
	case taken == 0:
		return DayAvailable
	case free == 0:
		return DayFull
	default:
		return DayPartial
	}
}

// FindConflicts validates req against calendar data supplied by lookup, using
// the current local day as the past-date cutoff. See findConflicts for the
// per-date rules.
func FindConflicts(req BookingRequest, lookup DayLookup) ConflictResult {
	return findConflicts(req, lookup, Today())
}

// findConflicts evaluates each requested date independently:
//
//   - dates strictly before today are past, regardless of calendar data;
//   - dates whose lookup failed are unconfirmed (fail-closed);
//   - dates with an unavailable slot overlapping the requested window are
//     booked, carrying every such slot and its reservation refs;
//   - everything else is clear and produces no entry.
//
// Request dates are sorted and deduplicated first, so identical inputs always
// produce identical results. A malformed request window overlaps nothing and
// therefore only ever reports past or unconfirmed dates.
func findConflicts(req BookingRequest, lookup DayLookup, today Date) ConflictResult {
	dates := normalizeDates(req.Dates)
	result := ConflictResult{
		Dates:     dates,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	}

	reqStart, startErr := MinutesSinceMidnight(req.StartTime)
	reqEnd, endErr := MinutesSinceMidnight(req.EndTime)
	windowValid := startErr == nil && endErr == nil

	for _, date := range dates {
		if date.Before(today) {
			result.Conflicts = append(result.Conflicts, Conflict{Date: date, Reason: ReasonPast})
			continue
		}

		day, err := lookup(date)
		if err != nil {
			result.Conflicts = append(result.Conflicts, Conflict{Date: date, Reason: ReasonUnconfirmed})
			continue
		}
		if day == nil || !windowValid {
			continue
		}

		var slots []SlotConflict
		for _, slot := range day.Slots {
			if slot.Available {
				continue
			}
			slotStart, err := MinutesSinceMidnight(slot.StartTime)
			if err != nil {
				continue
			}
			slotEnd, err := MinutesSinceMidnight(slot.EndTime)
			if err != nil {
				continue
			}
			if !IntervalsOverlap(reqStart, reqEnd, slotStart, slotEnd) {
				continue
			}
			slots = append(slots, SlotConflict{
				StartTime: slot.StartTime,
				EndTime:   slot.EndTime,
				Refs:      slot.Refs,
			})
		}
		if len(slots) > 0 {
			result.Conflicts = append(result.Conflicts, Conflict{
				Date:   date,
				Reason: ReasonBooked,
				Slots:  slots,
			})
		}
	}

	return result
}

func normalizeDates(dates []Date) []Date {
	if len(dates) == 0 {
		return nil
	}
	sorted := make([]Date, len(dates))
	copy(sorted, dates)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	deduped := sorted[:1]
	for _, d := range sorted[1:] {
		if d != deduped[len(deduped)-1] {
			deduped = append(deduped, d)
		}
	}
	return deduped
}

// SummarizeConflicts renders a ConflictResult as user-facing text. A request
// for a single date gets one sentence; a multi-date request gets one line per
// conflicting date plus a closing instruction. The output is deterministic for
// a given result and carries no information beyond the conflict set.
func SummarizeConflicts(result ConflictResult) string {
	if result.Bookable() {
		return ""
	}

	if len(result.Dates) <= 1 {
		conflict := result.Conflicts[0]
		return fmt.Sprintf("The room cannot be booked on %s from %s to %s: %s.",
			conflict.Date, result.StartTime, result.EndTime, describeConflict(conflict))
	}

	lines := make([]string, 0, len(result.Conflicts)+1)
	for _, conflict := range result.Conflicts {
		lines = append(lines, fmt.Sprintf("%s: %s.", conflict.Date, describeConflict(conflict)))
	}
	lines = append(lines, "Please pick a different time or remove the conflicting dates from your request.")
	return strings.Join(lines, "\n")
}

func describeConflict(conflict Conflict) string {
	switch conflict.Reason {
	case ReasonPast:
		return "the date has already passed"
	case ReasonUnconfirmed:
		return "availability could not be confirmed"
	case ReasonBooked:
		parts := make([]string, 0, len(conflict.Slots))
		for _, slot := range conflict.Slots {
			window := fmt.Sprintf("%s-%s", slot.StartTime, slot.EndTime)
			if holder := slotHolder(slot); holder != "" {
				window += " (" + holder + ")"
			}
			parts = append(parts, window)
		}
		return "already reserved " + strings.Join(parts, ", ")
	default:
		return string(conflict.Reason)
	}
}

func slotHolder(slot SlotConflict) string {
	names := make([]string, 0, len(slot.Refs))
	for _, ref := range slot.Refs {
		if ref.ReservedBy != "" {
			names = append(names, ref.ReservedBy)
		}
	}
	return strings.Join(names, ", ")
}
