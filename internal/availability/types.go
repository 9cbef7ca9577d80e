// Package availability decides whether a candidate meeting-room booking can be
// accepted against a snapshot of the room's calendar. It is purely functional:
// callers fetch calendar data however they like, hand it over, and get back a
// structured verdict they can render or enforce.
package availability

// ReservationStatus is the lifecycle state of an existing reservation as
// reported by the calendar data.
type ReservationStatus string

const (
	StatusPending   ReservationStatus = "pending"
	StatusApproved  ReservationStatus = "approved"
	StatusRejected  ReservationStatus = "rejected"
	StatusCancelled ReservationStatus = "cancelled"
)

// ReservationRef identifies a reservation already holding (part of) a slot.
type ReservationRef struct {
	ReservationID int64             `json:"reservation_id"`
	ReservedBy    string            `json:"reserved_by"`
	Status        ReservationStatus `json:"status"`
	Details       string            `json:"details,omitempty"`
}

// TimeSlot is one bookable block of a room's day. Slots within a day are
// contiguous, non-overlapping, and ordered by start time.
type TimeSlot struct {
	StartTime string           `json:"start_time"` // "HH:MM"
	EndTime   string           `json:"end_time"`   // "HH:MM"
	Available bool             `json:"available"`
	Refs      []ReservationRef `json:"reservations,omitempty"`
}

// CalendarDay is one room-day of slot data. A day the backend has no record
// for is represented by a nil *CalendarDay and is treated as fully open.
type CalendarDay struct {
	Date  Date       `json:"date"`
	Slots []TimeSlot `json:"slots"`
}

// DayStatus is the coarse selectability of a day, driving calendar coloring.
type DayStatus string

const (
	DayAvailable DayStatus = "available"
	DayPartial   DayStatus = "partial"
	DayFull      DayStatus = "full"
)

// BookingRequest is a candidate reservation: one wall-clock window applied
// uniformly to an explicit, possibly non-contiguous set of dates.
type BookingRequest struct {
	Dates     []Date `json:"dates"`
	StartTime string `json:"start_time"` // "HH:MM"
	EndTime   string `json:"end_time"`   // "HH:MM"
	Purpose   string `json:"purpose,omitempty"`
}

// DayLookup resolves one date to its calendar data. A nil day with nil error
// means the backend has no record (fully open). A non-nil error means the
// lookup itself failed; the resolver treats that date as unconfirmable.
type DayLookup func(Date) (*CalendarDay, error)

// ConflictReason classifies why a requested date cannot be booked.
type ConflictReason string

const (
	// ReasonPast marks dates strictly before the current calendar day.
	ReasonPast ConflictReason = "past"
	// ReasonBooked marks dates where an unavailable slot overlaps the request.
	ReasonBooked ConflictReason = "booked"
	// ReasonUnconfirmed marks dates whose calendar data could not be fetched.
	// Unverifiable availability blocks the booking rather than waving it
	// through, since the cost of a double-booked room exceeds the cost of
	// momentarily over-blocking a date.
	ReasonUnconfirmed ConflictReason = "unconfirmed"
)

// SlotConflict is one occupied slot overlapping the requested window.
type SlotConflict struct {
	StartTime string           `json:"start_time"`
	EndTime   string           `json:"end_time"`
	Refs      []ReservationRef `json:"reservations,omitempty"`
}

// Conflict is the verdict for a single non-clear date.
type Conflict struct {
	Date   Date           `json:"date"`
	Reason ConflictReason `json:"reason"`
	Slots  []SlotConflict `json:"slots,omitempty"`
}

// ConflictResult is the outcome of validating one BookingRequest. Dates holds
// the normalized (sorted, deduplicated) request dates; Conflicts lists every
// date that is not clear, in the same order.
type ConflictResult struct {
	Dates     []Date     `json:"dates"`
	StartTime string     `json:"start_time"`
	EndTime   string     `json:"end_time"`
	Conflicts []Conflict `json:"conflicts"`
}

// Bookable reports whether every requested date came back clear.
func (r ConflictResult) Bookable() bool {
	return len(r.Conflicts) == 0
}
