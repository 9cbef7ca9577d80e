// Package models holds the persisted domain types shared by the API handlers,
// the store, and the scheduler jobs.
package models

import (
	"time"

	"github.com/Hanzoho/meetingroom-server/internal/availability"
)

// RoomStatus gates whether a room is offered for booking at all.
type RoomStatus string

const (
	RoomAvailable   RoomStatus = "available"
	RoomUnavailable RoomStatus = "unavailable"
	RoomMaintenance RoomStatus = "maintenance"
)

// ValidRoomStatus reports whether s is one of the recognized room states.
func ValidRoomStatus(s RoomStatus) bool {
	switch s {
	case RoomAvailable, RoomUnavailable, RoomMaintenance:
		return true
	}
	return false
}

// Room is a bookable meeting room. Rooms are created and edited by facility
// officers and read-only to booking users.
type Room struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	Capacity   int64      `json:"capacity"`
	Department string     `json:"department"`
	Location   string     `json:"location"`
	Status     RoomStatus `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Bookable reports whether the room accepts new reservations.
func (r Room) Bookable() bool {
	return r.Status == RoomAvailable
}

// Reservation is one booked room-day. A multi-date booking produces one row
// per date, all sharing a BookingRef, so each day can be approved or rejected
// independently while the UI can still group them.
type Reservation struct {
	ID             int64                          `json:"id"`
	BookingRef     string                         `json:"booking_ref"`
	RoomID         int64                          `json:"room_id"`
	Date           string                         `json:"date"`       // YYYY-MM-DD
	StartTime      string                         `json:"start_time"` // HH:MM
	EndTime        string                         `json:"end_time"`   // HH:MM
	Status         availability.ReservationStatus `json:"status"`
	Purpose        string                         `json:"purpose"`
	RequesterName  string                         `json:"requester_name"`
	RequesterEmail string                         `json:"requester_email,omitempty"`
	CreatedAt      time.Time                      `json:"created_at"`
	UpdatedAt      time.Time                      `json:"updated_at"`
}

// Blocking reports whether the reservation occupies its slot. Pending requests
// hold the slot until an officer decides, so two users cannot race the same
// window.
func (r Reservation) Blocking() bool {
	return r.Status == availability.StatusPending || r.Status == availability.StatusApproved
}

// Ref converts the reservation to the shape the availability resolver attaches
// to occupied slots.
func (r Reservation) Ref() availability.ReservationRef {
	return availability.ReservationRef{
		ReservationID: r.ID,
		ReservedBy:    r.RequesterName,
		Status:        r.Status,
		Details:       r.Purpose,
	}
}

// legalTransitions maps a reservation status to the states an update may move
// it to. Terminal states have no exits.
var legalTransitions = map[availability.ReservationStatus][]availability.ReservationStatus{
	availability.StatusPending:  {availability.StatusApproved, availability.StatusRejected, availability.StatusCancelled},
	availability.StatusApproved: {availability.StatusCancelled},
}

// CanTransition reports whether a reservation in state from may move to state to.
func CanTransition(from, to availability.ReservationStatus) bool {
	for _, allowed := range legalTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
