// Package calendar assembles room calendar snapshots from stored
// reservations. The availability resolver only understands days of slots; this
// package is where reservations become slots.
package calendar

import (
	"context"
	"fmt"
	"time"

	"github.com/Hanzoho/meetingroom-server/internal/availability"
	"github.com/Hanzoho/meetingroom-server/internal/config"
	"github.com/Hanzoho/meetingroom-server/internal/db"
	"github.com/Hanzoho/meetingroom-server/internal/models"
)

// Builder composes CalendarDay snapshots for one booking window
// configuration.
type Builder struct {
	openMinutes int
	slotMinutes int
	slotCount   int
}

func NewBuilder(cfg config.BookingConfig) Builder {
	open := cfg.OpenHour * 60
	total := (cfg.CloseHour - cfg.OpenHour) * 60
	return Builder{
		openMinutes: open,
		slotMinutes: cfg.SlotMinutes,
		slotCount:   total / cfg.SlotMinutes,
	}
}

// ContainsWindow reports whether the minute window [start, end) lies inside
// the bookable day.
func (b Builder) ContainsWindow(startMinutes, endMinutes int) bool {
	closeMinutes := b.openMinutes + b.slotCount*b.slotMinutes
	return startMinutes >= b.openMinutes && endMinutes <= closeMinutes
}

func formatMinutes(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// BuildDay turns one room-day of reservations into a CalendarDay of fixed
// slots. A slot is unavailable when any blocking reservation overlaps it, and
// carries a ref for every such reservation. Rejected and cancelled rows leave
// no trace. Reservations for other dates are ignored.
func (b Builder) BuildDay(date availability.Date, reservations []models.Reservation) *availability.CalendarDay {
	day := &availability.CalendarDay{
		Date:  date,
		Slots: make([]availability.TimeSlot, 0, b.slotCount),
	}

	for i := 0; i < b.slotCount; i++ {
		slotStart := b.openMinutes + i*b.slotMinutes
		slotEnd := slotStart + b.slotMinutes
		slot := availability.TimeSlot{
			StartTime: formatMinutes(slotStart),
			EndTime:   formatMinutes(slotEnd),
			Available: true,
		}

		for _, res := range reservations {
			if !res.Blocking() || res.Date != date.String() {
				continue
			}
			resStart, err := availability.MinutesSinceMidnight(res.StartTime)
			if err != nil {
				continue
			}
			resEnd, err := availability.MinutesSinceMidnight(res.EndTime)
			if err != nil {
				continue
			}
			if !availability.IntervalsOverlap(slotStart, slotEnd, resStart, resEnd) {
				continue
			}
			slot.Available = false
			slot.Refs = append(slot.Refs, res.Ref())
		}

		day.Slots = append(day.Slots, slot)
	}

	return day
}

// LookupForRoom returns a DayLookup backed by the store, for the resolver's
// final pre-write guard. Query errors propagate so the resolver can treat the
// date as unconfirmed.
func (b Builder) LookupForRoom(ctx context.Context, queries *db.Queries, roomID int64) availability.DayLookup {
	return func(date availability.Date) (*availability.CalendarDay, error) {
		reservations, err := queries.ListReservationsForRoomBetween(ctx, roomID, date.String(), date.String())
		if err != nil {
			return nil, fmt.Errorf("load reservations for %s: %w", date, err)
		}
		return b.BuildDay(date, reservations), nil
	}
}

// DayView is one day of the month calendar: the slot detail plus the coarse
// status driving calendar coloring.
type DayView struct {
	Date   availability.Date       `json:"date"`
	Status availability.DayStatus  `json:"status"`
	Slots  []availability.TimeSlot `json:"slots"`
}

// MonthView builds every day of the given month for one room with a single
// range query.
func (b Builder) MonthView(ctx context.Context, queries *db.Queries, roomID int64, year int, month time.Month) ([]DayView, error) {
	first := availability.Date{Year: year, Month: month, Day: 1}
	lastDay := time.Date(year, month+1, 0, 12, 0, 0, 0, time.UTC).Day()
	last := availability.Date{Year: year, Month: month, Day: lastDay}

	reservations, err := queries.ListReservationsForRoomBetween(ctx, roomID, first.String(), last.String())
	if err != nil {
		return nil, fmt.Errorf("load reservations for %s: %w", first, err)
	}

	byDate := make(map[string][]models.Reservation)
	for _, res := range reservations {
		byDate[res.Date] = append(byDate[res.Date], res)
	}

	days := make([]DayView, 0, lastDay)
	for _, date := range availability.ExpandDateRange(first, last) {
		day := b.BuildDay(date, byDate[date.String()])
		days = append(days, DayView{
			Date:   date,
			Status: availability.ResolveDayAvailability(day),
			Slots:  day.Slots,
		})
	}
	return days, nil
}
