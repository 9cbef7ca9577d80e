package calendar

import (
	"testing"
	"time"

	"github.com/Hanzoho/meetingroom-server/internal/availability"
	"github.com/Hanzoho/meetingroom-server/internal/config"
	"github.com/Hanzoho/meetingroom-server/internal/models"
)

func testBuilder() Builder {
	return NewBuilder(config.BookingConfig{OpenHour: 8, CloseHour: 22, SlotMinutes: 60})
}

func TestBuildDayEmpty(t *testing.T) {
	builder := testBuilder()
	date := availability.Date{Year: 2025, Month: time.September, Day: 1}

	day := builder.BuildDay(date, nil)
	if len(day.Slots) != 14 {
		t.Fatalf("expected 14 hourly slots, got %d", len(day.Slots))
	}
	if day.Slots[0].StartTime != "08:00" || day.Slots[13].EndTime != "22:00" {
		t.Fatalf("slot bounds wrong: %+v ... %+v", day.Slots[0], day.Slots[13])
	}
	if status := availability.ResolveDayAvailability(day); status != availability.DayAvailable {
		t.Fatalf("empty day must be available, got %s", status)
	}
}

func TestBuildDayMarksOverlappedSlots(t *testing.T) {
	builder := testBuilder()
	date := availability.Date{Year: 2025, Month: time.September, Day: 2}
	reservations := []models.Reservation{{
		ID:            7,
		RoomID:        1,
		Date:          "2025-09-02",
		StartTime:     "09:30",
		EndTime:       "11:00",
		Status:        availability.StatusApproved,
		RequesterName: "Budget Office",
	}}

	day := builder.BuildDay(date, reservations)

	// 09:30-11:00 touches the 09:00 and 10:00 slots, not the 11:00 slot.
	wantTaken := map[string]bool{"09:00": true, "10:00": true}
	for _, slot := range day.Slots {
		if wantTaken[slot.StartTime] {
			if slot.Available {
				t.Fatalf("slot %s should be taken", slot.StartTime)
			}
			if len(slot.Refs) != 1 || slot.Refs[0].ReservationID != 7 {
				t.Fatalf("slot %s missing reservation ref: %+v", slot.StartTime, slot.Refs)
			}
		} else if !slot.Available {
			t.Fatalf("slot %s should be free", slot.StartTime)
		}
	}
	if status := availability.ResolveDayAvailability(day); status != availability.DayPartial {
		t.Fatalf("expected partial day, got %s", status)
	}
}

func TestBuildDayIgnoresNonBlocking(t *testing.T) {
	builder := testBuilder()
	date := availability.Date{Year: 2025, Month: time.September, Day: 3}
	reservations := []models.Reservation{
		{Date: "2025-09-03", StartTime: "09:00", EndTime: "10:00", Status: availability.StatusRejected},
		{Date: "2025-09-03", StartTime: "10:00", EndTime: "11:00", Status: availability.StatusCancelled},
		// Wrong date, must be ignored even though it blocks.
		{Date: "2025-09-04", StartTime: "11:00", EndTime: "12:00", Status: availability.StatusApproved},
	}

	day := builder.BuildDay(date, reservations)
	for _, slot := range day.Slots {
		if !slot.Available {
			t.Fatalf("slot %s should be free, refs %+v", slot.StartTime, slot.Refs)
		}
	}
}

func TestBuildDayPendingBlocks(t *testing.T) {
	builder := testBuilder()
	date := availability.Date{Year: 2025, Month: time.September, Day: 4}
	reservations := []models.Reservation{{
		ID: 9, Date: "2025-09-04", StartTime: "13:00", EndTime: "14:00",
		Status: availability.StatusPending, RequesterName: "Student Council",
	}}

	day := builder.BuildDay(date, reservations)
	for _, slot := range day.Slots {
		if slot.StartTime == "13:00" {
			if slot.Available {
				t.Fatal("pending reservation must hold its slot")
			}
			if slot.Refs[0].Status != availability.StatusPending {
				t.Fatalf("ref status: %s", slot.Refs[0].Status)
			}
			return
		}
	}
	t.Fatal("13:00 slot not found")
}

func TestBuildDayFull(t *testing.T) {
	builder := NewBuilder(config.BookingConfig{OpenHour: 8, CloseHour: 10, SlotMinutes: 60})
	date := availability.Date{Year: 2025, Month: time.September, Day: 5}
	reservations := []models.Reservation{{
		Date: "2025-09-05", StartTime: "08:00", EndTime: "10:00",
		Status: availability.StatusApproved,
	}}

	day := builder.BuildDay(date, reservations)
	if status := availability.ResolveDayAvailability(day); status != availability.DayFull {
		t.Fatalf("expected full day, got %s", status)
	}
}
