package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/Hanzoho/meetingroom-server/internal/availability"
	appdb "github.com/Hanzoho/meetingroom-server/internal/db"
	"github.com/Hanzoho/meetingroom-server/internal/models"
	"github.com/Hanzoho/meetingroom-server/internal/testutil"
)

func TestExpireStalePending(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()

	room, err := database.Queries.CreateRoom(ctx, appdb.CreateRoomParams{
		Name: "Room A", Capacity: 8, Status: models.RoomAvailable,
	})
	if err != nil {
		t.Fatalf("create room: %v", err)
	}

	yesterday := availability.DateOf(time.Now().AddDate(0, 0, -1)).String()
	tomorrow := availability.DateOf(time.Now().AddDate(0, 0, 1)).String()

	stale, err := database.Queries.CreateReservation(ctx, appdb.CreateReservationParams{
		BookingRef: "ref-a", RoomID: room.ID, Date: yesterday,
		StartTime: "10:00", EndTime: "11:00", RequesterName: "Somchai J.",
	})
	if err != nil {
		t.Fatalf("create stale reservation: %v", err)
	}
	upcoming, err := database.Queries.CreateReservation(ctx, appdb.CreateReservationParams{
		BookingRef: "ref-b", RoomID: room.ID, Date: tomorrow,
		StartTime: "10:00", EndTime: "11:00", RequesterName: "Somchai J.",
	})
	if err != nil {
		t.Fatalf("create upcoming reservation: %v", err)
	}

	expired, err := ExpireStalePending(ctx, database)
	if err != nil {
		t.Fatalf("expire: %v", err)
	}
	if expired != 1 {
		t.Fatalf("expected 1 expired reservation, got %d", expired)
	}

	reloaded, err := database.Queries.GetReservationByID(ctx, stale.ID)
	if err != nil {
		t.Fatalf("reload stale: %v", err)
	}
	if reloaded.Status != availability.StatusRejected {
		t.Fatalf("expected rejected, got %s", reloaded.Status)
	}

	reloaded, err = database.Queries.GetReservationByID(ctx, upcoming.ID)
	if err != nil {
		t.Fatalf("reload upcoming: %v", err)
	}
	if reloaded.Status != availability.StatusPending {
		t.Fatalf("expected pending, got %s", reloaded.Status)
	}
}
