package db_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/Hanzoho/meetingroom-server/internal/availability"
	appdb "github.com/Hanzoho/meetingroom-server/internal/db"
	"github.com/Hanzoho/meetingroom-server/internal/models"
	"github.com/Hanzoho/meetingroom-server/internal/testutil"
)

func seedRoom(t *testing.T, database *appdb.DB) models.Room {
	t.Helper()
	room, err := database.Queries.CreateRoom(context.Background(), appdb.CreateRoomParams{
		Name:       "Seminar Room",
		Capacity:   24,
		Department: "Graduate School",
		Location:   "Building 12",
		Status:     models.RoomAvailable,
	})
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	return room
}

func seedReservation(t *testing.T, database *appdb.DB, roomID int64, date string) models.Reservation {
	t.Helper()
	res, err := database.Queries.CreateReservation(context.Background(), appdb.CreateReservationParams{
		BookingRef:    "ref-test",
		RoomID:        roomID,
		Date:          date,
		StartTime:     "09:00",
		EndTime:       "10:00",
		Purpose:       "Thesis defense",
		RequesterName: "Suda K.",
	})
	if err != nil {
		t.Fatalf("create reservation: %v", err)
	}
	return res
}

func TestRoomRoundTrip(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()

	room := seedRoom(t, database)
	loaded, err := database.Queries.GetRoomByID(ctx, room.ID)
	if err != nil {
		t.Fatalf("get room: %v", err)
	}
	if loaded.Name != room.Name || loaded.Capacity != 24 || loaded.Status != models.RoomAvailable {
		t.Fatalf("unexpected room: %+v", loaded)
	}

	if _, err := database.Queries.GetRoomByID(ctx, room.ID+1); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected ErrNoRows, got %v", err)
	}
}

func TestReservationRangeQuery(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	room := seedRoom(t, database)

	seedReservation(t, database, room.ID, "2025-09-01")
	seedReservation(t, database, room.ID, "2025-09-15")
	seedReservation(t, database, room.ID, "2025-10-01")

	inSeptember, err := database.Queries.ListReservationsForRoomBetween(ctx, room.ID, "2025-09-01", "2025-09-30")
	if err != nil {
		t.Fatalf("range query: %v", err)
	}
	if len(inSeptember) != 2 {
		t.Fatalf("expected 2 September rows, got %d", len(inSeptember))
	}
	if inSeptember[0].Date != "2025-09-01" || inSeptember[1].Date != "2025-09-15" {
		t.Fatalf("rows out of order: %+v", inSeptember)
	}
}

func TestUpdateReservationStatus(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	room := seedRoom(t, database)
	res := seedReservation(t, database, room.ID, "2025-09-01")

	if res.Status != availability.StatusPending {
		t.Fatalf("new reservation must be pending, got %s", res.Status)
	}

	updated, err := database.Queries.UpdateReservationStatus(ctx, res.ID, availability.StatusApproved)
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if updated.Status != availability.StatusApproved {
		t.Fatalf("expected approved, got %s", updated.Status)
	}
}

func TestExpirePendingBefore(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	room := seedRoom(t, database)

	stale := seedReservation(t, database, room.ID, "2025-08-01")
	future := seedReservation(t, database, room.ID, "2030-01-01")
	approved := seedReservation(t, database, room.ID, "2025-08-02")
	if _, err := database.Queries.UpdateReservationStatus(ctx, approved.ID, availability.StatusApproved); err != nil {
		t.Fatalf("approve: %v", err)
	}

	expired, err := database.Queries.ExpirePendingBefore(ctx, "2025-08-30")
	if err != nil {
		t.Fatalf("expire: %v", err)
	}
	if expired != 1 {
		t.Fatalf("expected 1 expired row, got %d", expired)
	}

	reloaded, err := database.Queries.GetReservationByID(ctx, stale.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Status != availability.StatusRejected {
		t.Fatalf("stale pending must be rejected, got %s", reloaded.Status)
	}

	reloaded, err = database.Queries.GetReservationByID(ctx, future.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Status != availability.StatusPending {
		t.Fatalf("future pending must be untouched, got %s", reloaded.Status)
	}

	// Approved rows never expire, even when dated in the past.
	reloaded, err = database.Queries.GetReservationByID(ctx, approved.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Status != availability.StatusApproved {
		t.Fatalf("approved row must be untouched, got %s", reloaded.Status)
	}
}

func TestDeleteRoomCascades(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	room := seedRoom(t, database)
	res := seedReservation(t, database, room.ID, "2025-09-01")

	if err := database.Queries.DeleteRoom(ctx, room.ID); err != nil {
		t.Fatalf("delete room: %v", err)
	}
	if _, err := database.Queries.GetReservationByID(ctx, res.ID); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected cascade delete, got %v", err)
	}
}

func TestRunInTxRollsBack(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()

	sentinel := errors.New("boom")
	err := database.RunInTx(ctx, func(txdb *appdb.DB) error {
		if _, err := txdb.Queries.CreateRoom(ctx, appdb.CreateRoomParams{
			Name: "Ghost Room", Capacity: 1, Status: models.RoomAvailable,
		}); err != nil {
			return err
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel error, got %v", err)
	}

	rooms, err := database.Queries.ListRooms(ctx, false)
	if err != nil {
		t.Fatalf("list rooms: %v", err)
	}
	if len(rooms) != 0 {
		t.Fatalf("transaction must roll back, found %+v", rooms)
	}
}
