package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Hanzoho/meetingroom-server/internal/availability"
	"github.com/Hanzoho/meetingroom-server/internal/models"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so queries run inside or
// outside a transaction unchanged.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Queries bundles the hand-written SQL for rooms and reservations.
type Queries struct {
	db DBTX
}

func NewQueries(db DBTX) *Queries {
	return &Queries{db: db}
}

const roomColumns = "id, name, capacity, department, location, status, created_at, updated_at"

func scanRoom(row interface{ Scan(...any) error }) (models.Room, error) {
	var room models.Room
	err := row.Scan(
		&room.ID,
		&room.Name,
		&room.Capacity,
		&room.Department,
		&room.Location,
		&room.Status,
		&room.CreatedAt,
		&room.UpdatedAt,
	)
	return room, err
}

type CreateRoomParams struct {
	Name       string
	Capacity   int64
	Department string
	Location   string
	Status     models.RoomStatus
}

func (q *Queries) CreateRoom(ctx context.Context, params CreateRoomParams) (models.Room, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO rooms (name, capacity, department, location, status)
		VALUES (?, ?, ?, ?, ?)
		RETURNING `+roomColumns,
		params.Name, params.Capacity, params.Department, params.Location, params.Status,
	)
	room, err := scanRoom(row)
	if err != nil {
		return models.Room{}, fmt.Errorf("create room: %w", err)
	}
	return room, nil
}

func (q *Queries) GetRoomByID(ctx context.Context, id int64) (models.Room, error) {
	row := q.db.QueryRowContext(ctx,
		"SELECT "+roomColumns+" FROM rooms WHERE id = ?", id,
	)
	return scanRoom(row)
}

// ListRooms returns rooms ordered by name. When onlyBookable is set, rooms in
// maintenance or otherwise unavailable are filtered out.
func (q *Queries) ListRooms(ctx context.Context, onlyBookable bool) ([]models.Room, error) {
	query := "SELECT " + roomColumns + " FROM rooms"
	var args []any
	if onlyBookable {
		query += " WHERE status = ?"
		args = append(args, models.RoomAvailable)
	}
	query += " ORDER BY name, id"

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	defer rows.Close()

	var rooms []models.Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}

type UpdateRoomParams struct {
	ID         int64
	Name       string
	Capacity   int64
	Department string
	Location   string
	Status     models.RoomStatus
}

func (q *Queries) UpdateRoom(ctx context.Context, params UpdateRoomParams) (models.Room, error) {
	row := q.db.QueryRowContext(ctx, `
		UPDATE rooms
		SET name = ?, capacity = ?, department = ?, location = ?, status = ?,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
		RETURNING `+roomColumns,
		params.Name, params.Capacity, params.Department, params.Location, params.Status, params.ID,
	)
	return scanRoom(row)
}

func (q *Queries) DeleteRoom(ctx context.Context, id int64) error {
	result, err := q.db.ExecContext(ctx, "DELETE FROM rooms WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete room: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete room: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

const reservationColumns = "id, booking_ref, room_id, date, start_time, end_time, status, purpose, requester_name, requester_email, created_at, updated_at"

func scanReservation(row interface{ Scan(...any) error }) (models.Reservation, error) {
	var res models.Reservation
	err := row.Scan(
		&res.ID,
		&res.BookingRef,
		&res.RoomID,
		&res.Date,
		&res.StartTime,
		&res.EndTime,
		&res.Status,
		&res.Purpose,
		&res.RequesterName,
		&res.RequesterEmail,
		&res.CreatedAt,
		&res.UpdatedAt,
	)
	return res, err
}

func (q *Queries) collectReservations(ctx context.Context, query string, args ...any) ([]models.Reservation, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reservations []models.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		reservations = append(reservations, res)
	}
	return reservations, rows.Err()
}

type CreateReservationParams struct {
	BookingRef     string
	RoomID         int64
	Date           string
	StartTime      string
	EndTime        string
	Purpose        string
	RequesterName  string
	RequesterEmail string
}

func (q *Queries) CreateReservation(ctx context.Context, params CreateReservationParams) (models.Reservation, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO reservations
			(booking_ref, room_id, date, start_time, end_time, status, purpose, requester_name, requester_email)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING `+reservationColumns,
		params.BookingRef, params.RoomID, params.Date, params.StartTime, params.EndTime,
		availability.StatusPending, params.Purpose, params.RequesterName, params.RequesterEmail,
	)
	res, err := scanReservation(row)
	if err != nil {
		return models.Reservation{}, fmt.Errorf("create reservation: %w", err)
	}
	return res, nil
}

func (q *Queries) GetReservationByID(ctx context.Context, id int64) (models.Reservation, error) {
	row := q.db.QueryRowContext(ctx,
		"SELECT "+reservationColumns+" FROM reservations WHERE id = ?", id,
	)
	return scanReservation(row)
}

// ListReservationsForRoomBetween returns every reservation for the room whose
// date falls in [startDate, endDate], ordered by date then start time. Dates
// are YYYY-MM-DD strings, so lexical range comparison is correct.
func (q *Queries) ListReservationsForRoomBetween(ctx context.Context, roomID int64, startDate, endDate string) ([]models.Reservation, error) {
	return q.collectReservations(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations
		WHERE room_id = ? AND date >= ? AND date <= ?
		ORDER BY date, start_time, id`,
		roomID, startDate, endDate,
	)
}

type ListReservationsByRequesterParams struct {
	RequesterName string
	Status        availability.ReservationStatus // empty means all statuses
}

func (q *Queries) ListReservationsByRequester(ctx context.Context, params ListReservationsByRequesterParams) ([]models.Reservation, error) {
	query := "SELECT " + reservationColumns + " FROM reservations WHERE requester_name = ?"
	args := []any{params.RequesterName}
	if params.Status != "" {
		query += " AND status = ?"
		args = append(args, params.Status)
	}
	query += " ORDER BY date DESC, start_time, id"
	return q.collectReservations(ctx, query, args...)
}

func (q *Queries) ListReservationsByBookingRef(ctx context.Context, bookingRef string) ([]models.Reservation, error) {
	return q.collectReservations(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations
		WHERE booking_ref = ?
		ORDER BY date, id`,
		bookingRef,
	)
}

func (q *Queries) UpdateReservationStatus(ctx context.Context, id int64, status availability.ReservationStatus) (models.Reservation, error) {
	row := q.db.QueryRowContext(ctx, `
		UPDATE reservations
		SET status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
		RETURNING `+reservationColumns,
		status, id,
	)
	return scanReservation(row)
}

// ExpirePendingBefore rejects every pending reservation dated strictly before
// cutoff and returns how many rows changed. Run by the nightly expiry job.
func (q *Queries) ExpirePendingBefore(ctx context.Context, cutoff string) (int64, error) {
	result, err := q.db.ExecContext(ctx, `
		UPDATE reservations
		SET status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE status = ? AND date < ?`,
		availability.StatusRejected, availability.StatusPending, cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("expire pending reservations: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("expire pending reservations: %w", err)
	}
	return affected, nil
}
