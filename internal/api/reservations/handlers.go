// internal/api/reservations/handlers.go
package reservations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Hanzoho/meetingroom-server/internal/api/apiutil"
	"github.com/Hanzoho/meetingroom-server/internal/availability"
	"github.com/Hanzoho/meetingroom-server/internal/calendar"
	appdb "github.com/Hanzoho/meetingroom-server/internal/db"
	"github.com/Hanzoho/meetingroom-server/internal/email"
	"github.com/Hanzoho/meetingroom-server/internal/models"
	"github.com/Hanzoho/meetingroom-server/internal/ratelimit"
)

var (
	queries     *appdb.Queries
	store       *appdb.DB
	builder     calendar.Builder
	limiter     *ratelimit.Limiter
	notifier    email.Sender
	queriesOnce sync.Once
)

const reservationQueryTimeout = 5 * time.Second

// InitHandlers must be called during server startup before handling requests.
// The sender may be nil, in which case decision emails are skipped.
func InitHandlers(database *appdb.DB, b calendar.Builder, l *ratelimit.Limiter, sender email.Sender) {
	if database == nil {
		return
	}
	queriesOnce.Do(func() {
		queries = database.Queries
		store = database
		builder = b
		limiter = l
		notifier = sender
	})
}

type bookingRequest struct {
	RoomID *int64 `json:"room_id"`
	// Explicit, possibly non-contiguous date set.
	Dates []string `json:"dates,omitempty"`
	// Legacy range form; used only when Dates is empty.
	StartDate      string `json:"start_date,omitempty"`
	EndDate        string `json:"end_date,omitempty"`
	StartTime      string `json:"start_time"`
	EndTime        string `json:"end_time"`
	Purpose        string `json:"purpose,omitempty"`
	RequesterName  string `json:"requester_name"`
	RequesterEmail string `json:"requester_email,omitempty"`
}

type bookingResponse struct {
	BookingRef   string               `json:"booking_ref"`
	Reservations []models.Reservation `json:"reservations"`
}

type conflictResponse struct {
	Error     string                      `json:"error"`
	Conflicts availability.ConflictResult `json:"conflicts"`
}

type checkResponse struct {
	Bookable bool                        `json:"bookable"`
	Message  string                      `json:"message,omitempty"`
	Result   availability.ConflictResult `json:"result"`
}

// conflictErr carries a resolver verdict out of the booking transaction.
type conflictErr struct {
	result availability.ConflictResult
}

func (e conflictErr) Error() string {
	return availability.SummarizeConflicts(e.result)
}

// HandleReservations serves /api/v1/reservations: POST books, GET lists.
func HandleReservations(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		handleReservationCreate(w, r)
	case http.MethodGet:
		handleReservationList(w, r)
	default:
		apiutil.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func handleReservationCreate(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if queries == nil || store == nil {
		logger.Error().Msg("Database queries not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	var req bookingRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	roomID, err := apiutil.RoomIDFromRequest(r, req.RoomID)
	if err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	requester := strings.TrimSpace(req.RequesterName)
	if requester == "" {
		apiutil.WriteError(w, http.StatusBadRequest, "requester_name is required")
		return
	}

	startTime, endTime, err := apiutil.ParseWindow(req.StartTime, req.EndTime)
	if err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validateBookingWindow(startTime, endTime); err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	dates, err := bookingDates(req)
	if err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if limiter != nil {
		if result := limiter.CheckSubmit(requester, clientIP(r)); !result.Allowed {
			logger.Warn().
				Str("requester", requester).
				Str("reason", result.Reason).
				Msg("Reservation submission rate limited")
			w.Header().Set("Retry-After", fmt.Sprintf("%d", int(result.RetryAfter.Seconds())+1))
			apiutil.WriteError(w, http.StatusTooManyRequests, "Too many booking attempts, try again later")
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), reservationQueryTimeout)
	defer cancel()

	room, err := queries.GetRoomByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			apiutil.WriteError(w, http.StatusNotFound, "Room not found")
			return
		}
		logger.Error().Err(err).Int64("room_id", roomID).Msg("Failed to load room")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to load room")
		return
	}
	if !room.Bookable() {
		apiutil.WriteError(w, http.StatusConflict, "Room is not open for booking")
		return
	}

	bookingRef := uuid.New().String()
	var created []models.Reservation

	// The conflict check and the inserts share one transaction, so a booking
	// racing this one cannot slip between the guard and the write.
	err = store.RunInTx(ctx, func(txdb *appdb.DB) error {
		lookup := builder.LookupForRoom(ctx, txdb.Queries, roomID)
		result := availability.FindConflicts(availability.BookingRequest{
			Dates:     dates,
			StartTime: startTime,
			EndTime:   endTime,
			Purpose:   req.Purpose,
		}, lookup)
		if !result.Bookable() {
			return conflictErr{result: result}
		}

		for _, date := range result.Dates {
			res, err := txdb.Queries.CreateReservation(ctx, appdb.CreateReservationParams{
				BookingRef:     bookingRef,
				RoomID:         roomID,
				Date:           date.String(),
				StartTime:      startTime,
				EndTime:        endTime,
				Purpose:        strings.TrimSpace(req.Purpose),
				RequesterName:  requester,
				RequesterEmail: strings.TrimSpace(req.RequesterEmail),
			})
			if err != nil {
				return err
			}
			created = append(created, res)
		}
		return nil
	})
	if err != nil {
		var conflict conflictErr
		if errors.As(err, &conflict) {
			_ = apiutil.WriteJSON(w, http.StatusConflict, conflictResponse{
				Error:     availability.SummarizeConflicts(conflict.result),
				Conflicts: conflict.result,
			})
			return
		}
		logger.Error().Err(err).Int64("room_id", roomID).Msg("Failed to create reservation")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to create reservation")
		return
	}

	if limiter != nil {
		limiter.RecordSubmit(requester, clientIP(r))
	}

	logger.Info().
		Str("booking_ref", bookingRef).
		Int64("room_id", roomID).
		Int("dates", len(created)).
		Msg("Reservation created")
	_ = apiutil.WriteJSON(w, http.StatusCreated, bookingResponse{
		BookingRef:   bookingRef,
		Reservations: created,
	})
}

func handleReservationList(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if queries == nil {
		logger.Error().Msg("Database queries not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	requester := strings.TrimSpace(r.URL.Query().Get("requester"))
	if requester == "" {
		apiutil.WriteError(w, http.StatusBadRequest, "requester is required")
		return
	}

	status := availability.ReservationStatus(strings.TrimSpace(r.URL.Query().Get("status")))
	if status != "" && !validStatus(status) {
		apiutil.WriteError(w, http.StatusBadRequest, "unknown status filter")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), reservationQueryTimeout)
	defer cancel()

	reservations, err := queries.ListReservationsByRequester(ctx, appdb.ListReservationsByRequesterParams{
		RequesterName: requester,
		Status:        status,
	})
	if err != nil {
		logger.Error().Err(err).Str("requester", requester).Msg("Failed to list reservations")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to list reservations")
		return
	}
	if reservations == nil {
		reservations = []models.Reservation{}
	}
	_ = apiutil.WriteJSON(w, http.StatusOK, reservations)
}

// HandleBookingDetail serves GET /api/v1/reservations/booking?booking_ref=...
// returning every room-day of one multi-date booking.
func HandleBookingDetail(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if r.Method != http.MethodGet {
		apiutil.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if queries == nil {
		logger.Error().Msg("Database queries not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	bookingRef := strings.TrimSpace(r.URL.Query().Get("booking_ref"))
	if bookingRef == "" {
		apiutil.WriteError(w, http.StatusBadRequest, "booking_ref is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), reservationQueryTimeout)
	defer cancel()

	reservations, err := queries.ListReservationsByBookingRef(ctx, bookingRef)
	if err != nil {
		logger.Error().Err(err).Str("booking_ref", bookingRef).Msg("Failed to load booking")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to load booking")
		return
	}
	if len(reservations) == 0 {
		apiutil.WriteError(w, http.StatusNotFound, "Booking not found")
		return
	}
	_ = apiutil.WriteJSON(w, http.StatusOK, bookingResponse{
		BookingRef:   bookingRef,
		Reservations: reservations,
	})
}

type statusRequest struct {
	ReservationID int64  `json:"reservation_id"`
	Status        string `json:"status"`
}

// HandleReservationStatus serves POST /api/v1/reservations/status, moving a
// reservation through its lifecycle. Approvals and rejections notify the
// requester by email when a sender is configured.
func HandleReservationStatus(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if r.Method != http.MethodPost {
		apiutil.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if queries == nil {
		logger.Error().Msg("Database queries not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	var req statusRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.ReservationID <= 0 {
		apiutil.WriteError(w, http.StatusBadRequest, "reservation_id must be greater than 0")
		return
	}
	target := availability.ReservationStatus(strings.TrimSpace(req.Status))
	if !validStatus(target) {
		apiutil.WriteError(w, http.StatusBadRequest, "unknown status")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), reservationQueryTimeout)
	defer cancel()

	current, err := queries.GetReservationByID(ctx, req.ReservationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			apiutil.WriteError(w, http.StatusNotFound, "Reservation not found")
			return
		}
		logger.Error().Err(err).Int64("reservation_id", req.ReservationID).Msg("Failed to load reservation")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to load reservation")
		return
	}

	if !models.CanTransition(current.Status, target) {
		apiutil.WriteError(w, http.StatusConflict,
			fmt.Sprintf("cannot move a %s reservation to %s", current.Status, target))
		return
	}

	updated, err := queries.UpdateReservationStatus(ctx, req.ReservationID, target)
	if err != nil {
		logger.Error().Err(err).Int64("reservation_id", req.ReservationID).Msg("Failed to update reservation")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to update reservation")
		return
	}

	logger.Info().
		Int64("reservation_id", updated.ID).
		Str("from", string(current.Status)).
		Str("to", string(updated.Status)).
		Msg("Reservation status updated")

	if target == availability.StatusApproved || target == availability.StatusRejected {
		room, err := queries.GetRoomByID(ctx, updated.RoomID)
		if err != nil {
			logger.Error().Err(err).Int64("room_id", updated.RoomID).Msg("Failed to load room for notification")
		} else if err := email.SendReservationDecision(ctx, notifier, room, updated); err != nil {
			// Notification failure must not fail the transition.
			logger.Error().Err(err).Int64("reservation_id", updated.ID).Msg("Failed to send decision email")
		}
	}

	_ = apiutil.WriteJSON(w, http.StatusOK, updated)
}

// HandleRoomCalendar serves GET /api/v1/rooms/calendar?room_id=N&month=YYYY-MM
// with per-day slot detail and coarse status for the booking calendar grid.
func HandleRoomCalendar(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if r.Method != http.MethodGet {
		apiutil.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if queries == nil {
		logger.Error().Msg("Database queries not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	roomID, err := apiutil.RoomIDFromQuery(r)
	if err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	year, month, err := apiutil.ParseMonth(r.URL.Query().Get("month"))
	if err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), reservationQueryTimeout)
	defer cancel()

	if _, err := queries.GetRoomByID(ctx, roomID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			apiutil.WriteError(w, http.StatusNotFound, "Room not found")
			return
		}
		logger.Error().Err(err).Int64("room_id", roomID).Msg("Failed to load room")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to load room")
		return
	}

	days, err := builder.MonthView(ctx, queries, roomID, year, month)
	if err != nil {
		logger.Error().Err(err).Int64("room_id", roomID).Msg("Failed to build calendar")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to build calendar")
		return
	}
	_ = apiutil.WriteJSON(w, http.StatusOK, days)
}

// HandleAvailabilityCheck serves POST /api/v1/availability/check, the
// pre-submission validation the booking form runs on every date or time
// change. It never writes.
func HandleAvailabilityCheck(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if r.Method != http.MethodPost {
		apiutil.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if queries == nil {
		logger.Error().Msg("Database queries not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	var req bookingRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	roomID, err := apiutil.RoomIDFromRequest(r, req.RoomID)
	if err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	startTime, endTime, err := apiutil.ParseWindow(req.StartTime, req.EndTime)
	if err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	dates, err := bookingDates(req)
	if err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), reservationQueryTimeout)
	defer cancel()

	result := availability.FindConflicts(availability.BookingRequest{
		Dates:     dates,
		StartTime: startTime,
		EndTime:   endTime,
		Purpose:   req.Purpose,
	}, builder.LookupForRoom(ctx, queries, roomID))

	_ = apiutil.WriteJSON(w, http.StatusOK, checkResponse{
		Bookable: result.Bookable(),
		Message:  availability.SummarizeConflicts(result),
		Result:   result,
	})
}

// bookingDates resolves the request's date set: the explicit list when
// present, otherwise the expanded legacy start/end range.
func bookingDates(req bookingRequest) ([]availability.Date, error) {
	if len(req.Dates) > 0 {
		dates := make([]availability.Date, 0, len(req.Dates))
		for _, raw := range req.Dates {
			date, err := apiutil.ParseDateField(raw, "dates")
			if err != nil {
				return nil, err
			}
			dates = append(dates, date)
		}
		return dates, nil
	}

	if req.StartDate == "" || req.EndDate == "" {
		return nil, fmt.Errorf("dates or start_date/end_date are required")
	}
	start, err := apiutil.ParseDateField(req.StartDate, "start_date")
	if err != nil {
		return nil, err
	}
	end, err := apiutil.ParseDateField(req.EndDate, "end_date")
	if err != nil {
		return nil, err
	}
	dates := availability.ExpandDateRange(start, end)
	if len(dates) == 0 {
		return nil, fmt.Errorf("start_date must not be after end_date")
	}
	return dates, nil
}

func validateBookingWindow(startTime, endTime string) error {
	startMinutes, _ := availability.MinutesSinceMidnight(startTime)
	endMinutes, _ := availability.MinutesSinceMidnight(endTime)
	if !builder.ContainsWindow(startMinutes, endMinutes) {
		return fmt.Errorf("requested time is outside the bookable hours")
	}
	return nil
}

func validStatus(status availability.ReservationStatus) bool {
	switch status {
	case availability.StatusPending, availability.StatusApproved,
		availability.StatusRejected, availability.StatusCancelled:
		return true
	}
	return false
}

// clientIP prefers the first X-Forwarded-For hop, falling back to the socket
// address, for rate limiting behind the campus proxy.
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
