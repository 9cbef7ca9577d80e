// internal/api/rooms/handlers.go
package rooms

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Hanzoho/meetingroom-server/internal/api/apiutil"
	appdb "github.com/Hanzoho/meetingroom-server/internal/db"
	"github.com/Hanzoho/meetingroom-server/internal/models"
)

var (
	queries     *appdb.Queries
	queriesOnce sync.Once
)

const roomQueryTimeout = 5 * time.Second

type roomRequest struct {
	Name       string `json:"name"`
	Capacity   int64  `json:"capacity"`
	Department string `json:"department"`
	Location   string `json:"location"`
	Status     string `json:"status"`
}

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(q *appdb.Queries) {
	if q == nil {
		return
	}
	queriesOnce.Do(func() {
		queries = q
	})
}

func loadQueries() *appdb.Queries {
	return queries
}

// HandleRooms serves /api/v1/rooms: GET lists rooms, POST creates, PUT edits,
// DELETE removes. Mutations are officer operations; listing is open to
// booking users, who can pass bookable=true to see only rooms offered for
// booking.
func HandleRooms(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		handleRoomList(w, r)
	case http.MethodPost:
		handleRoomCreate(w, r)
	case http.MethodPut:
		handleRoomUpdate(w, r)
	case http.MethodDelete:
		handleRoomDelete(w, r)
	default:
		apiutil.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func handleRoomList(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	q := loadQueries()
	if q == nil {
		logger.Error().Msg("Database queries not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	onlyBookable := r.URL.Query().Get("bookable") == "true"

	ctx, cancel := context.WithTimeout(r.Context(), roomQueryTimeout)
	defer cancel()

	rooms, err := q.ListRooms(ctx, onlyBookable)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to list rooms")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to list rooms")
		return
	}
	if rooms == nil {
		rooms = []models.Room{}
	}
	_ = apiutil.WriteJSON(w, http.StatusOK, rooms)
}

// HandleRoomDetail serves GET /api/v1/rooms/detail?room_id=N.
func HandleRoomDetail(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if r.Method != http.MethodGet {
		apiutil.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	q := loadQueries()
	if q == nil {
		logger.Error().Msg("Database queries not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	roomID, err := apiutil.RoomIDFromQuery(r)
	if err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), roomQueryTimeout)
	defer cancel()

	room, err := q.GetRoomByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			apiutil.WriteError(w, http.StatusNotFound, "Room not found")
			return
		}
		logger.Error().Err(err).Int64("room_id", roomID).Msg("Failed to load room")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to load room")
		return
	}
	_ = apiutil.WriteJSON(w, http.StatusOK, room)
}

func handleRoomCreate(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	q := loadQueries()
	if q == nil {
		logger.Error().Msg("Database queries not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	var req roomRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	params, err := roomParamsFromRequest(req)
	if err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), roomQueryTimeout)
	defer cancel()

	room, err := q.CreateRoom(ctx, params)
	if err != nil {
		logger.Error().Err(err).Str("name", params.Name).Msg("Failed to create room")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to create room")
		return
	}

	logger.Info().Int64("room_id", room.ID).Str("name", room.Name).Msg("Room created")
	_ = apiutil.WriteJSON(w, http.StatusCreated, room)
}

func handleRoomUpdate(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	q := loadQueries()
	if q == nil {
		logger.Error().Msg("Database queries not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	roomID, err := apiutil.RoomIDFromQuery(r)
	if err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req roomRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	params, err := roomParamsFromRequest(req)
	if err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), roomQueryTimeout)
	defer cancel()

	room, err := q.UpdateRoom(ctx, appdb.UpdateRoomParams{
		ID:         roomID,
		Name:       params.Name,
		Capacity:   params.Capacity,
		Department: params.Department,
		Location:   params.Location,
		Status:     params.Status,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			apiutil.WriteError(w, http.StatusNotFound, "Room not found")
			return
		}
		logger.Error().Err(err).Int64("room_id", roomID).Msg("Failed to update room")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to update room")
		return
	}

	logger.Info().Int64("room_id", room.ID).Msg("Room updated")
	_ = apiutil.WriteJSON(w, http.StatusOK, room)
}

func handleRoomDelete(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	q := loadQueries()
	if q == nil {
		logger.Error().Msg("Database queries not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	roomID, err := apiutil.RoomIDFromQuery(r)
	if err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), roomQueryTimeout)
	defer cancel()

	if err := q.DeleteRoom(ctx, roomID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			apiutil.WriteError(w, http.StatusNotFound, "Room not found")
			return
		}
		logger.Error().Err(err).Int64("room_id", roomID).Msg("Failed to delete room")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to delete room")
		return
	}

	logger.Info().Int64("room_id", roomID).Msg("Room deleted")
	w.WriteHeader(http.StatusNoContent)
}

func roomParamsFromRequest(req roomRequest) (appdb.CreateRoomParams, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return appdb.CreateRoomParams{}, errors.New("name is required")
	}
	if req.Capacity <= 0 {
		return appdb.CreateRoomParams{}, errors.New("capacity must be greater than 0")
	}

	status := models.RoomStatus(strings.TrimSpace(req.Status))
	if status == "" {
		status = models.RoomAvailable
	}
	if !models.ValidRoomStatus(status) {
		return appdb.CreateRoomParams{}, errors.New("status must be available, unavailable, or maintenance")
	}

	return appdb.CreateRoomParams{
		Name:       name,
		Capacity:   req.Capacity,
		Department: strings.TrimSpace(req.Department),
		Location:   strings.TrimSpace(req.Location),
		Status:     status,
	}, nil
}
