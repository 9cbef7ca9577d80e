// cmd/server/server.go
package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/Hanzoho/meetingroom-server/internal/api"
	"github.com/Hanzoho/meetingroom-server/internal/api/reservations"
	"github.com/Hanzoho/meetingroom-server/internal/api/rooms"
	"github.com/Hanzoho/meetingroom-server/internal/calendar"
	"github.com/Hanzoho/meetingroom-server/internal/config"
	"github.com/Hanzoho/meetingroom-server/internal/db"
	"github.com/Hanzoho/meetingroom-server/internal/email"
	"github.com/Hanzoho/meetingroom-server/internal/ratelimit"
)

const shutdownTimeout = 30 * time.Second

func newServer(cfg *config.Config, database *db.DB, sender email.Sender) *http.Server {
	router := http.NewServeMux()

	// Setup middleware chain
	handler := api.ChainMiddleware(
		router,
		api.WithLogging,
		api.WithRecovery,
		api.WithRequestID,
		api.WithContentType,
	)

	builder := calendar.NewBuilder(cfg.Booking)
	limiter := ratelimit.New(nil)

	rooms.InitHandlers(database.Queries)
	reservations.InitHandlers(database, builder, limiter, sender)

	registerRoutes(router)

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func registerRoutes(mux *http.ServeMux) {
	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Room inventory
	mux.HandleFunc("/api/v1/rooms", rooms.HandleRooms)
	mux.HandleFunc("/api/v1/rooms/detail", rooms.HandleRoomDetail)
	mux.HandleFunc("/api/v1/rooms/calendar", reservations.HandleRoomCalendar)

	// Reservations
	mux.HandleFunc("/api/v1/reservations", reservations.HandleReservations)
	mux.HandleFunc("/api/v1/reservations/booking", reservations.HandleBookingDetail)
	mux.HandleFunc("/api/v1/reservations/status", reservations.HandleReservationStatus)

	// Booking-form pre-check
	mux.HandleFunc("/api/v1/availability/check", reservations.HandleAvailabilityCheck)
}
