// cmd/server/server.go
package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/courtsidehq/courtside/internal/api"
	"github.com/courtsidehq/courtside/internal/api/auth"
	apibookings "github.com/courtsidehq/courtside/internal/api/bookings"
	apichat "github.com/courtsidehq/courtside/internal/api/chat"
	"github.com/courtsidehq/courtside/internal/api/equipment"
	"github.com/courtsidehq/courtside/internal/api/facilities"
	"github.com/courtsidehq/courtside/internal/config"
)

func newServer(cfg *config.Config, otpEnabled bool) *http.Server {
	router := http.NewServeMux()

	// Setup middleware chain; the last entry wraps outermost, so every
	// request gets an ID before logging, recovery, and session lookup run.
	handler := api.ChainMiddleware(
		router,
		api.WithAuth,
		api.WithLogging,
		api.WithRecovery,
		api.WithRequestID,
	)

	registerRoutes(router, otpEnabled)

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func registerRoutes(mux *http.ServeMux, otpEnabled bool) {
	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Auth routes
	mux.HandleFunc("POST /api/v1/auth/register", auth.HandleRegister)
	mux.HandleFunc("POST /api/v1/auth/login", auth.HandleLogin)
	mux.HandleFunc("POST /api/v1/auth/logout", auth.HandleLogout)
	mux.HandleFunc("GET /api/v1/auth/me", auth.HandleMe)
	if otpEnabled {
		mux.HandleFunc("POST /api/v1/auth/otp/send", auth.HandleSendCode)
		mux.HandleFunc("POST /api/v1/auth/otp/verify", auth.HandleVerifyCode)
	}

	// Booking routes
	mux.HandleFunc("POST /api/v1/bookings", apibookings.HandleCreateBooking)
	mux.HandleFunc("GET /api/v1/bookings", apibookings.HandleListBookings)
	mux.HandleFunc("POST /api/v1/bookings/{id}/cancel", apibookings.HandleCancelBooking)
	mux.HandleFunc("POST /api/v1/bookings/{id}/reschedule", apibookings.HandleRescheduleBooking)
	mux.HandleFunc("GET /api/v1/availability", apibookings.HandleAvailability)

	// Facility routes
	mux.HandleFunc("GET /api/v1/facilities", facilities.HandleListFacilities)
	mux.HandleFunc("GET /api/v1/facilities/{id}", facilities.HandleGetFacility)
	mux.HandleFunc("GET /api/v1/facilities/{id}/courts", facilities.HandleListCourts)
	mux.HandleFunc("GET /api/v1/facilities/{id}/equipment", equipment.HandleListEquipment)

	// Facility management routes (admin)
	mux.Handle("POST /api/v1/facilities", adminOnly(facilities.HandleCreateFacility))
	mux.Handle("PUT /api/v1/facilities/{id}", adminOnly(facilities.HandleUpdateFacility))
	mux.Handle("POST /api/v1/facilities/{id}/courts", adminOnly(facilities.HandleCreateCourt))
	mux.Handle("PUT /api/v1/courts/{id}", adminOnly(facilities.HandleUpdateCourt))
	mux.Handle("POST /api/v1/facilities/{id}/equipment", adminOnly(equipment.HandleCreateEquipment))
	mux.Handle("PUT /api/v1/equipment/{id}", adminOnly(equipment.HandleUpdateEquipment))

	// Assistant
	mux.HandleFunc("POST /api/v1/chat", apichat.HandleChat)
}

func adminOnly(h http.HandlerFunc) http.Handler {
	return api.WithAdminAuth(h)
}
