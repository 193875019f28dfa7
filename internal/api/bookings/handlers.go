// internal/api/bookings/handlers.go
package bookings

import (
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/courtsidehq/courtside/internal/api/apiutil"
	"github.com/courtsidehq/courtside/internal/api/authz"
	"github.com/courtsidehq/courtside/internal/booking"
	"github.com/courtsidehq/courtside/internal/db"
)

var (
	service *booking.Service
	queries *db.Queries
)

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(svc *booking.Service, q *db.Queries) {
	service = svc
	queries = q
}

type bookingResponse struct {
	ID         int64     `json:"id"`
	FacilityID int64     `json:"facility_id"`
	CourtID    int64     `json:"court_id"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	Status     string    `json:"status"`
}

func toBookingResponse(b db.Booking) bookingResponse {
	return bookingResponse{
		ID:         b.ID,
		FacilityID: b.FacilityID,
		CourtID:    b.CourtID,
		StartTime:  b.StartTime,
		EndTime:    b.EndTime,
		Status:     b.Status,
	}
}

func actorFromContext(r *http.Request) (booking.Actor, bool) {
	user := authz.UserFromContext(r.Context())
	if user == nil {
		return booking.Actor{}, false
	}
	return booking.Actor{UserID: user.ID, IsAdmin: user.IsAdmin}, true
}

type createBookingRequest struct {
	FacilityID   int64   `json:"facility_id"`
	CourtID      int64   `json:"court_id"`
	StartTime    string  `json:"start_time"`
	EndTime      string  `json:"end_time"`
	EquipmentIDs []int64 `json:"equipment_ids"`
}

// POST /api/v1/bookings
func HandleCreateBooking(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		apiutil.WriteError(w, r, booking.ErrUnauthorized)
		return
	}

	var req createBookingRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, apiutil.BadRequest("invalid request body"))
		return
	}
	if req.FacilityID <= 0 {
		apiutil.WriteError(w, r, apiutil.FieldError{Field: "facility_id", Reason: "must be greater than 0"})
		return
	}

	loc := service.Region().Location()
	start, err := apiutil.ParseTimeField(req.StartTime, "start_time", loc)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	end, err := apiutil.ParseTimeField(req.EndTime, "end_time", loc)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	created, err := service.CreateBooking(r.Context(), booking.CreateBookingParams{
		Actor:        actor,
		FacilityID:   req.FacilityID,
		CourtID:      req.CourtID,
		StartTime:    start,
		EndTime:      end,
		EquipmentIDs: req.EquipmentIDs,
	})
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	_ = apiutil.WriteJSON(w, http.StatusCreated, toBookingResponse(created))
}

// GET /api/v1/bookings
//
// Lists the caller's bookings. Admins may pass facility_id and date to see
// every booking touching that facility's day instead.
func HandleListBookings(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		apiutil.WriteError(w, r, booking.ErrUnauthorized)
		return
	}

	var rows []db.Booking
	var err error
	if actor.IsAdmin && r.URL.Query().Get("facility_id") != "" {
		rows, err = listFacilityBookings(r)
	} else {
		rows, err = queries.ListBookingsForUser(r.Context(), actor.UserID)
	}
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	payload := make([]bookingResponse, 0, len(rows))
	for _, row := range rows {
		payload = append(payload, toBookingResponse(row))
	}
	_ = apiutil.WriteJSON(w, http.StatusOK, payload)
}

func listFacilityBookings(r *http.Request) ([]db.Booking, error) {
	facilityID, err := apiutil.FacilityIDFromQuery(r)
	if err != nil {
		return nil, err
	}

	region := service.Region()
	date, err := apiutil.ParseTimeField(r.URL.Query().Get("date"), "date", region.Location())
	if err != nil {
		return nil, err
	}
	dayStart, dayEnd := region.DayWindow(date)

	return queries.ListBookingsByFacilityBetween(r.Context(), db.ListBookingsByFacilityBetweenParams{
		FacilityID: facilityID,
		StartTime:  dayStart.UTC(),
		EndTime:    dayEnd.UTC(),
	})
}

// POST /api/v1/bookings/{id}/cancel
func HandleCancelBooking(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		apiutil.WriteError(w, r, booking.ErrUnauthorized)
		return
	}

	bookingID, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	cancelled, err := service.CancelBooking(r.Context(), actor, bookingID)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	_ = apiutil.WriteJSON(w, http.StatusOK, toBookingResponse(cancelled))
}

type rescheduleRequest struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// POST /api/v1/bookings/{id}/reschedule
func HandleRescheduleBooking(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		apiutil.WriteError(w, r, booking.ErrUnauthorized)
		return
	}

	bookingID, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	var req rescheduleRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, apiutil.BadRequest("invalid request body"))
		return
	}

	loc := service.Region().Location()
	start, err := apiutil.ParseTimeField(req.StartTime, "start_time", loc)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	end, err := apiutil.ParseTimeField(req.EndTime, "end_time", loc)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	shifted, err := service.RescheduleBooking(r.Context(), actor, bookingID, start, end)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	_ = apiutil.WriteJSON(w, http.StatusOK, toBookingResponse(shifted))
}

type availabilityResponse struct {
	FacilityID int64               `json:"facility_id"`
	Date       string              `json:"date"`
	Courts     []courtAvailability `json:"courts"`
}

type courtAvailability struct {
	CourtID   int64    `json:"court_id"`
	CourtName string   `json:"court_name"`
	FreeHours []string `json:"free_hours"`
}

// GET /api/v1/availability?facility_id=&date=&duration_hours=
//
// Availability is a read-only snapshot; a slot can be taken between this
// response and the booking attempt, and the booking write re-checks.
func HandleAvailability(w http.ResponseWriter, r *http.Request) {
	facilityID, err := apiutil.FacilityIDFromQuery(r)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	loc := service.Region().Location()
	date, err := apiutil.ParseTimeField(r.URL.Query().Get("date"), "date", loc)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	duration, err := apiutil.ParseDurationHoursField(r.URL.Query().Get("duration_hours"))
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	availability, err := service.FacilityAvailability(r.Context(), facilityID, date, duration, time.Now())
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	courts := make([]courtAvailability, 0, len(availability))
	for _, court := range availability {
		courts = append(courts, courtAvailability{
			CourtID:   court.CourtID,
			CourtName: court.CourtName,
			FreeHours: court.FreeHours,
		})
	}

	log.Ctx(r.Context()).Debug().
		Int64("facility_id", facilityID).
		Int("courts", len(courts)).
		Msg("Availability computed")

	_ = apiutil.WriteJSON(w, http.StatusOK, availabilityResponse{
		FacilityID: facilityID,
		Date:       service.Region().DateString(date),
		Courts:     courts,
	})
}
