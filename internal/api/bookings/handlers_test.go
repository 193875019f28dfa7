package bookings

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/courtsidehq/courtside/internal/api/authz"
	"github.com/courtsidehq/courtside/internal/booking"
	"github.com/courtsidehq/courtside/internal/config"
	"github.com/courtsidehq/courtside/internal/db"
	"github.com/courtsidehq/courtside/internal/testutil"
)

func setupHandlers(t *testing.T) *db.DB {
	t.Helper()

	database := testutil.NewTestDB(t)
	svc, err := booking.NewService(database, config.BookingConfig{
		Timezone:         "Asia/Bangkok",
		MaxPerDay:        2,
		MaxPerWeek:       7,
		DefaultOpenTime:  "08:00",
		DefaultCloseTime: "22:00",
	})
	if err != nil {
		t.Fatalf("create service: %v", err)
	}
	InitHandlers(svc, database.Queries)
	return database
}

func newTestMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/bookings", HandleCreateBooking)
	mux.HandleFunc("GET /api/v1/bookings", HandleListBookings)
	mux.HandleFunc("POST /api/v1/bookings/{id}/cancel", HandleCancelBooking)
	mux.HandleFunc("POST /api/v1/bookings/{id}/reschedule", HandleRescheduleBooking)
	mux.HandleFunc("GET /api/v1/availability", HandleAvailability)
	return mux
}

func doJSON(t *testing.T, mux *http.ServeMux, user *authz.AuthUser, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if user != nil {
		req = req.WithContext(authz.ContextWithUser(req.Context(), user))
	}

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func seedCourtAndUser(t *testing.T, database *db.DB) (facilityID, courtID int64, user *authz.AuthUser) {
	t.Helper()
	ctx := context.Background()

	u, err := database.Queries.CreateUser(ctx, db.CreateUserParams{
		Email: "player@example.com",
		Name:  "Player",
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	facility, err := database.Queries.CreateFacility(ctx, db.CreateFacilityParams{
		Name:  "Riverside Arena",
		Sport: "badminton",
	})
	if err != nil {
		t.Fatalf("seed facility: %v", err)
	}
	court, err := database.Queries.CreateCourt(ctx, db.CreateCourtParams{
		FacilityID: facility.ID,
		Name:       "Court 1",
	})
	if err != nil {
		t.Fatalf("seed court: %v", err)
	}
	return facility.ID, court.ID, &authz.AuthUser{ID: u.ID, Email: u.Email}
}

func TestHandleCreateBooking(t *testing.T) {
	database := setupHandlers(t)
	facilityID, courtID, user := seedCourtAndUser(t, database)
	mux := newTestMux()

	body := fmt.Sprintf(`{"facility_id": %d, "court_id": %d, "start_time": "2026-03-14T10:00", "end_time": "2026-03-14T11:00"}`,
		facilityID, courtID)
	rec := doJSON(t, mux, user, http.MethodPost, "/api/v1/bookings", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status: %d body: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		ID      int64  `json:"id"`
		CourtID int64  `json:"court_id"`
		Status  string `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.CourtID != courtID || resp.Status != "confirmed" {
		t.Fatalf("unexpected response: %+v", resp)
	}

	// Same slot again conflicts.
	rec = doJSON(t, mux, user, http.MethodPost, "/api/v1/bookings", body)
	if rec.Code != http.StatusConflict {
		t.Fatalf("conflict status: %d body: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "no_court_available") {
		t.Fatalf("error code missing: %s", rec.Body.String())
	}
}

func TestHandleCreateBooking_Unauthenticated(t *testing.T) {
	database := setupHandlers(t)
	facilityID, courtID, _ := seedCourtAndUser(t, database)
	mux := newTestMux()

	body := fmt.Sprintf(`{"facility_id": %d, "court_id": %d, "start_time": "2026-03-14T10:00", "end_time": "2026-03-14T11:00"}`,
		facilityID, courtID)
	rec := doJSON(t, mux, nil, http.MethodPost, "/api/v1/bookings", body)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status: %d body: %s", rec.Code, rec.Body.String())
	}
}

func TestHandleCreateBooking_LimitReached(t *testing.T) {
	database := setupHandlers(t)
	facilityID, courtID, user := seedCourtAndUser(t, database)
	mux := newTestMux()

	for _, slot := range [][2]string{{"10:00", "11:00"}, {"12:00", "13:00"}} {
		body := fmt.Sprintf(`{"facility_id": %d, "court_id": %d, "start_time": "2026-03-14T%s", "end_time": "2026-03-14T%s"}`,
			facilityID, courtID, slot[0], slot[1])
		rec := doJSON(t, mux, user, http.MethodPost, "/api/v1/bookings", body)
		if rec.Code != http.StatusCreated {
			t.Fatalf("seed booking at %s: %d %s", slot[0], rec.Code, rec.Body.String())
		}
	}

	body := fmt.Sprintf(`{"facility_id": %d, "court_id": %d, "start_time": "2026-03-14T18:00", "end_time": "2026-03-14T19:00"}`,
		facilityID, courtID)
	rec := doJSON(t, mux, user, http.MethodPost, "/api/v1/bookings", body)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status: %d body: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "booking_limit_reached") {
		t.Fatalf("error code missing: %s", rec.Body.String())
	}
}

func TestHandleCancelAndList(t *testing.T) {
	database := setupHandlers(t)
	facilityID, courtID, user := seedCourtAndUser(t, database)
	mux := newTestMux()

	body := fmt.Sprintf(`{"facility_id": %d, "court_id": %d, "start_time": "2026-03-14T10:00", "end_time": "2026-03-14T11:00"}`,
		facilityID, courtID)
	rec := doJSON(t, mux, user, http.MethodPost, "/api/v1/bookings", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", rec.Code, rec.Body.String())
	}
	var created struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	rec = doJSON(t, mux, user, http.MethodPost, fmt.Sprintf("/api/v1/bookings/%d/cancel", created.ID), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("cancel: %d %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"cancelled"`) {
		t.Fatalf("cancel body: %s", rec.Body.String())
	}

	rec = doJSON(t, mux, user, http.MethodGet, "/api/v1/bookings", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list: %d %s", rec.Code, rec.Body.String())
	}
	var listed []struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listed) != 1 || listed[0].Status != "cancelled" {
		t.Fatalf("list: %+v", listed)
	}
}

func TestHandleRescheduleBooking(t *testing.T) {
	database := setupHandlers(t)
	facilityID, courtID, user := seedCourtAndUser(t, database)
	mux := newTestMux()

	body := fmt.Sprintf(`{"facility_id": %d, "court_id": %d, "start_time": "2026-03-14T10:00", "end_time": "2026-03-14T11:00"}`,
		facilityID, courtID)
	rec := doJSON(t, mux, user, http.MethodPost, "/api/v1/bookings", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", rec.Code, rec.Body.String())
	}
	var created struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	rec = doJSON(t, mux, user, http.MethodPost,
		fmt.Sprintf("/api/v1/bookings/%d/reschedule", created.ID),
		`{"start_time": "2026-03-14T15:00", "end_time": "2026-03-14T16:00"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("reschedule: %d %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"rescheduled"`) {
		t.Fatalf("reschedule body: %s", rec.Body.String())
	}
}

func TestHandleAvailability(t *testing.T) {
	database := setupHandlers(t)
	facilityID, courtID, user := seedCourtAndUser(t, database)
	mux := newTestMux()

	// Book tomorrow 10:00-11:00 so one slot disappears.
	tomorrow := time.Now().AddDate(0, 0, 1)
	loc, err := time.LoadLocation("Asia/Bangkok")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	date := tomorrow.In(loc).Format("2006-01-02")
	body := fmt.Sprintf(`{"facility_id": %d, "court_id": %d, "start_time": "%sT10:00", "end_time": "%sT11:00"}`,
		facilityID, courtID, date, date)
	rec := doJSON(t, mux, user, http.MethodPost, "/api/v1/bookings", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, mux, nil, http.MethodGet,
		fmt.Sprintf("/api/v1/availability?facility_id=%d&date=%s", facilityID, date), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("availability: %d %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Date   string `json:"date"`
		Courts []struct {
			CourtID   int64    `json:"court_id"`
			FreeHours []string `json:"free_hours"`
		} `json:"courts"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Date != date {
		t.Fatalf("date: %s want %s", resp.Date, date)
	}
	if len(resp.Courts) != 1 || resp.Courts[0].CourtID != courtID {
		t.Fatalf("courts: %+v", resp.Courts)
	}
	for _, hour := range resp.Courts[0].FreeHours {
		if hour == "10:00" {
			t.Fatalf("10:00 should be booked out: %v", resp.Courts[0].FreeHours)
		}
	}
}

func TestHandleAvailability_MissingFacility(t *testing.T) {
	setupHandlers(t)
	mux := newTestMux()

	rec := doJSON(t, mux, nil, http.MethodGet, "/api/v1/availability?date=2026-03-14", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: %d body: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, mux, nil, http.MethodGet, "/api/v1/availability?facility_id=9999&date=2026-03-14", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status: %d body: %s", rec.Code, rec.Body.String())
	}
}
