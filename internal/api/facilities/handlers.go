// internal/api/facilities/handlers.go
package facilities

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/courtsidehq/courtside/internal/api/apiutil"
	"github.com/courtsidehq/courtside/internal/db"
)

var queries *db.Queries

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(q *db.Queries) {
	queries = q
}

type facilityResponse struct {
	ID        int64    `json:"id"`
	Name      string   `json:"name"`
	Sport     string   `json:"sport"`
	IsIndoor  bool     `json:"is_indoor"`
	OpenTime  string   `json:"open_time,omitempty"`
	CloseTime string   `json:"close_time,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	IsActive  bool     `json:"is_active"`
}

func toFacilityResponse(f db.Facility) facilityResponse {
	resp := facilityResponse{
		ID:       f.ID,
		Name:     f.Name,
		Sport:    f.Sport,
		IsIndoor: f.IsIndoor,
		IsActive: f.IsActive,
	}
	if f.OpenTime.Valid {
		resp.OpenTime = f.OpenTime.String
	}
	if f.CloseTime.Valid {
		resp.CloseTime = f.CloseTime.String
	}
	if f.Latitude.Valid {
		lat := f.Latitude.Float64
		resp.Latitude = &lat
	}
	if f.Longitude.Valid {
		lon := f.Longitude.Float64
		resp.Longitude = &lon
	}
	return resp
}

type facilityRequest struct {
	Name      string   `json:"name"`
	Sport     string   `json:"sport"`
	IsIndoor  bool     `json:"is_indoor"`
	OpenTime  string   `json:"open_time"`
	CloseTime string   `json:"close_time"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	IsActive  *bool    `json:"is_active"`
}

func (req facilityRequest) validate() (db.CreateFacilityParams, error) {
	var params db.CreateFacilityParams

	name, err := apiutil.RequiredStringField(req.Name, "name")
	if err != nil {
		return params, err
	}
	sport, err := apiutil.RequiredStringField(req.Sport, "sport")
	if err != nil {
		return params, err
	}
	openTime, err := apiutil.FormatClock(req.OpenTime, "open_time")
	if err != nil {
		return params, err
	}
	closeTime, err := apiutil.FormatClock(req.CloseTime, "close_time")
	if err != nil {
		return params, err
	}
	if (openTime == "") != (closeTime == "") {
		return params, apiutil.BadRequest("open_time and close_time must be set together")
	}
	if (req.Latitude == nil) != (req.Longitude == nil) {
		return params, apiutil.BadRequest("latitude and longitude must be set together")
	}

	params = db.CreateFacilityParams{
		Name:     name,
		Sport:    sport,
		IsIndoor: req.IsIndoor,
	}
	if openTime != "" {
		params.OpenTime = sql.NullString{String: openTime, Valid: true}
		params.CloseTime = sql.NullString{String: closeTime, Valid: true}
	}
	if req.Latitude != nil {
		params.Latitude = sql.NullFloat64{Float64: *req.Latitude, Valid: true}
		params.Longitude = sql.NullFloat64{Float64: *req.Longitude, Valid: true}
	}
	return params, nil
}

// POST /api/v1/facilities (admin)
func HandleCreateFacility(w http.ResponseWriter, r *http.Request) {
	var req facilityRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, apiutil.BadRequest("invalid request body"))
		return
	}

	params, err := req.validate()
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	facility, err := queries.CreateFacility(r.Context(), params)
	if err != nil {
		apiutil.WriteError(w, r, apiutil.Internal("failed to create facility", err))
		return
	}

	log.Ctx(r.Context()).Info().Int64("facility_id", facility.ID).Msg("Facility created")
	_ = apiutil.WriteJSON(w, http.StatusCreated, toFacilityResponse(facility))
}

// PUT /api/v1/facilities/{id} (admin)
func HandleUpdateFacility(w http.ResponseWriter, r *http.Request) {
	facilityID, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	var req facilityRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, apiutil.BadRequest("invalid request body"))
		return
	}

	params, err := req.validate()
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	existing, err := queries.GetFacilityByID(r.Context(), facilityID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			apiutil.WriteError(w, r, apiutil.NotFound("facility not found"))
			return
		}
		apiutil.WriteError(w, r, apiutil.Internal("failed to load facility", err))
		return
	}

	isActive := existing.IsActive
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	facility, err := queries.UpdateFacility(r.Context(), db.UpdateFacilityParams{
		ID:        facilityID,
		Name:      params.Name,
		Sport:     params.Sport,
		IsIndoor:  params.IsIndoor,
		OpenTime:  params.OpenTime,
		CloseTime: params.CloseTime,
		Latitude:  params.Latitude,
		Longitude: params.Longitude,
		IsActive:  isActive,
	})
	if err != nil {
		apiutil.WriteError(w, r, apiutil.Internal("failed to update facility", err))
		return
	}

	_ = apiutil.WriteJSON(w, http.StatusOK, toFacilityResponse(facility))
}

// GET /api/v1/facilities
func HandleListFacilities(w http.ResponseWriter, r *http.Request) {
	rows, err := queries.ListFacilities(r.Context())
	if err != nil {
		apiutil.WriteError(w, r, apiutil.Internal("failed to list facilities", err))
		return
	}

	payload := make([]facilityResponse, 0, len(rows))
	for _, row := range rows {
		payload = append(payload, toFacilityResponse(row))
	}
	_ = apiutil.WriteJSON(w, http.StatusOK, payload)
}

// GET /api/v1/facilities/{id}
func HandleGetFacility(w http.ResponseWriter, r *http.Request) {
	facilityID, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	facility, err := queries.GetFacilityByID(r.Context(), facilityID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			apiutil.WriteError(w, r, apiutil.NotFound("facility not found"))
			return
		}
		apiutil.WriteError(w, r, apiutil.Internal("failed to load facility", err))
		return
	}

	_ = apiutil.WriteJSON(w, http.StatusOK, toFacilityResponse(facility))
}

type courtResponse struct {
	ID         int64  `json:"id"`
	FacilityID int64  `json:"facility_id"`
	Name       string `json:"name"`
	IsActive   bool   `json:"is_active"`
}

func toCourtResponse(c db.Court) courtResponse {
	return courtResponse{ID: c.ID, FacilityID: c.FacilityID, Name: c.Name, IsActive: c.IsActive}
}

type courtRequest struct {
	Name     string `json:"name"`
	IsActive *bool  `json:"is_active"`
}

// POST /api/v1/facilities/{id}/courts (admin)
func HandleCreateCourt(w http.ResponseWriter, r *http.Request) {
	facilityID, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	var req courtRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, apiutil.BadRequest("invalid request body"))
		return
	}
	name, err := apiutil.RequiredStringField(req.Name, "name")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	if _, err := queries.GetFacilityByID(r.Context(), facilityID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			apiutil.WriteError(w, r, apiutil.NotFound("facility not found"))
			return
		}
		apiutil.WriteError(w, r, apiutil.Internal("failed to load facility", err))
		return
	}

	court, err := queries.CreateCourt(r.Context(), db.CreateCourtParams{
		FacilityID: facilityID,
		Name:       name,
	})
	if err != nil {
		apiutil.WriteError(w, r, apiutil.Internal("failed to create court", err))
		return
	}

	log.Ctx(r.Context()).Info().
		Int64("facility_id", facilityID).
		Int64("court_id", court.ID).
		Msg("Court created")
	_ = apiutil.WriteJSON(w, http.StatusCreated, toCourtResponse(court))
}

// GET /api/v1/facilities/{id}/courts
func HandleListCourts(w http.ResponseWriter, r *http.Request) {
	facilityID, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	rows, err := queries.ListCourts(r.Context(), facilityID)
	if err != nil {
		apiutil.WriteError(w, r, apiutil.Internal("failed to list courts", err))
		return
	}

	payload := make([]courtResponse, 0, len(rows))
	for _, row := range rows {
		payload = append(payload, toCourtResponse(row))
	}
	_ = apiutil.WriteJSON(w, http.StatusOK, payload)
}

// PUT /api/v1/courts/{id} (admin)
func HandleUpdateCourt(w http.ResponseWriter, r *http.Request) {
	courtID, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	var req courtRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, apiutil.BadRequest("invalid request body"))
		return
	}

	existing, err := queries.GetCourtByID(r.Context(), courtID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			apiutil.WriteError(w, r, apiutil.NotFound("court not found"))
			return
		}
		apiutil.WriteError(w, r, apiutil.Internal("failed to load court", err))
		return
	}

	name := existing.Name
	if req.Name != "" {
		name = req.Name
	}
	isActive := existing.IsActive
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	court, err := queries.UpdateCourt(r.Context(), db.UpdateCourtParams{
		ID:       courtID,
		Name:     name,
		IsActive: isActive,
	})
	if err != nil {
		apiutil.WriteError(w, r, apiutil.Internal("failed to update court", err))
		return
	}

	_ = apiutil.WriteJSON(w, http.StatusOK, toCourtResponse(court))
}
