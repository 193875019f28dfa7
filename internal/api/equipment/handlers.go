// internal/api/equipment/handlers.go
package equipment

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

type equipmentResponse struct {
	ID                int64  `json:"id"`
	FacilityID        int64  `json:"facility_id"`
	Name              string `json:"name"`
	TotalQuantity     int64  `json:"total_quantity"`
	AvailableQuantity int64  `json:"available_quantity"`
}

func toEquipmentResponse(e db.Equipment) equipmentResponse {
	return equipmentResponse{
		ID:                e.ID,
		FacilityID:        e.FacilityID,
		Name:              e.Name,
		TotalQuantity:     e.TotalQuantity,
		AvailableQuantity: e.AvailableQuantity,
	}
}

type equipmentRequest struct {
	Name              string `json:"name"`
	TotalQuantity     int64  `json:"total_quantity"`
	AvailableQuantity int64  `json:"available_quantity"`
}

func (req equipmentRequest) validate() error {
	if _, err := apiutil.RequiredStringField(req.Name, "name"); err != nil {
		return err
	}
	if req.TotalQuantity < 0 {
		return apiutil.FieldError{Field: "total_quantity", Reason: "must be 0 or greater"}
	}
	if req.AvailableQuantity < 0 || req.AvailableQuantity > req.TotalQuantity {
		return apiutil.FieldError{Field: "available_quantity", Reason: "must be between 0 and total_quantity"}
	}
	return nil
}

// POST /api/v1/facilities/{id}/equipment (admin)
func HandleCreateEquipment(w http.ResponseWriter, r *http.Request) {
	facilityID, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	var req equipmentRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, apiutil.BadRequest("invalid request body"))
		return
	}
	if err := req.validate(); err != nil {
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

	item, err := queries.CreateEquipment(r.Context(), db.CreateEquipmentParams{
		FacilityID:        facilityID,
		Name:              req.Name,
		TotalQuantity:     req.TotalQuantity,
		AvailableQuantity: req.AvailableQuantity,
	})
	if err != nil {
		apiutil.WriteError(w, r, apiutil.Internal("failed to create equipment", err))
		return
	}

	log.Ctx(r.Context()).Info().
		Int64("facility_id", facilityID).
		Int64("equipment_id", item.ID).
		Msg("Equipment created")
	_ = apiutil.WriteJSON(w, http.StatusCreated, toEquipmentResponse(item))
}

// GET /api/v1/facilities/{id}/equipment
func HandleListEquipment(w http.ResponseWriter, r *http.Request) {
	facilityID, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	rows, err := queries.ListEquipmentByFacility(r.Context(), facilityID)
	if err != nil {
		apiutil.WriteError(w, r, apiutil.Internal("failed to list equipment", err))
		return
	}

	payload := make([]equipmentResponse, 0, len(rows))
	for _, row := range rows {
		payload = append(payload, toEquipmentResponse(row))
	}
	_ = apiutil.WriteJSON(w, http.StatusOK, payload)
}

// PUT /api/v1/equipment/{id} (admin)
func HandleUpdateEquipment(w http.ResponseWriter, r *http.Request) {
	equipmentID, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	var req equipmentRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, apiutil.BadRequest("invalid request body"))
		return
	}
	if err := req.validate(); err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	if _, err := queries.GetEquipmentByID(r.Context(), equipmentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			apiutil.WriteError(w, r, apiutil.NotFound("equipment not found"))
			return
		}
		apiutil.WriteError(w, r, apiutil.Internal("failed to load equipment", err))
		return
	}

	item, err := queries.UpdateEquipment(r.Context(), db.UpdateEquipmentParams{
		ID:                equipmentID,
		Name:              req.Name,
		TotalQuantity:     req.TotalQuantity,
		AvailableQuantity: req.AvailableQuantity,
	})
	if err != nil {
		apiutil.WriteError(w, r, apiutil.Internal("failed to update equipment", err))
		return
	}

	_ = apiutil.WriteJSON(w, http.StatusOK, toEquipmentResponse(item))
}
