package apiutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/courtsidehq/courtside/internal/booking"
)

type FieldError struct {
	Field  string
	Reason string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

type HandlerError struct {
	Status  int
	Message string
	Err     error
}

func (e HandlerError) Error() string {
	return e.Message
}

func (e HandlerError) Unwrap() error {
	return e.Err
}

func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return fmt.Errorf("missing request body")
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return err
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	if err := encoder.Encode(payload); err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err := w.Write(buf.Bytes())
	return err
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// WriteError maps a handler or domain error to a JSON error response. Booking
// domain sentinels get stable error codes; anything unrecognized is a 500 and
// is logged with its cause, which is never sent to the client.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	var handlerErr HandlerError
	if errors.As(err, &handlerErr) {
		if handlerErr.Status >= http.StatusInternalServerError {
			log.Ctx(r.Context()).Error().Err(handlerErr.Err).Msg(handlerErr.Message)
			_ = WriteJSON(w, handlerErr.Status, errorResponse{Error: "internal_error"})
			return
		}
		_ = WriteJSON(w, handlerErr.Status, errorResponse{Error: "bad_request", Message: handlerErr.Message})
		return
	}

	var fieldErr FieldError
	if errors.As(err, &fieldErr) {
		_ = WriteJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid_field", Message: fieldErr.Error()})
		return
	}

	status, code := bookingErrorStatus(err)
	if status >= http.StatusInternalServerError {
		log.Ctx(r.Context()).Error().Err(err).Msg("Request failed")
		_ = WriteJSON(w, status, errorResponse{Error: code})
		return
	}
	_ = WriteJSON(w, status, errorResponse{Error: code, Message: err.Error()})
}

func bookingErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, booking.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, booking.ErrInvalidCourt):
		return http.StatusBadRequest, "invalid_court"
	case errors.Is(err, booking.ErrInvalidInterval):
		return http.StatusBadRequest, "invalid_interval"
	case errors.Is(err, booking.ErrInvalidEquipment):
		return http.StatusBadRequest, "invalid_equipment"
	case errors.Is(err, booking.ErrFacilityNotFound):
		return http.StatusNotFound, "facility_not_found"
	case errors.Is(err, booking.ErrBookingNotFound):
		return http.StatusNotFound, "booking_not_found"
	case errors.Is(err, booking.ErrNoCourtAvailable):
		return http.StatusConflict, "no_court_available"
	case errors.Is(err, booking.ErrBookingNotActive):
		return http.StatusConflict, "booking_not_active"
	case errors.Is(err, booking.ErrBookingLimitReached):
		return http.StatusConflict, "booking_limit_reached"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
