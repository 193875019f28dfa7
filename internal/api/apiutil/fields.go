package apiutil

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

const facilityIDQueryKey = "facility_id"

func ParseNonNegativeInt64Field(raw string, field string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, FieldError{Field: field, Reason: "is required"}
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value < 0 {
		return 0, FieldError{Field: field, Reason: "must be 0 or greater"}
	}
	return value, nil
}

func ParsePositiveInt64Field(raw string, field string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, FieldError{Field: field, Reason: "is required"}
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value <= 0 {
		return 0, FieldError{Field: field, Reason: "must be greater than 0"}
	}
	return value, nil
}

func PathID(r *http.Request, name string) (int64, error) {
	return ParsePositiveInt64Field(r.PathValue(name), name)
}

func FacilityIDFromQuery(r *http.Request) (int64, error) {
	return ParsePositiveInt64Field(r.URL.Query().Get(facilityIDQueryKey), facilityIDQueryKey)
}

// ParseTimeField accepts RFC 3339 timestamps; date-only and minute-precision
// forms are interpreted in loc.
func ParseTimeField(raw string, field string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, FieldError{Field: field, Reason: "is required"}
	}

	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		return parsed.UTC(), nil
	}
	for _, layout := range []string{"2006-01-02T15:04", "2006-01-02 15:04", "2006-01-02"} {
		if parsed, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return parsed.UTC(), nil
		}
	}
	return time.Time{}, FieldError{Field: field, Reason: "must be a valid timestamp"}
}

// ParseDurationHoursField parses the slot duration in whole hours, defaulting
// to one hour when absent.
func ParseDurationHoursField(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Hour, nil
	}
	hours, err := strconv.Atoi(raw)
	if err != nil || hours < 1 || hours > 2 {
		return 0, FieldError{Field: "duration_hours", Reason: "must be 1 or 2"}
	}
	return time.Duration(hours) * time.Hour, nil
}

func FormatClock(raw string, field string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	parsed, err := time.Parse("15:04", raw)
	if err != nil {
		return "", FieldError{Field: field, Reason: "must be HH:MM"}
	}
	return parsed.Format("15:04"), nil
}

func RequiredStringField(raw string, field string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", FieldError{Field: field, Reason: "is required"}
	}
	return raw, nil
}

func BadRequest(message string) HandlerError {
	return HandlerError{Status: http.StatusBadRequest, Message: message}
}

func Internal(message string, err error) HandlerError {
	return HandlerError{Status: http.StatusInternalServerError, Message: message, Err: err}
}

func NotFound(message string) HandlerError {
	return HandlerError{Status: http.StatusNotFound, Message: message}
}
