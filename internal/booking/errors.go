// internal/booking/errors.go
package booking

import "errors"

// The booking writer resolves every request to success or exactly one of
// these. Storage failures are wrapped and surfaced as-is, never swallowed.
var (
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInvalidCourt        = errors.New("invalid court")
	ErrNoCourtAvailable    = errors.New("no court available")
	ErrBookingLimitReached = errors.New("booking limit reached")

	ErrFacilityNotFound = errors.New("facility not found")
	ErrBookingNotFound  = errors.New("booking not found")
	ErrInvalidInterval  = errors.New("invalid booking interval")
	ErrInvalidEquipment = errors.New("invalid equipment")
	ErrBookingNotActive = errors.New("booking is not active")
)
