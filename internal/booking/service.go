// internal/booking/service.go
package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/courtsidehq/courtside/internal/config"
	"github.com/courtsidehq/courtside/internal/db"
)

// Booking statuses. Cancellation and completion are status changes; rows are
// never deleted.
const (
	StatusConfirmed   = "confirmed"
	StatusRescheduled = "rescheduled"
	StatusCancelled   = "cancelled"
	StatusCompleted   = "completed"
)

// Outbox event types consumed by the notification dispatcher.
const (
	EventCreated      = "created"
	EventCancelled    = "cancelled"
	EventRescheduled  = "rescheduled"
	EventWeatherAlert = "weather_alert"
)

// Service is the conflict-checked booking writer. All check-then-write
// sequences run inside a single immediate-mode transaction so two racing
// writers for the same court and interval cannot both succeed.
type Service struct {
	store  *db.DB
	region Region
	policy LimitPolicy

	defaultOpenTime  string
	defaultCloseTime string
}

func NewService(store *db.DB, cfg config.BookingConfig) (*Service, error) {
	region, err := NewRegion(cfg.Timezone)
	if err != nil {
		return nil, err
	}
	return &Service{
		store:  store,
		region: region,
		policy: LimitPolicy{
			MaxPerDay:  cfg.MaxPerDay,
			MaxPerWeek: cfg.MaxPerWeek,
			Region:     region,
		},
		defaultOpenTime:  cfg.DefaultOpenTime,
		defaultCloseTime: cfg.DefaultCloseTime,
	}, nil
}

func (s *Service) Region() Region {
	return s.region
}

// Actor identifies who is performing a write.
type Actor struct {
	UserID  int64
	IsAdmin bool
}

type CreateBookingParams struct {
	Actor      Actor
	FacilityID int64
	// CourtID 0 means "any available court" of the facility.
	CourtID      int64
	StartTime    time.Time
	EndTime      time.Time
	EquipmentIDs []int64
}

// CreateBooking validates the request against the ledger and the limit
// policy, then inserts a confirmed booking. The limit check runs before the
// commit-time overlap check, so a request that is both over limit and
// conflicting reports the limit error.
func (s *Service) CreateBooking(ctx context.Context, p CreateBookingParams) (db.Booking, error) {
	if p.Actor.UserID <= 0 {
		return db.Booking{}, ErrUnauthorized
	}

	start := p.StartTime.UTC().Truncate(time.Minute)
	end := p.EndTime.UTC().Truncate(time.Minute)
	if !end.After(start) {
		return db.Booking{}, fmt.Errorf("%w: end must be after start", ErrInvalidInterval)
	}

	facility, err := s.store.Queries.GetFacilityByID(ctx, p.FacilityID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return db.Booking{}, ErrFacilityNotFound
		}
		return db.Booking{}, fmt.Errorf("load facility: %w", err)
	}
	if !facility.IsActive {
		return db.Booking{}, ErrFacilityNotFound
	}

	candidates, err := s.resolveCourts(ctx, facility.ID, p.CourtID)
	if err != nil {
		return db.Booking{}, err
	}

	equipmentIDs := dedupeIDs(p.EquipmentIDs)

	var created db.Booking
	err = s.store.RunInTx(ctx, func(txdb *db.DB) error {
		qtx := txdb.Queries

		if err := s.policy.Check(ctx, qtx, p.Actor.UserID, start); err != nil {
			return err
		}

		courtID, err := firstFreeCourt(ctx, qtx, candidates, start, end)
		if err != nil {
			return err
		}

		created, err = qtx.CreateBooking(ctx, db.CreateBookingParams{
			UserID:     p.Actor.UserID,
			FacilityID: facility.ID,
			CourtID:    courtID,
			StartTime:  start,
			EndTime:    end,
			Status:     StatusConfirmed,
		})
		if err != nil {
			return fmt.Errorf("insert booking: %w", err)
		}

		if len(equipmentIDs) > 0 {
			if err := createEquipmentRequest(ctx, qtx, facility.ID, created.ID, equipmentIDs); err != nil {
				return err
			}
		}

		return enqueueEvent(ctx, qtx, EventCreated, created)
	})
	if err != nil {
		return db.Booking{}, err
	}

	log.Ctx(ctx).Info().
		Int64("booking_id", created.ID).
		Int64("court_id", created.CourtID).
		Time("start_time", created.StartTime).
		Msg("Booking created")
	return created, nil
}

// CancelBooking marks a booking cancelled. Only the owner or an admin may
// cancel; the row itself is kept.
func (s *Service) CancelBooking(ctx context.Context, actor Actor, bookingID int64) (db.Booking, error) {
	if actor.UserID <= 0 {
		return db.Booking{}, ErrUnauthorized
	}

	var cancelled db.Booking
	err := s.store.RunInTx(ctx, func(txdb *db.DB) error {
		qtx := txdb.Queries

		existing, err := qtx.GetBookingByID(ctx, bookingID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrBookingNotFound
			}
			return fmt.Errorf("load booking: %w", err)
		}
		if existing.UserID != actor.UserID && !actor.IsAdmin {
			return ErrUnauthorized
		}
		if existing.Status != StatusConfirmed && existing.Status != StatusRescheduled {
			return fmt.Errorf("%w: status is %s", ErrBookingNotActive, existing.Status)
		}

		cancelled, err = qtx.UpdateBookingStatus(ctx, db.UpdateBookingStatusParams{
			ID:     bookingID,
			Status: StatusCancelled,
		})
		if err != nil {
			return fmt.Errorf("cancel booking: %w", err)
		}

		return enqueueEvent(ctx, qtx, EventCancelled, cancelled)
	})
	if err != nil {
		return db.Booking{}, err
	}

	log.Ctx(ctx).Info().Int64("booking_id", cancelled.ID).Msg("Booking cancelled")
	return cancelled, nil
}

// RescheduleBooking shifts an active booking to a new interval on the same
// court, re-checking the ledger with the booking's own row excluded. Quotas
// are not re-applied: the booking already counts toward them.
func (s *Service) RescheduleBooking(ctx context.Context, actor Actor, bookingID int64, newStart, newEnd time.Time) (db.Booking, error) {
	if actor.UserID <= 0 {
		return db.Booking{}, ErrUnauthorized
	}

	start := newStart.UTC().Truncate(time.Minute)
	end := newEnd.UTC().Truncate(time.Minute)
	if !end.After(start) {
		return db.Booking{}, fmt.Errorf("%w: end must be after start", ErrInvalidInterval)
	}

	var shifted db.Booking
	err := s.store.RunInTx(ctx, func(txdb *db.DB) error {
		qtx := txdb.Queries

		existing, err := qtx.GetBookingByID(ctx, bookingID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrBookingNotFound
			}
			return fmt.Errorf("load booking: %w", err)
		}
		if existing.UserID != actor.UserID && !actor.IsAdmin {
			return ErrUnauthorized
		}
		if existing.Status != StatusConfirmed && existing.Status != StatusRescheduled {
			return fmt.Errorf("%w: status is %s", ErrBookingNotActive, existing.Status)
		}

		overlaps, err := qtx.CountActiveOverlaps(ctx, db.CountActiveOverlapsParams{
			CourtID:          existing.CourtID,
			StartTime:        start,
			EndTime:          end,
			ExcludeBookingID: existing.ID,
		})
		if err != nil {
			return fmt.Errorf("overlap check: %w", err)
		}
		if overlaps > 0 {
			return ErrNoCourtAvailable
		}

		shifted, err = qtx.ShiftBooking(ctx, db.ShiftBookingParams{
			ID:        bookingID,
			StartTime: start,
			EndTime:   end,
		})
		if err != nil {
			return fmt.Errorf("reschedule booking: %w", err)
		}

		return enqueueEvent(ctx, qtx, EventRescheduled, shifted)
	})
	if err != nil {
		return db.Booking{}, err
	}

	log.Ctx(ctx).Info().
		Int64("booking_id", shifted.ID).
		Time("start_time", shifted.StartTime).
		Msg("Booking rescheduled")
	return shifted, nil
}

// CourtAvailability is one court's free hourly start times for a date.
type CourtAvailability struct {
	CourtID   int64
	CourtName string
	FreeHours []string
}

// FacilityAvailability computes free start times per active court of a
// facility for the given date and duration. Facility hours fall back to the
// configured defaults when unset.
func (s *Service) FacilityAvailability(ctx context.Context, facilityID int64, date time.Time, duration time.Duration, now time.Time) ([]CourtAvailability, error) {
	facility, err := s.store.Queries.GetFacilityByID(ctx, facilityID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFacilityNotFound
		}
		return nil, fmt.Errorf("load facility: %w", err)
	}
	if !facility.IsActive {
		return nil, ErrFacilityNotFound
	}

	openTime := s.defaultOpenTime
	if facility.OpenTime.Valid {
		openTime = facility.OpenTime.String
	}
	closeTime := s.defaultCloseTime
	if facility.CloseTime.Valid {
		closeTime = facility.CloseTime.String
	}

	courts, err := s.store.Queries.ListActiveCourts(ctx, facilityID)
	if err != nil {
		return nil, fmt.Errorf("list courts: %w", err)
	}

	dayStart, dayEnd := s.region.DayWindow(date)

	availability := make([]CourtAvailability, 0, len(courts))
	for _, court := range courts {
		rows, err := s.store.Queries.ListActiveBookingsForCourt(ctx, db.ListActiveBookingsForCourtParams{
			CourtID:   court.ID,
			StartTime: dayStart.UTC(),
			EndTime:   dayEnd.UTC(),
		})
		if err != nil {
			return nil, fmt.Errorf("list bookings for court %d: %w", court.ID, err)
		}

		intervals := make([]Interval, 0, len(rows))
		for _, row := range rows {
			intervals = append(intervals, Interval{Start: row.StartTime, End: row.EndTime})
		}

		free, err := FreeHours(s.region, AvailabilityQuery{
			OpenTime:  openTime,
			CloseTime: closeTime,
			Date:      date,
			Bookings:  intervals,
			Now:       now,
			Duration:  duration,
		})
		if err != nil {
			return nil, err
		}

		availability = append(availability, CourtAvailability{
			CourtID:   court.ID,
			CourtName: court.Name,
			FreeHours: free,
		})
	}

	return availability, nil
}

// resolveCourts returns the candidate courts for a booking in scan order. A
// specific court must be active and belong to the facility.
func (s *Service) resolveCourts(ctx context.Context, facilityID, courtID int64) ([]int64, error) {
	if courtID > 0 {
		court, err := s.store.Queries.GetCourtByID(ctx, courtID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, ErrInvalidCourt
			}
			return nil, fmt.Errorf("load court: %w", err)
		}
		if !court.IsActive || court.FacilityID != facilityID {
			return nil, ErrInvalidCourt
		}
		return []int64{court.ID}, nil
	}

	courts, err := s.store.Queries.ListActiveCourts(ctx, facilityID)
	if err != nil {
		return nil, fmt.Errorf("list active courts: %w", err)
	}
	if len(courts) == 0 {
		return nil, ErrNoCourtAvailable
	}
	ids := make([]int64, 0, len(courts))
	for _, court := range courts {
		ids = append(ids, court.ID)
	}
	return ids, nil
}

// firstFreeCourt re-checks each candidate against the ledger inside the
// write transaction and picks the first without an active overlap.
func firstFreeCourt(ctx context.Context, q *db.Queries, candidates []int64, start, end time.Time) (int64, error) {
	for _, courtID := range candidates {
		overlaps, err := q.CountActiveOverlaps(ctx, db.CountActiveOverlapsParams{
			CourtID:   courtID,
			StartTime: start,
			EndTime:   end,
		})
		if err != nil {
			return 0, fmt.Errorf("overlap check: %w", err)
		}
		if overlaps == 0 {
			return courtID, nil
		}
	}
	return 0, ErrNoCourtAvailable
}

// createEquipmentRequest records a pending request with one line item per
// equipment id, quantity 1 each. Stock is not checked here; approval is a
// separate path.
func createEquipmentRequest(ctx context.Context, q *db.Queries, facilityID, bookingID int64, equipmentIDs []int64) error {
	request, err := q.CreateEquipmentRequest(ctx, bookingID)
	if err != nil {
		return fmt.Errorf("create equipment request: %w", err)
	}
	for _, equipmentID := range equipmentIDs {
		item, err := q.GetEquipmentByID(ctx, equipmentID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("%w: equipment %d not found", ErrInvalidEquipment, equipmentID)
			}
			return fmt.Errorf("load equipment: %w", err)
		}
		if item.FacilityID != facilityID {
			return fmt.Errorf("%w: equipment %d belongs to another facility", ErrInvalidEquipment, equipmentID)
		}
		if err := q.AddEquipmentRequestItem(ctx, db.AddEquipmentRequestItemParams{
			RequestID:   request.ID,
			EquipmentID: equipmentID,
			Quantity:    1,
		}); err != nil {
			return fmt.Errorf("add equipment request item: %w", err)
		}
	}
	return nil
}

// enqueueEvent writes an outbox row in the same transaction as the booking
// change. Delivery itself happens in the dispatcher sweep after commit, so a
// slow or failing transport can never roll back a booking.
func enqueueEvent(ctx context.Context, q *db.Queries, eventType string, b db.Booking) error {
	if err := q.InsertBookingEvent(ctx, db.InsertBookingEventParams{
		ID:         uuid.New().String(),
		BookingID:  b.ID,
		EventType:  eventType,
		FacilityID: b.FacilityID,
		CourtID:    b.CourtID,
		StartTime:  b.StartTime,
		EndTime:    b.EndTime,
	}); err != nil {
		return fmt.Errorf("enqueue booking event: %w", err)
	}
	return nil
}

func dedupeIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	deduped := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		deduped = append(deduped, id)
	}
	return deduped
}
