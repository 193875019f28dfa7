package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/courtsidehq/courtside/internal/booking"
	"github.com/courtsidehq/courtside/internal/db"
)

// Dispatcher drains the booking event outbox. Events are written in the same
// transaction as the booking change; the sweep delivers them after commit so
// a slow or failing transport can never roll back a booking.
type Dispatcher struct {
	store     *db.DB
	sender    Sender
	region    booking.Region
	batchSize int64
}

func NewDispatcher(store *db.DB, sender Sender, region booking.Region, batchSize int) *Dispatcher {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &Dispatcher{
		store:     store,
		sender:    sender,
		region:    region,
		batchSize: int64(batchSize),
	}
}

// Sweep delivers one batch of pending events and returns how many were
// dispatched. A failed send leaves its event pending for the next sweep;
// delivery is therefore at-least-once.
func (d *Dispatcher) Sweep(ctx context.Context) (int, error) {
	events, err := d.store.Queries.ListPendingBookingEvents(ctx, d.batchSize)
	if err != nil {
		return 0, fmt.Errorf("list pending events: %w", err)
	}

	dispatched := 0
	for _, event := range events {
		if err := ctx.Err(); err != nil {
			return dispatched, err
		}

		if err := d.dispatch(ctx, event); err != nil {
			log.Ctx(ctx).Warn().
				Err(err).
				Str("event_id", event.ID).
				Str("event_type", event.EventType).
				Msg("Failed to dispatch booking event")
			continue
		}

		if err := d.store.Queries.MarkBookingEventDispatched(ctx, event.ID, time.Now().UTC()); err != nil {
			return dispatched, fmt.Errorf("mark event dispatched: %w", err)
		}
		dispatched++
	}

	if dispatched > 0 {
		log.Ctx(ctx).Info().Int("dispatched", dispatched).Msg("Booking events dispatched")
	}
	return dispatched, nil
}

func (d *Dispatcher) dispatch(ctx context.Context, event db.BookingEvent) error {
	row, err := d.store.Queries.GetBookingByID(ctx, event.BookingID)
	if err != nil {
		return fmt.Errorf("load booking %d: %w", event.BookingID, err)
	}
	user, err := d.store.Queries.GetUserByID(ctx, row.UserID)
	if err != nil {
		return fmt.Errorf("load user %d: %w", row.UserID, err)
	}
	facility, err := d.store.Queries.GetFacilityByID(ctx, event.FacilityID)
	if err != nil {
		return fmt.Errorf("load facility %d: %w", event.FacilityID, err)
	}
	court, err := d.store.Queries.GetCourtByID(ctx, event.CourtID)
	if err != nil {
		return fmt.Errorf("load court %d: %w", event.CourtID, err)
	}

	date, timeRange := FormatDateTimeRange(event.StartTime, event.EndTime, d.region.Location())
	details := BookingDetails{
		FacilityName: facility.Name,
		CourtName:    court.Name,
		Date:         date,
		TimeRange:    timeRange,
	}

	var message Message
	switch event.EventType {
	case booking.EventCreated:
		message = BuildBookingConfirmation(details)
	case booking.EventCancelled:
		message = BuildBookingCancellation(details)
	case booking.EventRescheduled:
		message = BuildBookingReschedule(details)
	case booking.EventWeatherAlert:
		alert := WeatherAlertDetails{
			FacilityName: facility.Name,
			Date:         date,
			TimeRange:    timeRange,
		}
		if alerts, err := d.store.Queries.ListWeatherAlertsForDate(ctx, d.region.DateString(event.StartTime)); err == nil {
			for _, a := range alerts {
				if a.FacilityID == facility.ID {
					alert.RainProbability = a.RainProbability
				}
			}
		}
		message = BuildWeatherAlert(alert)
	default:
		return fmt.Errorf("unknown event type %q", event.EventType)
	}

	return d.sender.Send(ctx, user.Email, message.Subject, message.Body)
}
