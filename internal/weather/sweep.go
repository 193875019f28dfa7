package weather

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/courtsidehq/courtside/internal/booking"
	"github.com/courtsidehq/courtside/internal/db"
)

// Sweeper checks tomorrow's forecast for every active outdoor facility and
// queues a weather alert event for each booking that would be rained out.
type Sweeper struct {
	store     *db.DB
	client    *Client
	region    booking.Region
	threshold float64
}

func NewSweeper(store *db.DB, client *Client, region booking.Region, threshold float64) *Sweeper {
	return &Sweeper{
		store:     store,
		client:    client,
		region:    region,
		threshold: threshold,
	}
}

// Sweep runs one forecast pass. Each facility gets at most one alert per
// date; a facility already alerted for tomorrow is skipped, so repeated
// sweeps do not duplicate notifications.
func (s *Sweeper) Sweep(ctx context.Context) error {
	logger := log.Ctx(ctx)

	tomorrowStart, tomorrowEnd := s.region.DayWindow(time.Now().AddDate(0, 0, 1))
	date := s.region.DateString(tomorrowStart)

	alerted := make(map[int64]bool)
	existing, err := s.store.Queries.ListWeatherAlertsForDate(ctx, date)
	if err != nil {
		return fmt.Errorf("list weather alerts: %w", err)
	}
	for _, alert := range existing {
		alerted[alert.FacilityID] = true
	}

	facilities, err := s.store.Queries.ListActiveOutdoorFacilities(ctx)
	if err != nil {
		return fmt.Errorf("list outdoor facilities: %w", err)
	}

	for _, facility := range facilities {
		if err := ctx.Err(); err != nil {
			return err
		}
		if alerted[facility.ID] {
			continue
		}

		probability, err := s.client.DailyRainProbability(ctx, facility.Latitude.Float64, facility.Longitude.Float64, date)
		if err != nil {
			logger.Warn().Err(err).Int64("facility_id", facility.ID).Msg("Forecast lookup failed")
			continue
		}
		if probability < s.threshold {
			continue
		}

		if err := s.alertFacility(ctx, facility, date, probability, tomorrowStart, tomorrowEnd); err != nil {
			logger.Error().Err(err).Int64("facility_id", facility.ID).Msg("Failed to record weather alert")
		}
	}

	return nil
}

func (s *Sweeper) alertFacility(ctx context.Context, facility db.Facility, date string, probability float64, dayStart, dayEnd time.Time) error {
	message := fmt.Sprintf("Rain probability %d%% on %s", int(probability), date)

	return s.store.RunInTx(ctx, func(txdb *db.DB) error {
		qtx := txdb.Queries

		if _, err := qtx.UpsertWeatherAlert(ctx, db.UpsertWeatherAlertParams{
			FacilityID:      facility.ID,
			AlertDate:       date,
			RainProbability: probability,
			Message:         message,
		}); err != nil {
			return fmt.Errorf("upsert weather alert: %w", err)
		}

		rows, err := qtx.ListActiveBookingsByFacilityBetween(ctx, db.ListActiveBookingsByFacilityBetweenParams{
			FacilityID: facility.ID,
			StartTime:  dayStart.UTC(),
			EndTime:    dayEnd.UTC(),
		})
		if err != nil {
			return fmt.Errorf("list bookings: %w", err)
		}

		for _, row := range rows {
			if err := qtx.InsertBookingEvent(ctx, db.InsertBookingEventParams{
				ID:         uuid.New().String(),
				BookingID:  row.ID,
				EventType:  booking.EventWeatherAlert,
				FacilityID: row.FacilityID,
				CourtID:    row.CourtID,
				StartTime:  row.StartTime,
				EndTime:    row.EndTime,
			}); err != nil {
				return fmt.Errorf("enqueue weather event: %w", err)
			}
		}

		log.Ctx(ctx).Info().
			Int64("facility_id", facility.ID).
			Str("date", date).
			Float64("rain_probability", probability).
			Int("bookings", len(rows)).
			Msg("Weather alert recorded")
		return nil
	})
}
