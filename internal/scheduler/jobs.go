package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/courtsidehq/courtside/internal/config"
	"github.com/courtsidehq/courtside/internal/db"
	"github.com/courtsidehq/courtside/internal/notify"
	"github.com/courtsidehq/courtside/internal/weather"
)

const (
	jobTimeout         = 2 * time.Minute
	completionInterval = 15 * time.Minute
)

// RegisterJobs wires the recurring sweeps. A nil dispatcher or sweeper skips
// the matching job so disabled subsystems cost nothing.
func RegisterJobs(cfg *config.Config, store *db.DB, dispatcher *notify.Dispatcher, sweeper *weather.Sweeper) error {
	if dispatcher != nil {
		if _, err := AddIntervalJob("notification-sweep", cfg.Notifications.SweepInterval, func() {
			ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
			defer cancel()
			if _, err := dispatcher.Sweep(ctx); err != nil {
				log.Error().Err(err).Msg("Notification sweep failed")
			}
		}); err != nil {
			return err
		}
	}

	if sweeper != nil {
		if _, err := AddCronJob("weather-sweep", cfg.Weather.SweepCron, func() {
			ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
			defer cancel()
			if err := sweeper.Sweep(ctx); err != nil {
				log.Error().Err(err).Msg("Weather sweep failed")
			}
		}); err != nil {
			return err
		}
	}

	// Finished bookings roll from confirmed/rescheduled to completed so
	// they stop counting as active overlaps.
	if _, err := AddIntervalJob("booking-completion", completionInterval, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		completed, err := store.Queries.CompleteExpiredBookings(ctx, time.Now().UTC())
		if err != nil {
			log.Error().Err(err).Msg("Booking completion sweep failed")
			return
		}
		if completed > 0 {
			log.Info().Int64("completed", completed).Msg("Bookings marked completed")
		}
	}); err != nil {
		return err
	}

	return nil
}
