// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/courtsidehq/courtside/internal/api/auth"
	apibookings "github.com/courtsidehq/courtside/internal/api/bookings"
	apichat "github.com/courtsidehq/courtside/internal/api/chat"
	"github.com/courtsidehq/courtside/internal/api/equipment"
	"github.com/courtsidehq/courtside/internal/api/facilities"
	"github.com/courtsidehq/courtside/internal/booking"
	"github.com/courtsidehq/courtside/internal/chat"
	"github.com/courtsidehq/courtside/internal/cognito"
	"github.com/courtsidehq/courtside/internal/config"
	"github.com/courtsidehq/courtside/internal/db"
	"github.com/courtsidehq/courtside/internal/notify"
	"github.com/courtsidehq/courtside/internal/scheduler"
	"github.com/courtsidehq/courtside/internal/weather"
)

const shutdownTimeout = 30 * time.Second

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func setupLogger(environment string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

func main() {
	configPath := getEnv("CONFIG_PATH", "config/config.yaml")
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", configPath).Msg("Failed to load configuration")
	}

	setupLogger(cfg.App.Environment)

	store, err := db.NewFromConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer store.Close()

	service, err := booking.NewService(store, cfg.Booking)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create booking service")
	}

	var cognitoClient *cognito.Client
	if cfg.Cognito.PoolID != "" && cfg.Cognito.ClientID != "" {
		cognitoClient, err = cognito.NewClient(cfg.Cognito.PoolID, cfg.Cognito.ClientID)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create cognito client")
		}
	} else {
		log.Warn().Msg("Cognito not configured, email OTP login disabled")
	}

	var dispatcher *notify.Dispatcher
	if cfg.Notifications.Enabled {
		sender, err := notify.NewSESSender(cfg.Notifications)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create SES sender")
		}
		dispatcher = notify.NewDispatcher(store, sender, service.Region(), cfg.Notifications.BatchSize)
	} else {
		log.Warn().Msg("Notifications disabled, booking events will stay pending")
	}

	var sweeper *weather.Sweeper
	if cfg.Weather.Enabled {
		sweeper = weather.NewSweeper(store, weather.NewClient(cfg.Weather.BaseURL), service.Region(), cfg.Weather.RainThreshold)
	}

	auth.InitHandlers(store.Queries, cfg, cognitoClient)
	apibookings.InitHandlers(service, store.Queries)
	facilities.InitHandlers(store.Queries)
	equipment.InitHandlers(store.Queries)
	apichat.InitHandlers(chat.NewAssistant(store.Queries, cfg.Booking))

	if err := scheduler.Init(); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize scheduler")
	}
	if err := scheduler.RegisterJobs(cfg, store, dispatcher, sweeper); err != nil {
		log.Fatal().Err(err).Msg("Failed to register scheduler jobs")
	}
	if err := scheduler.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start scheduler")
	}

	server := newServer(cfg, cognitoClient != nil)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Int("port", cfg.App.Port).Str("environment", cfg.App.Environment).Msg("Starting server")
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		log.Info().Msg("Shutting down server")
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
		if err := scheduler.Stop(); err != nil {
			return fmt.Errorf("scheduler shutdown error: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server terminated with error")
		os.Exit(1)
	}
}
