// Package main is the entry point for healthtrends, a daily health trend reporter.
// It compares the most recent window of Garmin daily records against the all-time
// baseline and delivers the report on a cron schedule, on demand over HTTP, or once
// from the command line with -once.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/healthtrends/internal/config"
	"github.com/aristath/healthtrends/internal/di"
	"github.com/aristath/healthtrends/internal/modules/trends"
	"github.com/aristath/healthtrends/internal/server"
	"github.com/aristath/healthtrends/internal/services"
	"github.com/aristath/healthtrends/pkg/logger"
)

// oneShotTimeout bounds a -once run, fetch and delivery included
const oneShotTimeout = 10 * time.Minute

// main is the application entry point:
// 1. Loads configuration from environment variables (.env supported)
// 2. Initializes logging
// 3. Wires dependencies (cache database, record source, transports, report service, jobs)
// 4. With -once, runs the report pipeline a single time and exits
// 5. Otherwise starts the HTTP server and the scheduler, then waits for a shutdown signal
func main() {
	once := flag.Bool("once", false, "generate and deliver one report, then exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		// Config failed, so the level is unknown; log at info
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Bool("once", *once).Msg("Starting healthtrends")

	container, err := di.Wire(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}

	if *once {
		code := runOnce(container, log)
		container.Close()
		os.Exit(code)
	}
	defer container.Close()

	srv := server.New(server.Config{
		Log:       log,
		Port:      cfg.Port,
		DevMode:   cfg.DevMode,
		Reports:   container.ReportService,
		Registry:  container.Registry,
		EventBus:  container.EventBus,
		Jobs:      container.Scheduler,
		CacheDB:   container.ClientDataDB,
		CacheRepo: container.ClientDataRepo,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	container.Scheduler.Start()
	log.Info().Int("port", cfg.Port).Str("report_schedule", cfg.Report.Schedule).Msg("Server started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// In-flight requests get 10 seconds; the scheduler then waits for running jobs in Close
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}

// runOnce runs the pipeline a single time and returns the process exit code.
// Insufficient data is reported but is not a failure unless delivery also failed.
func runOnce(container *di.Container, log zerolog.Logger) int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, oneShotTimeout)
	defer cancelTimeout()

	report, err := container.ReportService.Run(ctx)
	switch {
	case err == nil:
		log.Info().Int("notable", len(report.Notable())).Msg("Report delivered")
		return 0
	case errors.Is(err, trends.ErrInsufficientData) && !errors.Is(err, services.ErrDeliveryFailed):
		log.Warn().Msg("Not enough data for a comparison; notice delivered")
		return 0
	default:
		log.Error().Err(err).Msg("Report run failed")
		return 1
	}
}
