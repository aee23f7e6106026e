package di

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/aristath/healthtrends/internal/clients/garmin"
	"github.com/aristath/healthtrends/internal/config"
	"github.com/aristath/healthtrends/internal/delivery"
	"github.com/aristath/healthtrends/internal/events"
	"github.com/aristath/healthtrends/internal/modules/trends"
	"github.com/aristath/healthtrends/internal/services"
)

// InitializeServices builds the record source, delivery transports and report pipeline
func InitializeServices(container *Container, cfg *config.Config, log zerolog.Logger) error {
	container.EventBus = events.NewBus(log)
	container.Source = newSource(container, cfg, log)

	transports, err := newTransports(cfg, log)
	if err != nil {
		return err
	}
	container.Dispatcher = delivery.NewDispatcher(log, transports...)

	container.Registry = trends.DefaultRegistry()
	container.Generator = trends.NewGenerator(
		trends.WithRegistry(container.Registry),
		trends.WithMergeOptions(trends.MergeOptions{RequirePrimary: cfg.Report.RequireSummary}),
	)

	container.ReportService = services.NewReportService(
		container.Source,
		container.Generator,
		container.Dispatcher,
		container.EventBus,
		services.ReportServiceConfig{
			HistoryDays: cfg.Garmin.HistoryDays,
			WindowDays:  cfg.Report.WindowDays,
		},
		log,
	)

	log.Info().
		Strs("transports", container.Dispatcher.Names()).
		Int("window_days", cfg.Report.WindowDays).
		Msg("Services initialized")

	return nil
}

// newSource prefers an offline export over the API when both are configured
func newSource(container *Container, cfg *config.Config, log zerolog.Logger) services.SourceProvider {
	if cfg.Garmin.ExportDir != "" {
		log.Info().Str("dir", cfg.Garmin.ExportDir).Msg("Reading Garmin records from export")
		return garmin.NewExportSource(cfg.Garmin.ExportDir, log)
	}

	return garmin.NewClient(garmin.Config{
		BaseURL:     cfg.Garmin.BaseURL,
		Token:       cfg.Garmin.Token,
		DisplayName: cfg.Garmin.DisplayName,
		Concurrency: cfg.Garmin.FetchConcurrency,
		Timeout:     cfg.Garmin.RequestTimeout,
	}, container.ClientDataRepo, log)
}

func newTransports(cfg *config.Config, log zerolog.Logger) ([]delivery.Transport, error) {
	var transports []delivery.Transport

	if cfg.Report.Console {
		transports = append(transports, delivery.NewConsole(os.Stdout))
	}
	if cfg.Report.OutputFile != "" {
		transports = append(transports, delivery.NewFile(cfg.Report.OutputFile))
	}
	if cfg.Report.SlackHook != "" {
		transports = append(transports, delivery.NewSlackWebhook(cfg.Report.SlackHook))
	}
	if cfg.Archive.Enabled() {
		archive, err := delivery.NewS3Archive(context.Background(), delivery.S3Config{
			Bucket:    cfg.Archive.Bucket,
			Prefix:    cfg.Archive.Prefix,
			Region:    cfg.Archive.Region,
			Endpoint:  cfg.Archive.Endpoint,
			AccessKey: cfg.Archive.AccessKey,
			SecretKey: cfg.Archive.SecretKey,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize S3 archive: %w", err)
		}
		transports = append(transports, archive)
	}

	if len(transports) == 0 {
		log.Warn().Msg("No delivery transports configured, falling back to console")
		transports = append(transports, delivery.NewConsole(os.Stdout))
	}

	return transports, nil
}
