package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/healthtrends/internal/events"
	"github.com/aristath/healthtrends/internal/modules/trends"
)

// ErrDeliveryFailed marks a run whose report was generated but not delivered everywhere.
var ErrDeliveryFailed = errors.New("report delivery failed")

// SourceProvider supplies the raw daily records for the last `days` days.
type SourceProvider interface {
	FetchSources(ctx context.Context, days int) (trends.Sources, error)
}

// ReportSender delivers a finished report.
type ReportSender interface {
	Send(ctx context.Context, report *trends.Report) error
	Names() []string
}

// ReportServiceConfig holds report run settings
type ReportServiceConfig struct {
	HistoryDays int
	WindowDays  int
}

// RunStatus describes the latest completed run
type RunStatus struct {
	StartedAt    time.Time     `json:"started_at"`
	Duration     time.Duration `json:"duration_ns"`
	TotalDays    int           `json:"total_days"`
	Insufficient bool          `json:"insufficient"`
	Error        string        `json:"error,omitempty"`
}

// ReportService fetches records, generates the trend report and delivers it
type ReportService struct {
	provider  SourceProvider
	generator *trends.Generator
	sender    ReportSender
	bus       *events.Bus
	cfg       ReportServiceConfig
	log       zerolog.Logger

	mu      sync.Mutex
	lastRun *RunStatus
}

// NewReportService creates a new report service. bus is optional.
func NewReportService(
	provider SourceProvider,
	generator *trends.Generator,
	sender ReportSender,
	bus *events.Bus,
	cfg ReportServiceConfig,
	log zerolog.Logger,
) *ReportService {
	if cfg.WindowDays <= 0 {
		cfg.WindowDays = trends.DefaultRecentWindow
	}
	if cfg.HistoryDays <= 0 {
		cfg.HistoryDays = 365
	}
	return &ReportService{
		provider:  provider,
		generator: generator,
		sender:    sender,
		bus:       bus,
		cfg:       cfg,
		log:       log.With().Str("service", "report").Logger(),
	}
}

// WindowDays returns the configured recent-window size
func (s *ReportService) WindowDays() int {
	return s.cfg.WindowDays
}

// Build fetches records and generates a report without delivering it.
// window <= 0 selects the configured window. An insufficient report is returned
// together with trends.ErrInsufficientData.
func (s *ReportService) Build(ctx context.Context, window int) (*trends.Report, error) {
	if window <= 0 {
		window = s.cfg.WindowDays
	}

	src, err := s.provider.FetchSources(ctx, s.cfg.HistoryDays)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sources: %w", err)
	}

	report, err := s.generator.Generate(src, window)
	if report != nil {
		s.logStats(report)
	}
	return report, err
}

// Run builds the report with the configured window and delivers it.
// When data is insufficient the "not enough data" report is still delivered and
// the returned error wraps trends.ErrInsufficientData.
func (s *ReportService) Run(ctx context.Context) (*trends.Report, error) {
	start := time.Now()
	s.log.Info().Int("window_days", s.cfg.WindowDays).Int("history_days", s.cfg.HistoryDays).Msg("Starting report run")

	report, err := s.run(ctx)

	status := RunStatus{StartedAt: start, Duration: time.Since(start)}
	if report != nil {
		status.TotalDays = report.TotalDays
		status.Insufficient = report.Insufficient
	}
	if err != nil {
		status.Error = err.Error()
		s.log.Error().Err(err).Dur("duration", status.Duration).Msg("Report run failed")
	} else {
		s.log.Info().Dur("duration", status.Duration).Msg("Report run completed")
	}

	s.mu.Lock()
	s.lastRun = &status
	s.mu.Unlock()

	return report, err
}

func (s *ReportService) run(ctx context.Context) (*trends.Report, error) {
	report, genErr := s.Build(ctx, s.cfg.WindowDays)
	if genErr != nil && !errors.Is(genErr, trends.ErrInsufficientData) {
		s.emitError(genErr)
		return nil, genErr
	}

	s.emit(report)

	sendErr := s.sender.Send(ctx, report)
	delivered := &events.ReportDeliveredData{Transports: s.sender.Names()}
	if sendErr != nil {
		delivered.Error = sendErr.Error()
	}
	if s.bus != nil {
		s.bus.Emit("report", delivered)
	}

	if sendErr != nil {
		return report, errors.Join(genErr, fmt.Errorf("%w: %w", ErrDeliveryFailed, sendErr))
	}
	return report, genErr
}

// LastRun returns the status of the latest Run, or nil before the first run
func (s *ReportService) LastRun() *RunStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastRun == nil {
		return nil
	}
	status := *s.lastRun
	return &status
}

func (s *ReportService) logStats(report *trends.Report) {
	for _, kind := range trends.AllSources {
		s.log.Debug().
			Str("source", string(kind)).
			Int("accepted", report.Stats.Accepted[kind]).
			Int("skipped", report.Stats.Skipped[kind]).
			Msg("Normalized records")
		if skipped := report.Stats.Skipped[kind]; skipped > 0 {
			s.log.Warn().Str("source", string(kind)).Int("skipped", skipped).Msg("Skipped malformed records")
		}
	}
	s.log.Info().
		Int("total_days", report.TotalDays).
		Int("recent_days", report.RecentDays).
		Int("baseline_days", report.BaselineDays).
		Bool("insufficient", report.Insufficient).
		Int("notable", len(report.Notable())).
		Msg("Generated trend report")
}

func (s *ReportService) emit(report *trends.Report) {
	if s.bus == nil {
		return
	}
	data := &events.ReportGeneratedData{
		TotalDays:    report.TotalDays,
		RecentDays:   report.RecentDays,
		BaselineDays: report.BaselineDays,
		Insufficient: report.Insufficient,
	}
	for _, c := range report.Notable() {
		data.Notable = append(data.Notable, string(c.Key))
	}
	s.bus.Emit("report", data)
}

func (s *ReportService) emitError(err error) {
	if s.bus != nil {
		s.bus.EmitError("report", err, nil)
	}
}
