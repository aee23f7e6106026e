package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/healthtrends/internal/modules/trends"
	"github.com/aristath/healthtrends/internal/services"
)

// ReportRunner runs one fetch-generate-deliver cycle
type ReportRunner interface {
	Run(ctx context.Context) (*trends.Report, error)
}

// ReportJob runs the daily trend report
type ReportJob struct {
	runner  ReportRunner
	timeout time.Duration
	log     zerolog.Logger
}

// NewReportJob creates a report job. Each run is bounded by timeout.
func NewReportJob(runner ReportRunner, timeout time.Duration, log zerolog.Logger) *ReportJob {
	return &ReportJob{
		runner:  runner,
		timeout: timeout,
		log:     log.With().Str("job", "trend_report").Logger(),
	}
}

func (j *ReportJob) Name() string {
	return "trend_report"
}

// Run executes the report. Insufficient data is not a job failure: the
// not-enough-data report has already been delivered.
func (j *ReportJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	_, err := j.runner.Run(ctx)
	if errors.Is(err, trends.ErrInsufficientData) && !errors.Is(err, services.ErrDeliveryFailed) {
		j.log.Warn().Msg("Not enough data for a comparative report")
		return nil
	}
	return err
}
