package di

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/healthtrends/internal/clientdata"
	"github.com/aristath/healthtrends/internal/config"
	"github.com/aristath/healthtrends/internal/scheduler"
)

const (
	reportJobTimeout      = 10 * time.Minute
	cacheCleanupSchedule  = "0 30 3 * * *"   // 03:30:00 daily
	walCheckpointSchedule = "0 */30 * * * *" // every 30 minutes
)

// RegisterJobs creates the scheduler and registers all cron jobs. The scheduler is not started.
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) (*JobInstances, error) {
	sched := scheduler.New(container.EventBus, log)

	jobs := &JobInstances{
		Report:        scheduler.NewReportJob(container.ReportService, reportJobTimeout, log),
		CacheCleanup:  clientdata.NewCleanupJob(container.ClientDataRepo, log),
		WALCheckpoint: scheduler.NewWALCheckpointJob(log, container.ClientDataDB),
	}

	registrations := []struct {
		schedule string
		job      scheduler.Job
	}{
		{cfg.Report.Schedule, jobs.Report},
		{cacheCleanupSchedule, jobs.CacheCleanup},
		{walCheckpointSchedule, jobs.WALCheckpoint},
	}
	for _, reg := range registrations {
		if err := sched.AddJob(reg.schedule, reg.job); err != nil {
			return nil, fmt.Errorf("failed to register job %s: %w", reg.job.Name(), err)
		}
	}

	container.Scheduler = sched
	container.Jobs = jobs

	log.Info().Int("jobs", len(registrations)).Msg("Jobs registered")

	return jobs, nil
}
