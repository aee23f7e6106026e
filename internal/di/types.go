/**
 * Package di provides dependency injection type definitions.
 *
 * The Container holds every long-lived dependency. It is created by Wire()
 * and handed to the HTTP server and the one-shot CLI path.
 */
package di

import (
	"github.com/aristath/healthtrends/internal/clientdata"
	"github.com/aristath/healthtrends/internal/database"
	"github.com/aristath/healthtrends/internal/delivery"
	"github.com/aristath/healthtrends/internal/events"
	"github.com/aristath/healthtrends/internal/modules/trends"
	"github.com/aristath/healthtrends/internal/scheduler"
	"github.com/aristath/healthtrends/internal/services"
)

/**
 * Container holds all dependencies for the application.
 *
 * Architecture:
 * - Databases: client_data (Garmin response cache)
 * - Sources: Garmin API client or offline export reader
 * - Delivery: console, file, Slack webhook and S3 archive transports
 * - Services: report pipeline
 * - Scheduler: cron jobs (report, cache cleanup, WAL checkpoint)
 */
type Container struct {
	// Databases
	ClientDataDB *database.DB

	// Repositories
	ClientDataRepo *clientdata.Repository

	// Sources
	Source services.SourceProvider

	// Delivery
	Dispatcher *delivery.Dispatcher

	// Services
	EventBus      *events.Bus
	Registry      *trends.Registry
	Generator     *trends.Generator
	ReportService *services.ReportService

	// Jobs
	Scheduler *scheduler.Scheduler
	Jobs      *JobInstances
}

// JobInstances holds references to registered jobs so they can be run on demand
type JobInstances struct {
	Report        scheduler.Job
	CacheCleanup  scheduler.Job
	WALCheckpoint scheduler.Job
}

// Close releases resources held by the container
func (c *Container) Close() error {
	if c.Scheduler != nil {
		c.Scheduler.Stop()
	}
	if c.EventBus != nil {
		c.EventBus.Close()
	}
	if c.ClientDataDB != nil {
		return c.ClientDataDB.Close()
	}
	return nil
}
