package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aristath/healthtrends/internal/database"
	"github.com/aristath/healthtrends/internal/scheduler"
	"github.com/aristath/healthtrends/internal/services"
)

// SystemHandlers serves process and cache status
type SystemHandlers struct {
	log         zerolog.Logger
	startupTime time.Time
	reports     ReportService
	jobs        JobLister
	cacheDB     *database.DB
	cacheRepo   CacheCounter
}

// SystemStatusResponse is the body of GET /api/system/status
type SystemStatusResponse struct {
	Status      string              `json:"status"`
	UptimeHours float64             `json:"uptime_hours"`
	CPUPercent  float64             `json:"cpu_percent"`
	RAMPercent  float64             `json:"ram_percent"`
	WindowDays  int                 `json:"window_days,omitempty"`
	CacheRows   map[string]int64    `json:"cache_rows,omitempty"`
	Jobs        []scheduler.JobInfo `json:"jobs,omitempty"`
	LastRun     *services.RunStatus `json:"last_run,omitempty"`
}

// NewSystemHandlers creates a new system handlers instance. All collaborators are optional.
func NewSystemHandlers(
	log zerolog.Logger,
	reports ReportService,
	jobs JobLister,
	cacheDB *database.DB,
	cacheRepo CacheCounter,
) *SystemHandlers {
	return &SystemHandlers{
		log:         log.With().Str("component", "system_handlers").Logger(),
		startupTime: time.Now(),
		reports:     reports,
		jobs:        jobs,
		cacheDB:     cacheDB,
		cacheRepo:   cacheRepo,
	}
}

// HandleSystemStatus handles GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	cpuPercent, ramPercent := h.getSystemStats()

	resp := SystemStatusResponse{
		Status:      "healthy",
		UptimeHours: time.Since(h.startupTime).Hours(),
		CPUPercent:  cpuPercent,
		RAMPercent:  ramPercent,
	}

	if h.reports != nil {
		resp.WindowDays = h.reports.WindowDays()
		resp.LastRun = h.reports.LastRun()
		if resp.LastRun != nil && resp.LastRun.Error != "" {
			resp.Status = "degraded"
		}
	}
	if h.jobs != nil {
		resp.Jobs = h.jobs.Jobs()
	}
	if h.cacheRepo != nil {
		counts, err := h.cacheRepo.Count()
		if err != nil {
			h.log.Warn().Err(err).Msg("Failed to count cached rows")
			resp.Status = "degraded"
		}
		resp.CacheRows = counts
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// getSystemStats samples CPU over 100ms so the endpoint stays responsive
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil || len(cpuPercent) == 0 {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return cpuPercent[0], 0
	}

	return cpuPercent[0], memStat.UsedPercent
}
