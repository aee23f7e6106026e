// Package config provides configuration management functionality.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultGarminBaseURL   = "https://connectapi.garmin.com"
	DefaultReportSchedule  = "0 0 7 * * *" // 07:00:00 every day
	DefaultArchiveS3Region = "us-east-1"
)

// Config holds application configuration
type Config struct {
	DataDir  string // Base directory for the cache database (always absolute)
	LogLevel string
	Port     int
	DevMode  bool
	Garmin   *GarminConfig
	Report   *ReportConfig
	Archive  *ArchiveConfig
}

// GarminConfig selects where daily records come from.
// Either Token+DisplayName (API) or ExportDir (offline JSON export) must be set.
type GarminConfig struct {
	BaseURL          string
	Token            string
	DisplayName      string
	HistoryDays      int // How many calendar days back to fetch
	FetchConcurrency int
	ExportDir        string
	RequestTimeout   time.Duration
}

// ReportConfig controls generation and delivery of the trend report
type ReportConfig struct {
	WindowDays     int
	RequireSummary bool   // Legacy merge: drop days without a daily summary
	Schedule       string // Six-field cron expression (with seconds)
	SlackHook      string
	OutputFile     string
	Console        bool
}

// ArchiveConfig holds S3-compatible archive settings. Empty Bucket disables archiving.
type ArchiveConfig struct {
	Bucket    string
	Prefix    string
	Region    string
	Endpoint  string // Custom endpoint for R2/MinIO; empty uses AWS
	AccessKey string
	SecretKey string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("HEALTHTRENDS_DATA_DIR", "data")

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:  absDataDir,
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Port:     getEnvAsInt("PORT", 8080),
		DevMode:  getEnvAsBool("DEV_MODE", false),
		Garmin: &GarminConfig{
			BaseURL:          getEnv("GARMIN_BASE_URL", DefaultGarminBaseURL),
			Token:            getEnv("GARMIN_TOKEN", ""),
			DisplayName:      getEnv("GARMIN_DISPLAY_NAME", ""),
			HistoryDays:      getEnvAsInt("GARMIN_HISTORY_DAYS", 365),
			FetchConcurrency: getEnvAsInt("GARMIN_FETCH_CONCURRENCY", 4),
			ExportDir:        getEnv("GARMIN_EXPORT_DIR", ""),
			RequestTimeout:   time.Duration(getEnvAsInt("GARMIN_REQUEST_TIMEOUT_SECONDS", 30)) * time.Second,
		},
		Report: &ReportConfig{
			WindowDays:     getEnvAsInt("REPORT_WINDOW_DAYS", 30),
			RequireSummary: getEnvAsBool("REPORT_REQUIRE_SUMMARY", false),
			Schedule:       getEnv("REPORT_SCHEDULE", DefaultReportSchedule),
			SlackHook:      getEnv("SLACK_HOOK", ""),
			OutputFile:     getEnv("REPORT_OUTPUT_FILE", ""),
			Console:        getEnvAsBool("REPORT_CONSOLE", false),
		},
		Archive: &ArchiveConfig{
			Bucket:    getEnv("ARCHIVE_S3_BUCKET", ""),
			Prefix:    getEnv("ARCHIVE_S3_PREFIX", "health-trends"),
			Region:    getEnv("ARCHIVE_S3_REGION", DefaultArchiveS3Region),
			Endpoint:  getEnv("ARCHIVE_S3_ENDPOINT", ""),
			AccessKey: getEnv("ARCHIVE_S3_ACCESS_KEY", ""),
			SecretKey: getEnv("ARCHIVE_S3_SECRET_KEY", ""),
		},
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.Report.WindowDays <= 0 {
		return fmt.Errorf("REPORT_WINDOW_DAYS must be positive, got %d", c.Report.WindowDays)
	}
	if c.Garmin.HistoryDays <= 0 {
		return fmt.Errorf("GARMIN_HISTORY_DAYS must be positive, got %d", c.Garmin.HistoryDays)
	}
	if c.Garmin.FetchConcurrency <= 0 {
		return fmt.Errorf("GARMIN_FETCH_CONCURRENCY must be positive, got %d", c.Garmin.FetchConcurrency)
	}
	if !c.Garmin.UsesAPI() && c.Garmin.ExportDir == "" {
		return errors.New("either GARMIN_TOKEN and GARMIN_DISPLAY_NAME or GARMIN_EXPORT_DIR is required")
	}
	if c.Archive.Enabled() && (c.Archive.AccessKey == "") != (c.Archive.SecretKey == "") {
		return errors.New("ARCHIVE_S3_ACCESS_KEY and ARCHIVE_S3_SECRET_KEY must be set together")
	}
	return nil
}

// UsesAPI reports whether live API credentials are configured.
// An export directory, when also set, takes precedence.
func (g *GarminConfig) UsesAPI() bool {
	return g.Token != "" && g.DisplayName != ""
}

func (a *ArchiveConfig) Enabled() bool {
	return a.Bucket != ""
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
