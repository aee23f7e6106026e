package garmin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/aristath/healthtrends/internal/modules/trends"
)

// exportFiles maps each source kind to its file inside an export directory.
var exportFiles = map[trends.SourceKind]string{
	trends.SourceSummary: "daily_summary.json",
	trends.SourceSleep:   "sleep.json",
	trends.SourceHRV:     "hrv.json",
}

// ExportSource reads previously exported Garmin records from a directory.
// Each file holds a JSON array of records in the API's own shape.
type ExportSource struct {
	dir string
	log zerolog.Logger
}

// NewExportSource creates a source reading from dir
func NewExportSource(dir string, log zerolog.Logger) *ExportSource {
	return &ExportSource{
		dir: dir,
		log: log.With().Str("client", "garmin_export").Str("dir", dir).Logger(),
	}
}

// FetchSources loads every export file. The export already spans the history the user
// chose when exporting, so days is not applied. Missing files yield no records of that
// kind; individual records that fail to decode are skipped.
func (s *ExportSource) FetchSources(ctx context.Context, _ int) (trends.Sources, error) {
	if info, err := os.Stat(s.dir); err != nil {
		return trends.Sources{}, fmt.Errorf("export directory: %w", err)
	} else if !info.IsDir() {
		return trends.Sources{}, fmt.Errorf("export path is not a directory: %s", s.dir)
	}

	raw := make(map[trends.SourceKind][]json.RawMessage, len(exportFiles))
	for _, kind := range trends.AllSources {
		if err := ctx.Err(); err != nil {
			return trends.Sources{}, err
		}

		path := filepath.Join(s.dir, exportFiles[kind])
		data, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			s.log.Warn().Str("file", exportFiles[kind]).Msg("Export file missing, source skipped")
			continue
		}
		if err != nil {
			return trends.Sources{}, fmt.Errorf("failed to read %s: %w", path, err)
		}

		var records []json.RawMessage
		if err := json.Unmarshal(data, &records); err != nil {
			return trends.Sources{}, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		raw[kind] = records
	}

	src, skipped := trends.DecodeSources(raw)
	for kind, n := range skipped {
		s.log.Warn().Str("source", string(kind)).Int("skipped", n).Msg("Skipped undecodable export records")
	}

	s.log.Info().
		Int("summaries", len(src.Summaries)).
		Int("sleep", len(src.Sleep)).
		Int("hrv", len(src.HRV)).
		Msg("Loaded Garmin export")

	return src, nil
}
