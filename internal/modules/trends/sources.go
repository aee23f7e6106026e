package trends

import (
	"encoding/json"
)

// SourceKind names one upstream category of daily data.
type SourceKind string

const (
	SourceSummary SourceKind = "daily_summary"
	SourceSleep   SourceKind = "sleep"
	SourceHRV     SourceKind = "hrv"
)

// PrimarySource is the source whose absence makes a report impossible.
const PrimarySource = SourceSummary

// AllSources lists every supported source kind in merge order.
var AllSources = []SourceKind{SourceSummary, SourceSleep, SourceHRV}

// DailySummary is one day of the general activity summary.
// Pointer fields are nil when the upstream omitted them or sent null.
type DailySummary struct {
	CalendarDate       string   `json:"calendarDate" msgpack:"calendarDate"`
	AverageStressLevel *float64 `json:"averageStressLevel,omitempty" msgpack:"averageStressLevel"`
	MaxStressLevel     *float64 `json:"maxStressLevel,omitempty" msgpack:"maxStressLevel"`
	RestingHeartRate   *float64 `json:"restingHeartRate,omitempty" msgpack:"restingHeartRate"`
	TotalSteps         *float64 `json:"totalSteps,omitempty" msgpack:"totalSteps"`
	TotalKilocalories  *float64 `json:"totalKilocalories,omitempty" msgpack:"totalKilocalories"`
	AverageSpO2        *float64 `json:"averageSpo2,omitempty" msgpack:"averageSpo2"`
}

// SleepRecord is the sleep endpoint payload. The calendar date lives under DailySleep,
// not at the top level.
type SleepRecord struct {
	DailySleep *DailySleep `json:"dailySleepDTO,omitempty" msgpack:"dailySleepDTO"`
}

// DailySleep is the nested nightly sleep summary.
type DailySleep struct {
	CalendarDate     string       `json:"calendarDate" msgpack:"calendarDate"`
	SleepTimeSeconds *float64     `json:"sleepTimeSeconds,omitempty" msgpack:"sleepTimeSeconds"`
	SleepScores      *SleepScores `json:"sleepScores,omitempty" msgpack:"sleepScores"`
}

// SleepScores holds the per-night score breakdown; only Overall is consumed.
type SleepScores struct {
	Overall *ScoreValue `json:"overall,omitempty" msgpack:"overall"`
}

// ScoreValue is a single scored value with its qualitative label.
type ScoreValue struct {
	Value        *float64 `json:"value,omitempty" msgpack:"value"`
	QualifierKey string   `json:"qualifierKey,omitempty" msgpack:"qualifierKey"`
}

// HRVRecord is the HRV endpoint payload; the date lives under Summary.
type HRVRecord struct {
	Summary *HRVSummary `json:"hrvSummary,omitempty" msgpack:"hrvSummary"`
}

// HRVSummary is the nested nightly HRV summary.
type HRVSummary struct {
	CalendarDate string   `json:"calendarDate" msgpack:"calendarDate"`
	LastNightAvg *float64 `json:"lastNightAvg,omitempty" msgpack:"lastNightAvg"`
	WeeklyAvg    *float64 `json:"weeklyAvg,omitempty" msgpack:"weeklyAvg"`
	Status       string   `json:"status,omitempty" msgpack:"status"`
}

// Sources groups the already-fetched collections of every source kind.
// Collections need not be sorted.
type Sources struct {
	Summaries []DailySummary `json:"daily_summary"`
	Sleep     []SleepRecord  `json:"sleep"`
	HRV       []HRVRecord    `json:"hrv"`
}

// Len returns the total number of raw records across all sources.
func (s Sources) Len() int {
	return len(s.Summaries) + len(s.Sleep) + len(s.HRV)
}

// DecodeSources turns loosely-typed per-kind JSON collections into Sources.
// Records that fail to decode are skipped and counted per kind; unknown kinds are ignored.
func DecodeSources(raw map[SourceKind][]json.RawMessage) (Sources, map[SourceKind]int) {
	var src Sources
	skipped := make(map[SourceKind]int)

	for _, msg := range raw[SourceSummary] {
		var rec DailySummary
		if err := json.Unmarshal(msg, &rec); err != nil {
			skipped[SourceSummary]++
			continue
		}
		src.Summaries = append(src.Summaries, rec)
	}
	for _, msg := range raw[SourceSleep] {
		var rec SleepRecord
		if err := json.Unmarshal(msg, &rec); err != nil {
			skipped[SourceSleep]++
			continue
		}
		src.Sleep = append(src.Sleep, rec)
	}
	for _, msg := range raw[SourceHRV] {
		var rec HRVRecord
		if err := json.Unmarshal(msg, &rec); err != nil {
			skipped[SourceHRV]++
			continue
		}
		src.HRV = append(src.HRV, rec)
	}

	return src, skipped
}

// Float returns a pointer to v. Handy for building records in code and tests.
func Float(v float64) *float64 {
	return &v
}
