package trends

import (
	"errors"
	"fmt"
)

// MetricKey identifies a metric across windows and reports.
type MetricKey string

const (
	MetricAvgStress  MetricKey = "avg_stress"
	MetricHRV        MetricKey = "hrv"
	MetricSleepScore MetricKey = "sleep_score"
	MetricRestingHR  MetricKey = "resting_hr"
	MetricSteps      MetricKey = "steps"
	MetricCalories   MetricKey = "calories"
	MetricSpO2       MetricKey = "spo2"
	MetricSleepHours MetricKey = "sleep_hours"
)

// Polarity says which direction of change is an improvement.
type Polarity string

const (
	PolarityNeutral        Polarity = "neutral"
	PolarityHigherIsBetter Polarity = "higher_is_better"
	PolarityLowerIsBetter  Polarity = "lower_is_better"
)

// Extractor pulls a metric value out of a merged day. ok is false when the value is absent.
type Extractor func(DayRecord) (value float64, ok bool)

// Validity decides whether a present value is a genuine reading.
type Validity func(float64) bool

// AnyValue accepts every present value, zero included.
func AnyValue(float64) bool { return true }

// Positive rejects zero and negatives; use it where 0 means "no data".
func Positive(v float64) bool { return v > 0 }

// NonNegative accepts zero as a real reading but rejects negative sentinels.
func NonNegative(v float64) bool { return v >= 0 }

// ReadingState is the tri-state outcome of reading a metric from a day.
type ReadingState int

const (
	ReadingAbsent ReadingState = iota
	ReadingInvalid
	ReadingValid
)

func (s ReadingState) String() string {
	switch s {
	case ReadingValid:
		return "valid"
	case ReadingInvalid:
		return "invalid"
	default:
		return "absent"
	}
}

// MetricDefinition declares one metric: how to read it, how to show it, and which
// values count.
type MetricDefinition struct {
	Key      MetricKey  `json:"key"`
	Name     string     `json:"name"`
	Icon     string     `json:"icon"`
	Format   string     `json:"format"` // fmt verb applied to the average, e.g. "%.1f"
	Unit     string     `json:"unit,omitempty"`
	Source   SourceKind `json:"source"`
	Polarity Polarity   `json:"polarity"`
	Extract  Extractor  `json:"-"`
	Valid    Validity   `json:"-"`
}

// Read classifies the metric's value for day.
func (m MetricDefinition) Read(day DayRecord) (float64, ReadingState) {
	v, ok := m.Extract(day)
	if !ok {
		return 0, ReadingAbsent
	}
	if !m.Valid(v) {
		return v, ReadingInvalid
	}
	return v, ReadingValid
}

// FormatValue renders v with the metric's numeric format.
func (m MetricDefinition) FormatValue(v float64) string {
	return fmt.Sprintf(m.Format, v)
}

// Registry is an ordered, immutable set of metric definitions.
type Registry struct {
	defs  []MetricDefinition
	index map[MetricKey]int
}

// NewRegistry validates defs and returns a registry preserving their order.
// Every definition must name its extractor and its validity rule explicitly.
func NewRegistry(defs ...MetricDefinition) (*Registry, error) {
	if len(defs) == 0 {
		return nil, errors.New("registry needs at least one metric")
	}

	r := &Registry{
		defs:  make([]MetricDefinition, 0, len(defs)),
		index: make(map[MetricKey]int, len(defs)),
	}
	for _, d := range defs {
		if d.Key == "" {
			return nil, errors.New("metric definition without key")
		}
		if _, dup := r.index[d.Key]; dup {
			return nil, fmt.Errorf("duplicate metric key %q", d.Key)
		}
		if d.Extract == nil {
			return nil, fmt.Errorf("metric %q has no extractor", d.Key)
		}
		if d.Valid == nil {
			return nil, fmt.Errorf("metric %q has no validity rule", d.Key)
		}
		if d.Format == "" {
			d.Format = "%.1f"
		}
		if d.Polarity == "" {
			d.Polarity = PolarityNeutral
		}
		r.index[d.Key] = len(r.defs)
		r.defs = append(r.defs, d)
	}
	return r, nil
}

// MustRegistry is NewRegistry for static tables; it panics on an invalid table.
func MustRegistry(defs ...MetricDefinition) *Registry {
	r, err := NewRegistry(defs...)
	if err != nil {
		panic(err)
	}
	return r
}

// Definitions returns a copy of the definitions in display order.
func (r *Registry) Definitions() []MetricDefinition {
	out := make([]MetricDefinition, len(r.defs))
	copy(out, r.defs)
	return out
}

// Lookup finds a definition by key.
func (r *Registry) Lookup(key MetricKey) (MetricDefinition, bool) {
	i, ok := r.index[key]
	if !ok {
		return MetricDefinition{}, false
	}
	return r.defs[i], true
}

// Len returns the number of metrics.
func (r *Registry) Len() int {
	return len(r.defs)
}

var defaultRegistry = MustRegistry(
	MetricDefinition{
		Key: MetricAvgStress, Name: "Avg Stress", Icon: "😌", Format: "%.1f",
		Source: SourceSummary, Polarity: PolarityLowerIsBetter,
		Extract: summaryField(func(s *DailySummary) *float64 { return s.AverageStressLevel }),
		Valid:   Positive,
	},
	MetricDefinition{
		Key: MetricHRV, Name: "HRV (ms)", Icon: "💓", Format: "%.1f", Unit: "ms",
		Source: SourceHRV, Polarity: PolarityHigherIsBetter,
		Extract: hrvLastNight,
		Valid:   Positive,
	},
	MetricDefinition{
		Key: MetricSleepScore, Name: "Sleep Score", Icon: "😴", Format: "%.1f",
		Source: SourceSleep, Polarity: PolarityHigherIsBetter,
		Extract: sleepOverallScore,
		Valid:   AnyValue,
	},
	MetricDefinition{
		Key: MetricRestingHR, Name: "Resting HR (bpm)", Icon: "❤️", Format: "%.1f", Unit: "bpm",
		Source: SourceSummary, Polarity: PolarityLowerIsBetter,
		Extract: summaryField(func(s *DailySummary) *float64 { return s.RestingHeartRate }),
		Valid:   AnyValue,
	},
	MetricDefinition{
		Key: MetricSteps, Name: "Steps", Icon: "👟", Format: "%.0f",
		Source: SourceSummary, Polarity: PolarityHigherIsBetter,
		Extract: summaryField(func(s *DailySummary) *float64 { return s.TotalSteps }),
		Valid:   NonNegative,
	},
	MetricDefinition{
		Key: MetricCalories, Name: "Calories (kcal)", Icon: "🔥", Format: "%.0f", Unit: "kcal",
		Source: SourceSummary, Polarity: PolarityNeutral,
		Extract: summaryField(func(s *DailySummary) *float64 { return s.TotalKilocalories }),
		Valid:   NonNegative,
	},
	MetricDefinition{
		Key: MetricSpO2, Name: "SpO2 (%)", Icon: "🫁", Format: "%.1f", Unit: "%",
		Source: SourceSummary, Polarity: PolarityHigherIsBetter,
		Extract: summaryField(func(s *DailySummary) *float64 { return s.AverageSpO2 }),
		Valid:   Positive,
	},
	MetricDefinition{
		Key: MetricSleepHours, Name: "Sleep (h)", Icon: "🛏️", Format: "%.1f", Unit: "h",
		Source: SourceSleep, Polarity: PolarityHigherIsBetter,
		Extract: sleepHours,
		Valid:   Positive,
	},
)

// DefaultRegistry returns the built-in metric table.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

func summaryField(get func(*DailySummary) *float64) Extractor {
	return func(d DayRecord) (float64, bool) {
		if d.Summary == nil {
			return 0, false
		}
		v := get(d.Summary)
		if v == nil {
			return 0, false
		}
		return *v, true
	}
}

func hrvLastNight(d DayRecord) (float64, bool) {
	if d.HRV == nil || d.HRV.LastNightAvg == nil {
		return 0, false
	}
	return *d.HRV.LastNightAvg, true
}

func sleepOverallScore(d DayRecord) (float64, bool) {
	if d.Sleep == nil || d.Sleep.SleepScores == nil || d.Sleep.SleepScores.Overall == nil {
		return 0, false
	}
	v := d.Sleep.SleepScores.Overall.Value
	if v == nil {
		return 0, false
	}
	return *v, true
}

func sleepHours(d DayRecord) (float64, bool) {
	if d.Sleep == nil || d.Sleep.SleepTimeSeconds == nil {
		return 0, false
	}
	return *d.Sleep.SleepTimeSeconds / 3600, true
}
