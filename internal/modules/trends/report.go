// Package trends turns per-source daily health records into a recent-vs-baseline report.
//
// The pipeline is pure and synchronous:
//
//	Sources -> Normalize -> MergeDays -> Partition -> Aggregate (x2) -> Compare -> Report
//
// Nothing here performs I/O or keeps state between calls; fetching, rendering and
// delivery live in other packages.
package trends

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInsufficientData is returned alongside a well-formed Report when the primary
	// source contributed no usable records.
	ErrInsufficientData = errors.New("insufficient data for a report")
	// ErrInvalidWindowSize is returned for a non-positive recent window.
	ErrInvalidWindowSize = errors.New("recent window size must be positive")
)

// Report is the structured outcome of one generation.
type Report struct {
	GeneratedAt      time.Time          `json:"generated_at"`
	RecentWindowSize int                `json:"recent_window_size"`
	TotalDays        int                `json:"total_days"`
	RecentDays       int                `json:"recent_days"`
	BaselineDays     int                `json:"baseline_days"`
	RecentRange      DateRange          `json:"recent_range"`
	BaselineRange    DateRange          `json:"baseline_range"`
	Comparisons      []MetricComparison `json:"comparisons"`
	Insufficient     bool               `json:"insufficient"`
	Stats            NormalizeStats     `json:"-"`
}

// Notable returns the comparisons flagged as notable, in report order.
func (r *Report) Notable() []MetricComparison {
	var out []MetricComparison
	for _, c := range r.Comparisons {
		if c.Notable {
			out = append(out, c)
		}
	}
	return out
}

// Comparison looks up the comparison for key.
func (r *Report) Comparison(key MetricKey) (MetricComparison, bool) {
	for _, c := range r.Comparisons {
		if c.Key == key {
			return c, true
		}
	}
	return MetricComparison{}, false
}

// Generator holds the immutable configuration of the pipeline.
type Generator struct {
	registry *Registry
	merge    MergeOptions
	now      func() time.Time
}

// GeneratorOption customizes a Generator.
type GeneratorOption func(*Generator)

// WithRegistry replaces the default metric table.
func WithRegistry(r *Registry) GeneratorOption {
	return func(g *Generator) { g.registry = r }
}

// WithMergeOptions sets the merger policy.
func WithMergeOptions(o MergeOptions) GeneratorOption {
	return func(g *Generator) { g.merge = o }
}

// WithClock sets the time source used for GeneratedAt.
func WithClock(now func() time.Time) GeneratorOption {
	return func(g *Generator) { g.now = now }
}

// NewGenerator builds a Generator with the default registry and clock unless overridden.
func NewGenerator(opts ...GeneratorOption) *Generator {
	g := &Generator{
		registry: DefaultRegistry(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Registry returns the metric table in use.
func (g *Generator) Registry() *Registry {
	return g.registry
}

// Generate runs the full pipeline over src with a recent window of recentWindowSize days.
//
// When the primary source yields no usable records the returned report is still complete
// (every comparison reflects whatever data exists, usually none) with Insufficient set,
// and the error is ErrInsufficientData.
func (g *Generator) Generate(src Sources, recentWindowSize int) (*Report, error) {
	if recentWindowSize <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidWindowSize, recentWindowSize)
	}

	entries, stats := Normalize(src)
	days := MergeDays(entries, g.merge)
	win := Partition(days, recentWindowSize)

	recent := Aggregate(win.Recent, g.registry)
	baseline := Aggregate(win.Baseline, g.registry)

	report := &Report{
		GeneratedAt:      g.now(),
		RecentWindowSize: recentWindowSize,
		TotalDays:        len(days),
		RecentDays:       len(win.Recent),
		BaselineDays:     len(win.Baseline),
		RecentRange:      RangeOf(win.Recent),
		BaselineRange:    RangeOf(win.Baseline),
		Comparisons:      Compare(recent, baseline, g.registry),
		Stats:            stats,
	}

	if stats.Accepted[PrimarySource] == 0 {
		report.Insufficient = true
		return report, ErrInsufficientData
	}

	return report, nil
}

// GenerateReport runs the pipeline with default settings.
func GenerateReport(src Sources, recentWindowSize int) (*Report, error) {
	return NewGenerator().Generate(src, recentWindowSize)
}
