package trends

import (
	"fmt"
	"math"
)

// NotableChangePercent is the magnitude a percent change must exceed (strictly) to be
// flagged. It is a reporting threshold, not a significance test.
const NotableChangePercent = 2.0

// Direction tells which window has the larger average.
type Direction string

const (
	LargerRecent   Direction = "recent"
	LargerBaseline Direction = "baseline"
	LargerEqual    Direction = "equal"
)

// Trend interprets a notable change through the metric's polarity.
type Trend string

const (
	TrendUnknown   Trend = "unknown"
	TrendStable    Trend = "stable"
	TrendImproving Trend = "improving"
	TrendDeclining Trend = "declining"
	TrendRising    Trend = "rising"
	TrendFalling   Trend = "falling"
)

// MetricComparison is the recent-vs-baseline outcome for one metric.
type MetricComparison struct {
	Key      MetricKey `json:"key"`
	Name     string    `json:"name"`
	Icon     string    `json:"icon"`
	Unit     string    `json:"unit,omitempty"`
	Format   string    `json:"format"`
	Polarity Polarity  `json:"polarity"`

	Recent   WindowAverage `json:"recent"`
	Baseline WindowAverage `json:"baseline"`
	Larger   Direction     `json:"larger"`

	// PercentChange is nil when either side has no data or a non-positive average.
	PercentChange *float64 `json:"percent_change,omitempty"`
	Notable       bool     `json:"notable"`
	Trend         Trend    `json:"trend"`
}

// HasChange reports whether a percent change could be computed.
func (c MetricComparison) HasChange() bool {
	return c.PercentChange != nil
}

// FormatValue renders v with the metric's numeric format.
func (c MetricComparison) FormatValue(v float64) string {
	return fmt.Sprintf(c.Format, v)
}

// PercentChange returns (recent-baseline)/baseline*100 when both averages are positive.
func PercentChange(recent, baseline float64) (float64, bool) {
	if baseline <= 0 || recent <= 0 {
		return 0, false
	}
	return (recent - baseline) / baseline * 100, true
}

// IsNotable applies the strict threshold.
func IsNotable(change float64) bool {
	return math.Abs(change) > NotableChangePercent
}

// Compare produces one comparison per metric in registry order.
func Compare(recent, baseline WindowAverages, reg *Registry) []MetricComparison {
	out := make([]MetricComparison, 0, reg.Len())

	for _, def := range reg.defs {
		r := recent[def.Key]
		b := baseline[def.Key]

		c := MetricComparison{
			Key:      def.Key,
			Name:     def.Name,
			Icon:     def.Icon,
			Unit:     def.Unit,
			Format:   def.Format,
			Polarity: def.Polarity,
			Recent:   r,
			Baseline: b,
			Larger:   larger(r.Average, b.Average),
			Trend:    TrendUnknown,
		}

		if r.HasData() && b.HasData() {
			if change, ok := PercentChange(r.Average, b.Average); ok {
				c.PercentChange = &change
				c.Notable = IsNotable(change)
				c.Trend = trendOf(def.Polarity, change, c.Notable)
			}
		}

		out = append(out, c)
	}

	return out
}

func larger(recent, baseline float64) Direction {
	switch {
	case recent > baseline:
		return LargerRecent
	case baseline > recent:
		return LargerBaseline
	default:
		return LargerEqual
	}
}

func trendOf(p Polarity, change float64, notable bool) Trend {
	if !notable {
		return TrendStable
	}
	up := change > 0
	switch p {
	case PolarityHigherIsBetter:
		if up {
			return TrendImproving
		}
		return TrendDeclining
	case PolarityLowerIsBetter:
		if up {
			return TrendDeclining
		}
		return TrendImproving
	default:
		if up {
			return TrendRising
		}
		return TrendFalling
	}
}
