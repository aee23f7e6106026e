package trends

import "gonum.org/v1/gonum/stat"

// Accumulator is a per-metric running sum over contributing days.
type Accumulator struct {
	Sum    float64
	Count  int
	values []float64
}

// Add records one contributing value.
func (a *Accumulator) Add(v float64) {
	a.Sum += v
	a.Count++
	a.values = append(a.values, v)
}

// Mean returns Sum/Count, or 0 when nothing contributed.
func (a *Accumulator) Mean() float64 {
	if a.Count == 0 {
		return 0
	}
	return a.Sum / float64(a.Count)
}

// StdDev is the sample standard deviation of the contributing values; 0 below two values.
func (a *Accumulator) StdDev() float64 {
	if a.Count < 2 {
		return 0
	}
	return stat.StdDev(a.values, nil)
}

// WindowAverage summarizes one metric over one window.
type WindowAverage struct {
	// Average is 0 when Days is 0; callers must read that as "no data", not a real zero.
	Average float64 `json:"average"`
	// Days is the number of days that contributed a valid value.
	Days int `json:"days"`
	// Excluded counts days whose value was present but failed the validity rule.
	Excluded int     `json:"excluded"`
	StdDev   float64 `json:"std_dev"`
}

// HasData reports whether at least one day contributed.
func (w WindowAverage) HasData() bool {
	return w.Days > 0
}

// WindowAverages maps metric keys to their window summary.
type WindowAverages map[MetricKey]WindowAverage

// Aggregate computes presence-aware averages for every metric in reg over window.
// Each metric keeps its own counter, so sparse sources do not dilute dense ones.
func Aggregate(window []DayRecord, reg *Registry) WindowAverages {
	defs := reg.defs
	accs := make([]Accumulator, len(defs))
	excluded := make([]int, len(defs))

	for _, day := range window {
		for i, def := range defs {
			v, state := def.Read(day)
			switch state {
			case ReadingValid:
				accs[i].Add(v)
			case ReadingInvalid:
				excluded[i]++
			}
		}
	}

	out := make(WindowAverages, len(defs))
	for i, def := range defs {
		out[def.Key] = WindowAverage{
			Average:  accs[i].Mean(),
			Days:     accs[i].Count,
			Excluded: excluded[i],
			StdDev:   accs[i].StdDev(),
		}
	}
	return out
}
