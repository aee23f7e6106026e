package trends

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullSources(days int) Sources {
	var src Sources
	for i := 0; i < days; i++ {
		stress := 30.0
		hrv := 50.0
		if i < 30 {
			stress = 24.0
			hrv = 55.0
		}
		src.Summaries = append(src.Summaries, summaryDay(i, stress, 52))
		src.Sleep = append(src.Sleep, sleepDay(i, 80))
		src.HRV = append(src.HRV, hrvDay(i, hrv))
	}
	return src
}

func TestGenerate_FullPipeline(t *testing.T) {
	g := NewGenerator(WithClock(fixedClock))

	report, err := g.Generate(fullSources(40), 30)
	require.NoError(t, err)

	assert.Equal(t, fixedClock(), report.GeneratedAt)
	assert.Equal(t, 30, report.RecentWindowSize)
	assert.Equal(t, 40, report.TotalDays)
	assert.Equal(t, 30, report.RecentDays)
	assert.Equal(t, 10, report.BaselineDays)
	assert.Equal(t, day0, report.RecentRange.To)
	assert.Equal(t, day0.AddDays(-29), report.RecentRange.From)
	assert.Equal(t, day0.AddDays(-39), report.BaselineRange.From)
	assert.False(t, report.Insufficient)
	require.Len(t, report.Comparisons, DefaultRegistry().Len())

	stress, ok := report.Comparison(MetricAvgStress)
	require.True(t, ok)
	assert.Equal(t, 24.0, stress.Recent.Average)
	assert.Equal(t, 30.0, stress.Baseline.Average)
	assert.InDelta(t, -20.0, *stress.PercentChange, 1e-9)
	assert.True(t, stress.Notable)
	assert.Equal(t, TrendImproving, stress.Trend)

	hrv, _ := report.Comparison(MetricHRV)
	assert.InDelta(t, 10.0, *hrv.PercentChange, 1e-9)
	assert.Equal(t, TrendImproving, hrv.Trend)

	sleep, _ := report.Comparison(MetricSleepScore)
	assert.Equal(t, LargerEqual, sleep.Larger)
	assert.False(t, sleep.Notable)

	steps, _ := report.Comparison(MetricSteps)
	assert.Nil(t, steps.PercentChange, "no step data at all")
	assert.Equal(t, 0, steps.Recent.Days)

	notable := report.Notable()
	require.Len(t, notable, 2)
	assert.Equal(t, MetricAvgStress, notable[0].Key)
	assert.Equal(t, MetricHRV, notable[1].Key)
}

func TestGenerate_Idempotent(t *testing.T) {
	g := NewGenerator(WithClock(fixedClock))
	src := fullSources(60)

	first, err := g.Generate(src, 30)
	require.NoError(t, err)
	second, err := g.Generate(src, 30)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestGenerate_MergedCountMatchesDistinctDates(t *testing.T) {
	src := Sources{
		Summaries: summaries(20),
		Sleep:     []SleepRecord{sleepDay(25, 70), sleepDay(5, 80)},
		HRV:       []HRVRecord{hrvDay(30, 40)},
	}

	report, err := NewGenerator(WithClock(fixedClock)).Generate(src, 30)
	require.NoError(t, err)
	// 20 summary dates + sleep-only day 25 + HRV-only day 30
	assert.Equal(t, 22, report.TotalDays)
	assert.Equal(t, report.TotalDays, report.RecentDays+report.BaselineDays)
}

func TestGenerate_NoPrimaryDataIsInsufficient(t *testing.T) {
	src := Sources{Sleep: []SleepRecord{sleepDay(0, 80)}}

	report, err := NewGenerator(WithClock(fixedClock)).Generate(src, 30)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInsufficientData))
	require.NotNil(t, report)
	assert.True(t, report.Insufficient)
	require.Len(t, report.Comparisons, DefaultRegistry().Len())
}

func TestGenerate_EmptyInputGivesZeroDaysEverywhere(t *testing.T) {
	report, err := GenerateReport(Sources{}, 30)

	assert.ErrorIs(t, err, ErrInsufficientData)
	require.NotNil(t, report)
	assert.Equal(t, 0, report.TotalDays)
	for _, c := range report.Comparisons {
		assert.Equal(t, 0, c.Recent.Days, string(c.Key))
		assert.Equal(t, 0, c.Baseline.Days, string(c.Key))
		assert.Nil(t, c.PercentChange, string(c.Key))
		assert.False(t, c.Notable, string(c.Key))
	}
}

func TestGenerate_MalformedPrimaryOnlyIsInsufficient(t *testing.T) {
	src := Sources{Summaries: []DailySummary{{CalendarDate: "nope"}}}

	report, err := GenerateReport(src, 30)
	assert.ErrorIs(t, err, ErrInsufficientData)
	assert.Equal(t, 1, report.Stats.Skipped[SourceSummary])
}

func TestGenerate_ShortHistoryHasEmptyBaseline(t *testing.T) {
	report, err := GenerateReport(fullSources(10), 30)
	require.NoError(t, err)

	assert.Equal(t, 10, report.RecentDays)
	assert.Equal(t, 0, report.BaselineDays)
	for _, c := range report.Comparisons {
		assert.Nil(t, c.PercentChange, string(c.Key))
		assert.False(t, c.Notable, string(c.Key))
	}
}

func TestGenerate_InvalidWindow(t *testing.T) {
	_, err := GenerateReport(fullSources(5), 0)
	assert.ErrorIs(t, err, ErrInvalidWindowSize)

	_, err = GenerateReport(fullSources(5), -3)
	assert.ErrorIs(t, err, ErrInvalidWindowSize)
}

func TestGenerate_RequirePrimary(t *testing.T) {
	src := Sources{
		Summaries: summaries(3),
		Sleep:     []SleepRecord{sleepDay(10, 60)},
	}

	report, err := NewGenerator(WithMergeOptions(MergeOptions{RequirePrimary: true})).Generate(src, 30)
	require.NoError(t, err)
	assert.Equal(t, 3, report.TotalDays)

	sleep, _ := report.Comparison(MetricSleepScore)
	assert.Equal(t, 0, sleep.Recent.Days)
}

func TestGenerate_CustomRegistry(t *testing.T) {
	def, _ := DefaultRegistry().Lookup(MetricRestingHR)
	reg := MustRegistry(def)

	report, err := NewGenerator(WithRegistry(reg)).Generate(fullSources(35), 30)
	require.NoError(t, err)
	require.Len(t, report.Comparisons, 1)
	assert.Equal(t, MetricRestingHR, report.Comparisons[0].Key)
}
