package trends

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistry_Order(t *testing.T) {
	reg := DefaultRegistry()

	var keys []MetricKey
	for _, d := range reg.Definitions() {
		keys = append(keys, d.Key)
	}
	assert.Equal(t, []MetricKey{
		MetricAvgStress, MetricHRV, MetricSleepScore, MetricRestingHR,
		MetricSteps, MetricCalories, MetricSpO2, MetricSleepHours,
	}, keys)
}

func TestDefaultRegistry_ZeroHandling(t *testing.T) {
	zero := DayRecord{
		Summary: &DailySummary{
			AverageStressLevel: Float(0),
			RestingHeartRate:   Float(0),
			TotalSteps:         Float(0),
			TotalKilocalories:  Float(0),
			AverageSpO2:        Float(0),
		},
		Sleep: &DailySleep{
			SleepTimeSeconds: Float(0),
			SleepScores:      &SleepScores{Overall: &ScoreValue{Value: Float(0)}},
		},
		HRV: &HRVSummary{LastNightAvg: Float(0)},
	}

	testCases := []struct {
		key      MetricKey
		expected ReadingState
	}{
		{MetricAvgStress, ReadingInvalid},
		{MetricHRV, ReadingInvalid},
		{MetricSpO2, ReadingInvalid},
		{MetricSleepHours, ReadingInvalid},
		{MetricSteps, ReadingValid},
		{MetricCalories, ReadingValid},
		{MetricRestingHR, ReadingValid},
		{MetricSleepScore, ReadingValid},
	}

	reg := DefaultRegistry()
	for _, tc := range testCases {
		t.Run(string(tc.key), func(t *testing.T) {
			def, ok := reg.Lookup(tc.key)
			require.True(t, ok)
			_, state := def.Read(zero)
			assert.Equal(t, tc.expected, state)
		})
	}
}

func TestDefaultRegistry_AbsentWhenSlotMissing(t *testing.T) {
	empty := DayRecord{Date: day0}
	partialSleep := DayRecord{Date: day0, Sleep: &DailySleep{SleepScores: &SleepScores{}}}

	for _, def := range DefaultRegistry().Definitions() {
		_, state := def.Read(empty)
		assert.Equal(t, ReadingAbsent, state, string(def.Key))
	}

	def, _ := DefaultRegistry().Lookup(MetricSleepScore)
	_, state := def.Read(partialSleep)
	assert.Equal(t, ReadingAbsent, state)
}

func TestDefaultRegistry_SleepHoursConvertsSeconds(t *testing.T) {
	def, _ := DefaultRegistry().Lookup(MetricSleepHours)
	v, state := def.Read(DayRecord{Sleep: &DailySleep{SleepTimeSeconds: Float(27000)}})
	assert.Equal(t, ReadingValid, state)
	assert.Equal(t, 7.5, v)
}

func TestNewRegistry_Validation(t *testing.T) {
	extract := func(DayRecord) (float64, bool) { return 0, false }

	_, err := NewRegistry()
	assert.Error(t, err)

	_, err = NewRegistry(MetricDefinition{Key: "x", Extract: extract})
	assert.ErrorContains(t, err, "validity")

	_, err = NewRegistry(MetricDefinition{Key: "x", Valid: AnyValue})
	assert.ErrorContains(t, err, "extractor")

	_, err = NewRegistry(
		MetricDefinition{Key: "x", Extract: extract, Valid: AnyValue},
		MetricDefinition{Key: "x", Extract: extract, Valid: AnyValue},
	)
	assert.ErrorContains(t, err, "duplicate")

	reg, err := NewRegistry(MetricDefinition{Key: "x", Extract: extract, Valid: AnyValue})
	require.NoError(t, err)
	def, ok := reg.Lookup("x")
	require.True(t, ok)
	assert.Equal(t, "%.1f", def.Format)
	assert.Equal(t, PolarityNeutral, def.Polarity)
}

func TestMetricDefinition_FormatValue(t *testing.T) {
	steps, _ := DefaultRegistry().Lookup(MetricSteps)
	stress, _ := DefaultRegistry().Lookup(MetricAvgStress)

	assert.Equal(t, "8432", steps.FormatValue(8431.6))
	assert.Equal(t, "31.3", stress.FormatValue(31.26))
}

func TestReadingState_String(t *testing.T) {
	assert.Equal(t, "absent", ReadingAbsent.String())
	assert.Equal(t, "invalid", ReadingInvalid.String())
	assert.Equal(t, "valid", ReadingValid.String())
}
