package trends

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeDays_OneRecordPerDistinctDate(t *testing.T) {
	src := Sources{
		Summaries: []DailySummary{summaryDay(0, 20, 50), summaryDay(1, 22, 51), summaryDay(3, 24, 52)},
		Sleep:     []SleepRecord{sleepDay(0, 80), sleepDay(2, 75)},
		HRV:       []HRVRecord{hrvDay(1, 40), hrvDay(4, 41)},
	}

	entries, _ := Normalize(src)
	days := MergeDays(entries, MergeOptions{})

	// distinct dates: 0,1,2,3,4
	require.Len(t, days, 5)

	seen := make(map[CalendarDate]bool)
	for _, d := range days {
		assert.False(t, seen[d.Date], "duplicate date %s", d.Date)
		seen[d.Date] = true
	}

	assert.True(t, days[0].Has(SourceSummary))
	assert.True(t, days[0].Has(SourceSleep))
	assert.False(t, days[0].Has(SourceHRV))

	// day 2 only has sleep, day 4 only has HRV; both are kept.
	assert.Equal(t, day0.AddDays(-2), days[2].Date)
	assert.False(t, days[2].Has(SourceSummary))
	assert.True(t, days[2].Has(SourceSleep))
	assert.Equal(t, day0.AddDays(-4), days[4].Date)
	assert.True(t, days[4].Has(SourceHRV))
}

func TestMergeDays_SortedMostRecentFirst(t *testing.T) {
	entries, _ := Normalize(Sources{Summaries: summaries(10)})
	days := MergeDays(entries, MergeOptions{})

	require.Len(t, days, 10)
	for i := 1; i < len(days); i++ {
		assert.True(t, days[i].Date.Before(days[i-1].Date))
	}
	assert.Equal(t, day0, days[0].Date)
}

func TestMergeDays_RequirePrimaryDropsSecondaryOnlyDays(t *testing.T) {
	src := Sources{
		Summaries: []DailySummary{summaryDay(0, 20, 50)},
		Sleep:     []SleepRecord{sleepDay(0, 80), sleepDay(1, 70)},
		HRV:       []HRVRecord{hrvDay(2, 40)},
	}
	entries, _ := Normalize(src)

	days := MergeDays(entries, MergeOptions{RequirePrimary: true})
	require.Len(t, days, 1)
	assert.Equal(t, day0, days[0].Date)
	assert.True(t, days[0].Has(SourceSleep))
}

func TestMergeDays_LaterDuplicateWins(t *testing.T) {
	src := Sources{
		Summaries: []DailySummary{summaryDay(0, 20, 50), summaryDay(0, 35, 60)},
	}
	entries, _ := Normalize(src)
	days := MergeDays(entries, MergeOptions{})

	require.Len(t, days, 1)
	assert.Equal(t, 35.0, *days[0].Summary.AverageStressLevel)
}

func TestMergeDays_Empty(t *testing.T) {
	days := MergeDays(nil, MergeOptions{})
	assert.Empty(t, days)
}
