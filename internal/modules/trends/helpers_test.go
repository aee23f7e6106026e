package trends

import "time"

// day0 anchors generated histories; day i is day0 minus i days.
var day0 = NewCalendarDate(2025, time.March, 31)

func dateStr(i int) string {
	return day0.AddDays(-i).String()
}

func summaryDay(i int, stress, rhr float64) DailySummary {
	return DailySummary{
		CalendarDate:       dateStr(i),
		AverageStressLevel: Float(stress),
		RestingHeartRate:   Float(rhr),
	}
}

func sleepDay(i int, score float64) SleepRecord {
	return SleepRecord{DailySleep: &DailySleep{
		CalendarDate: dateStr(i),
		SleepScores:  &SleepScores{Overall: &ScoreValue{Value: Float(score)}},
	}}
}

func hrvDay(i int, avg float64) HRVRecord {
	return HRVRecord{Summary: &HRVSummary{CalendarDate: dateStr(i), LastNightAvg: Float(avg)}}
}

// summaries builds n consecutive daily summaries starting at day 0, in ascending date
// order so tests also exercise the merger's sort.
func summaries(n int) []DailySummary {
	out := make([]DailySummary, 0, n)
	for i := n - 1; i >= 0; i-- {
		out = append(out, summaryDay(i, 30, 55))
	}
	return out
}

func fixedClock() time.Time {
	return time.Date(2025, time.April, 1, 7, 0, 0, 0, time.UTC)
}
