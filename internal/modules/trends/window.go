package trends

// DefaultRecentWindow is the number of most recent days compared against the baseline.
const DefaultRecentWindow = 30

// Windows is the recent/baseline split of a date-descending day sequence.
type Windows struct {
	Recent   []DayRecord
	Baseline []DayRecord
}

// Partition takes the first size days as the recent window and the rest as baseline.
// days must already be sorted most recent first. A short history yields a short recent
// window and an empty baseline; size <= 0 puts everything in the baseline.
func Partition(days []DayRecord, size int) Windows {
	if size < 0 {
		size = 0
	}
	if size > len(days) {
		size = len(days)
	}
	return Windows{
		Recent:   days[:size:size],
		Baseline: days[size:],
	}
}

// DateRange is the inclusive span covered by a window.
type DateRange struct {
	From CalendarDate `json:"from"`
	To   CalendarDate `json:"to"`
}

// RangeOf returns the span of a date-descending window; zero for an empty window.
func RangeOf(window []DayRecord) DateRange {
	if len(window) == 0 {
		return DateRange{}
	}
	return DateRange{From: window[len(window)-1].Date, To: window[0].Date}
}
