package trends

import "sort"

// DayRecord is the merged view of one calendar day. Each source slot is independently
// optional. Records are built by MergeDays and must be treated as read-only.
type DayRecord struct {
	Date    CalendarDate
	Summary *DailySummary
	Sleep   *DailySleep
	HRV     *HRVSummary
}

// Has reports whether the slot for kind is populated.
func (d DayRecord) Has(kind SourceKind) bool {
	switch kind {
	case SourceSummary:
		return d.Summary != nil
	case SourceSleep:
		return d.Sleep != nil
	case SourceHRV:
		return d.HRV != nil
	}
	return false
}

// MergeOptions tunes the day merger.
type MergeOptions struct {
	// RequirePrimary drops days that have no daily summary. Off by default so that
	// sleep-only and HRV-only days still feed their metrics.
	RequirePrimary bool
}

// MergeDays joins normalized payloads by date. Every distinct date yields exactly one
// record; when a source repeats a date the later payload wins. The result is sorted
// most recent first, which window partitioning relies on.
func MergeDays(entries []Normalized, opts MergeOptions) []DayRecord {
	byDate := make(map[CalendarDate]*DayRecord, len(entries))

	for _, e := range entries {
		rec, ok := byDate[e.Date]
		if !ok {
			rec = &DayRecord{Date: e.Date}
			byDate[e.Date] = rec
		}
		switch e.Kind {
		case SourceSummary:
			rec.Summary = e.Summary
		case SourceSleep:
			rec.Sleep = e.Sleep
		case SourceHRV:
			rec.HRV = e.HRV
		}
	}

	days := make([]DayRecord, 0, len(byDate))
	for _, rec := range byDate {
		if opts.RequirePrimary && !rec.Has(PrimarySource) {
			continue
		}
		days = append(days, *rec)
	}

	sort.Slice(days, func(i, j int) bool {
		return days[j].Date.Before(days[i].Date)
	})

	return days
}
