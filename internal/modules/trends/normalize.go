package trends

// Normalized is one source record reduced to its join key and payload.
// Exactly one of Summary, Sleep or HRV is set, matching Kind.
type Normalized struct {
	Date    CalendarDate
	Kind    SourceKind
	Summary *DailySummary
	Sleep   *DailySleep
	HRV     *HRVSummary
}

// NormalizeStats counts, per source kind, how many records were accepted and how many
// were skipped because their date was missing or unparseable.
type NormalizeStats struct {
	Accepted map[SourceKind]int
	Skipped  map[SourceKind]int
}

// Total returns accepted+skipped for kind.
func (s NormalizeStats) Total(kind SourceKind) int {
	return s.Accepted[kind] + s.Skipped[kind]
}

// NormalizeSummary extracts the date of a daily summary from its top-level field.
func NormalizeSummary(rec DailySummary) (Normalized, bool) {
	date, ok := parseKey(rec.CalendarDate)
	if !ok {
		return Normalized{}, false
	}
	r := rec
	return Normalized{Date: date, Kind: SourceSummary, Summary: &r}, true
}

// NormalizeSleep extracts the date of a sleep record from the nested daily sleep summary.
func NormalizeSleep(rec SleepRecord) (Normalized, bool) {
	if rec.DailySleep == nil {
		return Normalized{}, false
	}
	date, ok := parseKey(rec.DailySleep.CalendarDate)
	if !ok {
		return Normalized{}, false
	}
	s := *rec.DailySleep
	return Normalized{Date: date, Kind: SourceSleep, Sleep: &s}, true
}

// NormalizeHRV extracts the date of an HRV record from the nested HRV summary.
func NormalizeHRV(rec HRVRecord) (Normalized, bool) {
	if rec.Summary == nil {
		return Normalized{}, false
	}
	date, ok := parseKey(rec.Summary.CalendarDate)
	if !ok {
		return Normalized{}, false
	}
	h := *rec.Summary
	return Normalized{Date: date, Kind: SourceHRV, HRV: &h}, true
}

// Normalize runs every source adapter over src. Malformed records are skipped, never fatal.
// Output preserves source order (summaries, then sleep, then HRV; input order within each).
func Normalize(src Sources) ([]Normalized, NormalizeStats) {
	stats := NormalizeStats{
		Accepted: make(map[SourceKind]int, len(AllSources)),
		Skipped:  make(map[SourceKind]int, len(AllSources)),
	}
	out := make([]Normalized, 0, src.Len())

	add := func(kind SourceKind, n Normalized, ok bool) {
		if !ok {
			stats.Skipped[kind]++
			return
		}
		stats.Accepted[kind]++
		out = append(out, n)
	}

	for _, rec := range src.Summaries {
		n, ok := NormalizeSummary(rec)
		add(SourceSummary, n, ok)
	}
	for _, rec := range src.Sleep {
		n, ok := NormalizeSleep(rec)
		add(SourceSleep, n, ok)
	}
	for _, rec := range src.HRV {
		n, ok := NormalizeHRV(rec)
		add(SourceHRV, n, ok)
	}

	return out, stats
}

func parseKey(s string) (CalendarDate, bool) {
	if s == "" {
		return CalendarDate{}, false
	}
	d, err := ParseCalendarDate(s)
	if err != nil {
		return CalendarDate{}, false
	}
	return d, true
}
