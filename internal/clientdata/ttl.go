package clientdata

import "time"

// TTL constants for Garmin daily records.
// These are added to time.Now() when storing to calculate expires_at.
const (
	// A finished day no longer changes upstream
	TTLClosedDay = 30 * 24 * time.Hour
	// Today's record keeps filling in as the watch syncs
	TTLOpenDay = time.Hour
)

// TTLForDay picks the TTL for a record of the given day, relative to today.
// Both arguments are YYYY-MM-DD strings; today or later counts as open.
func TTLForDay(day, today string) time.Duration {
	if day >= today {
		return TTLOpenDay
	}
	return TTLClosedDay
}
