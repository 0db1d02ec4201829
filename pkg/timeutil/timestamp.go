package timeutil

import "time"

// TimestampLayout is FlashFlood's fixed-width, lexically sortable UTC
// timestamp encoding: YYYY-MM-DDTHHMMSS.ffffffZ (27 bytes).
const TimestampLayout = "2006-01-02T150405.000000Z"

// NewVersion is the literal version string assigned to a freshly ingested,
// single-event journal. It sorts after every formation-timestamp version,
// since 'n' sorts after every digit; see JournalID.IsNew for how callers
// distinguish the two.
const NewVersion = "new"

// DistantPast and FarFuture bound unspecified ends of a DateRange.
var (
	DistantPast = time.Date(1, time.January, 1, 0, 0, 0, 0, time.UTC)
	FarFuture   = time.Date(5000, time.January, 1, 0, 0, 0, 0, time.UTC)
)

// Format renders t in FlashFlood's timestamp encoding.
func Format(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Now returns the current time formatted as a FlashFlood timestamp.
func Now() string {
	return Format(time.Now())
}

// Parse parses a FlashFlood timestamp back into a time.Time.
func Parse(ts string) (time.Time, error) {
	return time.Parse(TimestampLayout, ts)
}
