package reconcile

import (
	"math"
	"strings"
	"time"
)

// TicksPerSecond is the remote duration unit.
const TicksPerSecond = 10_000_000

// dateLayouts are tried in order: fractional seconds first, then plain.
// The zone-less variants cover servers that omit the offset; they parse as UTC.
var dateLayouts = []string{
	"2006-01-02T15:04:05.999999999Z07:00",
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

// DurationSeconds converts ticks to seconds. Non-positive or non-finite
// results yield zero.
func DurationSeconds(ticks int64) float64 {
	seconds, _ := durationFromTicks(ticks)
	return seconds
}

// durationFromTicks also reports whether the value had to be coerced to zero.
func durationFromTicks(ticks int64) (float64, bool) {
	if ticks < 0 {
		return 0, true
	}
	if ticks == 0 {
		return 0, false
	}
	seconds := float64(ticks) / TicksPerSecond
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return 0, true
	}
	return seconds, false
}

// ParseDateAdded parses a remote creation timestamp, rounded to the
// millisecond precision the catalog stores. ok is false for empty or
// unparsable input, in which case the stored value must be left untouched.
func ParseDateAdded(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.UTC().Round(time.Millisecond), true
		}
	}
	return time.Time{}, false
}
