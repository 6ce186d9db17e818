package reconcile

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDurationSeconds(t *testing.T) {
	tests := []struct {
		name  string
		ticks int64
		want  float64
	}{
		{"Zero", 0, 0},
		{"Three seconds", 30_000_000, 3.0},
		{"Negative", -5, 0},
		{"Sub-second", 5_000_000, 0.5},
		{"Max int64 stays finite", math.MaxInt64, float64(math.MaxInt64) / TicksPerSecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DurationSeconds(tt.ticks)
			assert.Equal(t, tt.want, got)
			assert.False(t, math.IsNaN(got))
			assert.False(t, math.IsInf(got, 0))
		})
	}
}

func TestDurationFromTicks_ReportsClamp(t *testing.T) {
	_, clamped := durationFromTicks(-1)
	assert.True(t, clamped)

	_, clamped = durationFromTicks(0)
	assert.False(t, clamped, "zero ticks is a valid zero duration")

	_, clamped = durationFromTicks(10)
	assert.False(t, clamped)
}

func TestParseDateAdded(t *testing.T) {
	t.Run("Fractional seconds", func(t *testing.T) {
		ts, ok := ParseDateAdded("2024-01-15T10:00:00.500Z")
		assert.True(t, ok)
		assert.Equal(t, time.Date(2024, 1, 15, 10, 0, 0, 500_000_000, time.UTC), ts)
	})

	t.Run("Seven fractional digits", func(t *testing.T) {
		ts, ok := ParseDateAdded("2024-01-15T10:00:00.1234567Z")
		assert.True(t, ok)
		assert.Equal(t, 123_000_000, ts.Nanosecond())
	})

	t.Run("Rounds half up to milliseconds", func(t *testing.T) {
		ts, ok := ParseDateAdded("2024-01-15T10:00:00.1235678Z")
		assert.True(t, ok)
		assert.Equal(t, 124_000_000, ts.Nanosecond())
	})

	t.Run("Plain seconds", func(t *testing.T) {
		ts, ok := ParseDateAdded("2024-01-15T10:00:00Z")
		assert.True(t, ok)
		assert.Equal(t, time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC), ts)
	})

	t.Run("Offset normalized to UTC", func(t *testing.T) {
		ts, ok := ParseDateAdded("2024-01-15T12:00:00+02:00")
		assert.True(t, ok)
		assert.Equal(t, time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC), ts)
	})

	t.Run("Missing zone", func(t *testing.T) {
		ts, ok := ParseDateAdded("2024-01-15T10:00:00")
		assert.True(t, ok)
		assert.Equal(t, time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC), ts)
	})

	for _, raw := range []string{"", "   ", "not-a-date", "2024-13-45T99:00:00Z"} {
		t.Run("Invalid "+raw, func(t *testing.T) {
			_, ok := ParseDateAdded(raw)
			assert.False(t, ok)
		})
	}
}
