package interceptor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimings(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	tm := newTimings()
	tm.now = func() time.Time { return now }

	tm.start("a")
	tm.start("b")

	now = now.Add(1500 * time.Millisecond)

	elapsed, ok := tm.stop("a")
	assert.True(t, ok)
	assert.InDelta(t, 1.5, elapsed, 1e-9)

	_, ok = tm.stop("a")
	assert.False(t, ok, "a request is timed once")

	now = now.Add(-time.Hour)

	elapsed, ok = tm.stop("b")
	assert.True(t, ok)
	assert.Zero(t, elapsed, "clock going backwards never yields a negative duration")

	_, ok = tm.stop("unknown")
	assert.False(t, ok)
}
