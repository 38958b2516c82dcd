package timing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFrameDurationMatchesHardwareRate(t *testing.T) {
	assert.InDelta(t, 59.7, TargetFPS(), 0.1)
	assert.InDelta(t, float64(16742), float64(FrameDuration().Microseconds()), 50)
}

func TestNoOpLimiterNeverBlocks(t *testing.T) {
	l := NewNoOpLimiter()
	start := time.Now()
	for i := 0; i < 1000; i++ {
		l.WaitForNextFrame()
	}
	assert.Less(t, time.Since(start), 10*time.Millisecond)
	l.Reset()
}

func TestTickerLimiterWaitsRoughlyOneFrame(t *testing.T) {
	l := NewTickerLimiter()
	defer l.Stop()

	start := time.Now()
	l.WaitForNextFrame()
	elapsed := time.Since(start)

	assert.InDelta(t, float64(FrameDuration()), float64(elapsed), float64(10*time.Millisecond))
}

func TestAdaptiveLimiterResetMovesDeadlineToNow(t *testing.T) {
	a := NewAdaptiveLimiter()
	a.frames = 42
	a.Reset()

	assert.Equal(t, int64(0), a.frames)
	assert.WithinDuration(t, time.Now(), a.deadline, 5*time.Millisecond)
}
