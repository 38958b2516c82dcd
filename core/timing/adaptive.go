package timing

import (
	"log/slog"
	"time"
)

// AdaptiveLimiter paces frames against an absolute deadline rather than a
// fixed-interval ticker: it sleeps for most of the remaining budget, then
// busy-waits the last couple milliseconds for sub-millisecond accuracy, and
// periodically nudges the deadline back in line if it has drifted.
type AdaptiveLimiter struct {
	frameDuration time.Duration
	deadline      time.Time
	frames        int64
}

// NewAdaptiveLimiter builds a limiter targeting the Game Boy's native frame
// rate, with its first deadline starting now.
func NewAdaptiveLimiter() *AdaptiveLimiter {
	return &AdaptiveLimiter{
		frameDuration: FrameDuration(),
		deadline:      time.Now(),
	}
}

const (
	busyWaitThreshold = 2 * time.Millisecond
	driftCheckPeriod  = 60
	driftTolerance    = 10 * time.Millisecond
	catchUpThreshold  = -5 * time.Millisecond
)

func (a *AdaptiveLimiter) WaitForNextFrame() {
	remaining := a.deadline.Sub(time.Now())

	switch {
	case remaining > busyWaitThreshold:
		time.Sleep(remaining - time.Millisecond)
		a.spinUntil(a.deadline)
	case remaining > 0:
		a.spinUntil(a.deadline)
	case remaining < catchUpThreshold:
		// Far enough behind that waiting would never recover; drop the
		// deadline to now instead of free-running forever.
		a.deadline = time.Now()
	}

	a.deadline = a.deadline.Add(a.frameDuration)
	a.frames++

	if a.frames%driftCheckPeriod == 0 {
		a.correctDrift()
	}
}

func (a *AdaptiveLimiter) spinUntil(t time.Time) {
	for time.Now().Before(t) {
	}
}

// correctDrift nudges the deadline toward actual elapsed time, logging when
// the two have diverged by more than driftTolerance.
func (a *AdaptiveLimiter) correctDrift() {
	drift := time.Now().Sub(a.deadline)
	if drift.Abs() <= driftTolerance {
		return
	}
	a.deadline = a.deadline.Add(drift / 10)
	slog.Debug("frame timing drift correction", "drift_ms", drift.Milliseconds())
}

func (a *AdaptiveLimiter) Reset() {
	a.deadline = time.Now()
	a.frames = 0
}
