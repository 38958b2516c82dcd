package timing

import "time"

// TickerLimiter paces frames off a plain time.Ticker. It drifts under load
// since it never compensates for time spent outside WaitForNextFrame, but
// it's cheap and predictable — good enough when AdaptiveLimiter's drift
// correction isn't needed.
type TickerLimiter struct {
	ticker *time.Ticker
}

// NewTickerLimiter starts a ticker at the Game Boy's native frame rate.
func NewTickerLimiter() *TickerLimiter {
	return &TickerLimiter{ticker: time.NewTicker(FrameDuration())}
}

func (t *TickerLimiter) WaitForNextFrame() {
	<-t.ticker.C
}

func (t *TickerLimiter) Reset() {
	t.ticker.Reset(FrameDuration())
}

// Stop releases the underlying ticker. Callers that replace a
// TickerLimiter (e.g. on backend switch) should Stop the old one first.
func (t *TickerLimiter) Stop() {
	t.ticker.Stop()
}
