package session

import "time"

// TickerFunc schedules fn on a fixed one-second cadence and returns a
// cancellation handle. Cancelling must stop further invocations; a stray
// callback already in flight is tolerated because Tick ignores ticks
// outside InProgress.
type TickerFunc func(fn func()) (cancel func())

// DefaultTicker is the production clock, backed by time.Ticker.
func DefaultTicker(fn func()) func() {
	t := time.NewTicker(time.Second)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-t.C:
				fn()
			case <-done:
				return
			}
		}
	}()

	return func() {
		t.Stop()
		close(done)
	}
}

// NopTicker never fires. Useful for callers that drive Tick manually.
func NopTicker(func()) func() {
	return func() {}
}
