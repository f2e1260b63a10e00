// Package debounce delays a call until input has been quiet for a while.
package debounce

import (
	"context"
	"sync"
	"time"
)

// DefaultDelay is used when New is given a non-positive delay.
const DefaultDelay = 300 * time.Millisecond

// Debouncer runs only the last function passed to Do, once delay has elapsed
// without another call. Each scheduled function gets a context that is cancelled
// as soon as it is superseded, so a call already running can stop early.
type Debouncer struct {
	mu     sync.Mutex
	delay  time.Duration
	timer  *time.Timer
	cancel context.CancelFunc
}

// New returns a debouncer with the given delay.
func New(delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Debouncer{delay: delay}
}

// Delay returns the configured quiet period.
func (d *Debouncer) Delay() time.Duration {
	return d.delay
}

// Do schedules fn, replacing and cancelling whatever was scheduled before.
// fn runs on its own goroutine with a context derived from ctx.
func (d *Debouncer) Do(ctx context.Context, fn func(ctx context.Context)) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopLocked()

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.timer = time.AfterFunc(d.delay, func() {
		// Stop can lose the race against the timer firing; the context cannot.
		if runCtx.Err() != nil {
			return
		}
		fn(runCtx)
	})
}

// Cancel drops the pending call, if any, and cancels the context of the last one.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
}

func (d *Debouncer) stopLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
}
