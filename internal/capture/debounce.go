// Package capture turns bursts of view signal updates into committed
// interactions.
package capture

import (
	"sync"
	"time"
)

// DefaultWait is the default quiescence window
const DefaultWait = 300 * time.Millisecond

// Timer is a pending delayed call
type Timer interface {
	Stop() bool
}

// Clock schedules delayed calls
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// RealClock schedules with the time package
var RealClock Clock = realClock{}

// Debouncer runs only the last function triggered within a burst, once the
// burst has been quiet for the wait window
type Debouncer struct {
	mu      sync.Mutex
	wait    time.Duration
	clock   Clock
	timer   Timer
	gen     uint64
	stopped bool
}

// NewDebouncer creates a debouncer; a zero wait uses DefaultWait and a nil
// clock uses RealClock
func NewDebouncer(wait time.Duration, clock Clock) *Debouncer {
	if wait <= 0 {
		wait = DefaultWait
	}
	if clock == nil {
		clock = RealClock
	}
	return &Debouncer{wait: wait, clock: clock}
}

// Trigger cancels any pending call and schedules fn after the wait window
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = d.clock.AfterFunc(d.wait, func() {
		d.mu.Lock()
		// a timer that lost the race with Stop or a newer Trigger is stale
		if d.stopped || d.gen != gen {
			d.mu.Unlock()
			return
		}
		d.timer = nil
		d.mu.Unlock()
		fn()
	})
}

// Pending reports whether a call is scheduled
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// Stop cancels the pending call; later triggers are ignored
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
