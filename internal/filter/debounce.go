package filter

import (
	"sync"
	"time"
)

// DefaultDebounce is the quiet period between the last filter-row edit and the
// commit that triggers a fetch.
const DefaultDebounce = 500 * time.Millisecond

// Timer is a scheduled callback that can be stopped.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d has elapsed.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type systemScheduler struct{}

func (systemScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// SystemScheduler schedules on the wall clock.
var SystemScheduler Scheduler = systemScheduler{}

// Debouncer owns a single trailing-edge timer. Every Trigger restarts the
// window; only the callback of the last Trigger ever runs.
type Debouncer struct {
	mu    sync.Mutex
	wait  time.Duration
	sched Scheduler
	timer Timer
	seq   uint64
}

// NewDebouncer creates a debouncer with the given window. A nil scheduler
// uses the wall clock; a non-positive window uses DefaultDebounce.
func NewDebouncer(wait time.Duration, sched Scheduler) *Debouncer {
	if wait <= 0 {
		wait = DefaultDebounce
	}
	if sched == nil {
		sched = SystemScheduler
	}
	return &Debouncer{wait: wait, sched: sched}
}

// Wait returns the debounce window.
func (d *Debouncer) Wait() time.Duration {
	return d.wait
}

// Trigger schedules fn at the end of a fresh window, dropping any callback
// scheduled earlier.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.seq++
	seq := d.seq
	d.timer = d.sched.AfterFunc(d.wait, func() {
		d.mu.Lock()
		// A timer that already fired can lose the race with Stop; the
		// sequence number tells a superseded callback apart.
		if seq != d.seq || d.timer == nil {
			d.mu.Unlock()
			return
		}
		d.timer = nil
		d.mu.Unlock()
		fn()
	})
}

// Cancel drops the pending callback. It reports whether one was pending.
func (d *Debouncer) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer == nil {
		return false
	}
	d.timer.Stop()
	d.timer = nil
	d.seq++
	return true
}

// Pending reports whether a callback is scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}
