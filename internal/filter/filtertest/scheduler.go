// Package filtertest provides a manually advanced scheduler for driving
// debounce windows deterministically in tests.
package filtertest

import (
	"sort"
	"sync"
	"time"

	"einvoice/internal/filter"
)

// ManualScheduler fires timers only when Advance moves its clock past them.
type ManualScheduler struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*manualTimer
}

type manualTimer struct {
	sched   *ManualScheduler
	at      time.Duration
	fn      func()
	stopped bool
	fired   bool
}

// NewManualScheduler returns a scheduler whose clock starts at zero.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

// AfterFunc implements filter.Scheduler.
func (s *ManualScheduler) AfterFunc(d time.Duration, f func()) filter.Timer {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := &manualTimer{sched: s, at: s.now + d, fn: f}
	s.timers = append(s.timers, t)
	return t
}

// Advance moves the clock forward and runs every timer that came due, in
// due-time order, outside the scheduler lock.
func (s *ManualScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	s.now += d
	var due, rest []*manualTimer
	for _, t := range s.timers {
		switch {
		case t.stopped || t.fired:
		case t.at <= s.now:
			t.fired = true
			due = append(due, t)
		default:
			rest = append(rest, t)
		}
	}
	s.timers = rest
	s.mu.Unlock()

	sort.SliceStable(due, func(i, j int) bool { return due[i].at < due[j].at })
	for _, t := range due {
		t.fn()
	}
}

// Pending counts timers that are neither stopped nor fired.
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

func (t *manualTimer) Stop() bool {
	t.sched.mu.Lock()
	defer t.sched.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}
