package utils

import (
	"sync"
	"time"
)

// Stopper is satisfied by *time.Timer.
type Stopper interface {
	Stop() bool
}

// A Scheduler runs f on its own goroutine after d.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Stopper
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Stopper {
	return time.AfterFunc(d, f)
}

var RealScheduler Scheduler = realScheduler{}

// ReplaceableTimer holds at most one pending callback. Scheduling a new one
// supersedes the old, and a superseded callback never runs even if its timer
// had already fired by the time it was replaced.
type ReplaceableTimer struct {
	scheduler Scheduler

	mu      sync.Mutex
	pending Stopper
	gen     uint64
	closed  bool
}

func NewReplaceableTimer(s Scheduler) *ReplaceableTimer {
	return &ReplaceableTimer{
		scheduler: OrDefault(s, RealScheduler),
	}
}

// Replace cancels any pending callback and schedules f to run after d.
// It does nothing once the timer is closed.
func (t *ReplaceableTimer) Replace(d time.Duration, f func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return
	}
	t.stopLocked()

	gen := t.gen
	t.pending = t.scheduler.AfterFunc(d, func() {
		t.mu.Lock()
		current := gen == t.gen && !t.closed
		if current {
			t.pending = nil
		}
		t.mu.Unlock()

		if current {
			f()
		}
	})
}

// Cancel drops the pending callback, if any. Reports whether one was pending.
func (t *ReplaceableTimer) Cancel() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopLocked()
}

// Close cancels the pending callback and refuses all future ones.
func (t *ReplaceableTimer) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
	t.closed = true
}

func (t *ReplaceableTimer) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pending != nil
}

func (t *ReplaceableTimer) stopLocked() bool {
	t.gen++
	if t.pending == nil {
		return false
	}
	t.pending.Stop()
	t.pending = nil
	return true
}
