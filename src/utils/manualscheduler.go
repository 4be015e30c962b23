package utils

import (
	"sync"
	"time"
)

// ManualScheduler is a Scheduler whose callbacks only run when Advance is
// called. Tests use it to drive timers deterministically.
type ManualScheduler struct {
	mu    sync.Mutex
	now   time.Duration
	tasks []*manualTask
}

type manualTask struct {
	s       *ManualScheduler
	at      time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (t *manualTask) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	wasActive := !t.stopped && !t.fired
	t.stopped = true
	return wasActive
}

func (s *ManualScheduler) AfterFunc(d time.Duration, f func()) Stopper {
	s.mu.Lock()
	defer s.mu.Unlock()
	task := &manualTask{s: s, at: s.now + d, f: f}
	s.tasks = append(s.tasks, task)
	return task
}

// Advance moves the clock forward by d and runs, in order, every callback
// that has come due and was not stopped.
func (s *ManualScheduler) Advance(d time.Duration) int {
	s.mu.Lock()
	s.now += d
	var due []*manualTask
	for _, task := range s.tasks {
		if !task.stopped && !task.fired && task.at <= s.now {
			task.fired = true
			due = append(due, task)
		}
	}
	s.mu.Unlock()

	for _, task := range due {
		task.f()
	}
	return len(due)
}

// Active counts callbacks that are scheduled and neither stopped nor fired.
func (s *ManualScheduler) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, task := range s.tasks {
		if !task.stopped && !task.fired {
			n++
		}
	}
	return n
}
