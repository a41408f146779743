package auth

import (
	"sync"
	"time"
)

// Scheduler runs f once after d. Stop on the returned handle prevents a
// call that has not started yet.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Stopper
}

type Stopper interface {
	Stop() bool
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Stopper {
	return time.AfterFunc(d, f)
}

// SessionTimer is a one-shot expiry task. At most one task is armed; a
// callback from a superseded task is dropped.
type SessionTimer struct {
	sched Scheduler

	mu   sync.Mutex
	gen  uint64
	task Stopper
}

func NewSessionTimer(sched Scheduler) *SessionTimer {
	if sched == nil {
		sched = realScheduler{}
	}
	return &SessionTimer{sched: sched}
}

// Arm cancels any armed task and schedules onFire after d.
func (t *SessionTimer) Arm(d time.Duration, onFire func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelLocked()
	gen := t.gen
	t.task = t.sched.AfterFunc(d, func() {
		t.mu.Lock()
		if gen != t.gen {
			t.mu.Unlock()
			return
		}
		t.task = nil
		t.mu.Unlock()
		onFire()
	})
}

// Cancel disarms the timer. It is a no-op when nothing is armed.
func (t *SessionTimer) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelLocked()
}

// Armed reports whether a task is scheduled and has not fired.
func (t *SessionTimer) Armed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.task != nil
}

func (t *SessionTimer) cancelLocked() {
	if t.task != nil {
		t.task.Stop()
		t.task = nil
	}
	t.gen++
}
