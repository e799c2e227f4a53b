// Package bounded provides wait primitives that always terminate.
// Every busy-wait in the controller goes through here so that a missing
// hardware flag turns into a timeout result instead of a hung loop.
package bounded

import (
	"errors"
	"time"
)

// ErrTimeout is returned when a wait exhausts its budget.
var ErrTimeout = errors.New("bounded: timeout")

// Spin polls ready up to limit times and reports whether it became true.
// A limit <= 0 checks ready exactly once.
func Spin(limit int, ready func() bool) bool {
	if limit <= 0 {
		return ready()
	}
	for i := 0; i < limit; i++ {
		if ready() {
			return true
		}
	}
	return false
}

// Waiter waits on wall-clock time. Now and Sleep are injectable for tests.
type Waiter struct {
	Now      func() time.Time
	Sleep    func(time.Duration)
	Interval time.Duration // poll interval between ready checks
}

// NewWaiter creates a Waiter backed by the real clock.
func NewWaiter(interval time.Duration) *Waiter {
	return &Waiter{
		Now:      time.Now,
		Sleep:    time.Sleep,
		Interval: interval,
	}
}

// Until polls ready until it returns true or timeout elapses.
// Returns nil on success, ErrTimeout otherwise.
func (w *Waiter) Until(timeout time.Duration, ready func() bool) error {
	deadline := w.Now().Add(timeout)
	for {
		if ready() {
			return nil
		}
		if !w.Now().Before(deadline) {
			return ErrTimeout
		}
		if w.Interval > 0 {
			w.Sleep(w.Interval)
		}
	}
}
