package pool

import (
	"sync"
	"time"
)

var timerPool sync.Pool

// GetTimer returns a timer for the given duration d from the pool.
//
// Return back the timer to the pool with PutTimer.
func GetTimer(d time.Duration) *time.Timer {
	if v := timerPool.Get(); v != nil {
		t, _ := v.(*time.Timer) // only *time.Timer is ever put into the pool
		if t.Reset(d) {
			select {
			case <-t.C:
			default:
			}
		}

		return t
	}

	return time.NewTimer(d)
}

// PutTimer returns timer to the pool.
//
// t cannot be accessed after returning to the pool.
func PutTimer(t *time.Timer) {
	if t == nil {
		return
	}

	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	timerPool.Put(t)
}

// Deadline is an optional pooled timer used by waits that may or may not be bounded.
//
// A Deadline created with a non-positive duration never fires: its channel is nil,
// which blocks forever inside a select.
type Deadline struct {
	timer *time.Timer
}

// NewDeadline returns a Deadline that fires after d, or never if d <= 0.
func NewDeadline(d time.Duration) Deadline {
	if d <= 0 {
		return Deadline{}
	}

	return Deadline{timer: GetTimer(d)}
}

// C returns the channel to select on. It is nil for an unbounded Deadline.
func (d Deadline) C() <-chan time.Time {
	if d.timer == nil {
		return nil
	}

	return d.timer.C
}

// Bounded reports whether the Deadline will ever fire.
func (d Deadline) Bounded() bool {
	return d.timer != nil
}

// Release returns the underlying timer to the pool.
func (d Deadline) Release() {
	PutTimer(d.timer)
}
