package signals

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/arloliu/go-homing/internal/pool"
)

var (
	// ErrTimeout indicates that Acquire gave up after its timeout elapsed.
	ErrTimeout = errors.New("signals: acquire timeout")

	// ErrNoWaiter indicates a Signal on a slot that already holds its token.
	// The call is rejected and the token count stays at one.
	ErrNoWaiter = errors.New("signals: no waiter, token already available")

	// ErrUnknownSignal indicates a Signal value outside the table.
	ErrUnknownSignal = errors.New("signals: unknown signal")
)

type slot struct {
	token   chan struct{}
	waiters atomic.Int32
}

// Table is a fixed set of independently gated binary signals.
//
// A Table is safe for concurrent use; it is shared by reference between the
// sequencer and the delivery path.
type Table struct {
	slots   [numSignals]slot
	metrics Metrics
}

// NewTable creates a Table with every signal available.
func NewTable() *Table {
	t := &Table{metrics: newMetrics()}
	for i := range t.slots {
		t.slots[i].token = make(chan struct{}, 1)
		t.slots[i].token <- struct{}{}
	}

	return t
}

// Acquire waits until sig's token is available and consumes it.
//
// A positive timeout bounds the wait and yields ErrTimeout on expiry; timeout <= 0
// waits until the token arrives or ctx is done, in which case the returned error
// wraps ctx.Err().
func (t *Table) Acquire(ctx context.Context, sig Signal, timeout time.Duration) error {
	s, err := t.slot(sig)
	if err != nil {
		return err
	}

	// fast path, no timer needed
	select {
	case <-s.token:
		t.metrics.AcquireCount.Inc()
		return nil
	default:
	}

	deadline := pool.NewDeadline(timeout)
	defer deadline.Release()

	s.waiters.Add(1)
	defer s.waiters.Add(-1)

	select {
	case <-s.token:
		t.metrics.AcquireCount.Inc()
		return nil

	case <-deadline.C():
		t.metrics.TimeoutCount.Inc()
		return fmt.Errorf("%w: %s after %v", ErrTimeout, sig, timeout)

	case <-ctx.Done():
		t.metrics.TimeoutCount.Inc()
		return fmt.Errorf("signals: acquire %s: %w", sig, ctx.Err())
	}
}

// TryAcquire consumes sig's token if it is available, without waiting.
func (t *Table) TryAcquire(sig Signal) bool {
	s, err := t.slot(sig)
	if err != nil {
		return false
	}

	select {
	case <-s.token:
		t.metrics.AcquireCount.Inc()
		return true
	default:
		return false
	}
}

// Signal makes sig's token available, waking one pending Acquire if present.
//
// It returns ErrNoWaiter, and changes nothing, when the token is already
// available.
func (t *Table) Signal(sig Signal) error {
	s, err := t.slot(sig)
	if err != nil {
		return err
	}

	select {
	case s.token <- struct{}{}:
		t.metrics.SignalCount.Inc()
		return nil
	default:
		t.metrics.RejectedCount.Inc()
		return fmt.Errorf("%w: %s", ErrNoWaiter, sig)
	}
}

// Available reports whether sig currently holds its token.
func (t *Table) Available(sig Signal) bool {
	s, err := t.slot(sig)
	if err != nil {
		return false
	}

	return len(s.token) == 1
}

// Waiting returns the number of Acquire calls currently blocked on sig.
func (t *Table) Waiting(sig Signal) int {
	s, err := t.slot(sig)
	if err != nil {
		return 0
	}

	return int(s.waiters.Load())
}

// Metrics returns the table's counters.
func (t *Table) Metrics() *Metrics {
	return &t.metrics
}

func (t *Table) slot(sig Signal) (*slot, error) {
	if !sig.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownSignal, sig)
	}

	return &t.slots[sig], nil
}
