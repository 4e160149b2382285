package signals

import "github.com/puzpuzpuz/xsync/v3"

// Metrics contains the counters of a Table.
// The counters can be used as the value of a prometheus CounterFunc.
type Metrics struct {
	// AcquireCount indicates the number of tokens consumed.
	AcquireCount *xsync.Counter
	// TimeoutCount indicates the number of Acquire calls that gave up.
	TimeoutCount *xsync.Counter
	// SignalCount indicates the number of accepted Signal calls.
	SignalCount *xsync.Counter
	// RejectedCount indicates the number of Signal calls rejected with ErrNoWaiter.
	RejectedCount *xsync.Counter
}

func newMetrics() Metrics {
	return Metrics{
		AcquireCount:  xsync.NewCounter(),
		TimeoutCount:  xsync.NewCounter(),
		SignalCount:   xsync.NewCounter(),
		RejectedCount: xsync.NewCounter(),
	}
}
