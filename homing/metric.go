package homing

import "github.com/puzpuzpuz/xsync/v3"

// Metrics contains the counters of a Sequencer.
// The counters can be used as the value of a prometheus CounterFunc.
type Metrics struct {
	// HomeCount indicates the number of Home calls.
	HomeCount *xsync.Counter
	// CompleteCount indicates the number of Home calls that reached Complete.
	CompleteCount *xsync.Counter
	// BusyCount indicates the number of Home calls that failed with ErrBusy.
	BusyCount *xsync.Counter
	// NoAckCount indicates the number of Home calls that failed with ErrNoAcknowledgment.
	NoAckCount *xsync.Counter
	// TransportErrCount indicates the number of Home calls that failed with ErrTransport.
	TransportErrCount *xsync.Counter
	// StageCount indicates the number of stages acknowledged by the device.
	StageCount *xsync.Counter
}

func newMetrics() Metrics {
	return Metrics{
		HomeCount:         xsync.NewCounter(),
		CompleteCount:     xsync.NewCounter(),
		BusyCount:         xsync.NewCounter(),
		NoAckCount:        xsync.NewCounter(),
		TransportErrCount: xsync.NewCounter(),
		StageCount:        xsync.NewCounter(),
	}
}

// DispatcherMetrics contains the counters of a Dispatcher.
type DispatcherMetrics struct {
	// TokenCount indicates the number of recognized acknowledgments.
	TokenCount *xsync.Counter
	// UnrecognizedCount indicates the number of lines outside the vocabulary.
	UnrecognizedCount *xsync.Counter
	// RejectedCount indicates the number of acknowledgments whose signal already
	// held its token.
	RejectedCount *xsync.Counter
	// ForeignSourceCount indicates the number of deliveries from an unbound transport.
	ForeignSourceCount *xsync.Counter
}

func newDispatcherMetrics() DispatcherMetrics {
	return DispatcherMetrics{
		TokenCount:         xsync.NewCounter(),
		UnrecognizedCount:  xsync.NewCounter(),
		RejectedCount:      xsync.NewCounter(),
		ForeignSourceCount: xsync.NewCounter(),
	}
}
