package transport

import "github.com/puzpuzpuz/xsync/v3"

// Metrics contains the counters of a transport.
// The counters can be used as the value of a prometheus CounterFunc.
type Metrics struct {
	// SendCount indicates the number of successful Send calls.
	SendCount *xsync.Counter
	// SendErrCount indicates the number of failed Send calls.
	SendErrCount *xsync.Counter
	// BytesSent indicates the number of bytes written.
	BytesSent *xsync.Counter
	// RecvCount indicates the number of received chunks delivered to the receiver.
	RecvCount *xsync.Counter
	// BytesRecv indicates the number of bytes received.
	BytesRecv *xsync.Counter
}

func newMetrics() Metrics {
	return Metrics{
		SendCount:    xsync.NewCounter(),
		SendErrCount: xsync.NewCounter(),
		BytesSent:    xsync.NewCounter(),
		RecvCount:    xsync.NewCounter(),
		BytesRecv:    xsync.NewCounter(),
	}
}
