package transport

import (
	"context"
	"errors"
	"sync"

	"github.com/arloliu/go-homing/logger"
)

// Sentinel errors for transports.
var (
	ErrNotOpen       = errors.New("transport: not open")
	ErrAlreadyOpen   = errors.New("transport: already open")
	ErrClosed        = errors.New("transport: closed")
	ErrUnknownDriver = errors.New("transport: unknown serial driver")
	ErrNoReceiver    = errors.New("transport: no receiver registered")
)

// Receiver is invoked for each chunk of bytes a transport receives.
//
// src is the transport that received data; data is only valid for the duration
// of the call. A non-nil error is treated as fatal for the delivery path: the
// transport logs it and stops delivering.
type Receiver func(src Transport, data []byte) error

// Transport is a half-duplex byte-stream link.
type Transport interface {
	// Open starts the transport. Bytes received afterwards go to the Receiver.
	Open(ctx context.Context) error
	// Send writes data to the device. It does not wait for any reply.
	Send(data []byte) error
	// SetReceiver registers the single Receiver. It must be called before Open.
	SetReceiver(r Receiver)
	// Close stops the transport and joins its goroutines.
	Close() error
	// Name describes the transport for logs, e.g. "serial:/dev/ttyACM0".
	Name() string
	// Metrics returns the transport counters.
	Metrics() *Metrics
}

// base holds what both variants share: receiver slot, state and counters.
type base struct {
	name    string
	logger  logger.Logger
	opState AtomicOpState
	metrics Metrics

	recvMu   sync.RWMutex
	receiver Receiver
	stopped  bool // set when a Receiver returned an error
}

func newBase(name string, l logger.Logger) base {
	return base{
		name:    name,
		logger:  l.With("transport", name),
		metrics: newMetrics(),
	}
}

func (b *base) SetReceiver(r Receiver) {
	b.recvMu.Lock()
	defer b.recvMu.Unlock()

	b.receiver = r
	b.stopped = false
}

func (b *base) Name() string { return b.name }

func (b *base) Metrics() *Metrics { return &b.metrics }

// deliver hands data to the receiver. It returns false once delivery has stopped.
func (b *base) deliver(src Transport, data []byte) bool {
	b.recvMu.RLock()
	r, stopped := b.receiver, b.stopped
	b.recvMu.RUnlock()

	if stopped {
		return false
	}

	b.metrics.RecvCount.Inc()
	b.metrics.BytesRecv.Add(int64(len(data)))

	if r == nil {
		b.logger.Warn("transport: dropping received bytes", "error", ErrNoReceiver, "len", len(data))
		return true
	}

	if err := r(src, data); err != nil {
		b.logger.Error("transport: receiver failed, delivery stopped", "error", err)

		b.recvMu.Lock()
		b.stopped = true
		b.recvMu.Unlock()

		return false
	}

	return true
}
