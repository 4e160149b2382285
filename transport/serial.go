package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/arloliu/go-homing/internal/task"
)

// Port is an open serial device.
type Port io.ReadWriteCloser

type portOpener func(device string, cfg *config) (Port, error)

var openers = map[Driver]portOpener{
	DriverBugst: openBugst,
	DriverTarm:  openTarm,
}

// SerialTransport is a Transport over a serial port.
//
// Writes are serialized; a read loop task delivers every received chunk to the
// Receiver until Close, a read error, or a Receiver error.
type SerialTransport struct {
	base

	device string
	cfg    *config
	owned  bool // port is opened and closed by the transport

	mu      sync.Mutex // protects port and taskMgr
	port    Port
	taskMgr *task.Manager

	writeMu sync.Mutex
}

var _ Transport = (*SerialTransport)(nil)

// NewSerial creates a SerialTransport for device. The port is opened by Open with
// the configured driver.
func NewSerial(device string, opts ...Option) (*SerialTransport, error) {
	if device == "" {
		return nil, fmt.Errorf("%w: empty device name", ErrInvalidOption)
	}

	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}

	return &SerialTransport{
		base:   newBase("serial:"+device, cfg.logger),
		device: device,
		cfg:    cfg,
		owned:  true,
	}, nil
}

// NewSerialWithPort creates a SerialTransport over an already open port.
// The transport closes port on Close and cannot be reopened afterwards.
func NewSerialWithPort(name string, port Port, opts ...Option) (*SerialTransport, error) {
	if port == nil {
		return nil, fmt.Errorf("%w: nil port", ErrInvalidOption)
	}

	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}

	return &SerialTransport{
		base: newBase("serial:"+name, cfg.logger),
		cfg:  cfg,
		port: port,
	}, nil
}

// Open opens the port (when the transport owns it) and starts the read loop.
// The read loop stops when ctx is cancelled.
func (t *SerialTransport) Open(ctx context.Context) error {
	if !t.opState.ToOpening() {
		if t.opState.IsOpened() {
			return ErrAlreadyOpen
		}

		return ErrClosed
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.opState.Get() != OpeningState {
		return ErrClosed
	}

	if t.port == nil {
		if !t.owned {
			t.opState.ToClosing()
			t.opState.ToClosed()

			return ErrClosed
		}

		port, err := openers[t.cfg.driver](t.device, t.cfg)
		if err != nil {
			t.opState.ToClosing()
			t.opState.ToClosed()

			return fmt.Errorf("transport: open %s: %w", t.device, err)
		}

		t.port = port
	}

	t.taskMgr = task.NewManager(ctx, t.logger)

	buf := make([]byte, t.cfg.readBufSize)
	port := t.port

	if err := t.taskMgr.Start("readLoop", func(ctx context.Context) bool {
		return t.readOnce(ctx, port, buf)
	}); err != nil {
		t.opState.ToClosing()
		t.opState.ToClosed()

		return err
	}

	t.opState.ToOpened()
	t.logger.Info("transport opened", "driver", t.cfg.driver, "baudRate", t.cfg.baudRate)

	return nil
}

func (t *SerialTransport) readOnce(ctx context.Context, port Port, buf []byte) bool {
	n, err := port.Read(buf)
	if n > 0 && !t.deliver(t, buf[:n]) {
		return false
	}

	if err == nil {
		return true
	}

	if ctx.Err() != nil || !t.opState.IsOpened() {
		return false
	}

	// tarm/serial reports an expired read timeout as io.EOF.
	if errors.Is(err, io.EOF) && t.cfg.driver == DriverTarm {
		return true
	}

	t.logger.Error("transport: read failed, read loop stopped", "error", err)

	return false
}

// Send writes data to the port. Concurrent calls are serialized.
func (t *SerialTransport) Send(data []byte) error {
	if !t.opState.IsOpened() {
		t.metrics.SendErrCount.Inc()
		return ErrNotOpen
	}

	t.mu.Lock()
	port := t.port
	t.mu.Unlock()

	if port == nil {
		t.metrics.SendErrCount.Inc()
		return ErrNotOpen
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	for written := 0; written < len(data); {
		n, err := port.Write(data[written:])
		if err != nil {
			t.metrics.SendErrCount.Inc()
			return fmt.Errorf("transport: write %s: %w", t.name, err)
		}
		written += n
	}

	t.metrics.SendCount.Inc()
	t.metrics.BytesSent.Add(int64(len(data)))
	t.logger.Debug("transport sent", "data", string(data))

	return nil
}

// Close stops the read loop, closes the port and waits for the loop to exit.
func (t *SerialTransport) Close() error {
	if !t.opState.ToClosing() {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.taskMgr != nil {
		t.taskMgr.Stop()
	}

	var err error
	if t.port != nil {
		err = t.port.Close()
		t.port = nil
	}

	if t.taskMgr != nil {
		t.taskMgr.Wait()
	}
	t.opState.ToClosed()
	t.logger.Info("transport closed")

	if err != nil {
		return fmt.Errorf("transport: close %s: %w", t.name, err)
	}

	return nil
}
