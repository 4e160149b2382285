package homing

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/arloliu/go-homing/internal/pool"
	"github.com/arloliu/go-homing/logger"
	"github.com/arloliu/go-homing/signals"
	"github.com/arloliu/go-homing/transport"
)

// Sequencer runs the homing procedure over a transport.
//
// Home sends the home command, then the X and Y backoff commands, each only
// after the device acknowledged the previous one. Acknowledgments reach the
// sequencer through its Dispatcher, which is registered as the transport's
// receiver by NewSequencer.
//
// At most one Home runs at a time; an overlapping call waits up to the busy
// timeout and then fails with ErrBusy.
type Sequencer struct {
	cfg        *config
	transport  transport.Transport
	table      *signals.Table
	dispatcher *Dispatcher
	tracer     *tracer
	logger     logger.Logger
	metrics    Metrics
	stateMgr   stateMgr
	callLock   chan struct{}
	closed     atomic.Bool
}

// NewSequencer creates a Sequencer that sends over tr and receives through a
// Dispatcher bound to tr. tr must be opened by the caller after NewSequencer
// returns.
func NewSequencer(tr transport.Transport, opts ...Option) (*Sequencer, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}

	if tr == nil {
		return nil, fmt.Errorf("%w: nil transport", ErrInvalidOption)
	}

	l := cfg.logger.With("transport", tr.Name())

	s := &Sequencer{
		cfg:       cfg,
		transport: tr,
		table:     cfg.table,
		tracer:    newTracer(cfg.clock, l),
		logger:    l,
		metrics:   newMetrics(),
		callLock:  make(chan struct{}, 1),
	}
	s.callLock <- struct{}{}
	s.stateMgr.seq = s

	dcfg := *cfg
	dcfg.logger = l
	s.dispatcher, err = newDispatcher(tr, &dcfg, s.tracer)
	if err != nil {
		s.tracer.close()
		return nil, err
	}

	return s, nil
}

// Home runs the full homing procedure and returns when it completed or failed.
//
// The returned error wraps ErrBusy, ErrNoAcknowledgment, ErrTransport or ErrClosed.
func (s *Sequencer) Home(ctx context.Context) error {
	if s.closed.Load() {
		return ErrClosed
	}

	s.metrics.HomeCount.Inc()

	if err := s.lockCall(ctx); err != nil {
		s.onFailure(err)
		return err
	}
	defer s.unlockCall()

	r := newRun(&s.stateMgr)
	s.trace("Beginning home")
	s.logger.Info("home started")

	for _, st := range homeStages {
		if err := s.runStage(ctx, r, st); err != nil {
			r.fail(err)
			s.onFailure(err)

			return err
		}
	}

	r.advance(Complete)
	s.metrics.CompleteCount.Inc()
	s.trace("Finished home")
	s.logger.Info("home finished")

	return nil
}

func (s *Sequencer) onFailure(err error) {
	switch {
	case errors.Is(err, ErrBusy):
		s.metrics.BusyCount.Inc()
	case errors.Is(err, ErrNoAcknowledgment):
		s.metrics.NoAckCount.Inc()
	case errors.Is(err, ErrTransport):
		s.metrics.TransportErrCount.Inc()
	}

	s.trace("Home failed: " + err.Error())
	s.logger.Error("home failed", "error", err)
}

func (s *Sequencer) lockCall(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrBusy, err)
	}

	select {
	case <-s.callLock:
		return nil
	default:
	}

	timer := pool.GetTimer(s.cfg.busyTimeout)
	defer pool.PutTimer(timer)

	select {
	case <-s.callLock:
		return nil
	case <-timer.C:
		return fmt.Errorf("%w: another home is running after %s", ErrBusy, s.cfg.busyTimeout)
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrBusy, ctx.Err())
	}
}

func (s *Sequencer) unlockCall() {
	s.callLock <- struct{}{}
}

func (s *Sequencer) trace(msg string) {
	s.tracer.emit(msg)
}

// AddLogHandler registers h to receive every trace line. The returned function
// unregisters it.
func (s *Sequencer) AddLogHandler(h LogHandler) (remove func()) {
	return s.tracer.add(h)
}

// AddStateChangeHandler registers handlers invoked on every state change.
func (s *Sequencer) AddStateChangeHandler(handlers ...StateChangeHandler) {
	s.stateMgr.addHandler(handlers...)
}

// State returns the state of the current or last Home invocation.
func (s *Sequencer) State() SequenceState {
	return s.stateMgr.get()
}

// LastError returns the error of the last failed invocation, or nil if the last
// invocation has not failed.
func (s *Sequencer) LastError() error {
	return s.stateMgr.err()
}

// Dispatcher returns the dispatcher bound to the sequencer's transport.
func (s *Sequencer) Dispatcher() *Dispatcher {
	return s.dispatcher
}

// Table returns the signal table shared by the sequencer and its dispatcher.
func (s *Sequencer) Table() *signals.Table {
	return s.table
}

// Transport returns the transport the sequencer sends over.
func (s *Sequencer) Transport() transport.Transport {
	return s.transport
}

// Metrics returns the sequencer counters.
func (s *Sequencer) Metrics() *Metrics {
	return &s.metrics
}

// Close rejects further Home calls and delivers the queued trace lines to the
// log handlers. It does not close the transport. Lines emitted by a Home still
// running are dropped.
func (s *Sequencer) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}

	s.tracer.close()
	s.logger.Debug("sequencer closed")

	return nil
}
