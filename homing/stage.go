package homing

import (
	"context"
	"errors"
	"fmt"

	"github.com/arloliu/go-homing/protocol"
	"github.com/arloliu/go-homing/signals"
)

// stage is one command/acknowledgment step of the Home procedure.
type stage struct {
	name  string
	cmd   protocol.Command
	sig   signals.Signal
	state SequenceState
}

// homeStages are run in order; a stage starts only after the previous one was
// acknowledged.
var homeStages = []stage{
	{name: "Home", cmd: protocol.HomeCommand(), sig: signals.Homed, state: AwaitingHome},
	{name: "X backoff", cmd: protocol.BackoffCommand(protocol.AxisX), sig: signals.XDone, state: AwaitingXBackoff},
	{name: "Y backoff", cmd: protocol.BackoffCommand(protocol.AxisY), sig: signals.YDone, state: AwaitingYBackoff},
}

// runStage sends the stage command and waits for its acknowledgment.
//
// The stage signal is held from before the send until the acknowledgment is
// consumed, then released exactly once.
func (s *Sequencer) runStage(ctx context.Context, r *run, st stage) error {
	r.advance(st.state)

	if err := s.table.Acquire(ctx, st.sig, s.cfg.busyTimeout); err != nil {
		return fmt.Errorf("%w: %s: signal %s unavailable: %w", ErrBusy, st.name, st.sig, err)
	}
	defer s.release(st)

	// the token fast path does not observe ctx; never start a motion for a
	// cancelled call
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrBusy, st.name, err)
	}

	s.trace(fmt.Sprintf("%s: sending %s", st.name, st.cmd))
	s.logger.Info("stage started", "stage", st.name, "command", st.cmd.String())

	if err := s.transport.Send(st.cmd.Encode()); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrTransport, st.name, err)
	}

	if err := s.table.Acquire(ctx, st.sig, s.cfg.ackTimeout); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrNoAcknowledgment, st.name, err)
	}

	s.metrics.StageCount.Inc()
	s.trace(st.sig.String())
	s.logger.Info("stage acknowledged", "stage", st.name, "signal", st.sig.String())

	return nil
}

// release returns the stage token. A straggling acknowledgment may already have
// refilled the slot, in which case the release is dropped.
func (s *Sequencer) release(st stage) {
	err := s.table.Signal(st.sig)
	switch {
	case err == nil:
	case errors.Is(err, signals.ErrNoWaiter):
		s.logger.Warn("stage release ignored, token already present", "stage", st.name, "signal", st.sig.String())
	default:
		s.logger.Error("stage release failed", "stage", st.name, "error", err)
	}
}
