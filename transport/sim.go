package transport

import (
	"bytes"
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/arloliu/go-homing/internal/pool"
	"github.com/arloliu/go-homing/internal/task"
	"github.com/arloliu/go-homing/protocol"
)

// SimTransport simulates the motion controller.
//
// Each command line sent to it is answered after one to three time units:
//
//	2               -> "Home done"
//	0 backoff=<b>   -> "XDone backoff=<b>"
//	1 backoff=<b>   -> "YDone backoff=<b>"
//
// Delays are drawn from a generator seeded with WithSeed, in the order commands
// are sent, so a given seed always yields the same delay sequence. Lines that do
// not parse, and unknown opcodes, are logged and get no reply.
type SimTransport struct {
	base

	cfg *config

	mu      sync.Mutex // protects rng, pending and taskMgr
	rng     *rand.Rand
	pending bytes.Buffer
	taskMgr *task.Manager

	deliverMu sync.Mutex // one reply on the line at a time
}

var _ Transport = (*SimTransport)(nil)

// NewSim creates a simulated transport.
func NewSim(opts ...Option) (*SimTransport, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}

	return &SimTransport{
		base: newBase(fmt.Sprintf("sim:seed=%d", cfg.seed), cfg.logger),
		cfg:  cfg,
		rng:  rand.New(rand.NewSource(cfg.seed)), //nolint:gosec
	}, nil
}

// Open starts the simulator. Pending replies are dropped when ctx is cancelled.
func (s *SimTransport) Open(ctx context.Context) error {
	if !s.opState.ToOpening() {
		if s.opState.IsOpened() {
			return ErrAlreadyOpen
		}

		return ErrClosed
	}

	s.mu.Lock()
	s.taskMgr = task.NewManager(ctx, s.logger)
	s.pending.Reset()
	s.mu.Unlock()

	s.opState.ToOpened()
	s.logger.Info("transport opened", "timeUnit", s.cfg.timeUnit)

	return nil
}

// Send feeds data to the simulated device. Every complete line is answered.
func (s *SimTransport) Send(data []byte) error {
	if !s.opState.IsOpened() {
		s.metrics.SendErrCount.Inc()
		return ErrNotOpen
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Close may have started after the check above
	if !s.opState.IsOpened() {
		s.metrics.SendErrCount.Inc()
		return ErrNotOpen
	}

	s.pending.Write(data)
	s.metrics.SendCount.Inc()
	s.metrics.BytesSent.Add(int64(len(data)))

	for {
		idx := bytes.IndexByte(s.pending.Bytes(), '\n')
		if idx < 0 {
			break
		}

		line := string(s.pending.Next(idx + 1))
		s.handleLine(line)
	}

	return nil
}

// handleLine must be called with s.mu held.
func (s *SimTransport) handleLine(line string) {
	cmd, err := protocol.ParseCommand(line)
	if err != nil {
		s.logger.Warn("sim: ignoring line", "error", err)
		return
	}

	reply, ok := simReply(cmd)
	if !ok {
		s.logger.Error("sim: unrecognized command", "opcode", cmd.Op)
		return
	}

	delay := s.nextDelay()
	s.logger.Debug("sim: reply scheduled", "command", cmd.String(), "reply", reply, "delay", delay)

	err = s.taskMgr.Go("simReply", func(ctx context.Context) {
		timer := pool.GetTimer(delay)
		defer pool.PutTimer(timer)

		select {
		case <-ctx.Done():
			s.logger.Debug("sim: reply dropped", "reply", reply)
		case <-timer.C:
			s.deliverReply([]byte(reply + "\n"))
		}
	})
	if err != nil {
		s.logger.Warn("sim: reply not scheduled", "error", err)
	}
}

// nextDelay draws one to three time units. It must be called with s.mu held.
func (s *SimTransport) nextDelay() time.Duration {
	return time.Duration(s.rng.Intn(3)+1) * s.cfg.timeUnit
}

func (s *SimTransport) deliverReply(data []byte) {
	size := s.cfg.chunkSize
	if size <= 0 {
		size = len(data)
	}

	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()

	for len(data) > 0 {
		n := min(size, len(data))
		if !s.deliver(s, data[:n]) {
			return
		}
		data = data[n:]
	}
}

// simReply echoes the backoff flag; a command without the modifier is answered
// with backoff=false.
func simReply(cmd protocol.Command) (string, bool) {
	switch cmd.Op {
	case protocol.OpHome:
		return protocol.HomeDoneText, true
	case protocol.OpAxisX:
		return fmt.Sprintf("%s backoff=%t", protocol.XDoneText, cmd.Backoff), true
	case protocol.OpAxisY:
		return fmt.Sprintf("%s backoff=%t", protocol.YDoneText, cmd.Backoff), true
	default:
		return "", false
	}
}

// Close drops pending replies and waits for reply tasks to exit.
func (s *SimTransport) Close() error {
	if !s.opState.ToClosing() {
		return nil
	}

	s.mu.Lock()
	mgr := s.taskMgr
	s.mu.Unlock()

	if mgr != nil {
		mgr.Stop()
		mgr.Wait()
	}

	s.opState.ToClosed()
	s.logger.Info("transport closed")

	return nil
}
