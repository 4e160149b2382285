package homeintegration

import (
	"bufio"
	"context"
	"net"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-homing/homing"
	"github.com/arloliu/go-homing/protocol"
	"github.com/arloliu/go-homing/signals"
	"github.com/arloliu/go-homing/transport"
)

// device emulates the motion controller on the far end of a pipe. Replies are
// preceded by a status line and split across two writes.
type device struct {
	conn     net.Conn
	commands atomic.Int32
	delay    func(n int32, cmd protocol.Command) time.Duration
}

func (d *device) run() {
	r := bufio.NewReader(d.conn)

	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}

		n := d.commands.Add(1)

		cmd, err := protocol.ParseCommand(line)
		if err != nil {
			continue
		}

		var reply string
		switch cmd.Op {
		case protocol.OpHome:
			reply = "Home done"
		case protocol.OpAxisX:
			reply = "XDone backoff=true"
		case protocol.OpAxisY:
			reply = "YDone backoff=true"
		default:
			continue
		}

		if d.delay != nil {
			time.Sleep(d.delay(n, cmd))
		}

		half := len(reply) / 2
		for _, chunk := range []string{"status: moving\r\n" + reply[:half], reply[half:] + "\r\n"} {
			if _, err := d.conn.Write([]byte(chunk)); err != nil {
				return
			}
		}
	}
}

func setup(t *testing.T, delay func(n int32, cmd protocol.Command) time.Duration, opts ...homing.Option) (*homing.Sequencer, *transport.SerialTransport, *device) {
	t.Helper()

	host, far := net.Pipe()

	tr, err := transport.NewSerialWithPort("pipe", host)
	require.NoError(t, err)

	seq, err := homing.NewSequencer(tr, opts...)
	require.NoError(t, err)

	dev := &device{conn: far, delay: delay}
	go dev.run()

	require.NoError(t, tr.Open(context.Background()))

	t.Cleanup(func() {
		_ = seq.Close()
		_ = tr.Close()
		_ = far.Close()
	})

	return seq, tr, dev
}

func TestHomeOverSerial(t *testing.T) {
	require := require.New(t)

	seq, tr, dev := setup(t, nil, homing.WithAckTimeout(time.Second))

	var lines []string
	seq.AddLogHandler(func(line homing.LogLine) { lines = append(lines, line.Message) })

	ctx := context.Background()
	require.NoError(seq.Home(ctx))
	require.NoError(seq.Home(ctx))
	require.NoError(seq.Close())

	require.Equal(int32(6), dev.commands.Load())
	require.Equal(homing.Complete, seq.State())
	// 11 sequencer lines plus one traced status line per reply, per run
	require.Len(lines, 28)
	require.Equal("Received: status: moving", lines[2])
	require.Equal("Received: Home done", lines[3])
	require.Equal("Finished home", lines[13])
	require.Equal("Finished home", lines[27])

	dm := seq.Dispatcher().Metrics()
	require.Equal(int64(6), dm.TokenCount.Value())
	require.Equal(int64(6), dm.UnrecognizedCount.Value(), "one status line per reply")
	require.Equal(int64(0), dm.RejectedCount.Value())
	require.Equal(int64(6), tr.Metrics().SendCount.Value())
}

func TestHomeOverSerial_LateAcknowledgmentIsRejected(t *testing.T) {
	require := require.New(t)

	// only the first "Home done" is late
	delay := func(n int32, _ protocol.Command) time.Duration {
		if n == 1 {
			return 80 * time.Millisecond
		}

		return 0
	}

	seq, _, _ := setup(t, delay, homing.WithAckTimeout(20*time.Millisecond))
	ctx := context.Background()

	err := seq.Home(ctx)
	require.ErrorIs(err, homing.ErrNoAcknowledgment)
	require.Equal(homing.Failed, seq.State())
	require.True(strings.HasPrefix(err.Error(), "homing: no acknowledgment: Home"))

	require.Eventually(func() bool { return seq.Dispatcher().Metrics().RejectedCount.Value() == 1 },
		time.Second, time.Millisecond)

	for _, sig := range []signals.Signal{signals.Homed, signals.XDone, signals.YDone} {
		require.True(seq.Table().Available(sig))
	}

	require.NoError(seq.Home(ctx))
	require.Equal(homing.Complete, seq.State())
	require.NoError(seq.LastError())
}

func TestHome_MiswiredTransportIsRejected(t *testing.T) {
	require := require.New(t)

	seq, _, _ := setup(t, nil)

	// a simulator delivering into the serial transport's dispatcher
	sim, err := transport.NewSim(transport.WithTimeUnit(time.Millisecond))
	require.NoError(err)
	sim.SetReceiver(seq.Dispatcher().Deliver)
	require.NoError(sim.Open(context.Background()))
	defer sim.Close()

	require.True(seq.Table().TryAcquire(signals.Homed))
	require.NoError(sim.Send([]byte("2\n")))

	require.Eventually(func() bool { return seq.Dispatcher().Metrics().ForeignSourceCount.Value() == 1 },
		time.Second, time.Millisecond)

	// delivery from the simulator stopped after the first rejected chunk
	require.NoError(sim.Send([]byte("2\n")))
	time.Sleep(20 * time.Millisecond)
	require.Equal(int64(1), seq.Dispatcher().Metrics().ForeignSourceCount.Value())
	require.False(seq.Table().Available(signals.Homed))
	require.NoError(seq.Table().Signal(signals.Homed))

	require.NoError(seq.Home(context.Background()))
}
