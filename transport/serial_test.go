package transport

import (
	"bufio"
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-homing/logger"
)

type chunkRecorder struct {
	mu     sync.Mutex
	chunks [][]byte
	srcs   []Transport
	err    error
}

func (r *chunkRecorder) receive(src Transport, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.chunks = append(r.chunks, append([]byte(nil), data...))
	r.srcs = append(r.srcs, src)

	return r.err
}

func (r *chunkRecorder) joined() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var s string
	for _, c := range r.chunks {
		s += string(c)
	}

	return s
}

func (r *chunkRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.chunks)
}

func newPipeTransport(t *testing.T) (*SerialTransport, net.Conn) {
	t.Helper()

	host, device := net.Pipe()
	t.Cleanup(func() { _ = device.Close() })

	tr, err := NewSerialWithPort("pipe", host, WithLogger(logger.NewMockLogger().AllowAll()))
	require.NoError(t, err)

	return tr, device
}

func TestSerialTransport_SendAndReceive(t *testing.T) {
	require := require.New(t)

	tr, device := newPipeTransport(t)
	require.Equal("serial:pipe", tr.Name())

	rec := &chunkRecorder{}
	tr.SetReceiver(rec.receive)

	require.ErrorIs(tr.Send([]byte("2\n")), ErrNotOpen)

	require.NoError(tr.Open(context.Background()))
	require.ErrorIs(tr.Open(context.Background()), ErrAlreadyOpen)

	// device side reads the command
	lineCh := make(chan string, 1)
	go func() {
		line, _ := bufio.NewReader(device).ReadString('\n')
		lineCh <- line
	}()

	require.NoError(tr.Send([]byte("2\n")))

	select {
	case line := <-lineCh:
		require.Equal("2\n", line)
	case <-time.After(time.Second):
		t.Fatal("device did not receive the command")
	}

	// device side replies in two writes
	_, err := device.Write([]byte("Home "))
	require.NoError(err)
	_, err = device.Write([]byte("done\n"))
	require.NoError(err)

	require.Eventually(func() bool { return rec.joined() == "Home done\n" }, time.Second, 5*time.Millisecond)

	rec.mu.Lock()
	for _, src := range rec.srcs {
		require.Same(tr, src)
	}
	rec.mu.Unlock()

	m := tr.Metrics()
	require.Equal(int64(1), m.SendCount.Value())
	require.Equal(int64(2), m.BytesSent.Value())
	require.Equal(int64(10), m.BytesRecv.Value())
	require.Equal(int64(1), m.SendErrCount.Value())

	require.NoError(tr.Close())
	require.NoError(tr.Close())
	require.ErrorIs(tr.Send([]byte("2\n")), ErrNotOpen)
	require.ErrorIs(tr.Open(context.Background()), ErrClosed, "a borrowed port cannot be reopened")
}

func TestSerialTransport_ReceiverErrorStopsReadLoop(t *testing.T) {
	require := require.New(t)

	tr, device := newPipeTransport(t)

	rec := &chunkRecorder{err: errors.New("wrong source")}
	tr.SetReceiver(rec.receive)
	require.NoError(tr.Open(context.Background()))

	_, err := device.Write([]byte("XDone\n"))
	require.NoError(err)
	require.Eventually(func() bool { return tr.taskMgr.Count() == 0 }, time.Second, 5*time.Millisecond)

	// nobody reads the pipe any more
	require.NoError(device.SetWriteDeadline(time.Now().Add(50 * time.Millisecond)))
	_, err = device.Write([]byte("YDone\n"))
	require.Error(err)
	require.Equal(1, rec.count())

	require.NoError(tr.Close())
}

func TestSerialTransport_CancelledContextStopsReadLoop(t *testing.T) {
	require := require.New(t)

	tr, device := newPipeTransport(t)
	tr.SetReceiver((&chunkRecorder{}).receive)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(tr.Open(ctx))
	cancel()

	// unblock the pending read so the loop observes the cancellation
	_, _ = device.Write([]byte("\n"))
	require.Eventually(func() bool { return tr.taskMgr.Count() == 0 }, time.Second, 5*time.Millisecond)

	require.NoError(tr.Close())
}

func TestNewSerial_Invalid(t *testing.T) {
	require := require.New(t)

	_, err := NewSerial("")
	require.ErrorIs(err, ErrInvalidOption)

	_, err = NewSerial("/dev/ttyUSB0", WithDriver("ftdi"))
	require.ErrorIs(err, ErrUnknownDriver)

	_, err = NewSerialWithPort("pipe", nil)
	require.ErrorIs(err, ErrInvalidOption)
}

func TestSerialTransport_OpenMissingDevice(t *testing.T) {
	for _, driver := range []Driver{DriverBugst, DriverTarm} {
		t.Run(string(driver), func(t *testing.T) {
			require := require.New(t)

			tr, err := NewSerial("/dev/go-homing-no-such-port", WithDriver(driver),
				WithLogger(logger.NewMockLogger().AllowAll()))
			require.NoError(err)

			require.Error(tr.Open(context.Background()))
			require.True(tr.opState.IsClosed())
			require.ErrorIs(tr.Send([]byte("2\n")), ErrNotOpen)
		})
	}
}
