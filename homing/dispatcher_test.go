package homing

import (
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-homing/logger"
	"github.com/arloliu/go-homing/protocol"
	"github.com/arloliu/go-homing/signals"
	"github.com/arloliu/go-homing/transport"
)

func newTestDispatcher(t *testing.T, opts ...Option) (*Dispatcher, *scriptedTransport) {
	t.Helper()

	source := newScriptedTransport()
	d, err := NewDispatcher(source, opts...)
	require.NoError(t, err)

	return d, source
}

func TestDispatcher_SignalsRoutedSlots(t *testing.T) {
	require := require.New(t)

	d, source := newTestDispatcher(t)
	table := d.Table()

	for _, sig := range []signals.Signal{signals.Homed, signals.XDone, signals.YDone} {
		require.True(table.TryAcquire(sig))
	}

	require.NoError(source.reply("Home done\nXDone backoff=true\n"))
	require.True(table.Available(signals.Homed))
	require.True(table.Available(signals.XDone))
	require.False(table.Available(signals.YDone))

	require.NoError(source.reply("YDo"))
	require.False(table.Available(signals.YDone), "a partial line is not dispatched")
	require.NoError(source.reply("ne backoff=true\n"))
	require.True(table.Available(signals.YDone))

	require.Equal(int64(3), d.Metrics().TokenCount.Value())
	require.Equal(int64(0), d.Metrics().RejectedCount.Value())
}

func TestDispatcher_RejectsWhenTokenPresent(t *testing.T) {
	require := require.New(t)

	l := logger.NewMockLogger()
	l.On("Warn", "dispatcher: acknowledgment rejected", mock.Anything).Return().Twice()
	l.AllowAll()

	d, source := newTestDispatcher(t, WithLogger(l))

	require.NoError(source.reply("Home done\nHome done\n"))
	require.Equal(int64(2), d.Metrics().RejectedCount.Value())
	require.Equal(int64(2), d.Table().Metrics().RejectedCount.Value())
	require.True(d.Table().Available(signals.Homed))

	l.AssertExpectations(t)
}

func TestDispatcher_UnrecognizedLines(t *testing.T) {
	require := require.New(t)

	l := logger.NewMockLogger()
	l.On("Debug", "dispatcher: unrecognized line", mock.Anything).Return().Twice()
	l.AllowAll()

	d, source := newTestDispatcher(t, WithLogger(l))
	require.True(d.Table().TryAcquire(signals.Homed))

	require.NoError(source.reply("READY\n\r\n  \nerror 12\n"))
	require.Equal(int64(2), d.Metrics().UnrecognizedCount.Value())
	require.Equal(int64(0), d.Metrics().TokenCount.Value())
	require.False(d.Table().Available(signals.Homed))

	l.AssertExpectations(t)
}

func TestDispatcher_UnrecognizedSource(t *testing.T) {
	require := require.New(t)

	l := logger.NewMockLogger()
	l.On("Error", "dispatcher: data dropped", mock.Anything).Return().Twice()
	l.AllowAll()

	d, _ := newTestDispatcher(t, WithLogger(l))
	require.True(d.Table().TryAcquire(signals.Homed))

	other, err := transport.NewSim()
	require.NoError(err)

	err = d.Deliver(other, []byte("Home done\n"))
	require.ErrorIs(err, ErrUnrecognizedSource)
	require.ErrorContains(err, other.Name())

	err = d.Deliver(nil, []byte("Home done\n"))
	require.ErrorIs(err, ErrUnrecognizedSource)

	require.False(d.Table().Available(signals.Homed), "foreign data must not signal")
	require.Equal(int64(2), d.Metrics().ForeignSourceCount.Value())
	require.Equal(int64(0), d.Metrics().TokenCount.Value())

	l.AssertExpectations(t)
}

func TestDispatcher_Route(t *testing.T) {
	require := require.New(t)

	d, source := newTestDispatcher(t)
	table := d.Table()

	require.NoError(d.Route(protocol.AxisDone, protocol.AxisX, signals.Ready))
	require.True(table.TryAcquire(signals.Ready))
	require.True(table.TryAcquire(signals.XDone))

	require.NoError(source.reply("XDone\n"))
	require.True(table.Available(signals.Ready))
	require.False(table.Available(signals.XDone))

	require.ErrorIs(d.Route(protocol.HomeDone, protocol.AxisNone, signals.Signal(99)), signals.ErrUnknownSignal)
	require.ErrorIs(d.Route(protocol.Unrecognized, protocol.AxisNone, signals.Locked), ErrInvalidOption)
}

func TestNewDispatcher_NilTransport(t *testing.T) {
	_, err := NewDispatcher(nil)
	require.ErrorIs(t, err, ErrInvalidOption)
}
