package homing

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-homing/logger"
)

func TestLogLine_String(t *testing.T) {
	line := LogLine{
		Time:    time.Date(2024, 3, 1, 9, 4, 5, 123456789, time.UTC),
		Message: "Beginning home",
	}

	require.Equal(t, "09:04:05.1234: Beginning home", line.String())
}

func TestTracer_OrderAndDrainOnClose(t *testing.T) {
	require := require.New(t)

	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	tr := newTracer(func() time.Time { return now }, logger.NewMockLogger().AllowAll())

	first, second := &lineRecorder{}, &lineRecorder{}
	tr.add(first.handle)
	removeSecond := tr.add(second.handle)

	want := make([]string, 0, 100)
	for i := range 100 {
		msg := fmt.Sprintf("line %d", i)
		want = append(want, msg)
		tr.emit(msg)
	}

	tr.close()
	tr.close()

	require.Equal(want, first.messages())
	require.Equal(want, second.messages())
	require.Equal(now, first.lines[0].Time)

	removeSecond()
	tr.emit("after close")
	require.Len(first.messages(), 100)
}

func TestTracer_HandlerPanicDoesNotStopDelivery(t *testing.T) {
	require := require.New(t)

	tr := newTracer(time.Now, logger.NewMockLogger().AllowAll())

	var calls atomic.Int32
	tr.add(func(LogLine) {
		if calls.Add(1) == 1 {
			panic("display gone")
		}
	})

	tr.emit("one")
	require.Eventually(func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)
	tr.emit("two")
	tr.close()

	require.Equal(int32(2), calls.Load())
}

func TestSequencer_RemoveLogHandler(t *testing.T) {
	require := require.New(t)

	seq, _, rec := newSimSequencer(t, nil)

	other := &lineRecorder{}
	remove := seq.AddLogHandler(other.handle)
	remove()

	require.NoError(seq.Home(t.Context()))
	require.NoError(seq.Close())

	require.Equal(seed1Trace, rec.messages())
	require.Empty(other.messages())
}
