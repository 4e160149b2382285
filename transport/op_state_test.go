package transport

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAtomicOpState(t *testing.T) {
	require := require.New(t)

	var st AtomicOpState
	require.True(st.IsClosed())
	require.Equal("Closed", st.String())

	require.False(st.ToOpened(), "Closed -> Opened must go through Opening")
	require.True(st.ToOpening())
	require.False(st.ToOpening())
	require.True(st.ToOpened())
	require.True(st.IsOpened())

	require.True(st.ToClosing())
	require.False(st.ToClosing())
	require.Equal(ClosingState, st.Get())
	require.True(st.ToClosed())
	require.True(st.ToClosed(), "ToClosed on a closed state is a no-op")

	require.True(st.ToOpening())
	require.True(st.ToClosing(), "Opening -> Closing is allowed")
	require.True(st.ToClosed())

	require.Equal("Unknown", OpState(42).String())
}
