package transport

import "sync/atomic"

// OpState is the lifecycle state of a transport.
type OpState uint32

const (
	ClosedState OpState = iota
	ClosingState
	OpeningState
	OpenedState
)

// String returns string representation of the state.
func (s OpState) String() string {
	switch s {
	case ClosedState:
		return "Closed"
	case ClosingState:
		return "Closing"
	case OpeningState:
		return "Opening"
	case OpenedState:
		return "Opened"
	default:
		return "Unknown"
	}
}

// AtomicOpState is an OpState with compare-and-swap transitions.
type AtomicOpState struct {
	state atomic.Uint32
}

// Get returns the current state.
func (st *AtomicOpState) Get() OpState {
	return OpState(st.state.Load())
}

func (st *AtomicOpState) String() string {
	return st.Get().String()
}

func (st *AtomicOpState) IsOpened() bool {
	return st.Get() == OpenedState
}

func (st *AtomicOpState) IsClosed() bool {
	return st.Get() == ClosedState
}

// ToOpening moves Closed -> Opening.
func (st *AtomicOpState) ToOpening() bool {
	return st.state.CompareAndSwap(uint32(ClosedState), uint32(OpeningState))
}

// ToOpened moves Opening -> Opened.
func (st *AtomicOpState) ToOpened() bool {
	return st.state.CompareAndSwap(uint32(OpeningState), uint32(OpenedState))
}

// ToClosing moves Opened or Opening -> Closing.
func (st *AtomicOpState) ToClosing() bool {
	if st.state.CompareAndSwap(uint32(OpenedState), uint32(ClosingState)) {
		return true
	}

	return st.state.CompareAndSwap(uint32(OpeningState), uint32(ClosingState))
}

// ToClosed moves Closing -> Closed. It is a no-op on an already closed state.
func (st *AtomicOpState) ToClosed() bool {
	if st.IsClosed() {
		return true
	}

	return st.state.CompareAndSwap(uint32(ClosingState), uint32(ClosedState))
}
