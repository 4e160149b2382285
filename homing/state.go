package homing

import (
	"sync"
	"sync/atomic"
)

// SequenceState is the progress of one Home invocation.
type SequenceState uint32

const (
	Idle SequenceState = iota
	AwaitingHome
	AwaitingXBackoff
	AwaitingYBackoff
	Complete
	Failed
)

// String returns string representation of the state.
func (st SequenceState) String() string {
	switch st {
	case Idle:
		return "idle"
	case AwaitingHome:
		return "awaiting-home"
	case AwaitingXBackoff:
		return "awaiting-x-backoff"
	case AwaitingYBackoff:
		return "awaiting-y-backoff"
	case Complete:
		return "complete"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether st ends an invocation.
func (st SequenceState) IsTerminal() bool {
	return st == Complete || st == Failed
}

// StateChangeHandler is invoked on every state change of the sequencer.
//
// Note: the handler is invoked synchronously on the goroutine calling Home.
// Take care with long-running implementations.
type StateChangeHandler func(seq *Sequencer, prevState SequenceState, newState SequenceState)

// stateMgr publishes the state of the current run for observers.
type stateMgr struct {
	seq     *Sequencer
	state   atomic.Uint32
	lastErr atomic.Pointer[error]

	mu       sync.RWMutex
	handlers []StateChangeHandler
}

func (sm *stateMgr) get() SequenceState {
	return SequenceState(sm.state.Load())
}

func (sm *stateMgr) addHandler(handlers ...StateChangeHandler) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.handlers = append(sm.handlers, handlers...)
}

func (sm *stateMgr) set(newState SequenceState) {
	prevState := SequenceState(sm.state.Swap(uint32(newState)))
	if prevState == newState {
		return
	}

	sm.mu.RLock()
	handlers := sm.handlers
	sm.mu.RUnlock()

	for _, handler := range handlers {
		if handler != nil {
			handler(sm.seq, prevState, newState)
		}
	}
}

func (sm *stateMgr) setErr(err error) {
	if err == nil {
		sm.lastErr.Store(nil)
		return
	}

	sm.lastErr.Store(&err)
}

func (sm *stateMgr) err() error {
	if p := sm.lastErr.Load(); p != nil {
		return *p
	}

	return nil
}

// run is the record of a single Home invocation. The state is strictly linear.
type run struct {
	sm    *stateMgr
	state SequenceState
}

func newRun(sm *stateMgr) *run {
	sm.setErr(nil)
	return &run{sm: sm, state: Idle}
}

func (r *run) advance(state SequenceState) {
	if r.state.IsTerminal() || state <= r.state {
		return
	}

	r.state = state
	r.sm.set(state)
}

func (r *run) fail(err error) {
	if r.state.IsTerminal() {
		return
	}

	r.state = Failed
	r.sm.setErr(err)
	r.sm.set(Failed)
}
