// Package signals provides the table of named single-slot binary semaphores that
// couples the homing sequencer with the asynchronous acknowledgment path.
//
// Every signal starts available (one token). Acquire consumes the token, waiting
// for it if necessary; Signal puts it back and wakes one waiter. A signal never
// holds more than one token: a Signal on a full slot is rejected with
// ErrNoWaiter instead of accumulating, so a duplicate acknowledgment cannot
// complete the next cycle early.
package signals

import "strconv"

// Signal identifies one slot of the Table.
type Signal uint8

const (
	// Homed gates the home stage.
	Homed Signal = iota
	// XDone gates the X backoff stage.
	XDone
	// YDone gates the Y backoff stage.
	YDone
	// Ready is reserved for a device ready notification.
	Ready
	// Stopped is reserved for a device stop notification.
	Stopped
	// Locked is reserved for a device lock notification.
	Locked

	numSignals
)

// All returns every signal in declaration order.
func All() []Signal {
	all := make([]Signal, 0, numSignals)
	for s := Signal(0); s < numSignals; s++ {
		all = append(all, s)
	}

	return all
}

// Valid reports whether s names a slot of the table.
func (s Signal) Valid() bool {
	return s < numSignals
}

// String returns string representation of the signal.
func (s Signal) String() string {
	switch s {
	case Homed:
		return "Homed"
	case XDone:
		return "XDone"
	case YDone:
		return "YDone"
	case Ready:
		return "Ready"
	case Stopped:
		return "Stopped"
	case Locked:
		return "Locked"
	default:
		return "Signal(" + strconv.Itoa(int(s)) + ")"
	}
}
