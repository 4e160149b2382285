package homing

import "errors"

var (
	// ErrBusy indicates the sequencer or a stage signal could not be obtained
	// within the busy timeout. Nothing was sent.
	ErrBusy = errors.New("homing: sequencer busy")
	// ErrNoAcknowledgment indicates the device did not acknowledge a command before
	// the ack timeout elapsed or the context was done.
	ErrNoAcknowledgment = errors.New("homing: no acknowledgment")
	// ErrTransport wraps an error returned by the transport while sending.
	ErrTransport = errors.New("homing: transport error")
	// ErrUnrecognizedSource indicates bytes delivered by a transport the dispatcher
	// is not bound to.
	ErrUnrecognizedSource = errors.New("homing: unrecognized source")
	// ErrClosed is returned by Home after Close.
	ErrClosed = errors.New("homing: sequencer closed")
	// ErrInvalidOption is returned by constructors given an invalid option.
	ErrInvalidOption = errors.New("homing: invalid option")
)
