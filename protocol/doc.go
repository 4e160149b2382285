// Package protocol defines the line-oriented ASCII wire format spoken between the
// host and a two-axis motion controller.
//
// # Outgoing commands
//
// A command is one line: the opcode, optionally followed by " backoff=true".
//
//	2                 begin homing          -> device answers "Home done"
//	0 backoff=true    X-axis backoff        -> device answers a line containing "XDone"
//	1 backoff=true    Y-axis backoff        -> device answers a line containing "YDone"
//
// # Incoming acknowledgments
//
// Device output is split into lines and every non-empty line is classified into
// exactly one [Token]. Classification is a substring match checked in the order
// "Home done", "XDone", "YDone"; anything else is [Unrecognized].
//
// The [Decoder] keeps a partial line across calls, so a line may arrive split over
// any number of reads from a real serial port.
package protocol
