// Package transport provides the byte-stream link between the host and the
// motion controller.
//
// A [Transport] sends raw bytes and delivers every chunk it receives to a single
// registered [Receiver]. Two variants exist:
//
//   - [SerialTransport] drives a real serial port, opened through the go.bug.st/serial
//     driver (default) or the github.com/tarm/serial driver.
//   - [SimTransport] stands in for the device: it answers each command with a canned
//     acknowledgment after a delay drawn from a seeded generator, so a given seed
//     always produces the same timing.
//
// Callers select the variant at construction and only ever talk to the interface.
// Every goroutine a transport starts is joined by Close.
package transport
