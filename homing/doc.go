// Package homing sequences the homing procedure of a two-axis motion device.
//
// A [Sequencer] sends three commands over a [transport.Transport]:
//
//  1. "2", home both axes, acknowledged by "Home done";
//  2. "0 backoff=true", back off X, acknowledged by a line containing "XDone";
//  3. "1 backoff=true", back off Y, acknowledged by a line containing "YDone".
//
// Each command is sent only after the previous acknowledgment arrived. The
// [Dispatcher] decodes the bytes the transport receives and signals the
// matching slot of a [signals.Table]; the sequencer waits on that slot.
//
// Progress is published twice: as structured logs through the logger package,
// and as a stream of timestamped human-readable [LogLine] values delivered to
// the handlers registered with [Sequencer.AddLogHandler].
//
// Example:
//
//	tr, _ := transport.NewSim(transport.WithSeed(1))
//	seq, _ := homing.NewSequencer(tr)
//	defer seq.Close()
//
//	seq.AddLogHandler(func(line homing.LogLine) { fmt.Println(line) })
//
//	_ = tr.Open(ctx)
//	defer tr.Close()
//
//	if err := seq.Home(ctx); err != nil {
//	    // errors.Is(err, homing.ErrNoAcknowledgment) ...
//	}
package homing
