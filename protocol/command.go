package protocol

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidCommand indicates a command line that cannot be parsed.
var ErrInvalidCommand = errors.New("protocol: invalid command")

// Opcode identifies an outgoing command.
type Opcode uint8

const (
	// OpAxisX moves the X axis. With Backoff it backs off the X reference switch.
	OpAxisX Opcode = 0
	// OpAxisY moves the Y axis. With Backoff it backs off the Y reference switch.
	OpAxisY Opcode = 1
	// OpHome drives both axes to the reference position.
	OpHome Opcode = 2
)

// String returns string representation of the opcode.
func (op Opcode) String() string {
	switch op {
	case OpAxisX:
		return "axis-x"
	case OpAxisY:
		return "axis-y"
	case OpHome:
		return "home"
	default:
		return "unknown(" + strconv.Itoa(int(op)) + ")"
	}
}

// Valid reports whether op is a known opcode.
func (op Opcode) Valid() bool {
	return op <= OpHome
}

const backoffModifier = "backoff="

// Command is a stateless outgoing request.
type Command struct {
	Op      Opcode
	Backoff bool
}

// HomeCommand returns the command that starts homing.
func HomeCommand() Command {
	return Command{Op: OpHome}
}

// BackoffCommand returns the backoff command for the given axis.
func BackoffCommand(axis Axis) Command {
	if axis == AxisY {
		return Command{Op: OpAxisY, Backoff: true}
	}

	return Command{Op: OpAxisX, Backoff: true}
}

// String returns the command line without its terminator.
func (c Command) String() string {
	if c.Backoff {
		return strconv.Itoa(int(c.Op)) + " " + backoffModifier + "true"
	}

	return strconv.Itoa(int(c.Op))
}

// Encode returns the wire form of the command, newline terminated.
func (c Command) Encode() []byte {
	return []byte(c.String() + "\n")
}

// ParseCommand parses one command line, with or without its terminator.
func ParseCommand(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 || len(fields) > 2 {
		return Command{}, fmt.Errorf("%w: %q", ErrInvalidCommand, line)
	}

	n, err := strconv.ParseUint(fields[0], 10, 8)
	if err != nil {
		return Command{}, fmt.Errorf("%w: opcode %q: %w", ErrInvalidCommand, fields[0], err)
	}

	cmd := Command{Op: Opcode(n)}

	if len(fields) == 2 {
		value, found := strings.CutPrefix(fields[1], backoffModifier)
		if !found {
			return Command{}, fmt.Errorf("%w: unknown modifier %q", ErrInvalidCommand, fields[1])
		}

		cmd.Backoff, err = strconv.ParseBool(value)
		if err != nil {
			return Command{}, fmt.Errorf("%w: backoff value %q: %w", ErrInvalidCommand, value, err)
		}
	}

	return cmd, nil
}
