package protocol

import "strings"

// Acknowledgment vocabulary.
const (
	HomeDoneText = "Home done"
	XDoneText    = "XDone"
	YDoneText    = "YDone"
)

// Kind is the classification of one incoming line.
type Kind uint8

const (
	// Unrecognized is any line outside the acknowledgment vocabulary.
	Unrecognized Kind = iota
	// HomeDone acknowledges OpHome.
	HomeDone
	// AxisDone acknowledges an axis command; Token.Axis tells which one.
	AxisDone
)

// String returns string representation of the kind.
func (k Kind) String() string {
	switch k {
	case HomeDone:
		return "home-done"
	case AxisDone:
		return "axis-done"
	default:
		return "unrecognized"
	}
}

// Axis identifies a motion axis.
type Axis uint8

const (
	AxisNone Axis = iota
	AxisX
	AxisY
)

// String returns string representation of the axis.
func (a Axis) String() string {
	switch a {
	case AxisX:
		return "X"
	case AxisY:
		return "Y"
	default:
		return "-"
	}
}

// Token is the classified result of decoding one line.
type Token struct {
	Kind Kind
	// Axis is set only for AxisDone.
	Axis Axis
	// Line is the trimmed source line.
	Line string
}

// Recognized reports whether the token belongs to the acknowledgment vocabulary.
func (t Token) Recognized() bool {
	return t.Kind != Unrecognized
}

// String returns a short description such as "axis-done(X)".
func (t Token) String() string {
	if t.Kind == AxisDone {
		return t.Kind.String() + "(" + t.Axis.String() + ")"
	}

	return t.Kind.String()
}

// Classify maps a single line to its Token.
func Classify(line string) Token {
	line = strings.TrimSpace(line)

	switch {
	case strings.Contains(line, HomeDoneText):
		return Token{Kind: HomeDone, Line: line}
	case strings.Contains(line, XDoneText):
		return Token{Kind: AxisDone, Axis: AxisX, Line: line}
	case strings.Contains(line, YDoneText):
		return Token{Kind: AxisDone, Axis: AxisY, Line: line}
	default:
		return Token{Kind: Unrecognized, Line: line}
	}
}
