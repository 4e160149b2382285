package protocol

import (
	"bytes"
	"strings"
)

// MaxLineLength bounds the partial line a Decoder keeps between calls.
const MaxLineLength = 4096

// Decoder splits a byte stream into lines and classifies them.
//
// A Decoder is NOT goroutine-safe; it belongs to one delivery path.
type Decoder struct {
	buf bytes.Buffer
}

// NewDecoder returns an empty Decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode appends p to the pending input and returns a Token for every complete,
// non-empty line, in arrival order. An incomplete trailing line is retained.
//
// If the retained partial line grows past MaxLineLength it is discarded and
// reported as a single Unrecognized token.
func (d *Decoder) Decode(p []byte) []Token {
	var tokens []Token

	for len(p) > 0 {
		idx := bytes.IndexByte(p, '\n')
		if idx < 0 {
			d.buf.Write(p)
			if d.buf.Len() > MaxLineLength {
				tokens = append(tokens, Token{Kind: Unrecognized, Line: truncate(d.buf.String())})
				d.buf.Reset()
			}

			break
		}

		var line string
		if d.buf.Len() > 0 {
			d.buf.Write(p[:idx])
			line = d.buf.String()
			d.buf.Reset()
		} else {
			line = string(p[:idx])
		}
		p = p[idx+1:]

		if tok, ok := classifyLine(line); ok {
			tokens = append(tokens, tok)
		}
	}

	return tokens
}

// Flush classifies the retained partial line, if any, and clears it.
func (d *Decoder) Flush() []Token {
	if d.buf.Len() == 0 {
		return nil
	}

	line := d.buf.String()
	d.buf.Reset()

	if tok, ok := classifyLine(line); ok {
		return []Token{tok}
	}

	return nil
}

// Pending returns the number of bytes in the retained partial line.
func (d *Decoder) Pending() int {
	return d.buf.Len()
}

// Reset discards the retained partial line.
func (d *Decoder) Reset() {
	d.buf.Reset()
}

func classifyLine(line string) (Token, bool) {
	line = strings.TrimSpace(strings.TrimSuffix(line, "\r"))
	if line == "" {
		return Token{}, false
	}

	return Classify(line), true
}

func truncate(s string) string {
	const keep = 64
	if len(s) <= keep {
		return s
	}

	return s[:keep] + "..."
}
