package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"

	"github.com/arloliu/go-homing/homing"
)

// display renders trace lines, coloured by what they report.
type display struct {
	out     io.Writer
	profile termenv.Profile
}

func newDisplay(out io.Writer, noColor bool) *display {
	profile := termenv.NewOutput(out).ColorProfile()
	if noColor {
		profile = termenv.Ascii
	}

	return &display{out: out, profile: profile}
}

func (d *display) colorFor(msg string) string {
	switch {
	case strings.HasPrefix(msg, "Home failed"):
		return "#f87171"
	case msg == "Finished home":
		return "#4ade80"
	case strings.HasPrefix(msg, "Received: "):
		return "#22d3ee"
	case strings.Contains(msg, ": sending "):
		return "#facc15"
	default:
		return "#e5e7eb"
	}
}

func (d *display) print(line homing.LogLine) {
	ts := d.profile.String(line.Time.Format(homing.LogTimeFormat)).Foreground(d.profile.Color("#6b7280"))
	msg := d.profile.String(line.Message).Foreground(d.profile.Color(d.colorFor(line.Message)))

	fmt.Fprintf(d.out, "%s: %s\n", ts, msg)
}

func (d *display) summary(ok bool, text string) {
	color := "#4ade80"
	if !ok {
		color = "#f87171"
	}

	fmt.Fprintln(d.out, d.profile.String(text).Foreground(d.profile.Color(color)).Bold())
}
