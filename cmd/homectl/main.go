// Command homectl homes a two-axis motion device over a serial line, or over a
// simulated device with --sim.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
