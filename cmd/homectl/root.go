package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/arloliu/go-homing/logger"
)

type globalOptions struct {
	logLevel string
	noColor  bool
}

func newRootCmd() *cobra.Command {
	g := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:           "homectl",
		Short:         "homectl homes a two-axis motion device",
		Long:          `homectl runs the homing procedure (home, X backoff, Y backoff) against a device on a serial port or against a built-in simulator.`,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "warn", "Structured log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&g.noColor, "no-color", false, "Disable coloured output")

	rootCmd.AddCommand(newHomeCmd(g), newPortsCmd())

	return rootCmd
}

// newLogger builds the structured logger written to w and installs it as the
// package default.
func (g *globalOptions) newLogger(w io.Writer) (logger.Logger, error) {
	level, err := logger.ParseLevel(g.logLevel)
	if err != nil {
		return nil, err
	}

	l := logger.NewSlogWithWriter(w, level, false, true)
	logger.SetLogger(l)

	return l, nil
}
