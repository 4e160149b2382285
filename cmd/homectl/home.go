package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/arloliu/go-homing/homing"
	"github.com/arloliu/go-homing/logger"
	"github.com/arloliu/go-homing/transport"
)

type homeOptions struct {
	device      string
	baud        int
	driver      string
	sim         bool
	seed        int64
	unit        time.Duration
	busyTimeout time.Duration
	ackTimeout  time.Duration
	repeat      int
	metrics     bool
}

var errNoDevice = errors.New("either --device or --sim is required")

func newHomeCmd(g *globalOptions) *cobra.Command {
	o := &homeOptions{}

	homeCmd := &cobra.Command{
		Use:   "home",
		Short: "Run the homing procedure",
		Long: `Sends the home command, then backs off X and Y, waiting for the device to
acknowledge each step. The trace is printed as it happens.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHome(cmd, g, o)
		},
	}

	flags := homeCmd.Flags()
	flags.StringVarP(&o.device, "device", "d", "", "Serial device, e.g. /dev/ttyACM0 or COM3")
	flags.IntVar(&o.baud, "baud", transport.DefaultBaudRate, "Serial baud rate")
	flags.StringVar(&o.driver, "driver", string(transport.DriverBugst), "Serial driver: bugst or tarm")
	flags.BoolVar(&o.sim, "sim", false, "Use the simulated device instead of a serial port")
	flags.Int64Var(&o.seed, "seed", transport.DefaultSeed, "Seed of the simulated device's delays")
	flags.DurationVar(&o.unit, "unit", transport.DefaultTimeUnit, "Time unit of the simulated device's delays")
	flags.DurationVar(&o.busyTimeout, "busy-timeout", homing.DefaultBusyTimeout, "How long to wait for a busy sequencer")
	flags.DurationVar(&o.ackTimeout, "ack-timeout", homing.DefaultAckTimeout, "How long to wait for each acknowledgment, 0 waits forever")
	flags.IntVarP(&o.repeat, "repeat", "n", 1, "Number of consecutive homing runs")
	flags.BoolVar(&o.metrics, "metrics", false, "Print the metrics after the last run")

	homeCmd.MarkFlagsMutuallyExclusive("device", "sim")

	return homeCmd
}

func runHome(cmd *cobra.Command, g *globalOptions, o *homeOptions) error {
	if o.device == "" && !o.sim {
		return errNoDevice
	}

	if o.repeat < 1 {
		return fmt.Errorf("--repeat must be at least 1, got %d", o.repeat)
	}

	l, err := g.newLogger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	tr, err := o.newTransport(l)
	if err != nil {
		return err
	}

	seq, err := homing.NewSequencer(tr,
		homing.WithLogger(l),
		homing.WithBusyTimeout(o.busyTimeout),
		homing.WithAckTimeout(o.ackTimeout),
	)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	disp := newDisplay(out, g.noColor)
	seq.AddLogHandler(disp.print)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	if err := tr.Open(ctx); err != nil {
		_ = seq.Close()
		return err
	}

	var homeErr error
	completed := 0
	for range o.repeat {
		if homeErr = seq.Home(ctx); homeErr != nil {
			break
		}
		completed++
	}

	_ = seq.Close()
	if err := tr.Close(); err != nil {
		l.Warn("closing transport failed", "error", err)
	}

	if homeErr != nil {
		disp.summary(false, fmt.Sprintf("homing failed after %d of %d runs", completed, o.repeat))
	} else {
		disp.summary(true, fmt.Sprintf("homing completed, %d run(s) on %s", completed, tr.Name()))
	}

	if o.metrics {
		if err := writeMetrics(out, seq); err != nil {
			return err
		}
	}

	return homeErr
}

func (o *homeOptions) newTransport(l logger.Logger) (transport.Transport, error) {
	if o.sim {
		return transport.NewSim(
			transport.WithLogger(l),
			transport.WithSeed(o.seed),
			transport.WithTimeUnit(o.unit),
		)
	}

	return transport.NewSerial(o.device,
		transport.WithLogger(l),
		transport.WithDriver(transport.Driver(o.driver)),
		transport.WithBaudRate(o.baud),
	)
}

func writeMetrics(w io.Writer, seq *homing.Sequencer) error {
	reg := prometheus.NewRegistry()
	if err := reg.Register(homing.NewCollector("homing", seq)); err != nil {
		return err
	}

	families, err := reg.Gather()
	if err != nil {
		return err
	}

	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}

	return nil
}
