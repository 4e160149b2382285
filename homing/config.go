package homing

import (
	"fmt"
	"time"

	"github.com/arloliu/go-homing/logger"
	"github.com/arloliu/go-homing/signals"
)

const (
	// DefaultBusyTimeout bounds the wait for the call lock and for each stage signal.
	DefaultBusyTimeout = 10 * time.Second
	// DefaultAckTimeout bounds the wait for an acknowledgment; 0 waits until the
	// context passed to Home is done.
	DefaultAckTimeout = 0
)

// Option configures a Sequencer or a Dispatcher.
type Option interface {
	apply(cfg *config) error
}

type optFunc func(cfg *config) error

func (f optFunc) apply(cfg *config) error {
	return f(cfg)
}

type config struct {
	busyTimeout time.Duration
	ackTimeout  time.Duration
	logger      logger.Logger
	table       *signals.Table
	clock       func() time.Time
}

func newConfig(opts []Option) (*config, error) {
	cfg := &config{
		busyTimeout: DefaultBusyTimeout,
		ackTimeout:  DefaultAckTimeout,
		logger:      logger.GetLogger(),
		clock:       time.Now,
	}

	for _, opt := range opts {
		if opt == nil {
			continue
		}

		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.table == nil {
		cfg.table = signals.NewTable()
	}

	return cfg, nil
}

// WithBusyTimeout sets how long Home waits for the call lock and for each stage
// signal before failing with ErrBusy. Default is 10 seconds.
func WithBusyTimeout(d time.Duration) Option {
	return optFunc(func(cfg *config) error {
		if d <= 0 {
			return fmt.Errorf("%w: busy timeout %s", ErrInvalidOption, d)
		}

		cfg.busyTimeout = d

		return nil
	})
}

// WithAckTimeout sets how long Home waits for each acknowledgment before failing
// with ErrNoAcknowledgment. 0, the default, waits until the context is done.
func WithAckTimeout(d time.Duration) Option {
	return optFunc(func(cfg *config) error {
		if d < 0 {
			return fmt.Errorf("%w: ack timeout %s", ErrInvalidOption, d)
		}

		cfg.ackTimeout = d

		return nil
	})
}

// WithLogger sets the structured logger. A nil logger keeps the package default.
func WithLogger(l logger.Logger) Option {
	return optFunc(func(cfg *config) error {
		if l != nil {
			cfg.logger = l
		}

		return nil
	})
}

// WithSignalTable shares an existing signal table instead of creating one.
func WithSignalTable(t *signals.Table) Option {
	return optFunc(func(cfg *config) error {
		if t == nil {
			return fmt.Errorf("%w: nil signal table", ErrInvalidOption)
		}

		cfg.table = t

		return nil
	})
}

// WithClock sets the time source used to stamp log lines.
func WithClock(now func() time.Time) Option {
	return optFunc(func(cfg *config) error {
		if now == nil {
			return fmt.Errorf("%w: nil clock", ErrInvalidOption)
		}

		cfg.clock = now

		return nil
	})
}
