package transport

import (
	"errors"
	"fmt"
	"time"

	"github.com/arloliu/go-homing/logger"
)

// Driver selects the library used to open a serial device.
type Driver string

const (
	// DriverBugst opens ports with go.bug.st/serial.
	DriverBugst Driver = "bugst"
	// DriverTarm opens ports with github.com/tarm/serial.
	DriverTarm Driver = "tarm"
)

const (
	DefaultBaudRate    = 9600
	DefaultReadTimeout = 100 * time.Millisecond
	DefaultReadBufSize = 256
	DefaultSeed        = 1
	DefaultTimeUnit    = time.Second
)

// ErrInvalidOption is returned by constructors given an out-of-range option.
var ErrInvalidOption = errors.New("transport: invalid option")

// Option configures a transport.
type Option interface {
	apply(cfg *config) error
}

type optFunc func(cfg *config) error

func (f optFunc) apply(cfg *config) error {
	return f(cfg)
}

type config struct {
	logger      logger.Logger
	driver      Driver
	baudRate    int
	readTimeout time.Duration
	readBufSize int
	seed        int64
	timeUnit    time.Duration
	chunkSize   int
}

func newConfig(opts []Option) (*config, error) {
	cfg := &config{
		logger:      logger.GetLogger(),
		driver:      DriverBugst,
		baudRate:    DefaultBaudRate,
		readTimeout: DefaultReadTimeout,
		readBufSize: DefaultReadBufSize,
		seed:        DefaultSeed,
		timeUnit:    DefaultTimeUnit,
	}

	for _, opt := range opts {
		if opt == nil {
			continue
		}

		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// WithLogger sets the logger. A nil logger keeps the package default.
func WithLogger(l logger.Logger) Option {
	return optFunc(func(cfg *config) error {
		if l != nil {
			cfg.logger = l
		}

		return nil
	})
}

// WithDriver selects the serial driver. Default is DriverBugst.
func WithDriver(d Driver) Option {
	return optFunc(func(cfg *config) error {
		switch d {
		case DriverBugst, DriverTarm:
			cfg.driver = d
			return nil
		default:
			return fmt.Errorf("%w: %q", ErrUnknownDriver, d)
		}
	})
}

// WithBaudRate sets the serial baud rate. Default is 9600.
func WithBaudRate(baud int) Option {
	return optFunc(func(cfg *config) error {
		if baud <= 0 {
			return fmt.Errorf("%w: baud rate %d", ErrInvalidOption, baud)
		}

		cfg.baudRate = baud

		return nil
	})
}

// WithReadTimeout sets how long a single port read blocks before the read loop
// checks for cancellation.
func WithReadTimeout(d time.Duration) Option {
	return optFunc(func(cfg *config) error {
		if d <= 0 {
			return fmt.Errorf("%w: read timeout %s", ErrInvalidOption, d)
		}

		cfg.readTimeout = d

		return nil
	})
}

// WithReadBufferSize sets the size of the read loop buffer.
func WithReadBufferSize(n int) Option {
	return optFunc(func(cfg *config) error {
		if n <= 0 {
			return fmt.Errorf("%w: read buffer size %d", ErrInvalidOption, n)
		}

		cfg.readBufSize = n

		return nil
	})
}

// WithSeed seeds the simulated device's delay generator. Default is 1.
func WithSeed(seed int64) Option {
	return optFunc(func(cfg *config) error {
		cfg.seed = seed
		return nil
	})
}

// WithTimeUnit sets the simulated device's time unit. Every reply is delayed
// by one to three units. Default is one second.
func WithTimeUnit(d time.Duration) Option {
	return optFunc(func(cfg *config) error {
		if d <= 0 {
			return fmt.Errorf("%w: time unit %s", ErrInvalidOption, d)
		}

		cfg.timeUnit = d

		return nil
	})
}

// WithChunkSize makes the simulated device deliver each reply in chunks of at
// most n bytes, the way a real port splits a line across reads. 0 delivers
// whole replies.
func WithChunkSize(n int) Option {
	return optFunc(func(cfg *config) error {
		if n < 0 {
			return fmt.Errorf("%w: chunk size %d", ErrInvalidOption, n)
		}

		cfg.chunkSize = n

		return nil
	})
}
