package homing

import (
	"errors"
	"fmt"
	"sync"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/arloliu/go-homing/logger"
	"github.com/arloliu/go-homing/protocol"
	"github.com/arloliu/go-homing/signals"
	"github.com/arloliu/go-homing/transport"
)

type routeKey struct {
	kind protocol.Kind
	axis protocol.Axis
}

// Dispatcher is the delivery path from a transport to the signal table.
//
// It is bound to one transport: bytes from any other transport are rejected with
// ErrUnrecognizedSource. Received bytes are decoded into lines; every line is
// traced and each recognized one signals the routed signal. Deliver is safe for concurrent use.
type Dispatcher struct {
	source  transport.Transport
	table   *signals.Table
	routes  *xsync.MapOf[routeKey, signals.Signal]
	tracer  *tracer
	logger  logger.Logger
	metrics DispatcherMetrics

	mu      sync.Mutex // protects decoder
	decoder *protocol.Decoder
}

// NewDispatcher creates a Dispatcher bound to source and registers it as the
// source's receiver. source must not be open yet.
//
// Only WithLogger and WithSignalTable apply to a Dispatcher.
func NewDispatcher(source transport.Transport, opts ...Option) (*Dispatcher, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}

	return newDispatcher(source, cfg, nil)
}

func newDispatcher(source transport.Transport, cfg *config, t *tracer) (*Dispatcher, error) {
	if source == nil {
		return nil, fmt.Errorf("%w: nil transport", ErrInvalidOption)
	}

	d := &Dispatcher{
		source:  source,
		table:   cfg.table,
		routes:  xsync.NewMapOf[routeKey, signals.Signal](),
		tracer:  t,
		logger:  cfg.logger,
		metrics: newDispatcherMetrics(),
		decoder: protocol.NewDecoder(),
	}

	d.routes.Store(routeKey{protocol.HomeDone, protocol.AxisNone}, signals.Homed)
	d.routes.Store(routeKey{protocol.AxisDone, protocol.AxisX}, signals.XDone)
	d.routes.Store(routeKey{protocol.AxisDone, protocol.AxisY}, signals.YDone)

	source.SetReceiver(d.Deliver)

	return d, nil
}

// Route maps tokens of the given kind and axis to sig, replacing any previous route.
// axis must be protocol.AxisNone for kinds other than AxisDone.
func (d *Dispatcher) Route(kind protocol.Kind, axis protocol.Axis, sig signals.Signal) error {
	if !sig.Valid() {
		return fmt.Errorf("%w: route %s/%s", signals.ErrUnknownSignal, kind, axis)
	}

	if kind == protocol.Unrecognized {
		return fmt.Errorf("%w: cannot route unrecognized lines", ErrInvalidOption)
	}

	d.routes.Store(routeKey{kind, axis}, sig)

	return nil
}

// Deliver decodes data received by src and signals the routed signals.
//
// It implements transport.Receiver. Data from a transport other than the bound
// one is dropped and ErrUnrecognizedSource is returned, which stops delivery on
// that transport.
func (d *Dispatcher) Deliver(src transport.Transport, data []byte) error {
	if src != d.source {
		d.metrics.ForeignSourceCount.Inc()

		name := "<nil>"
		if src != nil {
			name = src.Name()
		}
		err := fmt.Errorf("%w: %s, bound to %s", ErrUnrecognizedSource, name, d.source.Name())
		d.logger.Error("dispatcher: data dropped", "error", err, "len", len(data))

		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	for _, token := range d.decoder.Decode(data) {
		d.dispatch(token)
	}

	return nil
}

// dispatch must be called with d.mu held, which keeps tokens in arrival order.
func (d *Dispatcher) dispatch(token protocol.Token) {
	if d.tracer != nil {
		d.tracer.emit("Received: " + token.Line)
	}

	if !token.Recognized() {
		d.metrics.UnrecognizedCount.Inc()
		d.logger.Debug("dispatcher: unrecognized line", "line", token.Line)

		return
	}

	d.metrics.TokenCount.Inc()

	sig, ok := d.routes.Load(routeKey{token.Kind, token.Axis})
	if !ok {
		d.logger.Debug("dispatcher: no route for token", "token", token.String())
		return
	}

	err := d.table.Signal(sig)
	switch {
	case err == nil:
		d.logger.Debug("dispatcher: signaled", "signal", sig.String(), "line", token.Line)
	case errors.Is(err, signals.ErrNoWaiter):
		d.metrics.RejectedCount.Inc()
		d.logger.Warn("dispatcher: acknowledgment rejected", "signal", sig.String(), "line", token.Line, "error", err)
	default:
		d.logger.Error("dispatcher: signal failed", "signal", sig.String(), "error", err)
	}
}

// Table returns the signal table the dispatcher signals.
func (d *Dispatcher) Table() *signals.Table {
	return d.table
}

// Metrics returns the dispatcher counters.
func (d *Dispatcher) Metrics() *DispatcherMetrics {
	return &d.metrics
}
