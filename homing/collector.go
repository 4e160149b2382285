package homing

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/arloliu/go-homing/signals"
)

// Collector exposes the counters of a Sequencer, its dispatcher, its signal
// table and its transport as prometheus metrics.
type Collector struct {
	collectors []prometheus.Collector
}

var _ prometheus.Collector = (*Collector)(nil)

// NewCollector creates a Collector for seq. All metric names are prefixed with
// namespace, e.g. "homing_home_total".
func NewCollector(namespace string, seq *Sequencer) *Collector {
	c := &Collector{}

	counter := func(subsystem, name, help string, v *xsync.Counter, labels prometheus.Labels) {
		c.collectors = append(c.collectors, prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: labels,
		}, func() float64 { return float64(v.Value()) }))
	}

	m := seq.Metrics()
	counter("", "home_total", "Number of Home calls.", m.HomeCount, nil)
	counter("", "home_complete_total", "Number of Home calls that completed.", m.CompleteCount, nil)
	counter("", "home_busy_total", "Number of Home calls rejected as busy.", m.BusyCount, nil)
	counter("", "home_no_ack_total", "Number of Home calls without acknowledgment.", m.NoAckCount, nil)
	counter("", "home_transport_errors_total", "Number of Home calls failed by the transport.", m.TransportErrCount, nil)
	counter("", "stages_acknowledged_total", "Number of acknowledged stages.", m.StageCount, nil)

	dm := seq.Dispatcher().Metrics()
	counter("dispatcher", "tokens_total", "Number of recognized acknowledgments.", dm.TokenCount, nil)
	counter("dispatcher", "unrecognized_total", "Number of unrecognized lines.", dm.UnrecognizedCount, nil)
	counter("dispatcher", "rejected_total", "Number of acknowledgments rejected by a full slot.", dm.RejectedCount, nil)
	counter("dispatcher", "foreign_source_total", "Number of deliveries from an unbound transport.", dm.ForeignSourceCount, nil)

	tm := seq.Transport().Metrics()
	tl := prometheus.Labels{"transport": seq.Transport().Name()}
	counter("transport", "sends_total", "Number of successful sends.", tm.SendCount, tl)
	counter("transport", "send_errors_total", "Number of failed sends.", tm.SendErrCount, tl)
	counter("transport", "sent_bytes_total", "Number of bytes sent.", tm.BytesSent, tl)
	counter("transport", "received_chunks_total", "Number of received chunks.", tm.RecvCount, tl)
	counter("transport", "received_bytes_total", "Number of bytes received.", tm.BytesRecv, tl)

	sm := seq.Table().Metrics()
	counter("signals", "acquires_total", "Number of successful acquires.", sm.AcquireCount, nil)
	counter("signals", "timeouts_total", "Number of acquires that timed out or were cancelled.", sm.TimeoutCount, nil)
	counter("signals", "signals_total", "Number of accepted signals.", sm.SignalCount, nil)
	counter("signals", "rejected_total", "Number of signals rejected because the token was present.", sm.RejectedCount, nil)

	table := seq.Table()
	for _, sig := range signals.All() {
		c.collectors = append(c.collectors, prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   namespace,
			Subsystem:   "signals",
			Name:        "available",
			Help:        "1 when the signal holds its token.",
			ConstLabels: prometheus.Labels{"signal": sig.String()},
		}, func() float64 {
			if table.Available(sig) {
				return 1
			}

			return 0
		}))
	}

	c.collectors = append(c.collectors, prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "state",
		Help:      "Current sequence state: 0 idle, 1-3 awaiting a stage, 4 complete, 5 failed.",
	}, func() float64 { return float64(seq.State()) }))

	return c
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, col := range c.collectors {
		col.Describe(ch)
	}
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, col := range c.collectors {
		col.Collect(ch)
	}
}
