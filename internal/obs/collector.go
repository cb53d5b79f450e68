package obs

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "execcore"

// Gauges are engine values sampled at scrape time.
type Gauges struct {
	OpenOrders func() int
	Positions  func() int
	Equity     func() float64
}

// Collector exports Metrics to prometheus by reading a Snapshot on every scrape.
type Collector struct {
	metrics *Metrics
	gauges  Gauges

	events       *prometheus.Desc
	rejects      *prometheus.Desc
	drops        *prometheus.Desc
	ticksApplied *prometheus.Desc
	latency      *prometheus.Desc
	latencyCount *prometheus.Desc
	openOrders   *prometheus.Desc
	positions    *prometheus.Desc
	equity       *prometheus.Desc
}

// NewCollector binds m. Nil gauge funcs are skipped.
func NewCollector(m *Metrics, g Gauges) *Collector {
	return &Collector{
		metrics: m,
		gauges:  g,
		events: prometheus.NewDesc(namespace+"_events_total",
			"Engine events by type.", []string{"type"}, nil),
		rejects: prometheus.NewDesc(namespace+"_rejects_total",
			"Rejected orders by error code.", []string{"code"}, nil),
		drops: prometheus.NewDesc(namespace+"_drops_total",
			"Items refused by a full queue.", []string{"queue"}, nil),
		ticksApplied: prometheus.NewDesc(namespace+"_ticks_applied_total",
			"Coalesced ticks applied to books.", nil, nil),
		latency: prometheus.NewDesc(namespace+"_latency_seconds",
			"Latency aggregates.", []string{"op", "stat"}, nil),
		latencyCount: prometheus.NewDesc(namespace+"_latency_samples_total",
			"Latency sample count.", []string{"op"}, nil),
		openOrders: prometheus.NewDesc(namespace+"_open_orders",
			"Live orders.", nil, nil),
		positions: prometheus.NewDesc(namespace+"_positions",
			"Non-flat positions.", nil, nil),
		equity: prometheus.NewDesc(namespace+"_equity",
			"Account equity.", nil, nil),
	}
}

// Register adds the collector to a fresh registry.
func (c *Collector) Register() (*prometheus.Registry, error) {
	reg := prometheus.NewRegistry()
	if err := reg.Register(c); err != nil {
		return nil, err
	}
	return reg, nil
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.events
	ch <- c.rejects
	ch <- c.drops
	ch <- c.ticksApplied
	ch <- c.latency
	ch <- c.latencyCount
	ch <- c.openOrders
	ch <- c.positions
	ch <- c.equity
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	snap := c.metrics.Snapshot()

	for typ, v := range snap.EventCounts {
		ch <- prometheus.MustNewConstMetric(c.events, prometheus.CounterValue, float64(v), typ.String())
	}
	for code, v := range snap.RejectCounts {
		ch <- prometheus.MustNewConstMetric(c.rejects, prometheus.CounterValue, float64(v), code.String())
	}
	ch <- prometheus.MustNewConstMetric(c.drops, prometheus.CounterValue, float64(snap.TickDrops), "tick")
	ch <- prometheus.MustNewConstMetric(c.drops, prometheus.CounterValue, float64(snap.CommandDrops), "command")
	ch <- prometheus.MustNewConstMetric(c.drops, prometheus.CounterValue, float64(snap.JournalDrops), "journal")
	ch <- prometheus.MustNewConstMetric(c.ticksApplied, prometheus.CounterValue, float64(snap.TicksApplied))

	c.collectLatency(ch, "submit", snap.SubmitLatency)
	c.collectLatency(ch, "cycle", snap.CycleLatency)

	if c.gauges.OpenOrders != nil {
		ch <- prometheus.MustNewConstMetric(c.openOrders, prometheus.GaugeValue, float64(c.gauges.OpenOrders()))
	}
	if c.gauges.Positions != nil {
		ch <- prometheus.MustNewConstMetric(c.positions, prometheus.GaugeValue, float64(c.gauges.Positions()))
	}
	if c.gauges.Equity != nil {
		ch <- prometheus.MustNewConstMetric(c.equity, prometheus.GaugeValue, c.gauges.Equity())
	}
}

func (c *Collector) collectLatency(ch chan<- prometheus.Metric, op string, l LatencySnapshot) {
	ch <- prometheus.MustNewConstMetric(c.latencyCount, prometheus.CounterValue, float64(l.Count), op)
	ch <- prometheus.MustNewConstMetric(c.latency, prometheus.GaugeValue, l.Min.Seconds(), op, "min")
	ch <- prometheus.MustNewConstMetric(c.latency, prometheus.GaugeValue, l.Max.Seconds(), op, "max")
	ch <- prometheus.MustNewConstMetric(c.latency, prometheus.GaugeValue, l.Avg.Seconds(), op, "avg")
}
