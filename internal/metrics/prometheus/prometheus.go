package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"spendboard/internal/metrics"
)

var _ metrics.Collector = (*Collector)(nil)

// Collector implements metrics.Collector for Prometheus.
type Collector struct {
	renders        *prometheus.CounterVec
	renderLatency  *prometheus.HistogramVec
	transactions   *prometheus.CounterVec
	sourceCalls    *prometheus.CounterVec
	sourceLatency  *prometheus.HistogramVec
	circuitState   *prometheus.GaugeVec
	fontResolution *prometheus.CounterVec
}

// NewCollector creates the metric vectors under namespace.
func NewCollector(namespace string) *Collector {
	return &Collector{
		renders: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "renders_total",
				Help:      "Total number of display renders per account and result",
			},
			[]string{"account", "result"},
		),
		renderLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "render_duration_seconds",
				Help:      "End-to-end display generation latency",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"account"},
		),
		transactions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transactions_total",
				Help:      "Transactions seen by the aggregator per account and outcome",
			},
			[]string{"account", "outcome"},
		),
		sourceCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "source_calls_total",
				Help:      "Calls to transaction sources per source and result",
			},
			[]string{"source", "result"},
		),
		sourceLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "source_call_duration_seconds",
				Help:      "Transaction source call latency",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"source"},
		),
		circuitState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "circuit_state",
				Help:      "Current circuit breaker state per source (0=closed, 1=open, 2=half-open)",
			},
			[]string{"source"},
		),
		fontResolution: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "font_resolutions_total",
				Help:      "Font tier chosen per text role",
			},
			[]string{"role", "tier"},
		),
	}
}

// Register registers all metrics with the given registry.
func (c *Collector) Register(registry prometheus.Registerer) error {
	for _, collector := range []prometheus.Collector{
		c.renders,
		c.renderLatency,
		c.transactions,
		c.sourceCalls,
		c.sourceLatency,
		c.circuitState,
		c.fontResolution,
	} {
		if err := registry.Register(collector); err != nil {
			return err
		}
	}
	return nil
}

func result(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

func (c *Collector) RecordRender(account string, success bool, duration time.Duration) {
	c.renders.WithLabelValues(account, result(success)).Inc()
	c.renderLatency.WithLabelValues(account).Observe(duration.Seconds())
}

func (c *Collector) RecordAggregation(account string, considered, excluded, stale int) {
	c.transactions.WithLabelValues(account, "considered").Add(float64(considered))
	c.transactions.WithLabelValues(account, "excluded").Add(float64(excluded))
	c.transactions.WithLabelValues(account, "stale").Add(float64(stale))
}

func (c *Collector) RecordSourceCall(source string, success bool, duration time.Duration) {
	c.sourceCalls.WithLabelValues(source, result(success)).Inc()
	c.sourceLatency.WithLabelValues(source).Observe(duration.Seconds())
}

func (c *Collector) RecordCircuitState(source string, state metrics.CircuitState) {
	c.circuitState.WithLabelValues(source).Set(float64(state))
}

func (c *Collector) RecordFontTier(role, tier string) {
	c.fontResolution.WithLabelValues(role, tier).Inc()
}
