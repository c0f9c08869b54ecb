package oracle

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records oracle activity. A nil *Metrics records nothing.
type Metrics struct {
	requests  *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	decisions *prometheus.CounterVec
}

// NewMetrics registers the oracle collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "condlock",
			Subsystem: "oracle",
			Name:      "source_requests_total",
			Help:      "Oracle source lookups by source and outcome.",
		}, []string{"source", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "condlock",
			Subsystem: "oracle",
			Name:      "source_latency_seconds",
			Help:      "Oracle source lookup latency including retries.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"source"}),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "condlock",
			Subsystem: "oracle",
			Name:      "decisions_total",
			Help:      "Consensus decisions by branch and status.",
		}, []string{"branch", "status"}),
	}
	if reg != nil {
		reg.MustRegister(m.requests, m.latency, m.decisions)
	}
	return m
}

func (m *Metrics) observeSource(source string, took time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.requests.WithLabelValues(source, outcome).Inc()
	m.latency.WithLabelValues(source).Observe(took.Seconds())
}

func (m *Metrics) observeBranch(b *Branch) {
	if m == nil || b == nil {
		return
	}
	m.decisions.WithLabelValues(b.Kind, b.Status.String()).Inc()
}
