package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for PushRequests and ReadRequests.
const (
	OutcomeOK           = "ok"
	OutcomeStored       = "stored"
	OutcomeNoMessage    = "no_message"
	OutcomeNoData       = "no_data"
	OutcomeUnauthorized = "unauthorized"
	OutcomeError        = "error"
)

type Metrics struct {
	registry *prometheus.Registry

	PushRequests *prometheus.CounterVec
	PayloadBytes prometheus.Histogram
	ReadRequests *prometheus.CounterVec
}

// New builds the collectors on a private registry so that several servers can
// live in one process.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		PushRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pubsubsink_push_requests_total",
				Help: "Total number of push requests by outcome",
			},
			[]string{"outcome"},
		),
		PayloadBytes: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "pubsubsink_push_payload_bytes",
				Help:    "Size of decoded push payloads",
				Buckets: prometheus.ExponentialBuckets(64, 4, 9),
			},
		),
		ReadRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pubsubsink_read_requests_total",
				Help: "Total number of message read requests by outcome",
			},
			[]string{"outcome"},
		),
	}

	m.registry.MustRegister(
		m.PushRequests,
		m.PayloadBytes,
		m.ReadRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler returns the Prometheus metrics HTTP handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
