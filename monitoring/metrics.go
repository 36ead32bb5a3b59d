package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects dispatcher-level Prometheus metrics. All methods are
// nil-safe so the dispatcher can run without a collector attached.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	retriesTotal    *prometheus.CounterVec
	failoversTotal  *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	inFlight        *prometheus.GaugeVec
}

func NewMetrics(namespace string) *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Total number of dispatched requests",
			},
			[]string{"endpoint", "kind", "outcome"},
		),
		retriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "retries_total",
				Help:      "Total number of transient-failure retries",
			},
			[]string{"endpoint"},
		),
		failoversTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "failovers_total",
				Help:      "Total number of failovers away from an endpoint",
			},
			[]string{"endpoint"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_duration_seconds",
				Help:      "Request duration in seconds, including retries and failover",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"endpoint", "kind"},
		),
		inFlight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "in_flight_requests",
				Help:      "Number of attempts currently outstanding per endpoint",
			},
			[]string{"endpoint"},
		),
	}

	registry.MustRegister(m.requestsTotal, m.retriesTotal, m.failoversTotal, m.requestDuration, m.inFlight)
	return m
}

// Handler exposes the metrics in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) RecordRequest(endpoint string, kind string, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(endpoint, kind, outcome).Inc()
	m.requestDuration.WithLabelValues(endpoint, kind).Observe(elapsed.Seconds())
}

func (m *Metrics) RecordRetry(endpoint string) {
	if m == nil {
		return
	}
	m.retriesTotal.WithLabelValues(endpoint).Inc()
}

func (m *Metrics) RecordFailover(endpoint string) {
	if m == nil {
		return
	}
	m.failoversTotal.WithLabelValues(endpoint).Inc()
}

func (m *Metrics) TrackInFlight(endpoint string, delta int) {
	if m == nil {
		return
	}
	m.inFlight.WithLabelValues(endpoint).Add(float64(delta))
}
