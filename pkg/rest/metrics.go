package rest

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Operation outcomes recorded by the collector.
const (
	outcomeSuccess   = "success"
	outcomeHTTPError = "http_error"
	outcomeTransport = "transport_error"
)

// Collector holds client-side request metrics. All methods are nil-safe so
// the client can run without metrics attached.
type Collector struct {
	attempts *prometheus.CounterVec
	retries  *prometheus.CounterVec
	outcomes *prometheus.CounterVec
	duration *prometheus.HistogramVec
	registry *prometheus.Registry
}

// NewCollector creates and registers the standard client metrics on a fresh
// registry.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	attempts := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "restclient_attempts_total",
			Help: "Total number of network attempts, including retries",
		},
		[]string{"method", "status"},
	)
	retries := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "restclient_retries_total",
			Help: "Total number of retried attempts",
		},
		[]string{"method"},
	)
	outcomes := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "restclient_operations_total",
			Help: "Total number of terminal operations by outcome",
		},
		[]string{"method", "outcome"},
	)
	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "restclient_operation_duration_seconds",
			Help:    "Histogram of terminal operation durations, retries included",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "outcome"},
	)

	reg.MustRegister(attempts, retries, outcomes, duration)

	return &Collector{
		attempts: attempts,
		retries:  retries,
		outcomes: outcomes,
		duration: duration,
		registry: reg,
	}
}

// Registry exposes the underlying registry for scraping.
func (m *Collector) Registry() *prometheus.Registry { return m.registry }

func (m *Collector) observeAttempt(method string, status int, err error) {
	if m == nil {
		return
	}
	label := "error"
	if err == nil {
		label = strconv.Itoa(status)
	}
	m.attempts.WithLabelValues(method, label).Inc()
}

func (m *Collector) observeRetry(method string) {
	if m == nil {
		return
	}
	m.retries.WithLabelValues(method).Inc()
}

func (m *Collector) observeOutcome(method, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.outcomes.WithLabelValues(method, outcome).Inc()
	m.duration.WithLabelValues(method, outcome).Observe(elapsed.Seconds())
}
