// Package metrics collects and exposes Prometheus metrics for the engine.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector is the metrics surface used by the service layer. It is an
// interface so unit tests can pass a no-op.
type Collector interface {
	RecordProviderCall(operation string, err error)
	RecordProviderLatency(operation string, d time.Duration)
	RecordClassification(succeeded bool)
	RecordTokenRefresh(err error)
}

// PromCollector implements Collector against a Prometheus registry.
type PromCollector struct {
	providerCalls   *prometheus.CounterVec
	providerLatency *prometheus.HistogramVec
	classifications *prometheus.CounterVec
	tokenRefreshes  *prometheus.CounterVec
}

var _ Collector = (*PromCollector)(nil)

// NewCollector creates a collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *PromCollector {
	c := &PromCollector{
		providerCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payflow_provider_calls_total",
			Help: "Provider calls by operation and result.",
		}, []string{"operation", "result"}),
		providerLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "payflow_provider_latency_seconds",
			Help:    "Latency of provider calls by operation.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		classifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payflow_classifications_total",
			Help: "Outcome classifications by verdict.",
		}, []string{"verdict"}),
		tokenRefreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payflow_token_refreshes_total",
			Help: "Service token refresh attempts by result.",
		}, []string{"result"}),
	}

	reg.MustRegister(
		c.providerCalls,
		c.providerLatency,
		c.classifications,
		c.tokenRefreshes,
	)

	return c
}

func (c *PromCollector) RecordProviderCall(operation string, err error) {
	c.providerCalls.WithLabelValues(operation, resultLabel(err)).Inc()
}

func (c *PromCollector) RecordProviderLatency(operation string, d time.Duration) {
	c.providerLatency.WithLabelValues(operation).Observe(d.Seconds())
}

func (c *PromCollector) RecordClassification(succeeded bool) {
	verdict := "failed"
	if succeeded {
		verdict = "succeeded"
	}
	c.classifications.WithLabelValues(verdict).Inc()
}

func (c *PromCollector) RecordTokenRefresh(err error) {
	c.tokenRefreshes.WithLabelValues(resultLabel(err)).Inc()
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// Handler returns the HTTP handler serving the registry's metrics.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// Nop is a Collector that records nothing; used in tests.
type Nop struct{}

var _ Collector = Nop{}

func (Nop) RecordProviderCall(string, error)            {}
func (Nop) RecordProviderLatency(string, time.Duration) {}
func (Nop) RecordClassification(bool)                   {}
func (Nop) RecordTokenRefresh(error)                    {}
