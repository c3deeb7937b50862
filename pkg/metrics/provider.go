package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ProviderMetrics records call metadata for the upstream fulfillment API.
type ProviderMetrics struct {
	duration *prometheus.HistogramVec
	calls    *prometheus.CounterVec
}

// NewProviderMetrics registers the provider client metrics on the provided registerer.
func NewProviderMetrics(reg prometheus.Registerer) *ProviderMetrics {
	if reg == nil {
		return &ProviderMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "provider_call_duration_seconds",
		Help:    "Duration of provider API calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"action"})
	calls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "provider_calls_total",
		Help: "Provider API calls partitioned by action and outcome.",
	}, []string{"action", "outcome"})
	reg.MustRegister(duration, calls)
	return &ProviderMetrics{
		duration: duration,
		calls:    calls,
	}
}

// ObserveCall records one provider round-trip.
func (p *ProviderMetrics) ObserveCall(action string, duration time.Duration, err error) {
	if p == nil || p.duration == nil {
		return
	}
	label := normalizeLabel(action)
	p.duration.WithLabelValues(label).Observe(duration.Seconds())
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	p.calls.WithLabelValues(label, outcome).Inc()
}
