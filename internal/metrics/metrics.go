// Package metrics exposes Prometheus counters for chat replies and contact
// submissions on a private registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the folio collectors.
//
// Metrics:
//   - folio_chat_replies_total{category} - replies sent per category
//   - folio_contact_submissions_total{outcome} - sent, invalid, failed, rate_limited, unavailable
//   - folio_contact_relay_duration_seconds - relay round-trip time
type Metrics struct {
	registry *prometheus.Registry

	ChatReplies        *prometheus.CounterVec
	ContactSubmissions *prometheus.CounterVec
	RelayDuration      prometheus.Histogram
}

// New creates a Metrics instance with its own registry, including the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		ChatReplies: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "folio_chat_replies_total",
				Help: "Total number of chat replies by category",
			},
			[]string{"category"},
		),

		ContactSubmissions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "folio_contact_submissions_total",
				Help: "Total number of contact submissions by outcome",
			},
			[]string{"outcome"},
		),

		RelayDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "folio_contact_relay_duration_seconds",
				Help:    "Duration of contact relay requests in seconds",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 10), // 10ms to ~5s
			},
		),
	}
}

// Registry returns the private registry backing m.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveReply counts one chat reply.
func (m *Metrics) ObserveReply(category string) {
	m.ChatReplies.WithLabelValues(category).Inc()
}

// ObserveSubmission counts one contact submission outcome.
func (m *Metrics) ObserveSubmission(outcome string) {
	m.ContactSubmissions.WithLabelValues(outcome).Inc()
}

// ObserveRelay records how long one relay request took.
func (m *Metrics) ObserveRelay(d time.Duration) {
	m.RelayDuration.Observe(d.Seconds())
}
