// Package metrics exposes Prometheus instrumentation for the streaming
// server: request counts, active stream gauges, bytes served, and auth
// outcomes.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns the process's metric registry.
type Collector struct {
	registry *prometheus.Registry

	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	activeStreams  prometheus.Gauge
	bytesStreamed  *prometheus.CounterVec
	authOutcomes   *prometheus.CounterVec
	lockoutEvents  prometheus.Counter
	uploadsTotal   *prometheus.CounterVec
	transcodeTotal *prometheus.CounterVec
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	c := &Collector{registry: reg}

	c.httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rustream_http_requests_total",
		Help: "Total HTTP requests by route and status class.",
	}, []string{"route", "method", "status"})
	reg.MustRegister(c.httpRequests)

	c.httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rustream_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	reg.MustRegister(c.httpDuration)

	c.activeStreams = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "rustream_active_streams",
		Help: "Number of hosts currently marked as streaming.",
	})
	reg.MustRegister(c.activeStreams)

	c.bytesStreamed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rustream_bytes_streamed_total",
		Help: "Total bytes served to clients via range requests.",
	}, []string{"username"})
	reg.MustRegister(c.bytesStreamed)

	c.authOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rustream_auth_outcomes_total",
		Help: "Login attempts by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(c.authOutcomes)

	c.lockoutEvents = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rustream_lockout_events_total",
		Help: "Number of times an account entered lockout.",
	})
	reg.MustRegister(c.lockoutEvents)

	c.uploadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rustream_uploads_total",
		Help: "Completed uploads by username.",
	}, []string{"username"})
	reg.MustRegister(c.uploadsTotal)

	c.transcodeTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rustream_subtitle_transcodes_total",
		Help: "SRT to VTT transcodes by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(c.transcodeTotal)

	return c
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) ObserveRequest(route, method, status string, seconds float64) {
	c.httpRequests.WithLabelValues(route, method, status).Inc()
	c.httpDuration.WithLabelValues(route).Observe(seconds)
}

func (c *Collector) SetActiveStreams(n int) {
	c.activeStreams.Set(float64(n))
}

func (c *Collector) AddBytesStreamed(username string, n int64) {
	c.bytesStreamed.WithLabelValues(username).Add(float64(n))
}

func (c *Collector) RecordAuthOutcome(outcome string) {
	c.authOutcomes.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordLockout() {
	c.lockoutEvents.Inc()
}

func (c *Collector) RecordUpload(username string) {
	c.uploadsTotal.WithLabelValues(username).Inc()
}

func (c *Collector) RecordTranscode(outcome string) {
	c.transcodeTotal.WithLabelValues(outcome).Inc()
}
