package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics records gateway activity for Prometheus scraping.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal    *prometheus.CounterVec
	chargedSTXTotal  *prometheus.CounterVec
	inferenceSeconds *prometheus.HistogramVec
	qualityScore     *prometheus.HistogramVec
}

// New creates a metrics registry with all gateway collectors registered.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vision_gateway_requests_total",
			Help: "Pipeline outcomes by tier and terminal state.",
		}, []string{"tier", "outcome"}),
		chargedSTXTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vision_gateway_charged_stx_total",
			Help: "Total STX charged, by tier.",
		}, []string{"tier"}),
		inferenceSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vision_gateway_inference_seconds",
			Help:    "Inference provider latency.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}, []string{"tier"}),
		qualityScore: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vision_gateway_quality_score",
			Help:    "Post-hoc response quality scores.",
			Buckets: prometheus.LinearBuckets(0.3, 0.05, 15),
		}, []string{"tier"}),
	}
}

// ObserveRequest records one pipeline outcome.
func (m *Metrics) ObserveRequest(tier, outcome string) {
	m.requestsTotal.WithLabelValues(tier, outcome).Inc()
}

// ObserveCharge records an amount actually charged.
func (m *Metrics) ObserveCharge(tier string, amountSTX float64) {
	m.chargedSTXTotal.WithLabelValues(tier).Add(amountSTX)
}

// ObserveInference records provider latency for one call.
func (m *Metrics) ObserveInference(tier string, d time.Duration) {
	m.inferenceSeconds.WithLabelValues(tier).Observe(d.Seconds())
}

// ObserveQuality records one quality score.
func (m *Metrics) ObserveQuality(tier string, score float64) {
	m.qualityScore.WithLabelValues(tier).Observe(score)
}

// HTTPHandler exposes the registry for scraping.
func (m *Metrics) HTTPHandler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
