// Package metrics holds the Prometheus collectors for the backend.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	DocumentWritesTotal *prometheus.CounterVec

	InferenceRequestsTotal *prometheus.CounterVec
	InferenceDuration      prometheus.Histogram

	EventsPublishedTotal *prometheus.CounterVec
	WebsocketClients     prometheus.Gauge

	gatherer prometheus.Gatherer
}

// New registers every collector on reg.
func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "promptdesk_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "promptdesk_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		DocumentWritesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "promptdesk_document_writes_total",
			Help: "Total number of document writes",
		}, []string{"document", "status"}),
		InferenceRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "promptdesk_inference_requests_total",
			Help: "Total number of inference calls by outcome",
		}, []string{"outcome"}),
		InferenceDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "promptdesk_inference_duration_seconds",
			Help:    "Duration of inference calls in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		EventsPublishedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "promptdesk_events_published_total",
			Help: "Total number of change events published",
		}, []string{"type"}),
		WebsocketClients: factory.NewGauge(prometheus.GaugeOpts{
			Name: "promptdesk_websocket_clients",
			Help: "Number of connected change-feed clients",
		}),
		gatherer: reg,
	}
}

func (m *Metrics) ObserveHTTPRequest(method, route string, status int, elapsed time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveDocumentWrite(document string, err error) {
	m.DocumentWritesTotal.WithLabelValues(document, status(err)).Inc()
}

func (m *Metrics) ObserveInference(outcome string, elapsed time.Duration) {
	m.InferenceRequestsTotal.WithLabelValues(outcome).Inc()
	m.InferenceDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) EventPublished(eventType string) {
	m.EventsPublishedTotal.WithLabelValues(eventType).Inc()
}

func (m *Metrics) ClientConnected()    { m.WebsocketClients.Inc() }
func (m *Metrics) ClientDisconnected() { m.WebsocketClients.Dec() }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
