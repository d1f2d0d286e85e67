// Package metrics provides Prometheus metrics for the client core.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for retrieval runs.
const (
	OutcomeCommitted = "committed"
	OutcomeStale     = "stale"
	OutcomeFailed    = "failed"
	OutcomeRejected  = "rejected"
)

// Metrics holds all Prometheus metrics for the client.
type Metrics struct {
	registry *prometheus.Registry

	// Retrieval pipeline metrics
	RetrievalRunsTotal     *prometheus.CounterVec
	RetrievalDuration      prometheus.Histogram
	RetrievalInFlight      prometheus.Gauge
	StaleResponsesTotal    *prometheus.CounterVec
	BackendRequestDuration *prometheus.HistogramVec

	// Navigation metrics
	NavigationsTotal *prometheus.CounterVec

	// Document metrics
	DocumentsTotal         prometheus.Gauge
	DocumentMutationsTotal *prometheus.CounterVec

	// Companion API metrics
	HTTPRequestsTotal *prometheus.CounterVec
	WSClients         prometheus.Gauge

	StartTime time.Time
}

// NewMetrics creates metrics on a private registry so several instances can
// coexist in one process (tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	m := &Metrics{registry: reg, StartTime: time.Now()}

	m.RetrievalRunsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docuwise_retrieval_runs_total",
			Help: "Selection-driven retrieval runs by outcome",
		},
		[]string{"outcome"},
	)

	m.RetrievalDuration = f.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "docuwise_retrieval_duration_seconds",
			Help:    "Duration of retrieval runs in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	m.RetrievalInFlight = f.NewGauge(
		prometheus.GaugeOpts{
			Name: "docuwise_retrieval_in_flight",
			Help: "Retrieval runs currently waiting on the backend",
		},
	)

	m.StaleResponsesTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docuwise_stale_responses_total",
			Help: "Backend responses discarded because a newer selection overtook them",
		},
		[]string{"stage"},
	)

	m.BackendRequestDuration = f.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "docuwise_backend_request_duration_seconds",
			Help:    "Duration of backend calls issued by the pipeline",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "status"},
	)

	m.NavigationsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docuwise_navigations_total",
			Help: "Snippet activations by outcome",
		},
		[]string{"outcome"},
	)

	m.DocumentsTotal = f.NewGauge(
		prometheus.GaugeOpts{
			Name: "docuwise_documents_total",
			Help: "Documents currently listed",
		},
	)

	m.DocumentMutationsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docuwise_document_mutations_total",
			Help: "Upload and delete operations by result",
		},
		[]string{"operation", "status"},
	)

	m.HTTPRequestsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docuwise_http_requests_total",
			Help: "Local companion API requests",
		},
		[]string{"method", "status"},
	)

	m.WSClients = f.NewGauge(
		prometheus.GaugeOpts{
			Name: "docuwise_ws_clients",
			Help: "Connected WebSocket clients",
		},
	)

	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveBackend records one backend call.
func (m *Metrics) ObserveBackend(endpoint string, start time.Time, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.BackendRequestDuration.WithLabelValues(endpoint, status).Observe(time.Since(start).Seconds())
}

// RecordRun counts one retrieval run.
func (m *Metrics) RecordRun(outcome string, start time.Time) {
	if m == nil {
		return
	}
	m.RetrievalRunsTotal.WithLabelValues(outcome).Inc()
	if !start.IsZero() {
		m.RetrievalDuration.Observe(time.Since(start).Seconds())
	}
}

// RecordStale counts a discarded response at stage.
func (m *Metrics) RecordStale(stage string) {
	if m == nil {
		return
	}
	m.StaleResponsesTotal.WithLabelValues(stage).Inc()
}

// RecordNavigation counts a snippet activation.
func (m *Metrics) RecordNavigation(outcome string) {
	if m == nil {
		return
	}
	m.NavigationsTotal.WithLabelValues(outcome).Inc()
}

// RecordMutation counts an upload or delete.
func (m *Metrics) RecordMutation(operation string, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.DocumentMutationsTotal.WithLabelValues(operation, status).Inc()
}

// SetDocuments sets the listed document count.
func (m *Metrics) SetDocuments(n int) {
	if m == nil {
		return
	}
	m.DocumentsTotal.Set(float64(n))
}

func (m *Metrics) trackInFlight(delta float64) {
	if m == nil {
		return
	}
	m.RetrievalInFlight.Add(delta)
}

// RunStarted and RunFinished bracket a retrieval run for the in-flight gauge.
func (m *Metrics) RunStarted()  { m.trackInFlight(1) }
func (m *Metrics) RunFinished() { m.trackInFlight(-1) }

// RecordHTTP counts one request to the companion API.
func (m *Metrics) RecordHTTP(method string, status int) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
}
