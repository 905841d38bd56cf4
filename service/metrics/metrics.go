package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors for the application.
// Following the explicit dependency injection pattern, this struct
// is passed to all components that need to record metrics.
type Metrics struct {
	// Upstream indexer metrics, labeled by chain
	upstreamCallsTotal   *prometheus.CounterVec
	upstreamCallDuration *prometheus.HistogramVec
	upstreamPageSize     *prometheus.HistogramVec

	// Merge metrics
	mergeDuration    prometheus.Histogram
	mergeProduced    prometheus.Histogram
	mergeStallsTotal prometheus.Counter

	// Workflow metrics
	pollWorkflowDuration *prometheus.HistogramVec
	pollExecutionsTotal  *prometheus.CounterVec

	// Database metrics
	dbQueryDuration   *prometheus.HistogramVec
	dbOperationsTotal *prometheus.CounterVec

	// HTTP metrics
	httpRequestDuration *prometheus.HistogramVec
	httpRequestsTotal   *prometheus.CounterVec

	// NATS metrics
	natsMessagesPublished *prometheus.CounterVec
	natsPublishDuration   *prometheus.HistogramVec
}

// NewMetrics creates a new Metrics instance and registers all collectors.
// If registry is nil, prometheus.DefaultRegisterer is used.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	return &Metrics{
		upstreamCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "txfeed_upstream_calls_total",
				Help: "Total number of upstream indexer calls by chain and status",
			},
			[]string{"chain", "status"},
		),
		upstreamCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "txfeed_upstream_call_duration_seconds",
				Help:    "Duration of upstream indexer calls in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"chain"},
		),
		upstreamPageSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "txfeed_upstream_page_size",
				Help:    "Number of transactions returned per upstream page",
				Buckets: []float64{0, 1, 5, 10, 25, 50, 100},
			},
			[]string{"chain"},
		),
		mergeDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "txfeed_merge_duration_seconds",
				Help:    "Duration of a full merge pass in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
			},
		),
		mergeProduced: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "txfeed_merge_transactions_produced",
				Help:    "Number of transactions produced per merge pass",
				Buckets: []float64{0, 1, 10, 25, 50, 100, 250, 500, 1000},
			},
		),
		mergeStallsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "txfeed_merge_stalls_total",
				Help: "Total number of merge passes aborted by the stall guard",
			},
		),
		pollWorkflowDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "txfeed_poll_workflow_duration_seconds",
				Help:    "Duration of wallet poll executions in seconds",
				Buckets: []float64{0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0},
			},
			[]string{"status"},
		),
		pollExecutionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "txfeed_poll_executions_total",
				Help: "Total number of wallet poll executions by status",
			},
			[]string{"status"},
		),
		dbQueryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "txfeed_db_query_duration_seconds",
				Help:    "Duration of database queries in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
			},
			[]string{"operation"},
		),
		dbOperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "txfeed_db_operations_total",
				Help: "Total number of database operations by operation and status",
			},
			[]string{"operation", "status"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "txfeed_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 30.0},
			},
			[]string{"handler", "method"},
		),
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "txfeed_http_requests_total",
				Help: "Total number of HTTP requests by handler, method, and status class",
			},
			[]string{"handler", "method", "status"},
		),
		natsMessagesPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "txfeed_nats_messages_published_total",
				Help: "Total number of NATS messages published by status",
			},
			[]string{"status"},
		),
		natsPublishDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "txfeed_nats_publish_duration_seconds",
				Help:    "Duration of NATS publish operations in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
			},
			[]string{"status"},
		),
	}
}

// RecordUpstreamCall records an upstream indexer call.
func (m *Metrics) RecordUpstreamCall(chain, status string, duration float64) {
	m.upstreamCallsTotal.WithLabelValues(chain, status).Inc()
	m.upstreamCallDuration.WithLabelValues(chain).Observe(duration)
}

// RecordUpstreamPageSize records the number of transactions in a fetched page.
func (m *Metrics) RecordUpstreamPageSize(chain string, size float64) {
	m.upstreamPageSize.WithLabelValues(chain).Observe(size)
}

// RecordMerge records a completed merge pass.
func (m *Metrics) RecordMerge(duration float64, produced int) {
	m.mergeDuration.Observe(duration)
	m.mergeProduced.Observe(float64(produced))
}

// RecordMergeStall records a merge pass aborted by the stall guard.
func (m *Metrics) RecordMergeStall() {
	m.mergeStallsTotal.Inc()
}

// RecordPollExecution records a wallet poll execution.
func (m *Metrics) RecordPollExecution(status string, duration float64) {
	m.pollExecutionsTotal.WithLabelValues(status).Inc()
	m.pollWorkflowDuration.WithLabelValues(status).Observe(duration)
}

// RecordDBOperation records a database operation.
func (m *Metrics) RecordDBOperation(operation, status string, duration float64) {
	m.dbOperationsTotal.WithLabelValues(operation, status).Inc()
	m.dbQueryDuration.WithLabelValues(operation).Observe(duration)
}

// RecordHTTPRequest records an HTTP request.
func (m *Metrics) RecordHTTPRequest(handler, method string, statusCode int, duration float64) {
	m.httpRequestsTotal.WithLabelValues(handler, method, httpStatusLabel(statusCode)).Inc()
	m.httpRequestDuration.WithLabelValues(handler, method).Observe(duration)
}

// RecordNATSPublish records a NATS publish operation.
func (m *Metrics) RecordNATSPublish(status string, duration float64) {
	m.natsMessagesPublished.WithLabelValues(status).Inc()
	m.natsPublishDuration.WithLabelValues(status).Observe(duration)
}

// httpStatusLabel buckets status codes to keep label cardinality low.
func httpStatusLabel(code int) string {
	switch {
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
