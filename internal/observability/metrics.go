package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce        sync.Once
	httpRequestsTotal   *prometheus.CounterVec
	httpLatencySeconds  *prometheus.HistogramVec
	httpErrorsTotal     *prometheus.CounterVec
	historyEntriesTotal *prometheus.CounterVec
	attachmentsTotal    *prometheus.CounterVec
	changeEventsTotal   *prometheus.CounterVec
	historyFeedRequests *prometheus.CounterVec
	historyFeedLatency  prometheus.Histogram
)

// RegisterMetrics initialises the Prometheus collectors used across the application.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "engtrack_http_requests_total",
			Help: "Total number of HTTP requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "engtrack_http_latency_seconds",
			Help:    "Latency distribution for HTTP requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "engtrack_http_errors_total",
			Help: "Total number of error responses returned.",
		}, []string{"method", "route", "status"})

		historyEntriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "engtrack_history_entries_total",
			Help: "Activity history entries written, by field label.",
		}, []string{"field"})

		attachmentsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "engtrack_attachments_total",
			Help: "Attachment upload outcomes by category.",
		}, []string{"category", "result"})

		changeEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "engtrack_change_events_total",
			Help: "Activity change events published, by type and result.",
		}, []string{"type", "result"})

		historyFeedRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "engtrack_history_feed_requests_total",
			Help: "History feed lookups by result.",
		}, []string{"result"})

		historyFeedLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "engtrack_history_feed_latency_seconds",
			Help:    "Latency of history feed lookups.",
			Buckets: prometheus.DefBuckets,
		})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			historyEntriesTotal,
			attachmentsTotal,
			changeEventsTotal,
			historyFeedRequests,
			historyFeedLatency,
		)
	})
}

// HTTPRequests exposes the counter for served requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the request latency histogram.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the counter for error responses.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// HistoryEntries exposes the counter of written history rows.
func HistoryEntries() *prometheus.CounterVec {
	RegisterMetrics()
	return historyEntriesTotal
}

// Attachments exposes the counter of attachment outcomes.
func Attachments() *prometheus.CounterVec {
	RegisterMetrics()
	return attachmentsTotal
}

// ChangeEvents exposes the counter of published change events.
func ChangeEvents() *prometheus.CounterVec {
	RegisterMetrics()
	return changeEventsTotal
}

// HistoryFeedRequests exposes the counter of history feed lookups.
func HistoryFeedRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return historyFeedRequests
}

// HistoryFeedLatency exposes the history feed latency histogram.
func HistoryFeedLatency() prometheus.Histogram {
	RegisterMetrics()
	return historyFeedLatency
}
