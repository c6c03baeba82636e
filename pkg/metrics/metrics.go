// Package metrics registers the process-wide prometheus instruments for the
// usage engine and exposes the scrape handler.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	metricPrefix = "pwdusage_"

	resultSuccess = "success"
	resultError   = "error"
)

// Exported result labels for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError
)

var (
	registerOnce sync.Once

	queryRequests *prometheus.CounterVec
	queryLatency  *prometheus.HistogramVec
	queryErrors   *prometheus.CounterVec

	reloadRequests  *prometheus.CounterVec
	reloadTimestamp prometheus.Gauge
)

// Init registers the usage engine metrics. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		queryRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "query_requests_total",
				Help: "Total usage queries by result",
			},
			[]string{"result"},
		)
		queryLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "query_latency_seconds",
				Help:    "Usage query latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		queryErrors = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "query_errors_total",
				Help: "Total usage query errors by kind",
			},
			[]string{"kind"},
		)

		reloadRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "config_reloads_total",
				Help: "Total configuration reloads by result",
			},
			[]string{"result"},
		)
		reloadTimestamp = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "config_loaded_timestamp_seconds",
				Help: "Unix time of the last successful configuration load",
			},
		)

		prometheus.MustRegister(
			queryRequests,
			queryLatency,
			queryErrors,
			reloadRequests,
			reloadTimestamp,
		)
	})
}

// ObserveQuery records one usage query's duration and result.
func ObserveQuery(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if queryRequests != nil {
		queryRequests.WithLabelValues(result).Inc()
	}
	if queryLatency != nil {
		queryLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// IncQueryError increments the query error counter for a kind.
func IncQueryError(kind string) {
	if kind == "" {
		kind = "unknown"
	}
	if queryErrors != nil {
		queryErrors.WithLabelValues(kind).Inc()
	}
}

// ObserveReload records a configuration reload attempt.
func ObserveReload(result string) {
	if result == "" {
		result = resultSuccess
	}
	if reloadRequests != nil {
		reloadRequests.WithLabelValues(result).Inc()
	}
	if result == resultSuccess && reloadTimestamp != nil {
		reloadTimestamp.SetToCurrentTime()
	}
}

// Handler returns the prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
