package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// APIRequestsTotal counts API requests by method, route template and status.
	APIRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "snapfeed_api_requests_total",
		Help: "Total number of API requests issued by the client",
	}, []string{"method", "route", "status"})

	// APIRequestDuration records API request latency.
	APIRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "snapfeed_api_request_duration_seconds",
		Help:    "API request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// OptimisticRollbacks counts optimistic updates reverted after a failed request.
	OptimisticRollbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "snapfeed_optimistic_rollbacks_total",
		Help: "Total number of optimistic updates reverted",
	}, []string{"action"})

	// CacheLookups counts cache lookups by cache name and result (hit, miss, error).
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "snapfeed_cache_lookups_total",
		Help: "Total number of cache lookups",
	}, []string{"cache", "result"})

	// StaleResponsesDropped counts paginated responses discarded because the list was reset meanwhile.
	StaleResponsesDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "snapfeed_stale_responses_dropped_total",
		Help: "Total number of superseded list responses dropped",
	}, []string{"list"})
)

// ObserveRequest records one finished API request. status is 0 when no response arrived.
func ObserveRequest(method, route string, status int, start time.Time) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	APIRequestsTotal.WithLabelValues(method, route, label).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
}
