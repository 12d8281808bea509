// Package metrics exposes Prometheus collectors for the scheduling service.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	nowPlayingTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nowplaying_resolutions_total",
		Help: "Now-playing resolutions by outcome",
	}, []string{"outcome"}) // outcome=scheduled|fallback|empty|error

	danglingPrograms = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nowplaying_dangling_program_refs_total",
		Help: "Schedule items whose program could not be found at read time",
	})

	cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nowplaying_cache_lookups_total",
		Help: "Redis cache lookups by result",
	}, []string{"result"}) // result=hit|miss

	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nowplaying_http_requests_total",
		Help: "HTTP requests by route pattern, method and status code",
	}, []string{"route", "method", "code"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "nowplaying_http_request_duration_seconds",
		Help:    "HTTP request latency by route pattern",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})

	seededItems = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nowplaying_seeded_schedule_items_total",
		Help: "Schedule items created by the daily template seeder",
	})
)

// Resolution outcomes.
const (
	OutcomeScheduled = "scheduled"
	OutcomeFallback  = "fallback"
	OutcomeEmpty     = "empty"
	OutcomeError     = "error"
)

// RecordResolution counts one now-playing resolution.
func RecordResolution(outcome string) {
	nowPlayingTotal.WithLabelValues(outcome).Inc()
}

// RecordDanglingProgram counts a schedule item pointing at a deleted program.
func RecordDanglingProgram() {
	danglingPrograms.Inc()
}

// RecordCacheLookup counts a cache hit or miss.
func RecordCacheLookup(hit bool) {
	if hit {
		cacheLookups.WithLabelValues("hit").Inc()
		return
	}
	cacheLookups.WithLabelValues("miss").Inc()
}

// RecordHTTPRequest records one served request.
func RecordHTTPRequest(route, method string, code int, seconds float64) {
	httpRequests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	httpDuration.WithLabelValues(route).Observe(seconds)
}

// AddSeededItems counts schedule items created by the seeder.
func AddSeededItems(n int) {
	if n > 0 {
		seededItems.Add(float64(n))
	}
}
