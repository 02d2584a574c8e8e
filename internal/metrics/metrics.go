// Package metrics exposes Prometheus collectors for the league watcher.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Cycle outcomes used as the status label of leaguewatch_cycles_total.
const (
	CycleSuccess     = "success"
	CycleFetchFailed = "fetch_failed"
	CycleInvalid     = "invalid"
	CycleStoreFailed = "store_failed"
)

// Fetch attempt outcomes.
const (
	AttemptSuccess = "success"
	AttemptFailure = "failure"
)

var (
	cyclesTotal                *prometheus.CounterVec
	fetchAttemptsTotal         *prometheus.CounterVec
	leaguesMatched             prometheus.Gauge
	announcementsTotal         prometheus.Counter
	lastSuccessTimestamp       prometheus.Gauge
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		cyclesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leaguewatch_cycles_total",
				Help: "Total number of poll cycles, labeled by outcome.",
			},
			[]string{"status"},
		)

		fetchAttemptsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leaguewatch_fetch_attempts_total",
				Help: "Total number of league API requests, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		leaguesMatched = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "leaguewatch_leagues_matched",
				Help: "Number of leagues that passed the filter in the last successful cycle.",
			},
		)

		announcementsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "leaguewatch_announcements_total",
				Help: "Total number of league announcements emitted.",
			},
		)

		lastSuccessTimestamp = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "leaguewatch_last_success_timestamp_seconds",
				Help: "Unix time of the last cycle that completed without error.",
			},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Recorder adapts the package-level collectors to the observer interfaces
// consumed by the watcher and the retrying fetcher.
type Recorder struct{}

// NewRecorder initializes the collectors and returns a Recorder.
func NewRecorder() Recorder {
	Init()
	return Recorder{}
}

// ObserveFetchAttempt implements retry.AttemptObserver.
func (Recorder) ObserveFetchAttempt(outcome string) { ObserveFetchAttempt(outcome) }

// ObserveCycle implements watcher.Observer.
func (Recorder) ObserveCycle(status string, matched, announced int, finished time.Time) {
	ObserveCycle(status, matched, announced, finished)
}

// ObserveFetchAttempt counts one league API request.
func ObserveFetchAttempt(outcome string) {
	fetchAttemptsTotal.WithLabelValues(outcome).Inc()
}

// ObserveCycle records the outcome of one poll cycle. Matched and announced
// counts only move on success.
func ObserveCycle(status string, matched, announced int, finished time.Time) {
	cyclesTotal.WithLabelValues(status).Inc()
	if status != CycleSuccess {
		return
	}
	leaguesMatched.Set(float64(matched))
	announcementsTotal.Add(float64(announced))
	lastSuccessTimestamp.Set(float64(finished.Unix()))
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
