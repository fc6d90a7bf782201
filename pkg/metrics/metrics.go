package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trends_api_requests_total",
			Help: "Remote task API calls by endpoint and outcome",
		},
		[]string{"endpoint", "outcome"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trends_api_request_duration_seconds",
			Help:    "Latency of remote task API calls",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"endpoint"},
	)

	TasksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trends_tasks_total",
			Help: "Task state transitions by resulting state",
		},
		[]string{"state"},
	)

	LimiterWaitDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "trends_rate_limiter_wait_seconds",
			Help:    "Time spent blocked waiting for a rate limiter permit",
			Buckets: []float64{0, 0.05, 0.1, 0.5, 1, 5, 15, 30, 60},
		},
	)

	PollCyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trends_poll_cycles_total",
			Help: "Completion poll cycles by outcome",
		},
		[]string{"outcome"},
	)

	KeywordsWithData = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "trends_keywords_with_data",
			Help: "Keywords with at least one rising query in the last run",
		},
	)

	RisingEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "trends_rising_entries",
			Help: "Rising query entries collected in the last run",
		},
	)

	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "trends_run_duration_seconds",
			Help:    "Wall time of a full fetch run",
			Buckets: prometheus.ExponentialBuckets(15, 2, 10),
		},
	)

	PublishTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trends_backend_publish_total",
			Help: "Dataset publishes to the downstream collector",
		},
		[]string{"outcome"},
	)

	WorkerPanics = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trends_worker_panics_total",
			Help: "Recovered panics in pipeline worker pools",
		},
		[]string{"pool"},
	)
)

// RecordAPICall updates request counters for one remote call.
func RecordAPICall(endpoint string, started time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	APIRequestsTotal.WithLabelValues(endpoint, outcome).Inc()
	APIRequestDuration.WithLabelValues(endpoint).Observe(time.Since(started).Seconds())
}

// RecordTaskState counts a transition into state.
func RecordTaskState(state string) {
	TasksTotal.WithLabelValues(state).Inc()
}

// RecordRun publishes the headline numbers of a finished run.
func RecordRun(keywordsWithData, entries int, elapsed time.Duration) {
	KeywordsWithData.Set(float64(keywordsWithData))
	RisingEntries.Set(float64(entries))
	RunDuration.Observe(elapsed.Seconds())
}
