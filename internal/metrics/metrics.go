package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ErrorsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifier_errors_total",
			Help: "Total number of occurred errors.",
		},
		[]string{"type"},
	)
	RefreshDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "notifier_refresh_duration_seconds",
			Help:    "Duration of each notices refresh (scrape and ingestion) in seconds.",
			Buckets: []float64{0.5, 1, 5, 15, 30, 60},
		},
	)
	InsertedNoticesCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "notifier_notices_inserted_total",
			Help: "Total number of new notices stored.",
		},
	)
	SkippedNoticesCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "notifier_notices_skipped_total",
			Help: "Total number of scraped notices skipped as duplicates.",
		},
	)
	RefreshRejectedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "notifier_refresh_rejected_total",
			Help: "Total number of refresh triggers rejected during cooldown.",
		},
	)
	HTTPRequestDuration = prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       "notifier_http_request_duration_seconds",
			Help:       "Duration of handled API requests.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"route", "status"},
	)
)

var registerOnce sync.Once

func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(ErrorsCounter)
		prometheus.MustRegister(RefreshDuration)
		prometheus.MustRegister(InsertedNoticesCounter)
		prometheus.MustRegister(SkippedNoticesCounter)
		prometheus.MustRegister(RefreshRejectedCounter)
		prometheus.MustRegister(HTTPRequestDuration)
	})
}

func Handler() http.Handler {
	Register()
	return promhttp.Handler()
}
