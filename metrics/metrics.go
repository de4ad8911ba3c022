package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricecompare_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pricecompare_http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	ComparisonsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricecompare_comparisons_total",
			Help: "Total number of comparison runs.",
		},
		[]string{"direction", "status"}, // status: success or an error code
	)

	ComparisonDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pricecompare_comparison_duration_seconds",
			Help:    "Duration of comparison runs, both navigations included.",
			Buckets: []float64{1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"direction"},
	)

	FieldMissesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricecompare_field_misses_total",
			Help: "Optional fields that no selector strategy could extract.",
		},
		[]string{"site", "field"},
	)

	BrowserLaunchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricecompare_browser_launches_total",
			Help: "Browser launch attempts.",
		},
		[]string{"result"}, // success, failure
	)

	BrowserLive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pricecompare_browser_live",
			Help: "1 when a live browser session exists, 0 otherwise.",
		},
	)

	PageContextsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pricecompare_page_contexts_active",
			Help: "Page contexts currently checked out by requests.",
		},
	)
)
