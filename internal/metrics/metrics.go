package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	itemsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_import_items_total",
			Help: "Products and variation members handled by import runs, by outcome.",
		},
		[]string{"outcome"},
	)
	imagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_import_images_total",
			Help: "Images normalized by import runs, by outcome.",
		},
		[]string{"outcome"},
	)
	categoryTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_import_category_total",
			Help: "Category assignments by resolution method.",
		},
		[]string{"method"},
	)
	runDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "catalog_import_run_duration_seconds",
			Help:    "Wall time of import runs.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
	)
	runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_import_runs_total",
			Help: "Finished import runs by status.",
		},
		[]string{"status"},
	)
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_http_requests_total",
			Help: "HTTP requests served by the control API.",
		},
		[]string{"method", "route", "status"},
	)
)

func init() {
	prometheus.MustRegister(itemsTotal, imagesTotal, categoryTotal, runDuration, runsTotal, httpRequests)
}

func Item(outcome string) { itemsTotal.WithLabelValues(outcome).Inc() }

func Images(outcome string, n int) {
	if n > 0 {
		imagesTotal.WithLabelValues(outcome).Add(float64(n))
	}
}

func Category(method string) { categoryTotal.WithLabelValues(method).Inc() }

func RunFinished(status string, d time.Duration) {
	runsTotal.WithLabelValues(status).Inc()
	runDuration.Observe(d.Seconds())
}

func Request(method, route string, status int) {
	httpRequests.WithLabelValues(method, route, classifyStatus(status)).Inc()
}

func classifyStatus(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500 && code < 600:
		return "5xx"
	}
	return "unknown"
}

func Handler() http.Handler {
	return promhttp.Handler()
}
