package metrics

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HttpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HttpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	ActiveRequests = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_requests",
			Help: "Number of requests currently being served",
		},
	)

	SuggestionsServed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "memepie_suggestions_served_total",
			Help: "Follow suggestions returned, by reason",
		},
		[]string{"reason"},
	)

	SuggestionCacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "memepie_suggestion_cache_total",
			Help: "Suggestion cache lookups, by result",
		},
		[]string{"result"},
	)

	FeedEntries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "memepie_feed_entries_total",
			Help: "Feed entries served, by tier",
		},
		[]string{"tier"},
	)

	ThreadsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "memepie_threads_created_total",
			Help: "Direct message threads created, by initial acceptance",
		},
		[]string{"accepted"},
	)
)

// Register adds every collector to reg
func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		HttpRequestsTotal,
		HttpRequestDuration,
		ActiveRequests,
		SuggestionsServed,
		SuggestionCacheLookups,
		FeedEntries,
		ThreadsCreated,
	)
}

// Handler serves the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request count, duration and in-flight requests. The
// route template (c.Path()) is used as the label so ids do not explode cardinality.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			method := c.Request().Method

			timer := prometheus.NewTimer(HttpRequestDuration.WithLabelValues(method, path))
			ActiveRequests.Inc()
			defer ActiveRequests.Dec()

			err := next(c)

			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				} else {
					status = http.StatusInternalServerError
				}
			}
			HttpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
			timer.ObserveDuration()
			return err
		}
	}
}
