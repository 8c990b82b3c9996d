package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "depot_http_requests_total",
		Help: "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "depot_http_request_duration_seconds",
		Help:    "HTTP request latency by method and route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// IntakeTotal counts intake attempts by outcome
	// (created, degraded, rejected, storage_error, metadata_error).
	IntakeTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "depot_intake_total",
		Help: "Resource intake attempts by outcome.",
	}, []string{"outcome"})

	// DownloadsTotal counts document streams opened.
	DownloadsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "depot_downloads_total",
		Help: "Resource downloads started.",
	})

	// DownloadCounterFailures counts download count updates that did not land.
	DownloadCounterFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "depot_download_counter_failures_total",
		Help: "Download counter increments that failed.",
	})

	// StatsCacheResults counts stats cache lookups by result (hit, miss, error).
	StatsCacheResults = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "depot_stats_cache_total",
		Help: "Platform stats cache lookups by result.",
	}, []string{"result"})

	registerOnce sync.Once
)

// InitMetrics registers the collectors with the default registry. Safe to call
// more than once.
func InitMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			httpDuration,
			IntakeTotal,
			DownloadsTotal,
			DownloadCounterFailures,
			StatsCacheResults,
		)
	})
}

// Middleware records request counts and latency per route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// Register attaches the Prometheus metrics endpoint to the router.
func Register(router *gin.Engine, path string) {
	router.GET(path, gin.WrapH(promhttp.Handler()))
}
