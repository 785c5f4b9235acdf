package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "skilldeck_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
	Uploads = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "skilldeck_uploads_total", Help: "Avatar uploads by outcome"},
		[]string{"outcome"},
	)
	PublishedEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "skilldeck_events_published_total", Help: "Kafka events by topic and outcome"},
		[]string{"topic", "outcome"},
	)
	ProcessedEvents = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "skilldeck_worker_processed_total", Help: "Profile events handled by the worker"},
	)
	FailedEvents = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "skilldeck_worker_failed_total", Help: "Profile events the worker failed to handle"},
	)
)

func Register() {
	prometheus.MustRegister(HTTPRequestDuration, Uploads, PublishedEvents, ProcessedEvents, FailedEvents)
}

// Outcome labels an error as "ok" or "error".
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// GinMiddleware observes every request under its route template, so
// /api/u/:username is one series regardless of the username.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		HTTPRequestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
