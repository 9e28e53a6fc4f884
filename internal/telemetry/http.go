package telemetry

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kudos",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route and status code.",
	}, []string{"method", "route", "code"})

	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "kudos",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	commandsHandled = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kudos",
		Subsystem: "bot",
		Name:      "commands_total",
		Help:      "Slash commands handled by kind.",
	}, []string{"kind"})
)

func init() {
	prometheus.MustRegister(httpRequests, httpDuration, commandsHandled)
}

// CountCommand records one handled slash command of the given kind.
func CountCommand(kind string) {
	commandsHandled.WithLabelValues(kind).Inc()
}

// MonitorHTTP records request counts and latency per route.
func MonitorHTTP() gin.HandlerFunc {
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
