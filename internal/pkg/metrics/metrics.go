// Package metrics exposes Prometheus collectors for the HTTP surface and the
// record and correction workflows.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "schoolrecords"

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by method and route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	studentsWritten = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "student_writes_total",
		Help:      "Student record mutations by operation.",
	}, []string{"op"})

	correctionsSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "corrections_submitted_total",
		Help:      "Correction requests submitted.",
	})

	correctionsResolved = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "corrections_resolved_total",
		Help:      "Correction requests resolved by decision.",
	}, []string{"decision"})

	logins = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Login attempts by result.",
	}, []string{"result"})

	liveSubscriptions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "live_subscriptions",
		Help:      "Open live query subscriptions.",
	})

	exports = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "exports_total",
		Help:      "Spreadsheet exports generated.",
	})
)

// StudentWritten counts a create, update or delete.
func StudentWritten(op string) { studentsWritten.WithLabelValues(op).Inc() }

// CorrectionSubmitted counts a new correction request.
func CorrectionSubmitted() { correctionsSubmitted.Inc() }

// CorrectionResolved counts a resolved request.
func CorrectionResolved(decision string) { correctionsResolved.WithLabelValues(decision).Inc() }

// Login counts a login attempt, result is "success" or "failure".
func Login(result string) { logins.WithLabelValues(result).Inc() }

// SubscriptionOpened and SubscriptionClosed track live query subscriptions.
func SubscriptionOpened() { liveSubscriptions.Inc() }
func SubscriptionClosed() { liveSubscriptions.Dec() }

// ExportGenerated counts a generated workbook.
func ExportGenerated() { exports.Inc() }

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// GinMiddleware records request counts and latency keyed by the matched route.
func GinMiddleware() gin.HandlerFunc {
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
