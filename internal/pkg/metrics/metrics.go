package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registerOnce sync.Once

	httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "diy_http_requests_total",
		Help: "Total HTTP requests handled by the API.",
	}, []string{"method", "path", "status"})

	httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "diy_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	digestRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "diy_digest_runs_total",
		Help: "Digest mailing runs by final status.",
	}, []string{"status"})

	digestEmailsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "diy_digest_emails_sent_total",
		Help: "Digest emails handed to the transport successfully.",
	})

	digestLastSuccess = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "diy_digest_last_success_timestamp_seconds",
		Help: "Unix time of the last digest mailing that was recorded.",
	})

	checkoutEmailsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "diy_checkout_emails_total",
		Help: "Subscription checkout emails by kind and result.",
	}, []string{"kind", "result"})
)

// MustRegister registers the package collectors once.
func MustRegister(registerer prometheus.Registerer) {
	registerOnce.Do(func() {
		registerer.MustRegister(
			httpRequestsTotal,
			httpRequestDuration,
			digestRunsTotal,
			digestEmailsTotal,
			digestLastSuccess,
			checkoutEmailsTotal,
		)
	})
}

// Handler exposes the default registry.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) { h.ServeHTTP(c.Writer, c.Request) }
}

// Middleware records request counts and latency by route template.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := c.Writer.Status()
		if status == 0 {
			status = http.StatusOK
		}
		httpRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// ObserveDigestRun counts one digest run with its status.
func ObserveDigestRun(status string, sent int, at time.Time) {
	digestRunsTotal.WithLabelValues(status).Inc()
	if sent > 0 {
		digestEmailsTotal.Add(float64(sent))
		digestLastSuccess.Set(float64(at.Unix()))
	}
}

// ObserveCheckoutEmail counts one subscribe/unsubscribe confirmation email.
func ObserveCheckoutEmail(kind string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	checkoutEmailsTotal.WithLabelValues(kind, result).Inc()
}
