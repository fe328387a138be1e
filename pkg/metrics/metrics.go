package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "hashdoc"

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "http_requests_total", Help: "HTTP requests by route, method and status."},
		[]string{"route", "method", "status"},
	)
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Namespace: namespace, Name: "http_request_duration_seconds", Help: "HTTP request latency by route.", Buckets: prometheus.DefBuckets},
		[]string{"route", "method"},
	)
	DocumentsUploaded = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "documents_uploaded_total", Help: "Uploaded documents by type and whether saved as draft."},
		[]string{"type", "draft"},
	)
	DocumentsReviewed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "documents_reviewed_total", Help: "Review decisions by outcome."},
		[]string{"status"},
	)
	ConversionJobs = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "conversion_jobs_total", Help: "Finished preview conversion jobs by result."},
		[]string{"result"},
	)
	NotificationsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "notifications_sent_total", Help: "Notifications created by kind."},
		[]string{"kind"},
	)
	FeedbackSent = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: namespace, Name: "feedback_sent_total", Help: "Feedback messages sent, replies included."},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(HTTPRequests)
	reg.MustRegister(HTTPDuration)
	reg.MustRegister(DocumentsUploaded)
	reg.MustRegister(DocumentsReviewed)
	reg.MustRegister(ConversionJobs)
	reg.MustRegister(NotificationsSent)
	reg.MustRegister(FeedbackSent)
}

// GinMiddleware records request counts and latency labelled by the matched route template.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		HTTPRequests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		HTTPDuration.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}
