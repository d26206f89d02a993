package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// httpRequestDuration tracks request latency per route
	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cluster_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	// paymentsTotal counts payment creation attempts by result
	paymentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cluster_payments_total",
		Help: "Payment creation attempts by result",
	}, []string{"result"})

	// webhooksTotal counts gateway notifications by outcome
	webhooksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cluster_payment_webhooks_total",
		Help: "Payment gateway notifications by outcome",
	}, []string{"outcome"})

	// notificationsTotal counts outbound WhatsApp messages
	notificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cluster_notifications_total",
		Help: "Outbound notifications by kind and result",
	}, []string{"kind", "result"})
)

// Payment records a payment creation result ("created", "rejected", "gateway_error", ...)
func Payment(result string) { paymentsTotal.WithLabelValues(result).Inc() }

// Webhook records the outcome of one gateway notification
func Webhook(outcome string) { webhooksTotal.WithLabelValues(outcome).Inc() }

// Notification records one outbound message
func Notification(kind string, err error) {
	result := "sent"
	if err != nil {
		result = "failed"
	}
	notificationsTotal.WithLabelValues(kind, result).Inc()
}

// Middleware observes the latency of every request by its route template
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

// Handler exposes the default registry
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
