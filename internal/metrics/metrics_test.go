package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(paymentsTotal.WithLabelValues("created"))
	Payment("created")
	assert.Equal(t, before+1, testutil.ToFloat64(paymentsTotal.WithLabelValues("created")))

	failed := testutil.ToFloat64(notificationsTotal.WithLabelValues("sos", "failed"))
	Notification("sos", errors.New("down"))
	assert.Equal(t, failed+1, testutil.ToFloat64(notificationsTotal.WithLabelValues("sos", "failed")))
}

func TestMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	r.GET("/ping/:id", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	r.GET("/metrics", Handler())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping/1", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `cluster_http_request_duration_seconds_count{method="GET",route="/ping/:id",status="200"}`)
}
