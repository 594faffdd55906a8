package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestGinMiddlewareCountsByRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinMiddleware())
	r.GET("/students/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/students/:id", "204"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/students/abc", nil))

	assert.Equal(t, before+1, testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/students/:id", "204")))
}

func TestWorkflowCounters(t *testing.T) {
	before := testutil.ToFloat64(correctionsResolved.WithLabelValues("approve"))
	CorrectionResolved("approve")
	assert.Equal(t, before+1, testutil.ToFloat64(correctionsResolved.WithLabelValues("approve")))

	SubscriptionOpened()
	SubscriptionClosed()
	assert.Equal(t, float64(0), testutil.ToFloat64(liveSubscriptions))
}

func TestHandlerExposesCollectors(t *testing.T) {
	ExportGenerated()
	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "schoolrecords_exports_total"))
}
