package metrics_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nazarious-ucu/hawaii-climate-api/internal/metrics"
)

func TestHTTPMiddleware_CountsByRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := metrics.NewMetrics("test")

	router := gin.New()
	router.Use(m.HTTPMiddleware())
	router.GET("/api/v1.0/:start", func(c *gin.Context) {
		c.Status(http.StatusNotFound)
	})

	rec := httptest.NewRecorder()
	req, err := http.NewRequest(http.MethodGet, "/api/v1.0/not-a-date", nil)
	require.NoError(t, err)
	router.ServeHTTP(rec, req)

	assert.InDelta(t, 1, testutil.ToFloat64(
		m.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/api/v1.0/:start", "4xx")), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(m.HTTPRequestsInFlight), 0)
}

func TestObserveQuery(t *testing.T) {
	m := metrics.NewMetrics("test")

	m.ObserveQuery("stations", time.Millisecond, nil)
	m.ObserveQuery("stations", time.Millisecond, errors.New("disk I/O error"))

	assert.InDelta(t, 1, testutil.ToFloat64(m.StoreQueriesTotal.WithLabelValues("stations", "ok")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.StoreQueriesTotal.WithLabelValues("stations", "error")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.TechnicalErrors.WithLabelValues("store_stations", "critical")), 0)
}

func TestHandler_ExposesOwnRegistry(t *testing.T) {
	m := metrics.NewMetrics("climate_test")
	m.RecordInvalidDate("start")

	rec := httptest.NewRecorder()
	req, err := http.NewRequest(http.MethodGet, "/metrics", nil)
	require.NoError(t, err)
	m.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `climate_test_invalid_dates_total{parameter="start"} 1`)
}
