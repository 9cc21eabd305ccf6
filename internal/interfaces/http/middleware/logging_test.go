package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/logkpredict/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/logkpredict/internal/testutil"
)

func newLoggedRouter(t *testing.T, logger *testutil.MockLogger) (*gin.Engine, prometheus.MetricsCollector) {
	t.Helper()
	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{Namespace: "test"}, nil)
	require.NoError(t, err)
	metrics := prometheus.NewAppMetrics(collector)

	r := gin.New()
	r.Use(RequestID(), RequestLogging(logger, DefaultLoggingConfig(), metrics), Recovery(logger))
	r.GET("/ok/:id", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/bad", func(c *gin.Context) { c.Status(http.StatusBadRequest) })
	r.GET("/boom", func(c *gin.Context) { panic("boom") })
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r, collector
}

func serve(r http.Handler, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestRequestLogging_Levels(t *testing.T) {
	logger := testutil.NewMockLogger()
	r, _ := newLoggedRouter(t, logger)

	serve(r, http.MethodGet, "/ok/1")
	serve(r, http.MethodGet, "/bad")

	assert.True(t, logger.HasMessage("info", "HTTP request completed"))
	assert.True(t, logger.HasMessage("warn", "HTTP request completed with client error"))
	route, ok := logger.Field("HTTP request completed", "route")
	require.True(t, ok)
	assert.Equal(t, "/ok/:id", route)
}

func TestRequestLogging_SkipsProbesButCountsThem(t *testing.T) {
	logger := testutil.NewMockLogger()
	r, collector := newLoggedRouter(t, logger)

	serve(r, http.MethodGet, "/healthz")
	assert.Empty(t, logger.Messages())

	n, err := promtest.GatherAndCount(collector.Registry(), "test_http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRecovery(t *testing.T) {
	logger := testutil.NewMockLogger()
	r, _ := newLoggedRouter(t, logger)

	w := serve(r, http.MethodGet, "/boom")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "COMMON_001")
	assert.True(t, logger.HasMessage("error", "panic while serving request"))
	assert.True(t, logger.HasMessage("error", "HTTP request completed with server error"))
}
