package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func healthRouter(h *HealthHandler) *gin.Engine {
	r := gin.New()
	h.RegisterRoutes(r)
	return r
}

func TestHealthHandler_Liveness(t *testing.T) {
	w := do(healthRouter(NewHealthHandler("1.2.3")), http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp LivenessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "alive", resp.Status)
	assert.Equal(t, "1.2.3", resp.Version)
}

func TestHealthHandler_Readiness(t *testing.T) {
	ok := NewCheck("model", func(context.Context) error { return nil })
	bad := NewCheck("redis", func(context.Context) error { return fmt.Errorf("connection refused") })

	t.Run("no checkers", func(t *testing.T) {
		w := do(healthRouter(NewHealthHandler("v")), http.MethodGet, "/readyz", "")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("all healthy", func(t *testing.T) {
		w := do(healthRouter(NewHealthHandler("v", ok)), http.MethodGet, "/readyz", "")
		require.Equal(t, http.StatusOK, w.Code)
		var resp ReadinessResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "ready", resp.Status)
		assert.Equal(t, StatusHealthy, resp.Components["model"].Status)
	})

	t.Run("one failing", func(t *testing.T) {
		w := do(healthRouter(NewHealthHandler("v", ok, bad)), http.MethodGet, "/readyz", "")
		require.Equal(t, http.StatusServiceUnavailable, w.Code)
		var resp ReadinessResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "not_ready", resp.Status)
		assert.Equal(t, StatusUnhealthy, resp.Components["redis"].Status)
		assert.Equal(t, "connection refused", resp.Components["redis"].Error)
		assert.Equal(t, StatusHealthy, resp.Components["model"].Status)
	})
}
