// Package http exposes the prediction service over a gin router.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/logkpredict/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/logkpredict/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/logkpredict/internal/interfaces/http/handlers"
	"github.com/turtacn/logkpredict/internal/interfaces/http/middleware"
	"github.com/turtacn/logkpredict/pkg/errors"
)

// APIPrefix is the mount point of the versioned API.
const APIPrefix = "/api/v1"

// RouterConfig aggregates the handler and middleware dependencies of the
// route tree.  Nil handlers are not mounted.
type RouterConfig struct {
	PredictionHandler *handlers.PredictionHandler
	HealthHandler     *handlers.HealthHandler

	// Collector serves /metrics; Metrics records request counts.
	Collector prometheus.MetricsCollector
	Metrics   *prometheus.AppMetrics

	Logger      logging.Logger
	Logging     middleware.LoggingConfig
	CORSOrigins []string
	RateLimiter middleware.RateLimiter
	MaxBodySize int64
}

// NewRouter builds the route tree.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNopLogger()
	}
	log := cfg.Logger.Named("http")

	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(
		middleware.RequestID(),
		middleware.RequestLogging(log, cfg.Logging, cfg.Metrics),
		middleware.Recovery(log),
	)
	if len(cfg.CORSOrigins) > 0 {
		r.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.CORSOrigins)))
	}

	if cfg.HealthHandler != nil {
		cfg.HealthHandler.RegisterRoutes(r)
	}
	if cfg.Collector != nil {
		r.GET("/metrics", gin.WrapH(cfg.Collector.Handler()))
	}

	api := r.Group(APIPrefix, middleware.BodyLimit(cfg.MaxBodySize))
	if cfg.PredictionHandler != nil {
		var limit gin.HandlerFunc
		if cfg.RateLimiter != nil {
			limit = middleware.RateLimit(cfg.RateLimiter)
		}
		cfg.PredictionHandler.RegisterRoutes(api, limit)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, handlers.ErrorResponse{
			Code:      errors.CodeNotFound.String(),
			Message:   "no route for " + c.Request.Method + " " + c.Request.URL.Path,
			RequestID: middleware.GetRequestID(c),
		})
	})
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, handlers.ErrorResponse{
			Code:      errors.CodeInvalidParam.String(),
			Message:   "method " + c.Request.Method + " not allowed on " + c.Request.URL.Path,
			RequestID: middleware.GetRequestID(c),
		})
	})
	return r
}
