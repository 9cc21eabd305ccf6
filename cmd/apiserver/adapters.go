package main

import (
	"context"
	"time"

	"github.com/turtacn/logkpredict/internal/bootstrap"
	"github.com/turtacn/logkpredict/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/logkpredict/internal/interfaces/http/handlers"
	"github.com/turtacn/logkpredict/internal/interfaces/http/middleware"
)

const limiterIdleTTL = 10 * time.Minute

// healthChecks exposes the stack's dependencies to /readyz.
func healthChecks(c *bootstrap.Components) []handlers.HealthChecker {
	checks := []handlers.HealthChecker{
		handlers.NewCheck("model", c.CheckpointPresent),
		handlers.NewCheck("engine", c.EngineAvailable),
	}
	if c.Redis != nil {
		checks = append(checks, handlers.NewCheck("redis", c.Redis.Ping))
	}
	return checks
}

// newLimiter returns nil when rate limiting is off.  Idle client buckets
// are swept until ctx ends.
func newLimiter(ctx context.Context, rate float64, burst int, log logging.Logger) middleware.RateLimiter {
	if rate <= 0 {
		return nil
	}
	l := middleware.NewTokenBucketLimiter(rate, burst, limiterIdleTTL)
	go func() {
		t := time.NewTicker(limiterIdleTTL / 2)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if n := l.Sweep(); n > 0 {
					log.Debug("rate limiter swept idle clients", logging.Int("removed", n), logging.Int("tracked", l.Len()))
				}
			}
		}
	}()
	return l
}
