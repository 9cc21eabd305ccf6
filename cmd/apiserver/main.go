// Command apiserver serves log K predictions over HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/logkpredict/internal/bootstrap"
	"github.com/turtacn/logkpredict/internal/infrastructure/monitoring/logging"
	httpapi "github.com/turtacn/logkpredict/internal/interfaces/http"
	"github.com/turtacn/logkpredict/internal/interfaces/http/handlers"
	"github.com/turtacn/logkpredict/internal/interfaces/http/middleware"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "apiserver: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to configuration file (default: environment only)")
	port := flag.Int("port", 0, "HTTP port (overrides server.port)")
	pullModel := flag.Bool("pull-model", false, "download the checkpoint from object storage when it is missing")
	flag.Parse()

	cfg, err := bootstrap.LoadConfig(*configPath)
	if err != nil {
		return err
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}
	log, err := bootstrap.NewLogger(cfg.Log, "")
	if err != nil {
		return err
	}
	gin.SetMode(cfg.Server.Mode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	collector, metrics, err := bootstrap.NewMetrics(cfg.Metrics, log)
	if err != nil {
		return err
	}
	if *pullModel {
		if err := bootstrap.EnsureModel(ctx, cfg, log, metrics); err != nil {
			return err
		}
	}
	comps, err := bootstrap.Build(cfg, log, bootstrap.WithMetrics(collector, metrics))
	if err != nil {
		return err
	}
	defer comps.Close()

	router := httpapi.NewRouter(httpapi.RouterConfig{
		PredictionHandler: handlers.NewPredictionHandler(comps.Service, log),
		HealthHandler:     handlers.NewHealthHandler(version, healthChecks(comps)...),
		Collector:         comps.Collector,
		Metrics:           comps.Metrics,
		Logger:            log,
		Logging:           middleware.DefaultLoggingConfig(),
		CORSOrigins:       cfg.Server.CORSOrigins,
		RateLimiter:       newLimiter(ctx, cfg.Server.RateLimit, cfg.Server.RateBurst, log),
		MaxBodySize:       cfg.Server.MaxBodySize,
	})
	srv := httpapi.NewServer(cfg.Server, router, log)

	log.Info("starting logkpredict API server",
		logging.String("version", version),
		logging.String("addr", srv.Addr()),
		logging.Bool("metrics", comps.Metrics != nil),
		logging.Bool("ledger", comps.Redis != nil))

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	return srv.Stop(context.Background())
}
