// Command worker consumes prediction requests from Kafka and publishes
// their results.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/logkpredict/internal/application/prediction"
	"github.com/turtacn/logkpredict/internal/bootstrap"
	"github.com/turtacn/logkpredict/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/logkpredict/internal/infrastructure/monitoring/logging"
	httpapi "github.com/turtacn/logkpredict/internal/interfaces/http"
	"github.com/turtacn/logkpredict/internal/interfaces/http/handlers"
	"github.com/turtacn/logkpredict/internal/interfaces/http/middleware"
)

const defaultHealthPort = 8081

var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "worker: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to configuration file (default: environment only)")
	healthPort := flag.Int("health-port", defaultHealthPort, "port for /healthz, /readyz and /metrics; 0 disables")
	ensureTopics := flag.Bool("ensure-topics", false, "create the request, result and dead-letter topics when missing")
	pullModel := flag.Bool("pull-model", false, "download the checkpoint from object storage when it is missing")
	flag.Parse()

	cfg, err := bootstrap.LoadConfig(*configPath)
	if err != nil {
		return err
	}
	log, err := bootstrap.NewLogger(cfg.Log, "")
	if err != nil {
		return err
	}
	log = log.Named("worker")
	gin.SetMode(gin.ReleaseMode)

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

	if *ensureTopics {
		if err := provisionTopics(ctx, cfg.Kafka.Brokers, kafka.DefaultTopics(cfg.Kafka, 1), log); err != nil {
			return err
		}
	}

	producer, err := kafka.NewProducer(cfg.Kafka, log)
	if err != nil {
		return err
	}
	defer producer.Close()

	consumer, err := kafka.NewConsumer(cfg.Kafka, log)
	if err != nil {
		return err
	}
	handler := prediction.NewRequestHandler(comps.Service, producer, cfg.Kafka.ResultTopic, comps.Metrics, log)
	consumer.Subscribe(cfg.Kafka.RequestTopic, handler.Handle)

	var health *httpapi.Server
	if *healthPort > 0 {
		checks := []handlers.HealthChecker{
			handlers.NewCheck("model", comps.CheckpointPresent),
			handlers.NewCheck("engine", comps.EngineAvailable),
		}
		if comps.Redis != nil {
			checks = append(checks, handlers.NewCheck("redis", comps.Redis.Ping))
		}
		router := httpapi.NewRouter(httpapi.RouterConfig{
			HealthHandler: handlers.NewHealthHandler(version, checks...),
			Collector:     comps.Collector,
			Metrics:       comps.Metrics,
			Logger:        log,
			Logging:       middleware.DefaultLoggingConfig(),
		})
		srvCfg := cfg.Server
		srvCfg.Port = *healthPort
		health = httpapi.NewServer(srvCfg, router, log)
		go func() {
			if err := health.Start(); err != nil {
				log.Error("health server failed", logging.Err(err))
			}
		}()
	}

	if err := consumer.Start(ctx); err != nil {
		return err
	}
	log.Info("worker started",
		logging.String("version", version),
		logging.String("request_topic", cfg.Kafka.RequestTopic),
		logging.String("result_topic", cfg.Kafka.ResultTopic),
		logging.Int("concurrency", cfg.Worker.Concurrency))

	<-ctx.Done()
	log.Info("shutting down worker")
	if err := consumer.Close(); err != nil {
		log.Error("consumer close failed", logging.Err(err))
	}
	if health != nil {
		return health.Stop(context.Background())
	}
	return nil
}

func provisionTopics(ctx context.Context, brokers []string, topics []kafka.TopicConfig, log logging.Logger) error {
	tm, err := kafka.NewTopicManager(brokers, log)
	if err != nil {
		return err
	}
	defer tm.Close()
	return tm.EnsureTopics(ctx, topics)
}
