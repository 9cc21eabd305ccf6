// Package bootstrap assembles the prediction stack shared by the logkpredict
// binaries.  Each binary loads a Config, calls Build and wires the resulting
// Service into its own surface (CLI, HTTP, Kafka).
package bootstrap

import (
	"context"
	"os"

	"github.com/turtacn/logkpredict/internal/application/prediction"
	"github.com/turtacn/logkpredict/internal/config"
	"github.com/turtacn/logkpredict/internal/infrastructure/database/redis"
	"github.com/turtacn/logkpredict/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/logkpredict/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/logkpredict/internal/infrastructure/storage/minio"
	"github.com/turtacn/logkpredict/internal/intelligence/chemprop"
	"github.com/turtacn/logkpredict/internal/intelligence/logk"
	"github.com/turtacn/logkpredict/pkg/errors"
)

// Components is the assembled stack.  Collector, Metrics and Redis are nil
// when the corresponding feature is disabled.
type Components struct {
	Config    *config.Config
	Logger    logging.Logger
	Collector prometheus.MetricsCollector
	Metrics   *prometheus.AppMetrics
	Engine    logk.Engine
	Predictor *logk.Predictor
	Redis     *redis.Client
	Service   prediction.Service
}

// Option adjusts Build.
type Option func(*buildOptions)

type buildOptions struct {
	engine    logk.Engine
	noLedger  bool
	collector prometheus.MetricsCollector
	metrics   *prometheus.AppMetrics
}

// WithEngine replaces the configured engine.
func WithEngine(e logk.Engine) Option {
	return func(o *buildOptions) { o.engine = e }
}

// WithMetrics reuses a metric set created earlier with NewMetrics.
func WithMetrics(collector prometheus.MetricsCollector, metrics *prometheus.AppMetrics) Option {
	return func(o *buildOptions) { o.collector, o.metrics = collector, metrics }
}

// WithoutLedger skips the redis ledger even when it is enabled.
func WithoutLedger() Option {
	return func(o *buildOptions) { o.noLedger = true }
}

// LoadConfig loads path, or the environment alone when path is empty.
func LoadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.LoadFromEnv()
	}
	return config.Load(path)
}

// NewLogger builds the process logger from cfg.Log.  A non-empty level
// overrides the configured one.
func NewLogger(cfg logging.LogConfig, level string) (logging.Logger, error) {
	if level != "" {
		cfg.Level = level
	}
	log, err := logging.NewLogger(cfg)
	if err != nil {
		return nil, err
	}
	logging.SetDefault(log)
	return log, nil
}

// NewMetrics returns the collector and metric set, or nils when metrics are
// disabled.
func NewMetrics(cfg config.MetricsConfig, log logging.Logger) (prometheus.MetricsCollector, *prometheus.AppMetrics, error) {
	if !cfg.Enabled {
		return nil, nil, nil
	}
	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace:            cfg.Namespace,
		EnableProcessMetrics: true,
		EnableGoMetrics:      true,
	}, log)
	if err != nil {
		return nil, nil, err
	}
	return collector, prometheus.NewAppMetrics(collector), nil
}

// Build constructs the engine, predictor, optional ledger and service.
func Build(cfg *config.Config, log logging.Logger, opts ...Option) (*Components, error) {
	if cfg == nil {
		return nil, errors.New(errors.CodeConfiguration, "config is required")
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	var bo buildOptions
	for _, o := range opts {
		o(&bo)
	}

	c := &Components{Config: cfg, Logger: log}
	var err error
	if bo.metrics != nil {
		c.Collector, c.Metrics = bo.collector, bo.metrics
	} else if c.Collector, c.Metrics, err = NewMetrics(cfg.Metrics, log); err != nil {
		return nil, err
	}

	c.Engine = bo.engine
	if c.Engine == nil {
		if c.Engine, err = chemprop.New(cfg.Engine, log); err != nil {
			return nil, err
		}
	}

	popts := []logk.PredictorOption{logk.WithLogger(log.Named("logk"))}
	if c.Metrics != nil {
		popts = append(popts, logk.WithStageObserver(logk.StageObserver(prometheus.StageObserver(c.Metrics))))
	}
	if c.Predictor, err = logk.NewPredictor(cfg.Predictor, c.Engine, popts...); err != nil {
		return nil, err
	}

	var repo *redis.PredictionLedger
	if cfg.Redis.Enabled && !bo.noLedger {
		if c.Redis, err = redis.NewClient(cfg.Redis, log); err != nil {
			return nil, err
		}
		repo = redis.NewPredictionLedger(c.Redis, cfg.Redis.KeyPrefix, cfg.Redis.ResultTTL, log)
	}

	svcOpts := prediction.Options{
		Metrics:     c.Metrics,
		Logger:      log,
		Concurrency: cfg.Worker.Concurrency,
		MaxBatch:    cfg.Worker.MaxBatch,
	}
	if repo != nil {
		svcOpts.Repository = repo
	}
	c.Service = prediction.NewService(c.Predictor, svcOpts)

	log.Info("prediction stack ready",
		logging.String("checkpoint", c.Predictor.Checkpoint()),
		logging.String("engine", cfg.Engine.Kind),
		logging.Bool("ledger", repo != nil),
		logging.Bool("metrics", c.Metrics != nil))
	return c, nil
}

// Close releases the ledger connection.
func (c *Components) Close() error {
	if c.Redis != nil {
		return c.Redis.Close()
	}
	return nil
}

// EngineAvailable reports whether the engine can run.  Engines without an
// availability probe are always available.
func (c *Components) EngineAvailable(context.Context) error {
	if a, ok := c.Engine.(interface{ Available() error }); ok {
		return a.Available()
	}
	return nil
}

// CheckpointPresent reports whether the validated checkpoint is still on
// disk.
func (c *Components) CheckpointPresent(context.Context) error {
	if _, err := os.Stat(c.Predictor.Checkpoint()); err != nil {
		return errors.Wrap(err, errors.CodeModelNotFound, "model file disappeared").WithDetail(c.Predictor.Checkpoint())
	}
	return nil
}

// NewModelStore connects to the object store holding model checkpoints.
func NewModelStore(cfg config.MinIOConfig, log logging.Logger) (*minio.ModelStore, error) {
	client, err := minio.NewClient(cfg, log)
	if err != nil {
		return nil, err
	}
	return minio.NewModelStore(client), nil
}

// EnsureModel downloads the checkpoint into the model directory when it is
// not present locally.  The model directory itself must resolve.
func EnsureModel(ctx context.Context, cfg *config.Config, log logging.Logger, metrics *prometheus.AppMetrics) error {
	if _, err := logk.CheckpointPath(cfg.Predictor); err == nil || !errors.IsModelNotFound(err) {
		return err
	}
	dir, err := logk.ResolveModelDir(cfg.Predictor.ModelDir)
	if err != nil {
		return err
	}
	store, err := NewModelStore(cfg.MinIO, log)
	if err != nil {
		return err
	}
	_, err = store.Pull(ctx, cfg.MinIO.ModelObject, dir, cfg.Predictor.ModelFile, false)
	if metrics != nil {
		prometheus.RecordModelPull(metrics, err)
	}
	return err
}
