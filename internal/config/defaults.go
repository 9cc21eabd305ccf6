package config

import (
	"math"
	"time"
)

// Engine kinds.
const (
	EngineSubprocess = "subprocess"
	EngineStatic     = "static"
)

const (
	DefaultModelFile      = "model.pt"
	DefaultEngineExec     = "chemprop_predict"
	DefaultEngineTimeout  = 5 * time.Minute
	DefaultServerPort     = 8080
	DefaultServerMode     = "release"
	DefaultMaxBodySize    = 1 << 20
	DefaultRedisAddr      = "localhost:6379"
	DefaultRedisKeyPrefix = "logk:prediction:"
	DefaultResultTTL      = 24 * time.Hour
	DefaultKafkaBroker    = "localhost:9092"
	DefaultKafkaGroupID   = "logk-worker"
	DefaultRequestTopic   = "logk.prediction.requests"
	DefaultResultTopic    = "logk.prediction.results"
	DefaultMinIOEndpoint  = "localhost:9000"
	DefaultMinIOBucket    = "logk-models"
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "json"
	DefaultConcurrency    = 4
	DefaultMaxBatch       = 256
	DefaultMetricsNS      = "logk"
)

// DefaultDonorElements are nitrogen and oxygen.
var DefaultDonorElements = []string{"N", "O"}

// ApplyDefaults fills every zero-value field in cfg.  Explicitly set values
// always win.  Engine.NumWorkers and Redis.DB keep 0 as a meaningful value.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Predictor ─────────────────────────────────────────────────────────────
	if cfg.Predictor.ModelFile == "" {
		cfg.Predictor.ModelFile = DefaultModelFile
	}
	if len(cfg.Predictor.DonorElements) == 0 {
		cfg.Predictor.DonorElements = append([]string(nil), DefaultDonorElements...)
	}

	// ── Engine ────────────────────────────────────────────────────────────────
	if cfg.Engine.Kind == "" {
		cfg.Engine.Kind = EngineSubprocess
	}
	if cfg.Engine.Executable == "" {
		cfg.Engine.Executable = DefaultEngineExec
	}
	if cfg.Engine.Timeout == 0 {
		cfg.Engine.Timeout = DefaultEngineTimeout
	}

	// ── Server ────────────────────────────────────────────────────────────────
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultEngineTimeout + 30*time.Second
	}
	if cfg.Server.MaxBodySize == 0 {
		cfg.Server.MaxBodySize = DefaultMaxBodySize
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 15 * time.Second
	}
	if cfg.Server.RateLimit > 0 && cfg.Server.RateBurst == 0 {
		cfg.Server.RateBurst = int(math.Ceil(cfg.Server.RateLimit)) * 2
	}

	// ── Redis ─────────────────────────────────────────────────────────────────
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.PoolSize == 0 {
		cfg.Redis.PoolSize = 10
	}
	if cfg.Redis.DialTimeout == 0 {
		cfg.Redis.DialTimeout = 5 * time.Second
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}
	if cfg.Redis.ResultTTL == 0 {
		cfg.Redis.ResultTTL = DefaultResultTTL
	}

	// ── Kafka ─────────────────────────────────────────────────────────────────
	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = DefaultKafkaGroupID
	}
	if cfg.Kafka.RequestTopic == "" {
		cfg.Kafka.RequestTopic = DefaultRequestTopic
	}
	if cfg.Kafka.ResultTopic == "" {
		cfg.Kafka.ResultTopic = DefaultResultTopic
	}
	if cfg.Kafka.MinBytes == 0 {
		cfg.Kafka.MinBytes = 1
	}
	if cfg.Kafka.MaxBytes == 0 {
		cfg.Kafka.MaxBytes = 10 << 20
	}
	if cfg.Kafka.MaxWait == 0 {
		cfg.Kafka.MaxWait = time.Second
	}
	if cfg.Kafka.WriteTimeout == 0 {
		cfg.Kafka.WriteTimeout = 10 * time.Second
	}
	if cfg.Kafka.RetryBackoff == 0 {
		cfg.Kafka.RetryBackoff = time.Second
	}

	// ── MinIO ─────────────────────────────────────────────────────────────────
	if cfg.MinIO.Endpoint == "" {
		cfg.MinIO.Endpoint = DefaultMinIOEndpoint
	}
	if cfg.MinIO.Bucket == "" {
		cfg.MinIO.Bucket = DefaultMinIOBucket
	}
	if cfg.MinIO.ModelObject == "" {
		cfg.MinIO.ModelObject = cfg.Predictor.ModelFile
	}

	// ── Worker ────────────────────────────────────────────────────────────────
	if cfg.Worker.Concurrency == 0 {
		cfg.Worker.Concurrency = DefaultConcurrency
	}
	if cfg.Worker.MaxBatch == 0 {
		cfg.Worker.MaxBatch = DefaultMaxBatch
	}

	// ── Metrics / Log ─────────────────────────────────────────────────────────
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNS
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
}

// Default returns a Config with every default applied and nothing loaded.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
