// Package config defines the configuration structures for logkpredict.  No I/O
// or parsing logic lives here, only plain data types and validation.  A Config
// is read-only once Load returns; components receive the sub-struct they need.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/turtacn/logkpredict/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/logkpredict/pkg/errors"
)

// PredictorConfig holds the prediction pipeline parameters.
type PredictorConfig struct {
	// ModelDir contains the trained checkpoint.  Falls back to LOGKPREDICT_DIR.
	ModelDir  string `mapstructure:"model_dir"`
	ModelFile string `mapstructure:"model_file"`

	// DonorElements are the element symbols whose bonds to a metal are
	// reclassified as dative.
	DonorElements []string `mapstructure:"donor_elements"`

	// Descriptors overrides the ordered descriptor list.  Empty means the
	// 40-descriptor default the checkpoint was trained on.
	Descriptors []string `mapstructure:"descriptors"`

	// FeatureMask overrides the whitespace-separated True/False selector
	// literal.  Empty means the built-in mask.
	FeatureMask string `mapstructure:"feature_mask"`
}

// EngineConfig holds the external prediction engine parameters.
type EngineConfig struct {
	Kind       string        `mapstructure:"kind"` // "subprocess" | "static"
	Executable string        `mapstructure:"executable"`
	NumWorkers int           `mapstructure:"num_workers"`
	Timeout    time.Duration `mapstructure:"timeout"`
	TempDir    string        `mapstructure:"temp_dir"`

	// StaticValue is returned by the static engine (dry runs).
	StaticValue float64 `mapstructure:"static_value"`
}

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	MaxBodySize     int64         `mapstructure:"max_body_size"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// CORSOrigins lists browser origins allowed to call the API; "*" allows
	// any origin.  Empty disables CORS headers.
	CORSOrigins []string `mapstructure:"cors_origins"`

	// RateLimit is the sustained prediction requests per second allowed per
	// client.  Zero disables limiting.
	RateLimit float64 `mapstructure:"rate_limit"`
	RateBurst int     `mapstructure:"rate_burst"`
}

// RedisConfig holds the prediction ledger connection parameters.
type RedisConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Addr        string        `mapstructure:"addr"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	PoolSize    int           `mapstructure:"pool_size"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
	KeyPrefix   string        `mapstructure:"key_prefix"`
	ResultTTL   time.Duration `mapstructure:"result_ttl"`
}

// KafkaConfig holds the batch worker's consumer/producer parameters.
type KafkaConfig struct {
	Brokers      []string      `mapstructure:"brokers"`
	GroupID      string        `mapstructure:"group_id"`
	RequestTopic string        `mapstructure:"request_topic"`
	ResultTopic  string        `mapstructure:"result_topic"`
	MinBytes     int           `mapstructure:"min_bytes"`
	MaxBytes     int           `mapstructure:"max_bytes"`
	MaxWait      time.Duration `mapstructure:"max_wait"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`

	MaxRetries      int           `mapstructure:"max_retries"`
	RetryBackoff    time.Duration `mapstructure:"retry_backoff"`
	DeadLetterTopic string        `mapstructure:"dead_letter_topic"`
}

// MinIOConfig holds the object store the model checkpoint is pulled from.
type MinIOConfig struct {
	Endpoint    string `mapstructure:"endpoint"`
	AccessKey   string `mapstructure:"access_key"`
	SecretKey   string `mapstructure:"secret_key"`
	Bucket      string `mapstructure:"bucket"`
	ModelObject string `mapstructure:"model_object"`
	UseSSL      bool   `mapstructure:"use_ssl"`
}

// WorkerConfig holds batch execution parameters.
type WorkerConfig struct {
	Concurrency int `mapstructure:"concurrency"`
	MaxBatch    int `mapstructure:"max_batch"`
}

// MetricsConfig holds prometheus parameters.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
}

// Config is the root configuration structure.
type Config struct {
	Predictor PredictorConfig   `mapstructure:"predictor"`
	Engine    EngineConfig      `mapstructure:"engine"`
	Log       logging.LogConfig `mapstructure:"log"`
	Server    ServerConfig      `mapstructure:"server"`
	Redis     RedisConfig       `mapstructure:"redis"`
	Kafka     KafkaConfig       `mapstructure:"kafka"`
	MinIO     MinIOConfig       `mapstructure:"minio"`
	Worker    WorkerConfig      `mapstructure:"worker"`
	Metrics   MetricsConfig     `mapstructure:"metrics"`
}

func invalid(format string, args ...interface{}) error {
	return errors.New(errors.CodeConfiguration, fmt.Sprintf("config: "+format, args...))
}

// Validate performs semantic validation of the populated Config and returns
// the first problem as a LOGK_CONFIG error.  An unset model directory is not
// a configuration error; the predictor reports it as an environment error.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Predictor.ModelFile) == "" {
		return invalid("predictor.model_file is required")
	}
	if len(c.Predictor.DonorElements) == 0 {
		return invalid("predictor.donor_elements must contain at least one element")
	}

	switch c.Engine.Kind {
	case EngineSubprocess:
		if c.Engine.Executable == "" {
			return invalid("engine.executable is required for the subprocess engine")
		}
	case EngineStatic:
	default:
		return invalid("engine.kind %q is invalid; expected subprocess|static", c.Engine.Kind)
	}
	if c.Engine.NumWorkers < 0 {
		return invalid("engine.num_workers must be >= 0, got %d", c.Engine.NumWorkers)
	}
	if c.Engine.Timeout <= 0 {
		return invalid("engine.timeout must be positive, got %s", c.Engine.Timeout)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return invalid("server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return invalid("server.mode %q is invalid; expected debug|release|test", c.Server.Mode)
	}
	if c.Server.RateLimit < 0 {
		return invalid("server.rate_limit must be >= 0, got %g", c.Server.RateLimit)
	}

	if c.Redis.Enabled && c.Redis.Addr == "" {
		return invalid("redis.addr is required when redis is enabled")
	}
	if c.Redis.DB < 0 {
		return invalid("redis.db must be >= 0, got %d", c.Redis.DB)
	}

	if c.Kafka.RequestTopic == c.Kafka.ResultTopic {
		return invalid("kafka.request_topic and kafka.result_topic must differ")
	}
	if c.Kafka.MaxRetries < 0 {
		return invalid("kafka.max_retries must be >= 0, got %d", c.Kafka.MaxRetries)
	}
	if c.Kafka.DeadLetterTopic != "" && c.Kafka.DeadLetterTopic == c.Kafka.RequestTopic {
		return invalid("kafka.dead_letter_topic must differ from kafka.request_topic")
	}

	if c.Worker.Concurrency < 1 {
		return invalid("worker.concurrency must be >= 1, got %d", c.Worker.Concurrency)
	}

	switch strings.ToLower(c.Log.Level) {
	case logging.LevelDebug, logging.LevelInfo, logging.LevelWarn, logging.LevelError:
	default:
		return invalid("log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return invalid("log.format %q is invalid; expected json|console", c.Log.Format)
	}
	return nil
}
