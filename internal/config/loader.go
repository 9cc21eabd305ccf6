package config

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/turtacn/logkpredict/pkg/errors"
)

// envPrefix is the environment variable prefix used by all settings.
const envPrefix = "LOGK"

// LegacyModelDirEnv is the variable the predictor has always honoured for
// the model directory.  It is bound to predictor.model_dir below the
// LOGK_PREDICTOR_MODEL_DIR override.
const LegacyModelDirEnv = "LOGKPREDICT_DIR"

// envKeys lists every key that may be supplied through the environment.
// viper only unmarshals env values for keys it knows about, so each one is
// bound explicitly.
var envKeys = []string{
	"predictor.model_file", "predictor.donor_elements", "predictor.descriptors", "predictor.feature_mask",
	"engine.kind", "engine.executable", "engine.num_workers", "engine.timeout", "engine.temp_dir", "engine.static_value",
	"log.level", "log.format", "log.output_paths", "log.error_output_paths",
	"server.port", "server.mode", "server.read_timeout", "server.write_timeout", "server.max_body_size", "server.shutdown_timeout",
	"server.cors_origins", "server.rate_limit", "server.rate_burst",
	"redis.enabled", "redis.addr", "redis.password", "redis.db", "redis.pool_size", "redis.dial_timeout", "redis.key_prefix", "redis.result_ttl",
	"kafka.brokers", "kafka.group_id", "kafka.request_topic", "kafka.result_topic", "kafka.min_bytes", "kafka.max_bytes", "kafka.max_wait", "kafka.write_timeout",
	"kafka.max_retries", "kafka.retry_backoff", "kafka.dead_letter_topic",
	"minio.endpoint", "minio.access_key", "minio.secret_key", "minio.bucket", "minio.model_object", "minio.use_ssl",
	"worker.concurrency", "worker.max_batch",
	"metrics.enabled", "metrics.namespace",
}

// newViper builds a Viper instance with YAML file type, the LOGK_ env prefix
// and a "." → "_" key replacer, so "engine.timeout" resolves to
// LOGK_ENGINE_TIMEOUT.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, k := range envKeys {
		_ = v.BindEnv(k)
	}
	_ = v.BindEnv("predictor.model_dir", "LOGK_PREDICTOR_MODEL_DIR", LegacyModelDirEnv)
	return v
}

// Load reads the YAML file at configPath (skipped when empty), merges LOGK_*
// environment overrides, applies defaults and validates the result.
func Load(configPath string) (*Config, error) {
	v := newViper()
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrap(err, errors.CodeConfiguration, "config: failed to read config file").
				WithDetail(configPath)
		}
	}
	return unmarshalAndFinalize(v)
}

// LoadFromEnv builds a Config from environment variables and defaults only.
func LoadFromEnv() (*Config, error) {
	return Load("")
}

func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, errors.CodeConfiguration, "config: failed to unmarshal configuration")
	}

	ApplyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
