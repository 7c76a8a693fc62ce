package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "jobtrail.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "JOBTRAIL_PORT")
	setString(&cfg.Server.CORSOrigin, "JOBTRAIL_CORS_ORIGIN")
	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "JOBTRAIL_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "JOBTRAIL_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "JOBTRAIL_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "JOBTRAIL_PG_MAX_CONN_IDLE_TIME")
	setDuration(&cfg.Postgres.HealthCheck, "JOBTRAIL_PG_HEALTH_CHECK")
	setString(&cfg.NATS.URL, "NATS_URL")
	setString(&cfg.Logging.Level, "JOBTRAIL_LOG_LEVEL")
	setString(&cfg.Logging.Service, "JOBTRAIL_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "JOBTRAIL_LOG_ASYNC")
	setInt(&cfg.Breaker.MaxFailures, "JOBTRAIL_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "JOBTRAIL_BREAKER_TIMEOUT")
	setInt64(&cfg.Cache.MaxSizeMB, "JOBTRAIL_CACHE_SIZE_MB")
	setDuration(&cfg.Cache.PolicyTTL, "JOBTRAIL_CACHE_POLICY_TTL")
	setInt64(&cfg.Engine.MaxParallel, "JOBTRAIL_ENGINE_MAX_PARALLEL")
	setInt(&cfg.Engine.DefaultLimit, "JOBTRAIL_ENGINE_DEFAULT_LIMIT")
	setDuration(&cfg.Engine.HandlerTimeout, "JOBTRAIL_ENGINE_HANDLER_TIMEOUT")
	setBool(&cfg.Engine.SeedPresets, "JOBTRAIL_ENGINE_SEED_PRESETS")
	setString(&cfg.Collab.MailURL, "JOBTRAIL_MAIL_URL")
	setString(&cfg.Collab.CalendarURL, "JOBTRAIL_CALENDAR_URL")
	setString(&cfg.Collab.TasksURL, "JOBTRAIL_TASKS_URL")
	setString(&cfg.Collab.ContextURL, "JOBTRAIL_CONTEXT_URL")
	setString(&cfg.Collab.APIKey, "JOBTRAIL_COLLAB_API_KEY")
}

// validate rejects configurations the engine cannot run with.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}
	if cfg.Postgres.DSN == "" {
		return fmt.Errorf("postgres.dsn is required")
	}
	if cfg.Engine.MaxParallel < 1 {
		return fmt.Errorf("engine.max_parallel must be >= 1")
	}
	if cfg.Engine.DefaultLimit < 1 {
		return fmt.Errorf("engine.default_limit must be >= 1")
	}
	if cfg.Engine.HandlerTimeout <= 0 {
		return fmt.Errorf("engine.handler_timeout must be positive")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			*dst = parsed
		}
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			*dst = parsed
		}
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(parsed)
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = parsed
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			*dst = parsed
		}
	}
}
