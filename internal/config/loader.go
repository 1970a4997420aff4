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
const DefaultConfigFile = "oneseek.yaml"

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
	setString(&cfg.Server.Port, "ONESEEK_PORT")
	setString(&cfg.Server.CORSOrigin, "ONESEEK_CORS_ORIGIN")
	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "ONESEEK_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "ONESEEK_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "ONESEEK_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "ONESEEK_PG_MAX_CONN_IDLE_TIME")
	setDuration(&cfg.Postgres.HealthCheck, "ONESEEK_PG_HEALTH_CHECK")
	setString(&cfg.NATS.URL, "NATS_URL")
	setString(&cfg.LiteLLM.URL, "LITELLM_URL")
	setString(&cfg.LiteLLM.MasterKey, "LITELLM_MASTER_KEY")
	setString(&cfg.LiteLLM.EmbeddingModel, "ONESEEK_EMBEDDING_MODEL")
	setString(&cfg.Rerank.URL, "ONESEEK_RERANK_URL")
	setString(&cfg.Rerank.Model, "ONESEEK_RERANK_MODEL")
	setString(&cfg.Logging.Level, "ONESEEK_LOG_LEVEL")
	setString(&cfg.Logging.Service, "ONESEEK_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "ONESEEK_LOG_ASYNC")
	setInt(&cfg.Breaker.MaxFailures, "ONESEEK_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "ONESEEK_BREAKER_TIMEOUT")
	setInt64(&cfg.Runtime.MaxConcurrentCalls, "ONESEEK_MAX_CONCURRENT_CALLS")
	setInt(&cfg.Runtime.RetryAttempts, "ONESEEK_RETRY_ATTEMPTS")
	setDuration(&cfg.Runtime.RetryBackoff, "ONESEEK_RETRY_BACKOFF")
	setDuration(&cfg.Runtime.ExecuteTimeout, "ONESEEK_EXECUTE_TIMEOUT")

	// Retrieval tuning
	setFloat64(&cfg.Retrieval.NameWeight, "ONESEEK_RETRIEVAL_NAME_WEIGHT")
	setFloat64(&cfg.Retrieval.KeywordWeight, "ONESEEK_RETRIEVAL_KEYWORD_WEIGHT")
	setFloat64(&cfg.Retrieval.DescriptionWeight, "ONESEEK_RETRIEVAL_DESCRIPTION_WEIGHT")
	setFloat64(&cfg.Retrieval.ExampleWeight, "ONESEEK_RETRIEVAL_EXAMPLE_WEIGHT")
	setFloat64(&cfg.Retrieval.SemanticWeight, "ONESEEK_RETRIEVAL_SEMANTIC_WEIGHT")
	setFloat64(&cfg.Retrieval.StructuralWeight, "ONESEEK_RETRIEVAL_STRUCTURAL_WEIGHT")
	setFloat64(&cfg.Retrieval.NamespaceBonus, "ONESEEK_RETRIEVAL_NAMESPACE_BONUS")
	setFloat64(&cfg.Retrieval.FallbackBonus, "ONESEEK_RETRIEVAL_FALLBACK_BONUS")
	setFloat64(&cfg.Retrieval.MaxFeedbackBoost, "ONESEEK_RETRIEVAL_MAX_FEEDBACK_BOOST")
	setInt(&cfg.Retrieval.RerankCandidates, "ONESEEK_RETRIEVAL_RERANK_CANDIDATES")
	setInt(&cfg.Retrieval.VectorRecallTopK, "ONESEEK_RETRIEVAL_VECTOR_RECALL_TOP_K")
	setFloat64(&cfg.Retrieval.ScoreThreshold, "ONESEEK_RETRIEVAL_SCORE_THRESHOLD")
	setFloat64(&cfg.Retrieval.MarginThreshold, "ONESEEK_RETRIEVAL_MARGIN_THRESHOLD")
	setBool(&cfg.Retrieval.LiveAutoSelect, "ONESEEK_RETRIEVAL_LIVE_AUTO_SELECT")

	// Orchestrator
	setInt(&cfg.Orchestrator.MaxReplanAttempts, "ONESEEK_ORCH_MAX_REPLAN_ATTEMPTS")
	setInt(&cfg.Orchestrator.MaxTotalSteps, "ONESEEK_ORCH_MAX_TOTAL_STEPS")
	setInt(&cfg.Orchestrator.MaxPlanSteps, "ONESEEK_ORCH_MAX_PLAN_STEPS")
	setString(&cfg.Orchestrator.DecisionModel, "ONESEEK_ORCH_DECISION_MODEL")
	setInt(&cfg.Orchestrator.DecisionMaxTokens, "ONESEEK_ORCH_DECISION_MAX_TOKENS")

	// Telemetry
	setString(&cfg.Telemetry.OTLPEndpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setBool(&cfg.Telemetry.Insecure, "ONESEEK_OTEL_INSECURE")

	// Catalog
	setString(&cfg.Catalog.OverridesPath, "ONESEEK_CATALOG_OVERRIDES_PATH")

	// Cache
	setInt64(&cfg.Cache.MaxSizeMB, "ONESEEK_CACHE_SIZE_MB")
	setDuration(&cfg.Cache.EmbeddingTTL, "ONESEEK_CACHE_EMBEDDING_TTL")
	setDuration(&cfg.Cache.TraceTTL, "ONESEEK_CACHE_TRACE_TTL")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	if cfg.Runtime.MaxConcurrentCalls < 1 {
		return errors.New("runtime.max_concurrent_calls must be >= 1")
	}
	if cfg.Orchestrator.MaxTotalSteps < 1 {
		return errors.New("orchestrator.max_total_steps must be >= 1")
	}
	if cfg.Orchestrator.MaxReplanAttempts < 0 {
		return errors.New("orchestrator.max_replan_attempts must be >= 0")
	}
	if cfg.Orchestrator.MaxPlanSteps < 1 {
		return errors.New("orchestrator.max_plan_steps must be >= 1")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
