// Package config loads the application configuration from an optional YAML
// file plus a .env overlay. The resulting value is threaded explicitly into
// every constructor; nothing here is process-global.
package config

import (
	"errors"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// OllamaConfig holds the connection details for the Ollama instance that
// backs both the embedding provider and the language model.
type OllamaConfig struct {
	URL              string  `yaml:"url"`
	EmbedModel       string  `yaml:"embed_model"`
	EmbedDimensions  int     `yaml:"embed_dimensions"`
	EmbedTimeoutSecs int     `yaml:"embed_timeout_secs"`
	LLMModel         string  `yaml:"llm_model"`
	LLMTimeoutSecs   int     `yaml:"llm_timeout_secs"`
	LLMMaxTokens     int     `yaml:"llm_max_tokens"`
	LLMTemperature   float64 `yaml:"llm_temperature"`
}

// RetryConfig bounds the retry loop around transient provider failures.
type RetryConfig struct {
	MaxAttempts        int `yaml:"max_attempts"`
	InitialBackoffSecs int `yaml:"initial_backoff_secs"`
	MaxBackoffSecs     int `yaml:"max_backoff_secs"`
}

// EmbedDriverConfig configures the batch embedding driver.
type EmbedDriverConfig struct {
	// Workers bounds concurrent requests against the embedding provider.
	Workers int `yaml:"workers"`
	// MaxChars truncates chunk text before embedding.
	MaxChars int `yaml:"max_chars"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// AppConfig is the root configuration.
type AppConfig struct {
	DBPath      string            `yaml:"db_path"`
	LogMode     string            `yaml:"log_mode"`
	Ollama      OllamaConfig      `yaml:"ollama"`
	Retry       RetryConfig       `yaml:"retry"`
	EmbedDriver EmbedDriverConfig `yaml:"embed_driver"`
	Server      ServerConfig      `yaml:"server"`

	// SearchTopN is the default result count when a query leaves it unset.
	SearchTopN int `yaml:"search_top_n"`
	// GenerateResults is the default number of supporting search results
	// for a generation request.
	GenerateResults int `yaml:"generate_results"`
}

// InitialBackoff returns the configured initial backoff as a duration.
func (r RetryConfig) InitialBackoff() time.Duration {
	return time.Duration(r.InitialBackoffSecs) * time.Second
}

// MaxBackoff returns the configured backoff cap as a duration.
func (r RetryConfig) MaxBackoff() time.Duration {
	return time.Duration(r.MaxBackoffSecs) * time.Second
}

// EmbedTimeout returns the embedding request timeout as a duration.
func (o OllamaConfig) EmbedTimeout() time.Duration {
	return time.Duration(o.EmbedTimeoutSecs) * time.Second
}

// LLMTimeout returns the completion request timeout as a duration.
func (o OllamaConfig) LLMTimeout() time.Duration {
	return time.Duration(o.LLMTimeoutSecs) * time.Second
}

// Load reads the config at path. A missing file yields defaults. A .env file
// in the working directory, if present, is loaded first so the config file
// can reference the environment through the deployment tooling.
func Load(path string) (*AppConfig, error) {
	_ = godotenv.Load()

	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	return cfg, nil
}

// Default returns the conservative default configuration.
func Default() *AppConfig {
	cfg := &AppConfig{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *AppConfig) {
	if cfg.DBPath == "" {
		cfg.DBPath = "data/docgen.db"
	}
	if cfg.LogMode == "" {
		cfg.LogMode = "dev"
	}
	if cfg.Ollama.URL == "" {
		cfg.Ollama.URL = envOr("OLLAMA_URL", "http://localhost:11434")
	}
	if cfg.Ollama.EmbedModel == "" {
		cfg.Ollama.EmbedModel = "nomic-embed-text"
	}
	if cfg.Ollama.EmbedDimensions == 0 {
		cfg.Ollama.EmbedDimensions = 768
	}
	if cfg.Ollama.EmbedTimeoutSecs == 0 {
		cfg.Ollama.EmbedTimeoutSecs = 30
	}
	if cfg.Ollama.LLMModel == "" {
		cfg.Ollama.LLMModel = "orca-mini"
	}
	if cfg.Ollama.LLMTimeoutSecs == 0 {
		cfg.Ollama.LLMTimeoutSecs = 300
	}
	if cfg.Ollama.LLMMaxTokens == 0 {
		cfg.Ollama.LLMMaxTokens = 300
	}
	if cfg.Ollama.LLMTemperature == 0 {
		cfg.Ollama.LLMTemperature = 0.5
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry.MaxAttempts = 3
	}
	if cfg.Retry.InitialBackoffSecs == 0 {
		cfg.Retry.InitialBackoffSecs = 1
	}
	if cfg.Retry.MaxBackoffSecs == 0 {
		cfg.Retry.MaxBackoffSecs = 10
	}
	if cfg.EmbedDriver.Workers == 0 {
		cfg.EmbedDriver.Workers = 4
	}
	if cfg.EmbedDriver.MaxChars == 0 {
		cfg.EmbedDriver.MaxChars = 500
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8000"
	}
	if cfg.SearchTopN == 0 {
		cfg.SearchTopN = 5
	}
	if cfg.GenerateResults == 0 {
		cfg.GenerateResults = 3
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
