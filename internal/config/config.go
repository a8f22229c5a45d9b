// Package config loads fleetwatch's configuration from a YAML file, with
// environment variables (and an optional local .env) layered on top for
// secrets and per-deployment overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ServerConfig holds the minimal HTTP surface settings (SSE + manual scan
// trigger).
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

func (c ServerConfig) GetHost() string {
	if c.Host == "" {
		return "localhost"
	}
	return c.Host
}

// MailConfig points at the mail provider's API (spec §4.8).
type MailConfig struct {
	APIKey         string `yaml:"mail_api_key"`
	APIBase        string `yaml:"mail_api_base"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

func (c MailConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// LLMConfig configures the classification fallback tier (spec §4.4). When
// APIBase is empty the pipeline selects the Bedrock transport instead of
// the OpenAI-compatible one, provided AWS credentials are available in the
// environment.
type LLMConfig struct {
	APIKey  string `yaml:"llm_api_key"`
	APIBase string `yaml:"llm_api_base"`
	Model   string `yaml:"llm_model"`

	// BedrockRegion and BedrockModelID configure the alternate Transport
	// used when APIBase is empty.
	BedrockRegion  string `yaml:"bedrock_region"`
	BedrockModelID string `yaml:"bedrock_model_id"`
}

// ScannerConfig tunes the fleet sweep (spec §4.7).
type ScannerConfig struct {
	BatchSize             int    `yaml:"scanner_batch_size"`
	PipelineMaxConcurrent int    `yaml:"pipeline_max_concurrent"`
	ClassifierRulesVersion string `yaml:"classifier_rules_version"`
}

// RulesVersion parses ClassifierRulesVersion as an RFC3339 timestamp. An
// empty or malformed value yields the zero time, meaning every rules-sourced
// row is treated as current (no forced re-classification).
func (c ScannerConfig) RulesVersion() time.Time {
	if c.ClassifierRulesVersion == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, c.ClassifierRulesVersion)
	if err != nil {
		return time.Time{}
	}
	return t
}

// AutosyncConfig tunes the periodic reconciliation loop (spec §4.10).
type AutosyncConfig struct {
	SyncIntervalSeconds int `yaml:"sync_interval_seconds"`
}

func (c AutosyncConfig) Interval() time.Duration {
	return time.Duration(c.SyncIntervalSeconds) * time.Second
}

// StorageConfig carries the connection strings the repository adapter and
// the distributed scan lock need.
type StorageConfig struct {
	DatabaseURL string `yaml:"database_url"`
	RedisURL    string `yaml:"redis_url"`
}

// Config is the top-level configuration for the fleetwatch binary.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Mail     MailConfig     `yaml:"mail"`
	LLM      LLMConfig      `yaml:"llm"`
	Scanner  ScannerConfig  `yaml:"scanner"`
	Autosync AutosyncConfig `yaml:"autosync"`
	Storage  StorageConfig  `yaml:"storage"`
}

// Load reads and parses the configuration file, applying defaults for any
// zero-valued field.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Mail.TimeoutSeconds == 0 {
		cfg.Mail.TimeoutSeconds = 30
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "gpt-4o"
	}
	if cfg.LLM.BedrockRegion == "" {
		cfg.LLM.BedrockRegion = "us-east-1"
	}
	if cfg.LLM.BedrockModelID == "" {
		cfg.LLM.BedrockModelID = "anthropic.claude-3-sonnet-20240229-v1:0"
	}
	if cfg.Scanner.BatchSize == 0 {
		cfg.Scanner.BatchSize = 10
	}
	if cfg.Scanner.PipelineMaxConcurrent == 0 {
		cfg.Scanner.PipelineMaxConcurrent = 5
	}
	if cfg.Autosync.SyncIntervalSeconds == 0 {
		cfg.Autosync.SyncIntervalSeconds = 300
	}
}

// LoadFromEnv loads configuration with environment variable overrides. It
// automatically loads a .env file (if present) before reading env vars, so
// secrets can live in .env locally and in real env vars in production.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("MAIL_API_KEY"); v != "" {
		cfg.Mail.APIKey = v
	}
	if v := os.Getenv("MAIL_API_BASE"); v != "" {
		cfg.Mail.APIBase = v
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_API_BASE"); v != "" {
		cfg.LLM.APIBase = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Storage.DatabaseURL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Storage.RedisURL = v
	}

	return cfg, nil
}
