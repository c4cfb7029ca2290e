// Package config provides unified configuration loading for the summary engine.
// Supports YAML files, environment variables, and programmatic overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the summary engine.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Redis         RedisConfig         `yaml:"redis"`
	Ingestion     IngestionConfig     `yaml:"ingestion"`
	Worker        WorkerConfig        `yaml:"worker"`
	Vertex        VertexConfig        `yaml:"vertex"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	IdleTimeout      time.Duration `yaml:"idle_timeout"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`
}

// RedisConfig holds Redis connection settings. Redis backs the work streams,
// the metadata records, and the raw document bytes.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

// IngestionConfig holds upload validation settings.
type IngestionConfig struct {
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`
}

// WorkerConfig holds stage worker settings shared by both worker processes.
type WorkerConfig struct {
	Concurrency int           `yaml:"concurrency"`
	BatchSize   int64         `yaml:"batch_size"`
	Block       time.Duration `yaml:"block"`
	ErrorSleep  time.Duration `yaml:"error_sleep"`
}

// VertexConfig holds Vertex AI settings for the generation calls.
type VertexConfig struct {
	ProjectID       string `yaml:"project_id"`
	Region          string `yaml:"region"`
	ExtractionModel string `yaml:"extraction_model"`
	SummaryModel    string `yaml:"summary_model"`
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
	ServiceName string `yaml:"service_name"`
}

// Load reads configuration from a YAML file and applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a configuration with sensible defaults for development.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             8080,
			ReadTimeout:      30 * time.Second,
			WriteTimeout:     30 * time.Second,
			IdleTimeout:      120 * time.Second,
			GracefulShutdown: 10 * time.Second,
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			DB:       0,
			PoolSize: 10,
		},
		Ingestion: IngestionConfig{
			MaxUploadBytes: 5 * 1024 * 1024,
		},
		Worker: WorkerConfig{
			Concurrency: 1,
			BatchSize:   100,
			Block:       5 * time.Second,
			ErrorSleep:  time.Second,
		},
		Vertex: VertexConfig{
			Region:          "us-central1",
			ExtractionModel: "gemini-2.5-flash-lite",
			SummaryModel:    "gemini-2.5-flash-lite",
		},
		Observability: ObservabilityConfig{
			LogLevel:    "debug",
			LogFormat:   "json",
			ServiceName: "summary-engine",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Redis.Addr == "" {
		return fmt.Errorf("redis addr must not be empty")
	}

	if c.Ingestion.MaxUploadBytes < 1 {
		return fmt.Errorf("max_upload_bytes must be positive")
	}

	if c.Worker.Concurrency < 1 {
		return fmt.Errorf("worker concurrency must be at least 1")
	}

	if c.Worker.BatchSize < 1 {
		return fmt.Errorf("worker batch_size must be at least 1")
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}

	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}

	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.Addr = strings.TrimPrefix(v, "redis://")
	}

	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}

	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}

	if v := os.Getenv("REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			cfg.Redis.DB = db
		}
	}

	if v := os.Getenv("WORKER_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Worker.Concurrency = n
		}
	}

	if v := os.Getenv("PROJECT_ID"); v != "" {
		cfg.Vertex.ProjectID = v
	}

	if v := os.Getenv("VERTEX_AI_REGION"); v != "" {
		cfg.Vertex.Region = v
	}

	if v := os.Getenv("EXTRACTION_MODEL"); v != "" {
		cfg.Vertex.ExtractionModel = v
	}

	if v := os.Getenv("SUMMARY_MODEL"); v != "" {
		cfg.Vertex.SummaryModel = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Observability.LogFormat = v
	}
}
