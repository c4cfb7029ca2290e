package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, int64(5*1024*1024), cfg.Ingestion.MaxUploadBytes)
	assert.Equal(t, int64(100), cfg.Worker.BatchSize)
	assert.Equal(t, 5*time.Second, cfg.Worker.Block)
	assert.Equal(t, "gemini-2.5-flash-lite", cfg.Vertex.SummaryModel)
}

func TestLoadFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
server:
  port: 9090
redis:
  addr: redis.internal:6379
worker:
  concurrency: 4
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "redis.internal:6379", cfg.Redis.Addr)
	assert.Equal(t, 4, cfg.Worker.Concurrency)

	// Untouched values keep their defaults
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, int64(100), cfg.Worker.BatchSize)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("REDIS_ADDR", "env-redis:6380")
	t.Setenv("WORKER_CONCURRENCY", "8")
	t.Setenv("PROJECT_ID", "my-project")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "env-redis:6380", cfg.Redis.Addr)
	assert.Equal(t, 8, cfg.Worker.Concurrency)
	assert.Equal(t, "my-project", cfg.Vertex.ProjectID)
	assert.Equal(t, "warn", cfg.Observability.LogLevel)
}

func TestRedisURLPrefixStripped(t *testing.T) {
	t.Setenv("REDIS_URL", "redis://streams.internal:6379")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "streams.internal:6379", cfg.Redis.Addr)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"empty redis addr", func(c *Config) { c.Redis.Addr = "" }},
		{"zero upload cap", func(c *Config) { c.Ingestion.MaxUploadBytes = 0 }},
		{"zero concurrency", func(c *Config) { c.Worker.Concurrency = 0 }},
		{"zero batch size", func(c *Config) { c.Worker.BatchSize = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
