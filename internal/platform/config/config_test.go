package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "qconnect", cfg.ServiceName)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, CatalogSourceFixture, cfg.Catalog.Source)
	assert.Equal(t, "demo-student", cfg.Catalog.SeedActorID)
	assert.Equal(t, 100, cfg.Outbox.BatchSize)
	assert.Equal(t, 2*time.Second, cfg.Outbox.PollInterval)
	assert.Equal(t, 30*time.Minute, cfg.Session.IdleTTL)
	assert.Equal(t, 10000, cfg.Session.MaxSessions)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.True(t, cfg.EnableChangeProjector)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092")
	t.Setenv("CATALOG_SOURCE", "Postgres")
	t.Setenv("POSTGRES_DSN", "postgres://u:p@localhost:5432/qconnect")
	t.Setenv("LOG_FORMAT", "TEXT")
	t.Setenv("SESSION_IDLE_TTL", "5m")
	t.Setenv("SESSION_MAX", "50")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, CatalogSourcePostgres, cfg.Catalog.Source)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, 5*time.Minute, cfg.Session.IdleTTL)
	assert.Equal(t, 50, cfg.Session.MaxSessions)
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
service_name: qconnect-test
http_port: "7070"
catalog:
  source: fixture
  seed_actor_id: alice
outbox:
  batch_size: 10
  poll_interval: 500ms
log:
  level: debug
  format: text
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("CONFIG_PATH", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "qconnect-test", cfg.ServiceName)
	assert.Equal(t, "7070", cfg.HTTPPort)
	assert.Equal(t, "alice", cfg.Catalog.SeedActorID)
	assert.Equal(t, 10, cfg.Outbox.BatchSize)
	assert.Equal(t, 500*time.Millisecond, cfg.Outbox.PollInterval)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := Load()
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := Config{
		ServiceName: "qconnect",
		HTTPPort:    "8080",
		Catalog:     CatalogConfig{Source: CatalogSourceFixture},
		Outbox:      OutboxConfig{BatchSize: 1, PollInterval: time.Second},
		Log:         LogConfig{Level: "info", Format: "json"},
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"postgres without dsn", func(c *Config) { c.Catalog.Source = CatalogSourcePostgres }},
		{"unknown source", func(c *Config) { c.Catalog.Source = "sqlite" }},
		{"zero batch", func(c *Config) { c.Outbox.BatchSize = 0 }},
		{"zero poll", func(c *Config) { c.Outbox.PollInterval = 0 }},
		{"bad level", func(c *Config) { c.Log.Level = "trace" }},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }},
		{"empty port", func(c *Config) { c.HTTPPort = "" }},
		{"negative idle ttl", func(c *Config) { c.Session.IdleTTL = -time.Second }},
		{"negative session cap", func(c *Config) { c.Session.MaxSessions = -1 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid
			tc.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
