package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	CatalogSourceFixture  = "fixture"
	CatalogSourcePostgres = "postgres"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName  string   `yaml:"service_name"  env:"SERVICE_NAME"  env-default:"qconnect"`
	HTTPPort     string   `yaml:"http_port"     env:"HTTP_PORT"     env-default:"8080"`
	PostgresDSN  string   `yaml:"postgres_dsn"  env:"POSTGRES_DSN"`
	KafkaBrokers []string `yaml:"kafka_brokers" env:"KAFKA_BROKERS" env-default:"localhost:9092" env-separator:","`

	Catalog CatalogConfig `yaml:"catalog"`
	Outbox  OutboxConfig  `yaml:"outbox"`
	Session SessionConfig `yaml:"session"`
	Log     LogConfig     `yaml:"log"`

	EnableChangeProjector bool `yaml:"enable_change_projector" env:"ENABLE_CHANGE_PROJECTOR" env-default:"true"`
}

type CatalogConfig struct {
	Source      string `yaml:"source"        env:"CATALOG_SOURCE"        env-default:"fixture"`
	SeedActorID string `yaml:"seed_actor_id" env:"CATALOG_SEED_ACTOR_ID" env-default:"demo-student"`
}

type OutboxConfig struct {
	BatchSize    int           `yaml:"batch_size"    env:"OUTBOX_BATCH_SIZE"    env-default:"100"`
	PollInterval time.Duration `yaml:"poll_interval" env:"OUTBOX_POLL_INTERVAL" env-default:"2s"`
}

// SessionConfig bounds the per-actor sessions the API keeps in memory.
type SessionConfig struct {
	IdleTTL     time.Duration `yaml:"idle_ttl"     env:"SESSION_IDLE_TTL" env-default:"30m"`
	MaxSessions int           `yaml:"max_sessions" env:"SESSION_MAX"      env-default:"10000"`
}

type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// Load reads CONFIG_PATH when set (YAML, overridden by env) and falls back
// to env plus defaults otherwise.
func Load() (Config, error) {
	var cfg Config

	if path := strings.TrimSpace(os.Getenv("CONFIG_PATH")); path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: read env: %w", err)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config: validate: %w", err)
	}
	return cfg, nil
}

func (c *Config) normalize() {
	c.ServiceName = strings.TrimSpace(c.ServiceName)
	c.HTTPPort = strings.TrimSpace(c.HTTPPort)
	c.PostgresDSN = strings.TrimSpace(c.PostgresDSN)
	c.Catalog.Source = strings.ToLower(strings.TrimSpace(c.Catalog.Source))
	c.Catalog.SeedActorID = strings.TrimSpace(c.Catalog.SeedActorID)
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))

	brokers := make([]string, 0, len(c.KafkaBrokers))
	for _, broker := range c.KafkaBrokers {
		if broker = strings.TrimSpace(broker); broker != "" {
			brokers = append(brokers, broker)
		}
	}
	c.KafkaBrokers = brokers
}

func (c Config) Validate() error {
	if c.ServiceName == "" {
		return fmt.Errorf("service_name is required")
	}
	if c.HTTPPort == "" {
		return fmt.Errorf("http_port is required")
	}
	switch c.Catalog.Source {
	case CatalogSourceFixture:
	case CatalogSourcePostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("postgres_dsn is required when catalog.source is %q", CatalogSourcePostgres)
		}
	default:
		return fmt.Errorf("catalog.source must be %q or %q (got %q)", CatalogSourceFixture, CatalogSourcePostgres, c.Catalog.Source)
	}
	if c.Outbox.BatchSize <= 0 {
		return fmt.Errorf("outbox.batch_size must be > 0 (got %d)", c.Outbox.BatchSize)
	}
	if c.Outbox.PollInterval <= 0 {
		return fmt.Errorf("outbox.poll_interval must be > 0 (got %s)", c.Outbox.PollInterval)
	}
	if c.Session.IdleTTL < 0 {
		return fmt.Errorf("session.idle_ttl must be >= 0 (got %s)", c.Session.IdleTTL)
	}
	if c.Session.MaxSessions < 0 {
		return fmt.Errorf("session.max_sessions must be >= 0 (got %d)", c.Session.MaxSessions)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error (got %q)", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("log.format must be json or text (got %q)", c.Log.Format)
	}
	return nil
}
