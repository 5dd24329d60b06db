package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Storage backends.
const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Feed sinks.
const (
	FeedSinkStore  = "store"
	FeedSinkBroker = "broker"
	FeedSinkBoth   = "both"
	FeedSinkNone   = "none"
)

// Config captures all runtime configuration derived from environment variables.
type Config struct {
	Port      string `env:"PORT" envDefault:"8080"`
	AuthToken string `env:"AUTH_TOKEN"`

	StorageBackend    string `env:"STORAGE_BACKEND" envDefault:"postgres"`
	DBURL             string `env:"DB_URL"`
	DBMigrate         bool   `env:"DB_MIGRATE" envDefault:"true"`
	DBMaxConns        int    `env:"DB_MAX_CONNS" envDefault:"20"`
	DBMinConns        int    `env:"DB_MIN_CONNS" envDefault:"2"`
	DBMaxIdleSecs     int    `env:"DB_MAX_CONN_IDLE_SECS" envDefault:"300"`
	DBMaxLifeSecs     int    `env:"DB_MAX_CONN_LIFETIME_SECS" envDefault:"3600"`
	DBConnTimeoutSecs int    `env:"DB_CONN_TIMEOUT_SECS" envDefault:"10"`
	DBStatementCache  int    `env:"DB_STATEMENT_CACHE_CAPACITY" envDefault:"256"`

	FeedSink      string `env:"FEED_SINK" envDefault:"store"`
	NATSURL       string `env:"NATS_URL"`
	NATSJetStream bool   `env:"NATS_JETSTREAM" envDefault:"false"`
	FeedTopic     string `env:"FEED_TOPIC" envDefault:"cinesignal.feed"`

	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat     string `env:"LOG_FORMAT" envDefault:"json"`
	TraceExporter string `env:"TRACE_EXPORTER" envDefault:"none"`

	ReadTimeoutSecs  int `env:"SERVER_READ_TIMEOUT" envDefault:"15"`
	WriteTimeoutSecs int `env:"SERVER_WRITE_TIMEOUT" envDefault:"15"`
	IdleTimeoutSecs  int `env:"SERVER_IDLE_TIMEOUT" envDefault:"60"`

	PopularDefaultCount int `env:"POPULAR_DEFAULT_COUNT" envDefault:"0"`
}

// Load reads configuration from environment variables, applying defaults and validation.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (cfg Config) Validate() error {
	switch cfg.StorageBackend {
	case BackendPostgres:
		if cfg.DBURL == "" {
			return fmt.Errorf("DB_URL is required when STORAGE_BACKEND=postgres")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("STORAGE_BACKEND must be postgres or memory, got %q", cfg.StorageBackend)
	}

	switch cfg.FeedSink {
	case FeedSinkStore, FeedSinkNone:
	case FeedSinkBroker, FeedSinkBoth:
		if cfg.NATSURL == "" {
			return fmt.Errorf("NATS_URL is required when FEED_SINK=%s", cfg.FeedSink)
		}
	default:
		return fmt.Errorf("FEED_SINK must be store, broker, both or none, got %q", cfg.FeedSink)
	}

	switch cfg.TraceExporter {
	case "none", "stdout":
	default:
		return fmt.Errorf("TRACE_EXPORTER must be none or stdout, got %q", cfg.TraceExporter)
	}

	if cfg.DBMaxConns <= 0 {
		return fmt.Errorf("DB_MAX_CONNS must be positive")
	}
	if cfg.DBMinConns < 0 {
		return fmt.Errorf("DB_MIN_CONNS must be non-negative")
	}
	if cfg.DBMinConns > cfg.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS cannot exceed DB_MAX_CONNS")
	}
	if cfg.DBStatementCache < 0 {
		return fmt.Errorf("DB_STATEMENT_CACHE_CAPACITY must be non-negative")
	}
	if cfg.PopularDefaultCount < 0 {
		return fmt.Errorf("POPULAR_DEFAULT_COUNT must be non-negative")
	}
	return nil
}
