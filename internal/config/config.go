// Package config loads process settings from the environment, optionally
// seeded from a .env file in the working directory.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	ServiceName string `envconfig:"SERVICE_NAME" default:"shop"`

	PostgresURL      string   `envconfig:"POSTGRES_URL"`
	DBMaxOpenConns   int      `envconfig:"DB_MAX_OPEN_CONNS" default:"20"`
	DBMaxIdleConns   int      `envconfig:"DB_MAX_IDLE_CONNS" default:"5"`
	MigrationsPath   string   `envconfig:"MIGRATIONS_PATH" default:"file://migrations"`
	KafkaBrokers     []string `envconfig:"KAFKA_BROKERS"`
	OrderPlacedTopic string   `envconfig:"ORDER_PLACED_TOPIC" default:"order.placed"`
	WorkerGroupID    string   `envconfig:"WORKER_GROUP_ID" default:"sales-aggregator"`

	JWTSecret     string `envconfig:"JWT_SECRET"`
	SalesTimezone string `envconfig:"SALES_TIMEZONE" default:"UTC"`

	TracingEnabled bool   `envconfig:"TRACING_ENABLED" default:"true"`
	OTLPEndpoint   string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT" default:"localhost:4317"`

	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// Load reads .env when present and then the process environment, which wins.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}

	// Checked here rather than with a required tag: envconfig accepts a
	// variable that is set but empty.
	if cfg.PostgresURL == "" {
		return nil, errors.New("POSTGRES_URL is required")
	}

	if _, err := cfg.Location(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Location is the timezone whose calendar days key the sales aggregates.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.SalesTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid SALES_TIMEZONE %q: %w", c.SalesTimezone, err)
	}
	return loc, nil
}

func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}
