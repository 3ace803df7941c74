package extension

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Store drivers accepted by Config.StoreDriver.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMongo    = "mongo"
)

// Config holds the mercato extension configuration.
// Fields can be set programmatically via Option functions, loaded from
// YAML configuration files (under "extensions.mercato" or "mercato" keys)
// or overridden by MERCATO_* environment variables.
type Config struct {
	// StoreDriver selects the journal store: memory, postgres, sqlite or
	// mongo. Grove-backed drivers need WithGroveDB (default: memory).
	StoreDriver string `json:"store_driver" mapstructure:"store_driver" yaml:"store_driver" env:"MERCATO_STORE_DRIVER"`

	// JournalBatchSize is the number of records buffered before they are
	// written to the store (default: 100).
	JournalBatchSize int `json:"journal_batch_size" mapstructure:"journal_batch_size" yaml:"journal_batch_size" env:"MERCATO_JOURNAL_BATCH_SIZE"`

	// JournalFlushInterval is how often buffered records are written even
	// if the batch is not full (default: 5s).
	JournalFlushInterval time.Duration `json:"journal_flush_interval" mapstructure:"journal_flush_interval" yaml:"journal_flush_interval" env:"MERCATO_JOURNAL_FLUSH_INTERVAL"`

	// CheckpointInterval is how often market state is checkpointed
	// (default: 1m).
	CheckpointInterval time.Duration `json:"checkpoint_interval" mapstructure:"checkpoint_interval" yaml:"checkpoint_interval" env:"MERCATO_CHECKPOINT_INTERVAL"`

	// PlatformAddress receives PlatformShareBps of every settled line.
	PlatformAddress string `json:"platform_address" mapstructure:"platform_address" yaml:"platform_address" env:"MERCATO_PLATFORM_ADDRESS"`

	// PlatformShareBps is the platform fee in basis points (default: 0).
	PlatformShareBps uint32 `json:"platform_share_bps" mapstructure:"platform_share_bps" yaml:"platform_share_bps" env:"MERCATO_PLATFORM_SHARE_BPS"`

	// HookTimeout bounds each plugin hook call (default: 5s).
	HookTimeout time.Duration `json:"hook_timeout" mapstructure:"hook_timeout" yaml:"hook_timeout" env:"MERCATO_HOOK_TIMEOUT"`

	// RedisAddr enables Redis-backed idempotency keys on Buy.
	RedisAddr string `json:"redis_addr" mapstructure:"redis_addr" yaml:"redis_addr" env:"MERCATO_REDIS_ADDR"`

	// IdempotencyTTL is how long an idempotency key stays claimed
	// (default: 24h).
	IdempotencyTTL time.Duration `json:"idempotency_ttl" mapstructure:"idempotency_ttl" yaml:"idempotency_ttl" env:"MERCATO_IDEMPOTENCY_TTL"`

	// KafkaBrokers and KafkaTopic enable publishing committed events.
	KafkaBrokers []string `json:"kafka_brokers" mapstructure:"kafka_brokers" yaml:"kafka_brokers" env:"MERCATO_KAFKA_BROKERS" envSeparator:","`
	KafkaTopic   string   `json:"kafka_topic" mapstructure:"kafka_topic" yaml:"kafka_topic" env:"MERCATO_KAFKA_TOPIC"`

	// Metrics registers the OpenTelemetry metrics plugin.
	Metrics bool `json:"metrics" mapstructure:"metrics" yaml:"metrics" env:"MERCATO_METRICS"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		StoreDriver:          DriverMemory,
		JournalBatchSize:     100,
		JournalFlushInterval: 5 * time.Second,
		CheckpointInterval:   time.Minute,
		HookTimeout:          5 * time.Second,
		IdempotencyTTL:       24 * time.Hour,
	}
}

// ParseEnv overlays MERCATO_* environment variables onto cfg. Unset
// variables leave the field untouched.
func ParseEnv(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
