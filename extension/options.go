package extension

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/mercato"
	audithook "github.com/xraph/mercato/audit_hook"
	"github.com/xraph/mercato/plugin"
	"github.com/xraph/mercato/store"
)

// Option configures the mercato Forge extension.
type Option func(*Extension)

// WithStore sets the store for the market. It takes precedence over
// StoreDriver.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithGroveDB sets the grove database used by the postgres, sqlite and mongo
// store drivers.
func WithGroveDB(db *grove.DB, driver string) Option {
	return func(e *Extension) {
		e.groveDB = db
		e.config.StoreDriver = driver
	}
}

// WithMarketOption passes a mercato.Option through to the underlying market.
// Collaborators (authorizer, fulfillers, oracle, tokens, custody) are
// supplied this way.
func WithMarketOption(opts ...mercato.Option) Option {
	return func(e *Extension) {
		e.marketOpts = append(e.marketOpts, opts...)
	}
}

// WithPlugin registers a mercato plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.marketOpts = append(e.marketOpts, mercato.WithPlugin(p))
	}
}

// WithAuditRecorder registers the audit hook writing to r.
func WithAuditRecorder(r audithook.Recorder, opts ...audithook.Option) Option {
	return WithPlugin(audithook.New(r, opts...))
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}

// WithJournalBatchSize sets the number of records buffered before a flush.
func WithJournalBatchSize(size int) Option {
	return func(e *Extension) { e.config.JournalBatchSize = size }
}

// WithJournalFlushInterval sets how frequently the journal buffer is flushed.
func WithJournalFlushInterval(d time.Duration) Option {
	return func(e *Extension) { e.config.JournalFlushInterval = d }
}

// WithCheckpointInterval sets how often market state is checkpointed.
func WithCheckpointInterval(d time.Duration) Option {
	return func(e *Extension) { e.config.CheckpointInterval = d }
}

// WithPlatform sets the platform fee recipient and share.
func WithPlatform(addr string, bps uint32) Option {
	return func(e *Extension) {
		e.config.PlatformAddress = addr
		e.config.PlatformShareBps = bps
	}
}

// WithRedis enables Redis-backed idempotency keys.
func WithRedis(addr string) Option {
	return func(e *Extension) { e.config.RedisAddr = addr }
}

// WithKafka enables publishing committed events to topic.
func WithKafka(brokers []string, topic string) Option {
	return func(e *Extension) {
		e.config.KafkaBrokers = brokers
		e.config.KafkaTopic = topic
	}
}

// WithMetrics registers the OpenTelemetry metrics plugin.
func WithMetrics() Option {
	return func(e *Extension) { e.config.Metrics = true }
}
