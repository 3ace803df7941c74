// Package extension provides the Forge extension adapter for mercato.
//
// It implements the forge.Extension interface to integrate a mercato
// Market into a Forge application with DI registration and lifecycle
// management.
//
// Configuration can be provided programmatically via Option functions,
// via YAML configuration files under "extensions.mercato" or "mercato" keys,
// or via MERCATO_* environment variables, which win over both.
package extension

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/xraph/forge"
	"github.com/xraph/grove"
	"github.com/xraph/vessel"
	"go.opentelemetry.io/otel"

	"github.com/xraph/mercato"
	"github.com/xraph/mercato/idempotency"
	"github.com/xraph/mercato/observability"
	"github.com/xraph/mercato/publish"
	"github.com/xraph/mercato/store"
	"github.com/xraph/mercato/store/memory"
	"github.com/xraph/mercato/store/mongo"
	"github.com/xraph/mercato/store/postgres"
	"github.com/xraph/mercato/store/sqlite"
	"github.com/xraph/mercato/types"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "mercato"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Marketplace settlement and escrow engine"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts a mercato Market as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	market     *mercato.Market
	store      store.Store
	groveDB    *grove.DB
	redis      *redis.Client
	marketOpts []mercato.Option
}

// New creates a new mercato Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Market returns the underlying Market.
// This is nil until Register is called.
func (e *Extension) Market() *mercato.Market { return e.market }

// Register implements [forge.Extension]. It loads configuration, builds the
// market and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	if e.store == nil {
		s, err := e.newStore()
		if err != nil {
			return err
		}
		e.store = s
	}

	m, err := mercato.New(e.store, e.buildMarketOpts()...)
	if err != nil {
		return fmt.Errorf("mercato: build market: %w", err)
	}
	e.market = m

	return vessel.Provide(fapp.Container(), func() (*mercato.Market, error) {
		return e.market, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.market == nil {
		return errors.New("mercato: extension not initialized")
	}

	if err := e.market.Start(ctx); err != nil {
		return err
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	var err error
	if e.market != nil {
		err = e.market.Stop()
	}
	if e.redis != nil {
		if cerr := e.redis.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	e.MarkStopped()
	return err
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("mercato: store not initialized")
	}
	return e.store.Ping(ctx)
}

// newStore constructs the store selected by Config.StoreDriver.
func (e *Extension) newStore() (store.Store, error) {
	driver := e.config.StoreDriver
	if driver == "" || driver == DriverMemory {
		return memory.New(), nil
	}

	if e.groveDB == nil {
		return nil, fmt.Errorf("mercato: store driver %q requires a grove database", driver)
	}

	switch driver {
	case DriverPostgres:
		return postgres.New(e.groveDB), nil
	case DriverSQLite:
		return sqlite.New(e.groveDB), nil
	case DriverMongo:
		return mongo.New(e.groveDB), nil
	default:
		return nil, fmt.Errorf("mercato: unknown store driver %q", driver)
	}
}

// buildMarketOpts constructs mercato.Option values from the resolved config.
func (e *Extension) buildMarketOpts() []mercato.Option {
	cfg := e.config
	opts := make([]mercato.Option, 0, len(e.marketOpts)+8)

	opts = append(opts,
		mercato.WithJournalConfig(cfg.JournalBatchSize, cfg.JournalFlushInterval),
		mercato.WithCheckpointInterval(cfg.CheckpointInterval),
		mercato.WithHookTimeout(cfg.HookTimeout),
	)

	if cfg.PlatformAddress != "" || cfg.PlatformShareBps > 0 {
		opts = append(opts, mercato.WithPlatform(types.Address(cfg.PlatformAddress), types.Bps(cfg.PlatformShareBps)))
	}

	if cfg.RedisAddr != "" {
		e.redis = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		opts = append(opts, mercato.WithIdempotency(
			idempotency.NewRedis(e.redis, idempotency.WithTTL(cfg.IdempotencyTTL)),
		))
	}

	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaTopic != "" {
		w := publish.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaTopic)
		opts = append(opts, mercato.WithPlugin(publish.New(w)))
	}

	if cfg.Metrics {
		factory := observability.NewOTelFactory(otel.GetMeterProvider().Meter("github.com/xraph/mercato"))
		opts = append(opts, mercato.WithPlugin(observability.NewMetricsExtension(factory)))
	}

	// Pass-through options come last so they override config.
	opts = append(opts, e.marketOpts...)

	return opts
}

// --- Config Loading (mirrors grove/shield extension pattern) ---

// loadConfiguration loads config from YAML files, programmatic sources and
// the environment.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("mercato: configuration is required but not found in config files; " +
				"ensure 'extensions.mercato' or 'mercato' key exists in your config")
		}
		e.config = programmaticConfig
	} else {
		e.config = mergeConfigurations(fileConfig, programmaticConfig)
	}

	if err := ParseEnv(&e.config); err != nil {
		return fmt.Errorf("mercato: %w", err)
	}
	e.config = mergeWithDefaults(e.config)

	e.Logger().Debug("mercato: configuration loaded",
		forge.F("store_driver", e.config.StoreDriver),
		forge.F("journal_batch_size", e.config.JournalBatchSize),
		forge.F("journal_flush_interval", e.config.JournalFlushInterval),
		forge.F("checkpoint_interval", e.config.CheckpointInterval),
		forge.F("platform_share_bps", e.config.PlatformShareBps),
		forge.F("kafka_topic", e.config.KafkaTopic),
		forge.F("metrics", e.config.Metrics),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	for _, key := range []string{"extensions.mercato", "mercato"} {
		if !cm.IsSet(key) {
			continue
		}
		if err := cm.Bind(key, &cfg); err != nil {
			e.Logger().Warn("mercato: failed to bind config",
				forge.F("key", key),
				forge.F("error", err.Error()),
			)
			continue
		}
		e.Logger().Debug("mercato: loaded config from file",
			forge.F("key", key),
		)
		return cfg, true
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.StoreDriver == "" {
		cfg.StoreDriver = defaults.StoreDriver
	}
	if cfg.JournalBatchSize == 0 {
		cfg.JournalBatchSize = defaults.JournalBatchSize
	}
	if cfg.JournalFlushInterval == 0 {
		cfg.JournalFlushInterval = defaults.JournalFlushInterval
	}
	if cfg.CheckpointInterval == 0 {
		cfg.CheckpointInterval = defaults.CheckpointInterval
	}
	if cfg.HookTimeout == 0 {
		cfg.HookTimeout = defaults.HookTimeout
	}
	if cfg.IdempotencyTTL == 0 {
		cfg.IdempotencyTTL = defaults.IdempotencyTTL
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence; programmatic values fill gaps.
func mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	if programmaticConfig.Metrics {
		yamlConfig.Metrics = true
	}

	if yamlConfig.StoreDriver == "" {
		yamlConfig.StoreDriver = programmaticConfig.StoreDriver
	}
	if yamlConfig.PlatformAddress == "" {
		yamlConfig.PlatformAddress = programmaticConfig.PlatformAddress
	}
	if yamlConfig.RedisAddr == "" {
		yamlConfig.RedisAddr = programmaticConfig.RedisAddr
	}
	if yamlConfig.KafkaTopic == "" {
		yamlConfig.KafkaTopic = programmaticConfig.KafkaTopic
	}
	if len(yamlConfig.KafkaBrokers) == 0 {
		yamlConfig.KafkaBrokers = programmaticConfig.KafkaBrokers
	}

	if yamlConfig.JournalBatchSize == 0 {
		yamlConfig.JournalBatchSize = programmaticConfig.JournalBatchSize
	}
	if yamlConfig.JournalFlushInterval == 0 {
		yamlConfig.JournalFlushInterval = programmaticConfig.JournalFlushInterval
	}
	if yamlConfig.CheckpointInterval == 0 {
		yamlConfig.CheckpointInterval = programmaticConfig.CheckpointInterval
	}
	if yamlConfig.PlatformShareBps == 0 {
		yamlConfig.PlatformShareBps = programmaticConfig.PlatformShareBps
	}
	if yamlConfig.HookTimeout == 0 {
		yamlConfig.HookTimeout = programmaticConfig.HookTimeout
	}
	if yamlConfig.IdempotencyTTL == 0 {
		yamlConfig.IdempotencyTTL = programmaticConfig.IdempotencyTTL
	}

	return yamlConfig
}
