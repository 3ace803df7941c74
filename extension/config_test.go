package extension

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/mercato/store/memory"
)

func TestParseEnvOverlaysSetVariables(t *testing.T) {
	t.Setenv("MERCATO_JOURNAL_BATCH_SIZE", "250")
	t.Setenv("MERCATO_CHECKPOINT_INTERVAL", "30s")
	t.Setenv("MERCATO_KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("MERCATO_METRICS", "true")

	cfg := Config{StoreDriver: DriverSQLite, JournalBatchSize: 10}
	require.NoError(t, ParseEnv(&cfg))

	assert.Equal(t, 250, cfg.JournalBatchSize)
	assert.Equal(t, 30*time.Second, cfg.CheckpointInterval)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.Metrics)
	assert.Equal(t, DriverSQLite, cfg.StoreDriver)
}

func TestParseEnvRejectsBadValues(t *testing.T) {
	t.Setenv("MERCATO_JOURNAL_BATCH_SIZE", "lots")

	var cfg Config
	assert.ErrorContains(t, ParseEnv(&cfg), "parse env")
}

func TestMergeWithDefaults(t *testing.T) {
	cfg := mergeWithDefaults(Config{JournalBatchSize: 7})
	defaults := DefaultConfig()

	assert.Equal(t, 7, cfg.JournalBatchSize)
	assert.Equal(t, DriverMemory, cfg.StoreDriver)
	assert.Equal(t, defaults.JournalFlushInterval, cfg.JournalFlushInterval)
	assert.Equal(t, defaults.CheckpointInterval, cfg.CheckpointInterval)
	assert.Equal(t, defaults.HookTimeout, cfg.HookTimeout)
}

func TestMergeConfigurationsPrefersFile(t *testing.T) {
	file := Config{JournalBatchSize: 50, KafkaTopic: "from-file"}
	programmatic := Config{JournalBatchSize: 5, KafkaTopic: "from-code", RedisAddr: "redis:6379", Metrics: true}

	cfg := mergeConfigurations(file, programmatic)
	assert.Equal(t, 50, cfg.JournalBatchSize)
	assert.Equal(t, "from-file", cfg.KafkaTopic)
	assert.Equal(t, "redis:6379", cfg.RedisAddr)
	assert.True(t, cfg.Metrics)
}

func TestNewStoreByDriver(t *testing.T) {
	e := &Extension{config: Config{StoreDriver: DriverMemory}}
	s, err := e.newStore()
	require.NoError(t, err)
	assert.IsType(t, memory.New(), s)

	e = &Extension{config: Config{StoreDriver: DriverPostgres}}
	_, err = e.newStore()
	assert.ErrorContains(t, err, "requires a grove database")
}
