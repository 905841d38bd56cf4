package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/txfeed_test")
	t.Setenv("BITCOIN_API_URL", "https://esplora.example.com")
	t.Setenv("STACKS_API_URL", "https://stacks.example.com")
	t.Setenv("STARKNET_API_URL", "https://starknet.example.com")
	t.Setenv("SPARK_API_URL", "https://spark.example.com")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ServerAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "nats://localhost:4222", cfg.NATSURL)
	assert.Equal(t, "localhost:7233", cfg.TemporalHost)
	assert.Equal(t, "default", cfg.TemporalNamespace)
	assert.Equal(t, "txfeed-wallet-polling", cfg.TemporalTaskQueue)
	assert.Equal(t, 30*time.Second, cfg.DefaultPollInterval)
	assert.Equal(t, 10*time.Second, cfg.MinPollInterval)
}

func TestLoad_MissingRequired(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DATABASE_URL", "")
	t.Setenv("STARKNET_API_URL", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL is required")
	assert.Contains(t, err.Error(), "STARKNET_API_URL is required")
}

func TestLoad_InvalidDuration(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DEFAULT_POLL_INTERVAL", "not-a-duration")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DEFAULT_POLL_INTERVAL")
}

func TestLoad_MinGreaterThanDefault(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DEFAULT_POLL_INTERVAL", "10s")
	t.Setenv("MIN_POLL_INTERVAL", "60s")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MIN_POLL_INTERVAL")
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SERVER_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DEFAULT_POLL_INTERVAL", "2m")
	t.Setenv("MIN_POLL_INTERVAL", "15s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.ServerAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 2*time.Minute, cfg.DefaultPollInterval)
	assert.Equal(t, 15*time.Second, cfg.MinPollInterval)
}

func TestValidate(t *testing.T) {
	valid := Config{
		DatabaseURL:         "postgres://localhost/txfeed",
		BitcoinAPIURL:       "https://esplora.example.com",
		StacksAPIURL:        "https://stacks.example.com",
		StarknetAPIURL:      "https://starknet.example.com",
		SparkAPIURL:         "https://spark.example.com",
		TemporalHost:        "localhost:7233",
		TemporalNamespace:   "default",
		TemporalTaskQueue:   "txfeed-wallet-polling",
		DefaultPollInterval: 30 * time.Second,
		MinPollInterval:     10 * time.Second,
	}
	require.NoError(t, valid.Validate())

	missing := valid
	missing.SparkAPIURL = ""
	err := missing.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SparkAPIURL is required")

	tooShort := valid
	tooShort.DefaultPollInterval = 500 * time.Millisecond
	tooShort.MinPollInterval = 100 * time.Millisecond
	err = tooShort.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 1 second")
}
