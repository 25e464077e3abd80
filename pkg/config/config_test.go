package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const minimalConfig = `
environment: test
finnhub:
  api_key: k
  base_url: https://finnhub.example
universe:
  market: US
`

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, 1100*time.Millisecond, cfg.Finnhub.MinInterval)
	assert.Equal(t, 3, cfg.Finnhub.MaxRetries)
	assert.Equal(t, time.Second, cfg.Finnhub.BackoffBase)
	assert.Equal(t, 30*time.Second, cfg.Finnhub.BackoffMax)
	assert.Equal(t, time.Minute, cfg.Cache.QuoteTTL)
	assert.Equal(t, 5*time.Minute, cfg.Cache.ScoreTTL)
	assert.Equal(t, 5*time.Minute, cfg.Universe.TTL)
	assert.Equal(t, 95.0, cfg.Hot.RatingThreshold)
	assert.Equal(t, 2.0, cfg.Hot.MoveThreshold)
	assert.Equal(t, 99.0, cfg.Hot.OverrideRatingThreshold)
	assert.Equal(t, 50.0, cfg.Hot.ScoreCutoff)
	assert.Equal(t, "none", cfg.History.Backend)
}

func TestLoadExplicitValuesWin(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig+`
cache:
  quote_ttl: 90s
hot:
  score_cutoff: 60
history:
  backend: kafka
kafka:
  brokers: ["broker:9092"]
`))
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, cfg.Cache.QuoteTTL)
	assert.Equal(t, 60.0, cfg.Hot.ScoreCutoff)
	assert.Equal(t, "kafka", cfg.History.Backend)
}

func TestValidateRejectsMissingFields(t *testing.T) {
	_, err := Load(writeConfig(t, `
environment: test
finnhub:
  api_key: k
`))
	require.Error(t, err)

	_, err = Load(writeConfig(t, `
finnhub:
  api_key: k
  base_url: https://finnhub.example
universe:
  market: US
`))
	require.Error(t, err)
}

func TestValidateRejectsUnknownBackend(t *testing.T) {
	_, err := Load(writeConfig(t, minimalConfig+`
history:
  backend: tape
`))
	require.Error(t, err)
}

func TestValidateRequiresBrokersForKafkaBackend(t *testing.T) {
	_, err := Load(writeConfig(t, minimalConfig+`
history:
  backend: kafka
`))
	require.Error(t, err)
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("FINNHUB_API_KEY", "env-key")
	t.Setenv("MARKET", "DE")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("REDIS_ADDR", "redis:6379")

	cfg, err := LoadWithEnv(writeConfig(t, minimalConfig))
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.Finnhub.APIKey)
	assert.Equal(t, "DE", cfg.Universe.Market)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.True(t, cfg.Cache.Redis.Enabled)
	assert.Equal(t, "redis:6379", cfg.Cache.Redis.Addr)
}
