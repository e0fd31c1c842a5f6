package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Setenv(databaseDSNEnv, "")
	t.Setenv(schedulerCronEnv, "")

	cfg := Load()

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, defaultCron, cfg.Scheduler.CronExpression)
	assert.Equal(t, defaultPageSize, cfg.Pipeline.PageSize)
	assert.Equal(t, defaultThreshold, cfg.Pipeline.FactCheckThreshold)
	assert.Equal(t, defaultMetricsAddr, cfg.Metrics.Addr)
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
logging:
  level: debug
  json: true
scheduler:
  cronExpression: "0 */6 * * *"
pipeline:
  scoringBatchSize: 25
  factCheckThreshold: 8.5
sources:
  twitter:
    baseUrl: https://tw.internal
services:
  classifier:
    ratePerSecond: 2
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))
	t.Setenv(configPathEnv, path)
	t.Setenv(databaseDSNEnv, "")

	cfg := Load()

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.JSON)
	assert.Equal(t, "0 */6 * * *", cfg.Scheduler.CronExpression)
	assert.Equal(t, 25, cfg.Pipeline.ScoringBatchSize)
	assert.Equal(t, 8.5, cfg.Pipeline.FactCheckThreshold)
	assert.Equal(t, "https://tw.internal", cfg.Sources.Twitter.BaseURL)
	assert.Equal(t, 2.0, cfg.Services.Classifier.RatePerSecond)

	// Unset keys keep their defaults.
	assert.Equal(t, defaultPageSize, cfg.Pipeline.PageSize)
	assert.Equal(t, "https://www.reddit.com", cfg.Sources.Reddit.BaseURL)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
database:
  dsn: postgres://file@localhost/db
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))
	t.Setenv(configPathEnv, path)
	t.Setenv(databaseDSNEnv, "postgres://env@localhost/db")
	t.Setenv(twitterAPIKeyEnv, "env-key")

	cfg := Load()

	assert.Equal(t, "postgres://env@localhost/db", cfg.Database.DSN)
	assert.Equal(t, "env-key", cfg.Sources.Twitter.APIKey)
}

func TestLoadUnreadableFileFallsBack(t *testing.T) {
	t.Setenv(configPathEnv, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv(databaseDSNEnv, "")

	cfg := Load()

	assert.Equal(t, defaultCron, cfg.Scheduler.CronExpression)
}
