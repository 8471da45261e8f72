package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfigFile = "../../configs/config.yaml"

func Test_Config_LoadsFileValues(t *testing.T) {
	cfg, err := loadConfig(testConfigFile)
	require.NoError(t, err)

	assert.Equal(t, Production, cfg.Server.Env)
	assert.Equal(t, 3001, cfg.Server.Port)
	assert.Equal(t, ":3001", cfg.Server.Addr())
	assert.Equal(t, "db.sqlite", cfg.DB.ConnectionString)
	assert.Equal(t, LevelInfo, cfg.Logger.LogLevel)
	assert.Equal(t, 30*time.Second, cfg.Scraper.Timeout)
	assert.Equal(t, 6*time.Hour, cfg.Scraper.RefreshCooldown)
	assert.Equal(t, "0 */6 * * *", cfg.Scraper.Schedule)
	assert.True(t, cfg.Scraper.RefreshOnStart)
}

func Test_Config_EnvironmentOverrideWorksCorrect(t *testing.T) {
	t.Setenv("ENV", string(Development))
	t.Setenv("SERVER_PORT", "8081")
	t.Setenv("DB_CONNECTION_STRING", "newConnectionString")
	t.Setenv("LOG_LEVEL", string(LevelDebug))
	t.Setenv("APP_NAME", "notifier-test")
	t.Setenv("SCRAPER_URL", "http://localhost:9999/notices")
	t.Setenv("SCRAPER_TIMEOUT", "5s")
	t.Setenv("REFRESH_COOLDOWN", "3h")
	t.Setenv("REFRESH_SCHEDULE", "*/30 * * * *")
	t.Setenv("REFRESH_ON_START", "false")

	cfg, err := loadConfig(testConfigFile)
	require.NoError(t, err)

	assert.Equal(t, Development, cfg.Server.Env)
	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, "newConnectionString", cfg.DB.ConnectionString)
	assert.Equal(t, LevelDebug, cfg.Logger.LogLevel)
	assert.Equal(t, "notifier-test", cfg.Logger.AppName)
	assert.Equal(t, "http://localhost:9999/notices", cfg.Scraper.URL)
	assert.Equal(t, 5*time.Second, cfg.Scraper.Timeout)
	assert.Equal(t, 3*time.Hour, cfg.Scraper.RefreshCooldown)
	assert.Equal(t, "*/30 * * * *", cfg.Scraper.Schedule)
	assert.False(t, cfg.Scraper.RefreshOnStart)
}

func Test_Config_InvalidValuesAreReported(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
logger:
  log_level: LOUD
server:
  env: staging
db:
  connection_string: ""
scraper:
  schedule: "every hour"
`)
	require.NoError(t, os.WriteFile(file, content, 0o644))

	_, err := loadConfig(file)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown log_level")
	assert.Contains(t, err.Error(), "missing variable: output_file")
	assert.Contains(t, err.Error(), "env must be")
	assert.Contains(t, err.Error(), "db connection string")
	assert.Contains(t, err.Error(), "invalid schedule")
}

func Test_Config_MissingFileIsError(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
