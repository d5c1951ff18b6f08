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

func clearEnv(t *testing.T) {
	for _, k := range []string{"ESIOS_API_KEY", "ESIOS_BASE_URL", "SPOT_OUTPUT_PATH", "REFRESH_CRON", "LOG_LEVEL", "API_PORT"} {
		t.Setenv(k, "")
	}
}

func TestLoad_FileWithDefaults(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
esios:
  api_key: abc
  timeout: 10s
fetch:
  start_date: "2023-01-01"
  concurrency: 2
server:
  refresh_cron: "@every 6h"
  cors_origins: ["http://localhost:8050"]
`)

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "abc", c.ESIOS.APIKey)
	assert.Equal(t, 10*time.Second, c.ESIOS.Timeout)
	assert.Equal(t, "https://api.esios.ree.es", c.ESIOS.BaseURL)
	assert.Equal(t, []int{600}, c.ESIOS.IndicatorIDs)
	assert.Equal(t, 3, c.ESIOS.GeoID)
	assert.Equal(t, 30, c.Fetch.ChunkDays)
	assert.Equal(t, 3, c.Fetch.MaxAttempts)
	assert.Equal(t, time.Second, c.Fetch.BackoffBase)
	assert.Equal(t, 2, c.Fetch.Concurrency)
	assert.Equal(t, "data/precios_spot.csv", c.Storage.OutputPath)
	assert.Equal(t, 8080, c.Server.Port)
	assert.Equal(t, []string{"http://localhost:8050"}, c.Server.CORSOrigins)
	assert.Equal(t, "info", c.Log.Level)
	assert.Equal(t, "Europe/Madrid", c.Location().String())

	start, err := c.StartDate()
	require.NoError(t, err)
	assert.Equal(t, "2023-01-01", start.Format("2006-01-02"))
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("ESIOS_API_KEY", "from-env")
	t.Setenv("SPOT_OUTPUT_PATH", "/tmp/out.csv")
	t.Setenv("API_PORT", "9090")
	t.Setenv("LOG_LEVEL", "DEBUG")

	c, err := Load(writeConfig(t, "esios:\n  api_key: from-file\n"))
	require.NoError(t, err)
	assert.Equal(t, "from-env", c.ESIOS.APIKey)
	assert.Equal(t, "/tmp/out.csv", c.Storage.OutputPath)
	assert.Equal(t, 9090, c.Server.Port)
	assert.Equal(t, "debug", c.Log.Level)

	t.Setenv("API_PORT", "nope")
	_, err = Load("")
	assert.Error(t, err)
}

func TestLoad_EmptyPathUsesEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("ESIOS_API_KEY", "k")
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "k", c.ESIOS.APIKey)
}

func TestLoad_APIKeyFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "esios.key"), []byte("  file-key\n"), 0o600))
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("esios:\n  api_key_file: esios.key\n"), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "file-key", c.ESIOS.APIKey)
}

func TestValidate(t *testing.T) {
	clearEnv(t)
	valid := func() *Config {
		c := Default()
		c.ESIOS.APIKey = "k"
		return c
	}
	require.NoError(t, valid().Validate())

	tests := map[string]func(c *Config){
		"missing key":      func(c *Config) { c.ESIOS.APIKey = " " },
		"bad base url":     func(c *Config) { c.ESIOS.BaseURL = "not a url" },
		"bad indicator":    func(c *Config) { c.ESIOS.IndicatorIDs = []int{600, -1} },
		"bad timezone":     func(c *Config) { c.ESIOS.Timezone = "Mars/Olympus" },
		"bad start":        func(c *Config) { c.Fetch.StartDate = "01/01/2015" },
		"end before start": func(c *Config) { c.Fetch.EndDate = "2014-12-31" },
		"chunk too large":  func(c *Config) { c.Fetch.ChunkDays = 31 },
		"no attempts":      func(c *Config) { c.Fetch.MaxAttempts = -1 },
		"bad cron":         func(c *Config) { c.Server.RefreshCron = "every day" },
		"bad level":        func(c *Config) { c.Log.Level = "verbose" },
		"bad port":         func(c *Config) { c.Server.Port = 70000 },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			c := valid()
			mutate(c)
			assert.Error(t, c.Validate())
		})
	}

	var nilCfg *Config
	assert.Error(t, nilCfg.Validate())
}

func TestEndDateAndOutputPaths(t *testing.T) {
	c := Default()
	now := time.Date(2024, 3, 30, 23, 30, 0, 0, time.UTC) // already the 31st in Madrid
	end, err := c.EndDate(now)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-31", end.Format("2006-01-02"))

	c.Fetch.EndDate = "2024-01-31"
	end, err = c.EndDate(now)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-31", end.Format("2006-01-02"))

	c.ESIOS.IndicatorIDs = []int{600, 1001}
	assert.Equal(t, 600, c.PrimaryIndicator())
	assert.Equal(t, "data/precios_spot.csv", c.OutputPathFor(600))
	assert.Equal(t, "data/precios_spot_1001.csv", c.OutputPathFor(1001))
}
