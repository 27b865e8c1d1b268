package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("PEOPLEDECK_UPSTREAM_URL", "https://randomuser.me/api")
	t.Setenv("PEOPLEDECK_UPSTREAM_SEED", "peopledeck")
	t.Setenv("PEOPLEDECK_STORE_ADDR", "localhost:6379")
	t.Setenv("PEOPLEDECK_CONFIG", "")
}

func TestLoadDefaultsWithEnvOnly(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, ":2112", cfg.Server.MetricsAddress)
	assert.Equal(t, 50, cfg.Upstream.PageSize)
	assert.Equal(t, 1000, cfg.Upstream.MaxUsers)
	assert.Equal(t, 5*time.Minute, cfg.Upstream.CacheTTL)
	assert.Equal(t, 100, cfg.Upstream.CacheCapacity)
	assert.Equal(t, "search_logs", cfg.Store.LogsKey)
	assert.Equal(t, "search_stats", cfg.Store.StatsKey)
	assert.Equal(t, 5*time.Minute, cfg.Aggregation.Interval)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadReadsYAMLFile(t *testing.T) {
	setRequiredEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	yamlBody := `
server:
  address: ":9090"
upstream:
  pageSize: 25
  maxUsers: 500
aggregation:
  interval: 1m
logging:
  level: debug
  json: true
`
	require.NoError(t, os.WriteFile(path, []byte(yamlBody), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, 25, cfg.Upstream.PageSize)
	assert.Equal(t, 500, cfg.Upstream.MaxUsers)
	assert.Equal(t, time.Minute, cfg.Aggregation.Interval)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.JSON)
}

func TestLoadEnvOverridesBeatYAML(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PEOPLEDECK_PAGE_SIZE", "10")
	t.Setenv("PEOPLEDECK_CACHE_TTL", "90s")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("upstream:\n  pageSize: 80\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Upstream.PageSize)
	assert.Equal(t, 90*time.Second, cfg.Upstream.CacheTTL)
}

func TestLoadMissingFileFails(t *testing.T) {
	setRequiredEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing base url", func(c *Config) { c.Upstream.BaseURL = "" }},
		{"missing seed", func(c *Config) { c.Upstream.Seed = "" }},
		{"missing store addr", func(c *Config) { c.Store.Addr = "" }},
		{"page size zero", func(c *Config) { c.Upstream.PageSize = 0 }},
		{"page size too large", func(c *Config) { c.Upstream.PageSize = 101 }},
		{"max users zero", func(c *Config) { c.Upstream.MaxUsers = 0 }},
		{"cache capacity zero", func(c *Config) { c.Upstream.CacheCapacity = 0 }},
		{"interval zero", func(c *Config) { c.Aggregation.Interval = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := defaultConfig()
			cfg.Upstream.BaseURL = "https://randomuser.me/api"
			cfg.Upstream.Seed = "s"
			cfg.Store.Addr = "localhost:6379"
			tc.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
