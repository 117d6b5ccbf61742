package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "https://fapi.binance.com", cfg.Binance.BaseURL)
	assert.Equal(t, "https://api.bybit.com", cfg.Bybit.BaseURL)
	assert.Equal(t, 1, cfg.Binance.OIConcurrency)
	assert.Equal(t, 4, cfg.Bybit.OIConcurrency)
	assert.Equal(t, 30*time.Minute, cfg.CoinGecko.TTL())
	assert.Equal(t, 250, cfg.CoinGecko.PerPage)
	assert.True(t, cfg.CoinGecko.AllowUnknownMarketCap)
	assert.Equal(t, "", cfg.Redis.Addr)
	assert.Equal(t, "fundscreen/1.0", cfg.UserAgent)
	assert.Equal(t, -0.0001, cfg.Filters.NegativeFundingCut)
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fundscreen.yaml")
	yaml := `
server:
  port: 9090
coingecko:
  pages: 2
  ttl_secs: 600
  allow_unknown_market_cap: false
redis:
  addr: "localhost:6379"
  db: 2
filters:
  limit: 10
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 2, cfg.CoinGecko.Pages)
	assert.Equal(t, 10*time.Minute, cfg.CoinGecko.TTL())
	assert.False(t, cfg.CoinGecko.AllowUnknownMarketCap)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, 10, cfg.Filters.Limit)

	// Untouched keys keep their defaults.
	assert.Equal(t, "https://fapi.binance.com", cfg.Binance.BaseURL)
	assert.Equal(t, 250, cfg.CoinGecko.PerPage)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/fundscreen.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config")
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [not a map"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config")
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }},
		{"zero pages", func(c *Config) { c.CoinGecko.Pages = 0 }},
		{"per_page too large", func(c *Config) { c.CoinGecko.PerPage = 500 }},
		{"zero ttl", func(c *Config) { c.CoinGecko.TTLSecs = 0 }},
		{"zero oi concurrency", func(c *Config) { c.Bybit.OIConcurrency = 0 }},
		{"zero oi attempts", func(c *Config) { c.Binance.OIMaxAttempts = 0 }},
		{"zero limit", func(c *Config) { c.Filters.Limit = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
