// Package config loads the screener configuration from YAML with validated
// defaults for every section.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete screener configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Binance   ExchangeConfig  `yaml:"binance"`
	Bybit     ExchangeConfig  `yaml:"bybit"`
	CoinGecko CoinGeckoConfig `yaml:"coingecko"`
	Redis     RedisConfig     `yaml:"redis"`
	Filters   FilterConfig    `yaml:"filters"`
	UserAgent string          `yaml:"user_agent"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Host            string `yaml:"host"`
	Port            int    `yaml:"port"`
	ReadTimeoutSecs int    `yaml:"read_timeout_secs"`
	IdleTimeoutSecs int    `yaml:"idle_timeout_secs"`
}

// ExchangeConfig holds per-exchange client settings.
type ExchangeConfig struct {
	BaseURL         string `yaml:"base_url"`
	TimeoutSecs     int    `yaml:"timeout_secs"`
	RPS             int    `yaml:"rps"`             // Requests per second for bulk endpoints
	Burst           int    `yaml:"burst"`           // Token bucket burst capacity
	PageLimit       int    `yaml:"page_limit"`      // Bybit cursor page size
	OIConcurrency   int    `yaml:"oi_concurrency"`  // Parallel open-interest lookups
	OIMaxAttempts   int    `yaml:"oi_max_attempts"` // Attempts per open-interest lookup
	OIBackoffBaseMS int    `yaml:"oi_backoff_base_ms"`
}

// CoinGeckoConfig holds the market-cap index settings.
type CoinGeckoConfig struct {
	BaseURL               string `yaml:"base_url"`
	TimeoutSecs           int    `yaml:"timeout_secs"`
	Pages                 int    `yaml:"pages"`
	PerPage               int    `yaml:"per_page"`
	TTLSecs               int    `yaml:"ttl_secs"` // Index freshness window
	MaxAttempts           int    `yaml:"max_attempts"`
	BackoffBaseMS         int    `yaml:"backoff_base_ms"`
	AllowUnknownMarketCap bool   `yaml:"allow_unknown_market_cap"`
}

// RedisConfig holds the optional warm-store connection. An empty Addr
// disables the warm store entirely.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// FilterConfig holds the query-parameter fallbacks.
type FilterConfig struct {
	NegativeFundingCut      float64 `yaml:"negative_funding_cut"`
	PositiveFundingCut      float64 `yaml:"positive_funding_cut"`
	NegativeAlertFundingCut float64 `yaml:"negative_alert_funding_cut"`
	PositiveAlertFundingCut float64 `yaml:"positive_alert_funding_cut"`
	MinMarketCapUSD         float64 `yaml:"min_market_cap_usd"`
	MinTurnover24hUSD       float64 `yaml:"min_turnover_24h_usd"`
	AlertTurnover24hUSD     float64 `yaml:"alert_turnover_24h_usd"`
	Limit                   int     `yaml:"limit"`
}

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            8080,
			ReadTimeoutSecs: 10,
			IdleTimeoutSecs: 60,
		},
		Binance: ExchangeConfig{
			BaseURL:         "https://fapi.binance.com",
			TimeoutSecs:     15,
			RPS:             10,
			Burst:           20,
			OIConcurrency:   1,
			OIMaxAttempts:   3,
			OIBackoffBaseMS: 500,
		},
		Bybit: ExchangeConfig{
			BaseURL:         "https://api.bybit.com",
			TimeoutSecs:     15,
			RPS:             10,
			Burst:           20,
			PageLimit:       1000,
			OIConcurrency:   4,
			OIMaxAttempts:   3,
			OIBackoffBaseMS: 500,
		},
		CoinGecko: CoinGeckoConfig{
			BaseURL:               "https://api.coingecko.com/api/v3",
			TimeoutSecs:           15,
			Pages:                 3,
			PerPage:               250,
			TTLSecs:               1800,
			MaxAttempts:           3,
			BackoffBaseMS:         700,
			AllowUnknownMarketCap: true,
		},
		Filters: FilterConfig{
			NegativeFundingCut:      -0.0001,
			PositiveFundingCut:      0.00005,
			NegativeAlertFundingCut: -0.01,
			PositiveAlertFundingCut: 0.002,
			MinMarketCapUSD:         100_000_000,
			MinTurnover24hUSD:       2_000_000,
			AlertTurnover24hUSD:     10_000_000,
			Limit:                   30,
		},
		UserAgent: "fundscreen/1.0",
	}
}

// Load reads a YAML file over the defaults. Missing keys keep their default
// values.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate ensures the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	if c.CoinGecko.Pages < 1 {
		return fmt.Errorf("coingecko pages must be >= 1, got %d", c.CoinGecko.Pages)
	}
	if c.CoinGecko.PerPage < 1 || c.CoinGecko.PerPage > 250 {
		return fmt.Errorf("coingecko per_page must be 1..250, got %d", c.CoinGecko.PerPage)
	}
	if c.CoinGecko.TTLSecs < 1 {
		return fmt.Errorf("coingecko ttl_secs must be >= 1, got %d", c.CoinGecko.TTLSecs)
	}
	for name, ex := range map[string]ExchangeConfig{"binance": c.Binance, "bybit": c.Bybit} {
		if ex.OIConcurrency < 1 {
			return fmt.Errorf("%s oi_concurrency must be >= 1, got %d", name, ex.OIConcurrency)
		}
		if ex.OIMaxAttempts < 1 {
			return fmt.Errorf("%s oi_max_attempts must be >= 1, got %d", name, ex.OIMaxAttempts)
		}
	}
	if c.Filters.Limit < 1 {
		return fmt.Errorf("filters limit must be >= 1, got %d", c.Filters.Limit)
	}
	return nil
}

// Timeout returns the exchange HTTP timeout as a duration.
func (e ExchangeConfig) Timeout() time.Duration {
	return time.Duration(e.TimeoutSecs) * time.Second
}

// OIBackoffBase returns the open-interest retry backoff base.
func (e ExchangeConfig) OIBackoffBase() time.Duration {
	return time.Duration(e.OIBackoffBaseMS) * time.Millisecond
}

// Timeout returns the CoinGecko HTTP timeout as a duration.
func (g CoinGeckoConfig) Timeout() time.Duration {
	return time.Duration(g.TimeoutSecs) * time.Second
}

// TTL returns the index freshness window as a duration.
func (g CoinGeckoConfig) TTL() time.Duration {
	return time.Duration(g.TTLSecs) * time.Second
}

// BackoffBase returns the page retry backoff base.
func (g CoinGeckoConfig) BackoffBase() time.Duration {
	return time.Duration(g.BackoffBaseMS) * time.Millisecond
}

// ReadTimeout returns the listener read timeout as a duration.
func (s ServerConfig) ReadTimeout() time.Duration {
	return time.Duration(s.ReadTimeoutSecs) * time.Second
}

// IdleTimeout returns the listener idle timeout as a duration.
func (s ServerConfig) IdleTimeout() time.Duration {
	return time.Duration(s.IdleTimeoutSecs) * time.Second
}
