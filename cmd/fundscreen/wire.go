package main

import (
	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"github.com/fundscreen/fundscreen/internal/application/screener"
	"github.com/fundscreen/fundscreen/internal/domain"
	"github.com/fundscreen/fundscreen/internal/infrastructure/config"
	"github.com/fundscreen/fundscreen/internal/infrastructure/marketcap"
	"github.com/fundscreen/fundscreen/internal/infrastructure/providers"
	httpapi "github.com/fundscreen/fundscreen/internal/interfaces/http"
	"github.com/fundscreen/fundscreen/internal/metrics"
)

// app bundles the wired object graph shared by serve and scan.
type app struct {
	engine  *screener.Engine
	metrics *metrics.Registry
	cfg     *config.Config
	redis   *redis.Client
}

// buildApp wires the full dependency graph from configuration.
func buildApp(cfg *config.Config, log zerolog.Logger) *app {
	reg := metrics.NewRegistry()

	var store marketcap.WarmStore
	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		store = marketcap.NewRedisStore(rdb)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("warm store enabled")
	}

	gecko := marketcap.NewCoinGeckoClient(marketcap.CoinGeckoConfig{
		BaseURL:   cfg.CoinGecko.BaseURL,
		Timeout:   cfg.CoinGecko.Timeout(),
		UserAgent: cfg.UserAgent,
	}, log)
	index := marketcap.NewCache(gecko, store, marketcap.CacheConfig{
		Pages:       cfg.CoinGecko.Pages,
		PerPage:     cfg.CoinGecko.PerPage,
		TTL:         cfg.CoinGecko.TTL(),
		MaxAttempts: cfg.CoinGecko.MaxAttempts,
		BackoffBase: cfg.CoinGecko.BackoffBase(),
	}, nil, log, reg)

	adapters := map[domain.Exchange]providers.Adapter{
		domain.ExchangeBinance: providers.NewBinanceAdapter(providers.BinanceConfig{
			BaseURL:       cfg.Binance.BaseURL,
			Timeout:       cfg.Binance.Timeout(),
			UserAgent:     cfg.UserAgent,
			RPS:           float64(cfg.Binance.RPS),
			Burst:         cfg.Binance.Burst,
			OIMaxAttempts: cfg.Binance.OIMaxAttempts,
			OIBackoffBase: cfg.Binance.OIBackoffBase(),
		}, log),
		domain.ExchangeBybit: providers.NewBybitAdapter(providers.BybitConfig{
			BaseURL:               cfg.Bybit.BaseURL,
			Timeout:               cfg.Bybit.Timeout(),
			UserAgent:             cfg.UserAgent,
			RPS:                   float64(cfg.Bybit.RPS),
			Burst:                 cfg.Bybit.Burst,
			PageLimit:             cfg.Bybit.PageLimit,
			OIMaxAttempts:         cfg.Bybit.OIMaxAttempts,
			OIBackoffBase:         cfg.Bybit.OIBackoffBase(),
			EnrichmentConcurrency: cfg.Bybit.OIConcurrency,
		}, log),
	}

	engine := screener.New(adapters, index, screener.Config{
		AllowUnknownMarketCap: cfg.CoinGecko.AllowUnknownMarketCap,
	}, nil, log, reg)

	return &app{engine: engine, metrics: reg, cfg: cfg, redis: rdb}
}

func (a *app) close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
}

func queryDefaults(cfg *config.Config) httpapi.QueryDefaults {
	return httpapi.QueryDefaults{
		NegativeFundingCut:      cfg.Filters.NegativeFundingCut,
		PositiveFundingCut:      cfg.Filters.PositiveFundingCut,
		NegativeAlertFundingCut: cfg.Filters.NegativeAlertFundingCut,
		PositiveAlertFundingCut: cfg.Filters.PositiveAlertFundingCut,
		MinMarketCapUSD:         cfg.Filters.MinMarketCapUSD,
		MinTurnover24hUSD:       cfg.Filters.MinTurnover24hUSD,
		AlertTurnover24hUSD:     cfg.Filters.AlertTurnover24hUSD,
		Limit:                   cfg.Filters.Limit,
	}
}
