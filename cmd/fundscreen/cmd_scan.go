package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fundscreen/fundscreen/internal/domain"
	"github.com/fundscreen/fundscreen/internal/infrastructure/config"
)

// runScan performs one screener pass and writes the response to stdout.
func runScan(cmd *cobra.Command, args []string) error {
	setupLogging(cmd)

	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	application := buildApp(cfg, log.Logger)
	defer application.close()

	exchange, _ := cmd.Flags().GetString("exchange")
	direction, _ := cmd.Flags().GetString("direction")
	limit, _ := cmd.Flags().GetInt("limit")

	defaults := queryDefaults(cfg)
	filters := domain.ScreenerFilters{
		Exchange:            domain.ParseExchange(exchange),
		Direction:           domain.ParseDirection(direction),
		FundingCut:          defaults.NegativeFundingCut,
		AlertFundingCut:     defaults.NegativeAlertFundingCut,
		MinMarketCapUSD:     defaults.MinMarketCapUSD,
		MinTurnover24hUSD:   defaults.MinTurnover24hUSD,
		AlertTurnover24hUSD: defaults.AlertTurnover24hUSD,
		Limit:               defaults.Limit,
	}
	if filters.Direction == domain.DirectionPositive {
		filters.FundingCut = defaults.PositiveFundingCut
		filters.AlertFundingCut = defaults.PositiveAlertFundingCut
	}
	if limit > 0 {
		filters.Limit = limit
	}

	resp, err := application.engine.Screen(context.Background(), filters)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}
