package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const (
	appName = "fundscreen"
	version = "v1.0.0"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "Perpetual futures funding-rate screener",
		Version: version,
		Long: `fundscreen screens USDT perpetual futures on Binance and Bybit by funding
rate, filtered by market cap and 24h turnover, enriched with open interest.`,
	}
	rootCmd.PersistentFlags().String("config", "", "Path to YAML config file")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (trace|debug|info|warn|error)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the screener HTTP server",
		Long:  "Serve /funding/screener, /funding/negative, /health and /metrics over local HTTP",
		RunE:  runServe,
	}

	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "Run a one-shot scan and print JSON to stdout",
		RunE:  runScan,
	}
	scanCmd.Flags().String("exchange", "bybit", "Exchange to scan (bybit|binance)")
	scanCmd.Flags().String("direction", "negative", "Funding direction (negative|positive)")
	scanCmd.Flags().Int("limit", 0, "Max rows (0 uses the configured default)")

	rootCmd.AddCommand(serveCmd, scanCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func setupLogging(cmd *cobra.Command) {
	levelStr, _ := cmd.Flags().GetString("log-level")
	level, err := zerolog.ParseLevel(levelStr)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}
