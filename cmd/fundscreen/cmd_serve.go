package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fundscreen/fundscreen/internal/infrastructure/config"
	httpapi "github.com/fundscreen/fundscreen/internal/interfaces/http"
)

func runServe(cmd *cobra.Command, args []string) error {
	setupLogging(cmd)

	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	application := buildApp(cfg, log.Logger)
	defer application.close()

	handlers := httpapi.NewHandlers(application.engine, queryDefaults(cfg), log.Logger)
	server, err := httpapi.NewServer(httpapi.ServerConfig{
		Host:        cfg.Server.Host,
		Port:        cfg.Server.Port,
		ReadTimeout: cfg.Server.ReadTimeout(),
		IdleTimeout: cfg.Server.IdleTimeout(),
	}, handlers, application.metrics, log.Logger)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		if serr := server.Start(); serr != nil && serr != http.ErrServerClosed {
			errCh <- serr
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}
