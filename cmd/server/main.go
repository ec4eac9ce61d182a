package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/modularwp/media-import/pkg/api"
	"github.com/modularwp/media-import/pkg/api/auth"
	"github.com/modularwp/media-import/pkg/config"
	"github.com/modularwp/media-import/pkg/download"
	"github.com/modularwp/media-import/pkg/lib/log"
	"github.com/modularwp/media-import/pkg/settings"
	"github.com/modularwp/media-import/pkg/sources/providers"
	"github.com/modularwp/media-import/pkg/telemetry"
)

const shutdownTimeout = 10 * time.Second

func main() {
	err := run()
	if err != nil {
		panic(err)
	}
}

func run() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := log.NewLogger(&cfg.Log)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}

	server, err := initServer(logger, cfg)
	if err != nil {
		return fmt.Errorf("initialize server: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errs := make(chan error, 1)
	go func() {
		errs <- server.Start()
	}()

	select {
	case err := <-errs:
		if err != nil {
			return fmt.Errorf("start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("stop server: %w", err)
	}
	return <-errs
}

func initServer(logger *zerolog.Logger, config *config.Config) (*api.Server, error) {
	metrics := telemetry.NewMetrics()
	transport := metrics.Transport(nil)
	osFs := afero.NewOsFs()

	srcs, err := providers.New(&config.Providers, settings.NewFileStore(osFs, config.SettingsPath), transport, logger)
	if err != nil {
		return nil, fmt.Errorf("create sources: %w", err)
	}
	srcs.Registry.WithObserver(metrics)

	authProvider, err := auth.NewProvider(&config.Auth, api.AuthErrorWriter(logger))
	if err != nil {
		return nil, fmt.Errorf("create auth provider: %w", err)
	}

	fetcher := download.NewFetcher(osFs, config.Download, metrics.Transport(download.NewTransport(config.Download)), logger).
		WithObserver(metrics)

	server, err := api.NewServer(logger, &config.API, api.Deps{
		Registry:     srcs.Registry,
		GoogleDrive:  srcs.GoogleDrive,
		Settings:     srcs.Settings,
		Nonces:       auth.NewNonces(config.Auth.NonceSecret, config.Auth.NonceTTL),
		AuthProvider: authProvider,
		Fetcher:      fetcher,
		Metrics:      metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("create server: %w", err)
	}

	return server, nil
}
