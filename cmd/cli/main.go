package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/modularwp/media-import/pkg/config"
	"github.com/modularwp/media-import/pkg/lib/log"
	"github.com/modularwp/media-import/pkg/settings"
	"github.com/modularwp/media-import/pkg/sources/providers"
)

var (
	logger *zerolog.Logger
	cfg    *config.LocalConfig
)

var rootCmd = &cobra.Command{
	Use:           "mediaimport",
	Short:         "Search and import media from Pexels and Google Drive",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig loads configuration (called by commands that need it).
// Logs go to stderr so that command output on stdout stays parseable.
func loadConfig() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	var err error
	cfg, err = config.LoadLocal()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err = log.NewLoggerTo(&cfg.Log, os.Stderr)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	return nil
}

func loadSources() (*providers.Sources, error) {
	if err := loadConfig(); err != nil {
		return nil, err
	}

	store := settings.NewFileStore(afero.NewOsFs(), cfg.SettingsPath)
	srcs, err := providers.New(&cfg.Providers, store, nil, logger)
	if err != nil {
		return nil, fmt.Errorf("create sources: %w", err)
	}
	return srcs, nil
}
