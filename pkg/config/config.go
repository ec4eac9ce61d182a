package config

import (
	"fmt"

	"github.com/joeshaw/envdecode"

	"github.com/modularwp/media-import/pkg/api"
	"github.com/modularwp/media-import/pkg/api/auth"
	"github.com/modularwp/media-import/pkg/download"
	"github.com/modularwp/media-import/pkg/lib"
	"github.com/modularwp/media-import/pkg/lib/log"
	"github.com/modularwp/media-import/pkg/sources/types"
)

// Config is the configuration of the HTTP server.
type Config struct {
	API          api.Config           `env:""`
	Auth         auth.Config          `env:""`
	Log          log.Config           `env:""`
	Providers    types.ProviderConfig `env:""`
	Download     download.Config      `env:""`
	SettingsPath string               `env:"SETTINGS_PATH,default=./media-import.yaml" validate:"required"`
}

// LocalConfig is the subset used by commands that run without the server.
type LocalConfig struct {
	Log          log.Config           `env:""`
	Providers    types.ProviderConfig `env:""`
	Download     download.Config      `env:""`
	SettingsPath string               `env:"SETTINGS_PATH,default=./media-import.yaml" validate:"required"`
}

func Load() (*Config, error) {
	return load[Config]()
}

func LoadLocal() (*LocalConfig, error) {
	return load[LocalConfig]()
}

func load[T any]() (*T, error) {
	var cfg T

	if err := envdecode.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := lib.ValidateStruct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}
