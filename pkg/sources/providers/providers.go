// Package providers builds the sources this module ships with.
package providers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/modularwp/media-import/pkg/settings"
	"github.com/modularwp/media-import/pkg/sources"
	"github.com/modularwp/media-import/pkg/sources/providers/googledrive"
	"github.com/modularwp/media-import/pkg/sources/providers/pexels"
	"github.com/modularwp/media-import/pkg/sources/types"
)

const searchTimeout = 30 * time.Second

type Sources struct {
	Registry    *sources.Registry
	Settings    *settings.Service
	GoogleDrive *googledrive.Source
}

// New constructs every source, registers its settings section and loads stored credentials.
// Credentials present in cfg take precedence over stored ones.
func New(cfg *types.ProviderConfig, store settings.Store, transport http.RoundTripper, logger *zerolog.Logger) (*Sources, error) {
	service := settings.NewService(store, overrides(cfg), logger)

	pexelsClient, err := pexels.NewClient(&http.Client{
		Transport: transport,
		Timeout:   searchTimeout,
	}, cfg.PexelsBaseURL, logger)
	if err != nil {
		return nil, fmt.Errorf("create pexels client: %w", err)
	}
	pexelsSource := pexels.NewSource(pexelsClient, service, cfg.PexelsPerPage, logger)

	driveSource := googledrive.NewSource(googledrive.Config{
		APIBaseURL:  cfg.GoogleDriveAPIBaseURL,
		RedirectURL: cfg.GoogleDriveRedirectURL,
		Transport:   transport,
	}, service, googledrive.NewTokenStore(logger), logger)

	registry := sources.NewRegistry(logger)
	for _, source := range []types.Source{pexelsSource, driveSource} {
		if err := registry.Register(source); err != nil {
			return nil, fmt.Errorf("register source: %w", err)
		}
		if p, ok := source.(settings.Provider); ok {
			service.Register(p.SettingsSection())
		}
	}

	if err := service.Initialize(); err != nil {
		return nil, fmt.Errorf("initialize settings: %w", err)
	}

	return &Sources{
		Registry:    registry,
		Settings:    service,
		GoogleDrive: driveSource,
	}, nil
}

func overrides(cfg *types.ProviderConfig) map[string]string {
	return map[string]string{
		pexels.CredentialAPIKey:            cfg.PexelsAPIKey,
		googledrive.CredentialClientID:     cfg.GoogleDriveClientID,
		googledrive.CredentialAPIKey:       cfg.GoogleDriveAPIKey,
		googledrive.CredentialClientSecret: cfg.GoogleDriveClientSecret,
	}
}
