package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/modularwp/media-import/pkg/browse"
	"github.com/modularwp/media-import/pkg/download"
	"github.com/modularwp/media-import/pkg/sources/providers/pexels"
	"github.com/modularwp/media-import/pkg/tui"
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse a source in the terminal against a running server",
	Long:  "Open an interactive search against a media import server. Selected items are downloaded into UPLOADS_DIR.",
	RunE:  runBrowse,
}

var (
	browseServer  string
	browseKey     string
	browseSource  string
	browseLogFile string
)

func init() {
	browseCmd.Flags().StringVar(&browseServer, "server", "http://localhost:8080/", "Server base URL")
	browseCmd.Flags().StringVarP(&browseKey, "key", "k", os.Getenv("MEDIA_IMPORT_API_KEY"), "API key for the server")
	browseCmd.Flags().StringVarP(&browseSource, "source", "s", pexels.SourceID, "Source to browse")
	browseCmd.Flags().StringVar(&browseLogFile, "log-file", "", "Write logs to this file instead of discarding them")
	rootCmd.AddCommand(browseCmd)
}

func runBrowse(cmd *cobra.Command, _ []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	// The terminal belongs to the UI while it runs.
	uiLogger := zerolog.Nop()
	if browseLogFile != "" {
		f, err := os.OpenFile(browseLogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		uiLogger = logger.Output(f)
	}

	remote, err := browse.NewRemoteSearcher(nil, browseServer, browseKey, &uiLogger)
	if err != nil {
		return fmt.Errorf("create remote searcher: %w", err)
	}

	var mediaTypes []string
	if browseSource == pexels.SourceID {
		mediaTypes = []string{pexels.TypePhoto, pexels.TypeVideo}
	}

	return tui.Run(cmd.Context(), &tui.Options{
		SourceID:    browseSource,
		MediaTypes:  mediaTypes,
		Searcher:    remote,
		Importer:    remote,
		Fetcher:     download.NewFetcher(afero.NewOsFs(), cfg.Download, nil, &uiLogger),
		Concurrency: 4,
		Logger:      &uiLogger,
	})
}
