package main

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/modularwp/media-import/pkg/download"
	"github.com/modularwp/media-import/pkg/sources/types"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Download one asset through a source's import handler",
	RunE:  runImport,
}

var (
	importSource   string
	importURL      string
	importToken    string
	importFilename string
	importDir      string
)

func init() {
	importCmd.Flags().StringVarP(&importSource, "source", "s", "", "Source that owns the asset")
	importCmd.Flags().StringVarP(&importURL, "url", "u", "", "Asset URL")
	importCmd.Flags().StringVar(&importToken, "token", "", "Bearer token for sources that need one")
	importCmd.Flags().StringVarP(&importFilename, "filename", "f", "", "Custom filename")
	importCmd.Flags().StringVarP(&importDir, "dir", "d", "", "Target directory, defaults to UPLOADS_DIR")
	_ = importCmd.MarkFlagRequired("source")
	_ = importCmd.MarkFlagRequired("url")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, _ []string) error {
	srcs, err := loadSources()
	if err != nil {
		return err
	}

	req := types.ImportRequest{
		SourceID:       importSource,
		URL:            importURL,
		CustomFilename: importFilename,
	}
	if importToken != "" {
		req.FileInfo = &types.FileInfo{Authorization: importToken, CustomFilename: importFilename}
	}

	res, err := srcs.Registry.Import(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("resolve import: %w", err)
	}

	downloadCfg := cfg.Download
	if importDir != "" {
		downloadCfg.Dir = importDir
	}

	file, err := download.NewFetcher(afero.NewOsFs(), downloadCfg, nil, logger).Fetch(cmd.Context(), res)
	if err != nil {
		return fmt.Errorf("download: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", file.Path, file.MimeType, file.HumanSize)
	return nil
}
