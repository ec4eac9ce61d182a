package main

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/modularwp/media-import/pkg/sources/providers/pexels"
	"github.com/modularwp/media-import/pkg/sources/types"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search a source and print the result as JSON",
	Long:  "Search a source with the locally configured credentials. An empty query lists curated or popular media.",
	Args:  cobra.ArbitraryArgs,
	RunE:  runSearch,
}

var (
	searchSource string
	searchType   string
	searchPage   int
)

func init() {
	searchCmd.Flags().StringVarP(&searchSource, "source", "s", pexels.SourceID, "Source to search")
	searchCmd.Flags().StringVarP(&searchType, "type", "t", pexels.TypePhoto, "Media type, e.g. photo or video")
	searchCmd.Flags().IntVarP(&searchPage, "page", "p", 1, "Result page")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	srcs, err := loadSources()
	if err != nil {
		return err
	}

	result, err := srcs.Registry.Search(cmd.Context(), types.SearchRequest{
		SourceID: searchSource,
		Query:    strings.Join(args, " "),
		Page:     searchPage,
		Type:     searchType,
	})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
