package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/modularwp/media-import/pkg/settings"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change stored source credentials",
	Long:  "Print every settings section with its current values. Secrets are masked. Use --set key=value to store a value.",
	RunE:  runSettings,
}

var settingsSet []string

var sectionTitleStyle = lipgloss.NewStyle().Bold(true)

func init() {
	settingsCmd.Flags().StringArrayVar(&settingsSet, "set", nil, "Store a value, e.g. --set pexels_api_key=KEY")
	rootCmd.AddCommand(settingsCmd)
}

func runSettings(cmd *cobra.Command, _ []string) error {
	srcs, err := loadSources()
	if err != nil {
		return err
	}

	if len(settingsSet) > 0 {
		submitted, err := parseAssignments(settingsSet)
		if err != nil {
			return err
		}
		if err := srcs.Settings.Update(submitted); err != nil {
			return fmt.Errorf("update settings: %w", err)
		}
	}

	return printSettings(cmd.OutOrStdout(), srcs.Settings.View())
}

func parseAssignments(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid assignment %q, expected key=value", pair)
		}
		out[key] = value
	}
	return out, nil
}

func printSettings(out io.Writer, sections []settings.SectionView) error {
	for i, section := range sections {
		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintln(out, sectionTitleStyle.Render(section.Title))

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		for _, f := range section.Fields {
			value := f.Value
			if value == "" {
				value = "-"
			}
			if f.Overridden {
				value += " (from environment)"
			}
			fmt.Fprintf(w, "  %s\t%s\t%s\n", f.Key, f.Label, value)
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}
	return nil
}
