// Package tui provides a terminal browser for searching a media source and importing selections.
package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/modularwp/media-import/pkg/browse"
	"github.com/modularwp/media-import/pkg/selection"
)

type Options struct {
	SourceID string
	// MediaTypes are cycled with ctrl+t. The first one is searched initially.
	MediaTypes  []string
	Searcher    browse.Searcher
	Importer    Importer
	Fetcher     Fetcher
	Concurrency int
	Logger      *zerolog.Logger
}

// scrollBuffer is how many rows from the end of the results the next page is requested.
const scrollBuffer = 3

func Run(ctx context.Context, options *Options) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sel := selection.NewManager()
	res := newResults(1)

	opts := browse.DefaultOptions(options.SourceID)
	opts.ScrollBuffer = scrollBuffer
	if len(options.MediaTypes) > 0 {
		opts.MediaType = options.MediaTypes[0]
	}

	controller := browse.NewController(options.Searcher, sel, res, res, opts, options.Logger)
	defer controller.Close()

	bubble := newBubble(ctx, controller, sel, res, options)
	_, err := tea.NewProgram(bubble, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}
