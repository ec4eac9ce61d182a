package tui

import (
	"context"

	"github.com/alitto/pond/v2"
	"github.com/rs/zerolog"

	"github.com/modularwp/media-import/pkg/download"
	"github.com/modularwp/media-import/pkg/sources/types"
)

type Importer interface {
	Import(ctx context.Context, item *types.MediaItem) (*types.ImportResult, error)
}

type Fetcher interface {
	Fetch(ctx context.Context, res *types.ImportResult) (*download.Result, error)
}

type imported struct {
	item   *types.MediaItem
	result *download.Result
	err    error
}

type importedMsg []imported

// importItems resolves and downloads every item. Results keep the order of items.
func importItems(
	ctx context.Context,
	importer Importer,
	fetcher Fetcher,
	items []*types.MediaItem,
	concurrency int,
	logger *zerolog.Logger,
) []imported {
	out := make([]imported, len(items))
	pool := pond.NewPool(max(concurrency, 1))

	for i, item := range items {
		pool.Submit(func() {
			out[i] = importItem(ctx, importer, fetcher, item)
			if out[i].err != nil {
				logger.Error().
					Err(out[i].err).
					Str("source", item.SourceID).
					Str("item_id", item.SourceItemID).
					Msg("Failed to import item")
			}
		})
	}

	pool.StopAndWait()
	return out
}

func importItem(ctx context.Context, importer Importer, fetcher Fetcher, item *types.MediaItem) imported {
	res, err := importer.Import(ctx, item)
	if err != nil {
		return imported{item: item, err: err}
	}

	file, err := fetcher.Fetch(ctx, res)
	if err != nil {
		return imported{item: item, err: err}
	}

	return imported{item: item, result: file}
}
