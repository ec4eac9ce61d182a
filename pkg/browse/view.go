package browse

import (
	"math"

	"github.com/modularwp/media-import/pkg/sources/types"
)

// TileHeight is the fixed row height tiles are scaled to.
const TileHeight = 150

// Tile is one rendered search result.
type Tile struct {
	Item     *types.MediaItem
	Preview  string
	Width    int
	Selected bool
}

func newTile(item *types.MediaItem, selected bool) Tile {
	width := TileHeight
	if item.Width > 0 && item.Height > 0 {
		width = int(math.Round(TileHeight * float64(item.Width) / float64(item.Height)))
	}

	return Tile{
		Item:     item,
		Preview:  item.PreviewURL(),
		Width:    width,
		Selected: selected,
	}
}

// Renderer displays controller output.
// Methods are called with the controller lock held and must not call back into the controller.
type Renderer interface {
	Reset()
	Append(tiles []Tile)
	SetSelected(key types.ItemKey, selected bool)
	ClearSelected()
	SetLoading(loading bool)
	ShowEmpty(message string)
	ShowError(message string)
	ClearError()
}

// ScrollMetrics describes the scroll container holding the tiles.
type ScrollMetrics struct {
	ScrollTop    int
	ClientHeight int
	ScrollHeight int
}

// Scrollable reports whether the content overflows the container.
func (m ScrollMetrics) Scrollable() bool {
	return m.ScrollHeight > m.ClientHeight
}

// NearBottom reports whether the visible area is within buffer of the end of the content.
func (m ScrollMetrics) NearBottom(buffer int) bool {
	return m.ScrollTop+m.ClientHeight+buffer >= m.ScrollHeight
}

type Viewport interface {
	Metrics() ScrollMetrics
}
