package tui

import (
	"sync"

	"github.com/modularwp/media-import/pkg/browse"
	"github.com/modularwp/media-import/pkg/sources/types"
)

// results holds the rendered tiles and is updated by the browse controller
// from its own goroutines. One tile occupies one terminal row.
type results struct {
	mu       sync.Mutex
	tiles    []browse.Tile
	index    map[types.ItemKey]int
	cursor   int
	offset   int
	height   int
	loading  bool
	empty    string
	errorMsg string

	changed chan struct{}
}

func newResults(height int) *results {
	return &results{
		index:   make(map[types.ItemKey]int),
		height:  max(height, 1),
		changed: make(chan struct{}, 1),
	}
}

func (r *results) notify() {
	select {
	case r.changed <- struct{}{}:
	default:
	}
}

func (r *results) Reset() {
	r.mu.Lock()
	r.tiles = nil
	r.index = make(map[types.ItemKey]int)
	r.cursor = 0
	r.offset = 0
	r.empty = ""
	r.mu.Unlock()
	r.notify()
}

func (r *results) Append(tiles []browse.Tile) {
	r.mu.Lock()
	for _, t := range tiles {
		r.index[t.Item.Key()] = len(r.tiles)
		r.tiles = append(r.tiles, t)
	}
	r.empty = ""
	r.mu.Unlock()
	r.notify()
}

func (r *results) SetSelected(key types.ItemKey, selected bool) {
	r.mu.Lock()
	if i, ok := r.index[key]; ok {
		r.tiles[i].Selected = selected
	}
	r.mu.Unlock()
	r.notify()
}

func (r *results) ClearSelected() {
	r.mu.Lock()
	for i := range r.tiles {
		r.tiles[i].Selected = false
	}
	r.mu.Unlock()
	r.notify()
}

func (r *results) SetLoading(loading bool) {
	r.mu.Lock()
	r.loading = loading
	r.mu.Unlock()
	r.notify()
}

func (r *results) ShowEmpty(message string) {
	r.mu.Lock()
	r.empty = message
	r.mu.Unlock()
	r.notify()
}

func (r *results) ShowError(message string) {
	r.mu.Lock()
	r.errorMsg = message
	r.mu.Unlock()
	r.notify()
}

func (r *results) ClearError() {
	r.mu.Lock()
	r.errorMsg = ""
	r.mu.Unlock()
	r.notify()
}

func (r *results) Metrics() browse.ScrollMetrics {
	r.mu.Lock()
	defer r.mu.Unlock()

	return browse.ScrollMetrics{
		ScrollTop:    r.offset,
		ClientHeight: r.height,
		ScrollHeight: len(r.tiles),
	}
}

func (r *results) setHeight(height int) {
	r.mu.Lock()
	r.height = max(height, 1)
	r.clampLocked()
	r.mu.Unlock()
}

// move shifts the cursor by delta rows and scrolls to keep it visible.
// It reports whether the scroll offset changed.
func (r *results) move(delta int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	before := r.offset
	r.cursor += delta
	r.clampLocked()
	return r.offset != before
}

func (r *results) clampLocked() {
	if r.cursor >= len(r.tiles) {
		r.cursor = len(r.tiles) - 1
	}
	if r.cursor < 0 {
		r.cursor = 0
	}
	if r.cursor < r.offset {
		r.offset = r.cursor
	}
	if r.cursor >= r.offset+r.height {
		r.offset = r.cursor - r.height + 1
	}
}

func (r *results) current() *types.MediaItem {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cursor < 0 || r.cursor >= len(r.tiles) {
		return nil
	}
	return r.tiles[r.cursor].Item
}

type snapshot struct {
	tiles    []browse.Tile
	cursor   int
	offset   int
	total    int
	loading  bool
	empty    string
	errorMsg string
}

// visible copies the rows currently in view.
func (r *results) visible() snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	end := min(r.offset+r.height, len(r.tiles))
	tiles := make([]browse.Tile, end-r.offset)
	copy(tiles, r.tiles[r.offset:end])

	return snapshot{
		tiles:    tiles,
		cursor:   r.cursor - r.offset,
		offset:   r.offset,
		total:    len(r.tiles),
		loading:  r.loading,
		empty:    r.empty,
		errorMsg: r.errorMsg,
	}
}
