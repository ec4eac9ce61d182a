package browse

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/modularwp/media-import/pkg/selection"
	"github.com/modularwp/media-import/pkg/sources/types"
)

type harness struct {
	controller *Controller
	scheduler  *fakeScheduler
	spawner    *spawner
	searcher   *fakeSearcher
	renderer   *fakeRenderer
	viewport   *fakeViewport
	selection  *selection.Manager
}

func newHarness(t *testing.T, fn searchFunc) *harness {
	t.Helper()

	h := &harness{
		scheduler: &fakeScheduler{},
		spawner:   &spawner{},
		searcher:  &fakeSearcher{fn: fn},
		renderer:  newFakeRenderer(),
		viewport:  &fakeViewport{},
		selection: selection.NewManager(),
	}
	// Scrollable and far from the bottom unless a test says otherwise.
	h.viewport.Set(ScrollMetrics{ScrollTop: 0, ClientHeight: 500, ScrollHeight: 2000})

	opts := DefaultOptions("pexels")
	opts.MediaType = "photo"
	opts.Scheduler = h.scheduler
	opts.Go = h.spawner.Go

	logger := zerolog.Nop()
	h.controller = NewController(h.searcher, h.selection, h.renderer, h.viewport, opts, &logger)
	t.Cleanup(h.controller.Close)

	return h
}

func pageOf(req types.SearchRequest, n int, hasMore bool) *types.SearchResult {
	items := make([]*types.MediaItem, 0, n)
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("%s-%d-%d", req.Query, req.Page, i)
		items = append(items, &types.MediaItem{
			ID:           id,
			SourceID:     req.SourceID,
			SourceItemID: id,
			Type:         types.MediaTypeImage,
			Thumbnail:    "https://images.example/" + id + ".jpg",
			Width:        300,
			Height:       150,
		})
	}
	return &types.SearchResult{Items: items, Total: 100, HasMore: hasMore}
}

func morePages(_ context.Context, req types.SearchRequest) (*types.SearchResult, error) {
	return pageOf(req, 2, true), nil
}

func pages(reqs []types.SearchRequest) []int {
	out := make([]int, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, r.Page)
	}
	return out
}

func TestController_StartLoadsFirstPage(t *testing.T) {
	h := newHarness(t, morePages)

	h.controller.Start()
	if h.spawner.Len() != 1 {
		t.Fatalf("expected one request in flight, got %d", h.spawner.Len())
	}
	if !h.controller.Loading() {
		t.Fatal("expected controller to be loading")
	}

	h.spawner.RunAll()

	reqs := h.searcher.Requests()
	want := types.SearchRequest{SourceID: "pexels", Query: "", Page: 1, Type: "photo"}
	if reqs[0] != want {
		t.Errorf("unexpected request: %+v", reqs[0])
	}
	if got := len(h.renderer.Tiles()); got != 2 {
		t.Errorf("expected 2 tiles, got %d", got)
	}
	if h.controller.Page() != 1 {
		t.Errorf("expected page 1, got %d", h.controller.Page())
	}
	if h.controller.State() != StateAwaitingMore {
		t.Errorf("expected awaiting more, got %s", h.controller.State())
	}
}

func TestController_DebounceCollapsesBurst(t *testing.T) {
	h := newHarness(t, morePages)
	h.controller.Start()
	h.spawner.RunAll()

	h.controller.SetQuery("c")
	h.scheduler.Advance(200 * time.Millisecond)
	h.controller.SetQuery("ca")
	h.scheduler.Advance(200 * time.Millisecond)
	h.controller.SetQuery("cat")
	h.scheduler.Advance(499 * time.Millisecond)

	if h.spawner.Len() != 0 {
		t.Fatalf("expected no request before the quiet period ends, got %d", h.spawner.Len())
	}

	h.scheduler.Advance(time.Millisecond)
	if h.spawner.Len() != 1 {
		t.Fatalf("expected exactly one request, got %d", h.spawner.Len())
	}
	h.spawner.RunAll()

	reqs := h.searcher.Requests()
	if len(reqs) != 2 {
		t.Fatalf("expected 2 requests in total, got %d", len(reqs))
	}
	if reqs[1].Query != "cat" || reqs[1].Page != 1 {
		t.Errorf("unexpected request: %+v", reqs[1])
	}
	if h.renderer.resets != 2 {
		t.Errorf("expected results to be reset for the new search, got %d resets", h.renderer.resets)
	}
}

func TestController_MediaTypeChangeSearches(t *testing.T) {
	h := newHarness(t, morePages)
	h.controller.Start()
	h.spawner.RunAll()

	h.controller.SetMediaType("video")
	h.scheduler.Advance(500 * time.Millisecond)
	h.spawner.RunAll()

	reqs := h.searcher.Requests()
	if got := reqs[len(reqs)-1]; got.Type != "video" || got.Page != 1 {
		t.Errorf("unexpected request: %+v", got)
	}
}

func TestController_LoadingGuard(t *testing.T) {
	h := newHarness(t, morePages)
	h.viewport.Set(ScrollMetrics{ScrollTop: 1400, ClientHeight: 500, ScrollHeight: 2000})

	h.controller.Start()
	h.controller.OnScroll()
	h.scheduler.Advance(100 * time.Millisecond)
	h.controller.OnResize()
	h.scheduler.Advance(250 * time.Millisecond)

	if h.spawner.Len() != 1 {
		t.Fatalf("expected a single outstanding request, got %d", h.spawner.Len())
	}
}

func TestController_StaleResponseDropped(t *testing.T) {
	var firstCancelled atomic.Bool

	h := newHarness(t, func(ctx context.Context, req types.SearchRequest) (*types.SearchResult, error) {
		if req.Query == "" {
			firstCancelled.Store(ctx.Err() != nil)
		}
		return pageOf(req, 3, true), nil
	})

	h.controller.Start()
	h.controller.SetQuery("dogs")
	h.scheduler.Advance(500 * time.Millisecond)

	if h.spawner.Len() != 2 {
		t.Fatalf("expected both requests queued, got %d", h.spawner.Len())
	}

	// The newer response arrives first, then the superseded one.
	h.spawner.Run(1)
	h.spawner.Run(0)

	if !firstCancelled.Load() {
		t.Error("expected the superseded request context to be cancelled")
	}

	tiles := h.renderer.Tiles()
	if len(tiles) != 3 {
		t.Fatalf("expected 3 tiles, got %d", len(tiles))
	}
	for _, tile := range tiles {
		if tile.Item.SourceItemID[:4] != "dogs" {
			t.Errorf("stale tile rendered: %s", tile.Item.SourceItemID)
		}
	}
	if h.controller.Page() != 1 {
		t.Errorf("expected page 1, got %d", h.controller.Page())
	}
}

func TestController_HasMoreResetOnNewSearch(t *testing.T) {
	h := newHarness(t, func(_ context.Context, req types.SearchRequest) (*types.SearchResult, error) {
		return pageOf(req, 2, req.Query != ""), nil
	})
	h.viewport.Set(ScrollMetrics{ScrollTop: 1400, ClientHeight: 500, ScrollHeight: 2000})

	h.controller.Start()
	h.spawner.RunAll()

	if h.controller.HasMore() {
		t.Fatal("expected no more results")
	}
	if h.controller.State() != StateIdle {
		t.Errorf("expected idle, got %s", h.controller.State())
	}

	h.controller.OnScroll()
	h.scheduler.Advance(100 * time.Millisecond)
	if h.spawner.Len() != 0 {
		t.Fatal("expected no request once results are exhausted")
	}

	h.controller.SetQuery("trees")
	h.scheduler.Advance(500 * time.Millisecond)
	if !h.controller.HasMore() {
		t.Error("expected hasMore to be reset for the new search")
	}
	if h.spawner.Len() != 1 {
		t.Fatalf("expected the new search to request, got %d", h.spawner.Len())
	}
}

func TestController_ScrollNearBottomLoadsNextPage(t *testing.T) {
	h := newHarness(t, morePages)

	h.controller.Start()
	h.spawner.RunAll()

	// Far from the bottom.
	h.controller.OnScroll()
	h.scheduler.Advance(100 * time.Millisecond)
	if h.spawner.Len() != 0 {
		t.Fatal("expected no request far from the bottom")
	}

	// 1200 + 500 + 300 reaches 2000.
	h.viewport.Set(ScrollMetrics{ScrollTop: 1200, ClientHeight: 500, ScrollHeight: 2000})
	h.controller.OnScroll()
	h.controller.OnScroll()
	h.scheduler.Advance(100 * time.Millisecond)
	h.spawner.RunAll()

	if got := pages(h.searcher.Requests()); fmt.Sprint(got) != "[1 2]" {
		t.Errorf("unexpected pages requested: %v", got)
	}
	if h.controller.Page() != 2 {
		t.Errorf("expected page 2, got %d", h.controller.Page())
	}
	if got := len(h.renderer.Tiles()); got != 4 {
		t.Errorf("expected 4 tiles, got %d", got)
	}
}

func TestController_FillCheckLoadsUntilScrollable(t *testing.T) {
	h := newHarness(t, morePages)
	h.viewport.Set(ScrollMetrics{ClientHeight: 800, ScrollHeight: 300})

	h.controller.Start()
	h.spawner.RunAll()
	h.scheduler.Advance(100 * time.Millisecond)

	if h.spawner.Len() != 1 {
		t.Fatalf("expected the fill check to request the next page, got %d", h.spawner.Len())
	}

	h.viewport.Set(ScrollMetrics{ClientHeight: 800, ScrollHeight: 1600})
	h.spawner.RunAll()
	h.scheduler.Advance(100 * time.Millisecond)

	if h.spawner.Len() != 0 {
		t.Fatal("expected loading to stop once the content scrolls")
	}
	if got := pages(h.searcher.Requests()); fmt.Sprint(got) != "[1 2]" {
		t.Errorf("unexpected pages requested: %v", got)
	}
}

func TestController_ResizeRunsFillCheck(t *testing.T) {
	h := newHarness(t, morePages)

	h.controller.Start()
	h.spawner.RunAll()
	h.scheduler.Advance(100 * time.Millisecond)

	h.viewport.Set(ScrollMetrics{ClientHeight: 2400, ScrollHeight: 2000})
	h.controller.OnResize()
	h.scheduler.Advance(249 * time.Millisecond)
	if h.spawner.Len() != 0 {
		t.Fatal("expected resize to be debounced")
	}

	h.scheduler.Advance(time.Millisecond)
	if h.spawner.Len() != 1 {
		t.Fatalf("expected one request after resize, got %d", h.spawner.Len())
	}
}

func TestController_ErrorDoesNotAdvancePage(t *testing.T) {
	fail := atomic.Bool{}
	h := newHarness(t, func(_ context.Context, req types.SearchRequest) (*types.SearchResult, error) {
		if fail.Load() {
			return nil, types.UpstreamError{Service: "Pexels", StatusCode: 429}
		}
		return pageOf(req, 2, true), nil
	})
	h.viewport.Set(ScrollMetrics{ScrollTop: 1200, ClientHeight: 500, ScrollHeight: 2000})

	h.controller.Start()
	h.spawner.RunAll()

	fail.Store(true)
	h.controller.OnScroll()
	h.scheduler.Advance(100 * time.Millisecond)
	h.spawner.RunAll()

	if h.controller.Page() != 1 {
		t.Errorf("expected page to stay at 1, got %d", h.controller.Page())
	}
	if h.controller.State() != StateError {
		t.Errorf("expected error state, got %s", h.controller.State())
	}
	if got := h.renderer.Error(); got != "Pexels API error (status 429)" {
		t.Errorf("unexpected error message: %q", got)
	}
	if h.controller.Loading() {
		t.Error("expected loading to be released after a failure")
	}

	h.scheduler.Advance(5 * time.Second)
	if got := h.renderer.Error(); got != "" {
		t.Errorf("expected error to clear, got %q", got)
	}

	fail.Store(false)
	h.controller.OnScroll()
	h.scheduler.Advance(100 * time.Millisecond)
	h.spawner.RunAll()

	if got := pages(h.searcher.Requests()); fmt.Sprint(got) != "[1 2 2]" {
		t.Errorf("expected page 2 to be retried, got %v", got)
	}
	if h.controller.Page() != 2 {
		t.Errorf("expected page 2, got %d", h.controller.Page())
	}
}

func TestController_ErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"transport", fmt.Errorf("do request: %w", io.ErrUnexpectedEOF), types.MessageLoadingError},
		{"remote", &RemoteError{Status: 400, Message: "Invalid media type"}, "Invalid media type"},
		{"remote without message", &RemoteError{Status: 502}, types.MessageLoadingError},
		{"configuration", types.ConfigurationError{Source: "pexels", Message: "Please configure your Pexels API key in the settings."},
			"Please configure your Pexels API key in the settings."},
		{"cancelled", context.Canceled, types.MessageLoadingError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errorMessage(tt.err); got != tt.want {
				t.Errorf("errorMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestController_NewQueryClearsError(t *testing.T) {
	h := newHarness(t, func(_ context.Context, req types.SearchRequest) (*types.SearchResult, error) {
		return nil, io.EOF
	})

	h.controller.Start()
	h.spawner.RunAll()
	if h.renderer.Error() != types.MessageLoadingError {
		t.Fatalf("unexpected error message: %q", h.renderer.Error())
	}

	h.controller.SetQuery("x")
	if h.renderer.Error() != "" {
		t.Error("expected typing to clear the error")
	}
	if h.controller.State() == StateError {
		t.Error("expected error state to be cleared")
	}
}

func TestController_EmptyFirstPage(t *testing.T) {
	h := newHarness(t, func(_ context.Context, req types.SearchRequest) (*types.SearchResult, error) {
		return types.EmptySearchResult(), nil
	})

	h.controller.Start()
	h.spawner.RunAll()

	if h.renderer.empty != MessageNoResults {
		t.Errorf("expected empty state, got %q", h.renderer.empty)
	}
	if h.controller.HasMore() {
		t.Error("expected no more results")
	}
}

func TestController_SelectionResync(t *testing.T) {
	preselected := &types.MediaItem{SourceID: "pexels", SourceItemID: "-1-0"}

	h := newHarness(t, morePages)
	h.selection.Add(preselected)

	h.controller.Start()
	h.spawner.RunAll()

	tiles := h.renderer.Tiles()
	if !tiles[0].Selected {
		t.Error("expected an already selected item to render selected")
	}
	if tiles[1].Selected {
		t.Error("expected the other item to render unselected")
	}

	second := tiles[1].Item
	if !h.controller.Toggle(second) {
		t.Fatal("expected toggle to select the item")
	}
	if !h.renderer.Selected(second.Key()) {
		t.Error("expected tile to reflect the selection")
	}

	// Removal through the manager, e.g. from another view.
	h.selection.Remove(second.Key())
	if h.renderer.Selected(second.Key()) {
		t.Error("expected tile to reflect the removal")
	}

	// Items of other sources are ignored.
	h.selection.Add(&types.MediaItem{SourceID: "google-drive", SourceItemID: "-1-1"})
	if h.renderer.Selected(types.ItemKey{SourceID: "google-drive", SourceItemID: "-1-1"}) {
		t.Error("expected other sources to be ignored")
	}

	h.selection.Clear()
	if h.renderer.Selected(preselected.Key()) {
		t.Error("expected clear to deselect every tile")
	}
}

func TestController_CloseDropsResponses(t *testing.T) {
	h := newHarness(t, morePages)

	h.controller.Start()
	h.controller.Close()
	h.spawner.RunAll()

	if got := len(h.renderer.Tiles()); got != 0 {
		t.Errorf("expected no tiles after close, got %d", got)
	}

	h.controller.SetQuery("late")
	h.scheduler.Advance(time.Second)
	if h.spawner.Len() != 0 {
		t.Error("expected no requests after close")
	}
}

func TestNewTile(t *testing.T) {
	tests := []struct {
		name      string
		item      *types.MediaItem
		wantWidth int
		preview   string
	}{
		{
			name:      "landscape",
			item:      &types.MediaItem{Width: 1920, Height: 1080, Thumbnail: "t.jpg"},
			wantWidth: 267,
			preview:   "t.jpg",
		},
		{
			name:      "unknown size",
			item:      &types.MediaItem{Thumbnail: "t.jpg"},
			wantWidth: TileHeight,
			preview:   "t.jpg",
		},
		{
			name: "video",
			item: &types.MediaItem{
				Type: types.MediaTypeVideo, Width: 1080, Height: 1920,
				Thumbnail: "file.mp4", VideoThumbnail: "poster.jpg",
			},
			wantWidth: 84,
			preview:   "poster.jpg",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tile := newTile(tt.item, false)
			if tile.Width != tt.wantWidth {
				t.Errorf("width = %d, want %d", tile.Width, tt.wantWidth)
			}
			if tile.Preview != tt.preview {
				t.Errorf("preview = %q, want %q", tile.Preview, tt.preview)
			}
		})
	}
}
