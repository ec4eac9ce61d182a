// Package browse drives an incrementally loaded search results view for one source.
package browse

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/modularwp/media-import/pkg/selection"
	"github.com/modularwp/media-import/pkg/sources/types"
)

type State int

const (
	StateIdle State = iota
	StateSearching
	StateRendering
	StateAwaitingMore
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSearching:
		return "searching"
	case StateRendering:
		return "rendering"
	case StateAwaitingMore:
		return "awaiting_more"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

const MessageNoResults = "No results found"

type Searcher interface {
	Search(ctx context.Context, req types.SearchRequest) (*types.SearchResult, error)
}

type Options struct {
	SourceID string
	// MediaType is the initial type selector value, e.g. "photo".
	MediaType string

	SearchDebounce time.Duration
	ScrollDebounce time.Duration
	ResizeDebounce time.Duration
	// SettleDelay is how long after rendering a page the fill check runs.
	SettleDelay  time.Duration
	ErrorTimeout time.Duration
	ScrollBuffer int

	Scheduler Scheduler
	// Go runs a request off the caller's goroutine.
	Go func(func())
}

func DefaultOptions(sourceID string) Options {
	return Options{
		SourceID:       sourceID,
		SearchDebounce: 500 * time.Millisecond,
		ScrollDebounce: 100 * time.Millisecond,
		ResizeDebounce: 250 * time.Millisecond,
		SettleDelay:    100 * time.Millisecond,
		ErrorTimeout:   5 * time.Second,
		ScrollBuffer:   300,
	}
}

// Controller loads pages of results for one source as the user types and scrolls.
// At most one request is in flight. A new search supersedes the previous one
// and any response belonging to an older search is discarded.
type Controller struct {
	opts      Options
	searcher  Searcher
	selection *selection.Manager
	renderer  Renderer
	viewport  Viewport
	logger    *zerolog.Logger

	mu        sync.Mutex
	query     string
	mediaType string
	page      int
	hasMore   bool
	loading   bool
	state     State
	seq       uint64
	cancel    context.CancelFunc
	rendered  map[types.ItemKey]bool
	closed    bool

	search   *debouncer
	scroll   *debouncer
	resize   *debouncer
	settle   *debouncer
	errClear *debouncer

	unsubscribe func()
}

func NewController(
	searcher Searcher,
	sel *selection.Manager,
	renderer Renderer,
	viewport Viewport,
	opts Options,
	logger *zerolog.Logger,
) *Controller {
	if opts.Scheduler == nil {
		opts.Scheduler = SystemScheduler
	}
	if opts.Go == nil {
		opts.Go = func(f func()) { go f() }
	}

	l := logger.With().Str("source", opts.SourceID).Logger()

	c := &Controller{
		opts:      opts,
		searcher:  searcher,
		selection: sel,
		renderer:  renderer,
		viewport:  viewport,
		logger:    &l,
		mediaType: opts.MediaType,
		hasMore:   true,
		rendered:  make(map[types.ItemKey]bool),
		search:    &debouncer{scheduler: opts.Scheduler, delay: opts.SearchDebounce},
		scroll:    &debouncer{scheduler: opts.Scheduler, delay: opts.ScrollDebounce},
		resize:    &debouncer{scheduler: opts.Scheduler, delay: opts.ResizeDebounce},
		settle:    &debouncer{scheduler: opts.Scheduler, delay: opts.SettleDelay},
		errClear:  &debouncer{scheduler: opts.Scheduler, delay: opts.ErrorTimeout},
	}

	c.unsubscribe = sel.Subscribe(c.onSelectionChange)

	return c
}

// Start loads the first page for the current query without waiting.
func (c *Controller) Start() {
	c.mu.Lock()
	fetch := c.resetLocked()
	c.mu.Unlock()

	c.run(fetch)
}

// SetQuery schedules a new search once typing pauses.
func (c *Controller) SetQuery(query string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.query = query
	c.scheduleSearchLocked()
}

// SetMediaType schedules a new search for another media type.
func (c *Controller) SetMediaType(mediaType string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.mediaType = mediaType
	c.scheduleSearchLocked()
}

// OnScroll loads the next page once scrolling settles near the bottom.
func (c *Controller) OnScroll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.scroll.trigger(func(gen uint64) { c.fire(c.scroll, gen, c.nearBottomLocked) })
}

// OnResize re-checks whether the content still fills the view once resizing settles.
func (c *Controller) OnResize() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.resize.trigger(func(gen uint64) { c.fire(c.resize, gen, c.underfilledLocked) })
}

// Toggle flips the selection state of a rendered item.
// The tile is updated through the selection change notification.
func (c *Controller) Toggle(item *types.MediaItem) bool {
	return c.selection.Toggle(item)
}

func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.seq++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	for _, d := range []*debouncer{c.search, c.scroll, c.resize, c.settle, c.errClear} {
		d.stop()
	}
	c.mu.Unlock()

	c.unsubscribe()
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Page is the last page rendered for the current search, 0 before the first response.
func (c *Controller) Page() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.page
}

func (c *Controller) HasMore() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hasMore
}

func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

func (c *Controller) scheduleSearchLocked() {
	if c.closed {
		return
	}

	c.clearErrorLocked()
	c.search.trigger(func(gen uint64) {
		c.mu.Lock()
		if c.closed || !c.search.current(gen) {
			c.mu.Unlock()
			return
		}
		fetch := c.resetLocked()
		c.mu.Unlock()

		c.run(fetch)
	})
}

// fire runs check for a debounced trigger and loads the next page when it passes.
func (c *Controller) fire(d *debouncer, gen uint64, check func() bool) {
	c.mu.Lock()
	if c.closed || !d.current(gen) || c.loading || !c.hasMore || !check() {
		c.mu.Unlock()
		return
	}
	fetch := c.nextLocked()
	c.mu.Unlock()

	c.run(fetch)
}

func (c *Controller) nearBottomLocked() bool {
	if c.viewport == nil {
		return false
	}
	return c.viewport.Metrics().NearBottom(c.opts.ScrollBuffer)
}

func (c *Controller) underfilledLocked() bool {
	if c.viewport == nil {
		return false
	}
	return !c.viewport.Metrics().Scrollable()
}

// resetLocked starts a new search session and returns the request for page 1.
func (c *Controller) resetLocked() func() {
	c.seq++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}

	c.page = 0
	c.hasMore = true
	c.loading = false
	c.rendered = make(map[types.ItemKey]bool)
	c.settle.stop()
	c.scroll.stop()
	c.renderer.Reset()

	return c.nextLocked()
}

// nextLocked marks a request for the next page as in flight. It returns nil
// when a request is already outstanding or there is nothing more to load.
func (c *Controller) nextLocked() func() {
	if c.closed || c.loading || !c.hasMore {
		return nil
	}

	c.loading = true
	c.state = StateSearching
	c.renderer.SetLoading(true)

	seq := c.seq
	req := types.SearchRequest{
		SourceID: c.opts.SourceID,
		Query:    c.query,
		Page:     c.page + 1,
		Type:     c.mediaType,
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	c.logger.Debug().
		Str("query", req.Query).
		Str("type", req.Type).
		Int("page", req.Page).
		Uint64("seq", seq).
		Msg("Requesting results page")

	return func() {
		res, err := c.searcher.Search(ctx, req)
		cancel()
		c.complete(seq, req.Page, res, err)
	}
}

func (c *Controller) run(fetch func()) {
	if fetch != nil {
		c.opts.Go(fetch)
	}
}

func (c *Controller) complete(seq uint64, page int, res *types.SearchResult, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || seq != c.seq {
		c.logger.Debug().
			Uint64("seq", seq).
			Uint64("current_seq", c.seq).
			Int("page", page).
			Msg("Discarding stale results page")
		return
	}

	c.loading = false
	c.cancel = nil
	c.renderer.SetLoading(false)

	if err == nil && res == nil {
		err = types.InvalidResponseError{Service: c.opts.SourceID, Reason: "empty result"}
	}
	if err != nil {
		c.logger.Warn().Err(err).Int("page", page).Msg("Failed to load results page")
		c.state = StateError
		c.showErrorLocked(errorMessage(err))
		return
	}

	c.state = StateRendering
	c.page = page
	c.hasMore = res.HasMore

	tiles := make([]Tile, 0, len(res.Items))
	for _, item := range res.Items {
		key := item.Key()
		if c.rendered[key] {
			continue
		}
		c.rendered[key] = true
		tiles = append(tiles, newTile(item, c.selection.Has(key)))
	}
	c.renderer.Append(tiles)

	if page == 1 && len(res.Items) == 0 {
		c.renderer.ShowEmpty(MessageNoResults)
	}

	if !c.hasMore {
		c.state = StateIdle
		return
	}

	c.state = StateAwaitingMore
	c.settle.trigger(func(gen uint64) { c.fire(c.settle, gen, c.underfilledLocked) })
}

func (c *Controller) showErrorLocked(message string) {
	c.renderer.ShowError(message)
	c.errClear.trigger(func(gen uint64) {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.closed || !c.errClear.current(gen) {
			return
		}
		c.renderer.ClearError()
	})
}

func (c *Controller) clearErrorLocked() {
	c.errClear.stop()
	c.renderer.ClearError()
	if c.state == StateError {
		c.state = StateIdle
	}
}

func (c *Controller) onSelectionChange(e selection.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	switch e.Type {
	case selection.EventItemAdded, selection.EventItemRemoved:
		if e.Key.SourceID != c.opts.SourceID || !c.rendered[e.Key] {
			return
		}
		c.renderer.SetSelected(e.Key, e.Type == selection.EventItemAdded)
	case selection.EventCleared:
		c.renderer.ClearSelected()
	}
}

// errorMessage flattens err for display. Failures outside the error taxonomy
// are reported as a loading error.
func errorMessage(err error) string {
	var remote *RemoteError
	if errors.As(err, &remote) && remote.Message != "" {
		return remote.Message
	}

	msg := types.UserMessage(err)
	if msg == types.MessageServerError {
		return types.MessageLoadingError
	}
	return msg
}
