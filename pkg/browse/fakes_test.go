package browse

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/modularwp/media-import/pkg/sources/types"
)

type fakeTimer struct {
	s       *fakeScheduler
	at      time.Duration
	f       func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	wasActive := !t.stopped
	t.stopped = true
	return wasActive
}

type fakeScheduler struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*fakeTimer
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{s: s, at: s.now + d, f: f}
	s.timers = append(s.timers, t)
	return t
}

// Advance moves the clock forward and runs every timer that came due, in order.
func (s *fakeScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	target := s.now + d
	s.mu.Unlock()

	for {
		s.mu.Lock()
		sort.SliceStable(s.timers, func(i, j int) bool { return s.timers[i].at < s.timers[j].at })
		var due *fakeTimer
		for i, t := range s.timers {
			if t.stopped {
				continue
			}
			if t.at <= target {
				due = t
				s.timers = append(s.timers[:i], s.timers[i+1:]...)
				break
			}
		}
		if due == nil {
			s.now = target
			s.mu.Unlock()
			return
		}
		s.now = due.at
		due.stopped = true
		s.mu.Unlock()

		due.f()
	}
}

// spawner queues requests so tests decide when responses arrive.
type spawner struct {
	mu      sync.Mutex
	pending []func()
}

func (s *spawner) Go(f func()) {
	s.mu.Lock()
	s.pending = append(s.pending, f)
	s.mu.Unlock()
}

func (s *spawner) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Run completes the i-th queued request.
func (s *spawner) Run(i int) {
	s.mu.Lock()
	f := s.pending[i]
	s.pending = append(s.pending[:i], s.pending[i+1:]...)
	s.mu.Unlock()
	f()
}

func (s *spawner) RunAll() {
	for s.Len() > 0 {
		s.Run(0)
	}
}

type searchFunc func(ctx context.Context, req types.SearchRequest) (*types.SearchResult, error)

type fakeSearcher struct {
	mu       sync.Mutex
	requests []types.SearchRequest
	fn       searchFunc
}

func (f *fakeSearcher) Search(ctx context.Context, req types.SearchRequest) (*types.SearchResult, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	fn := f.fn
	f.mu.Unlock()
	return fn(ctx, req)
}

func (f *fakeSearcher) Requests() []types.SearchRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]types.SearchRequest(nil), f.requests...)
}

type fakeRenderer struct {
	mu       sync.Mutex
	tiles    []Tile
	selected map[types.ItemKey]bool
	loading  bool
	empty    string
	err      string
	resets   int
}

func newFakeRenderer() *fakeRenderer {
	return &fakeRenderer{selected: make(map[types.ItemKey]bool)}
}

func (r *fakeRenderer) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tiles = nil
	r.selected = make(map[types.ItemKey]bool)
	r.empty = ""
	r.resets++
}

func (r *fakeRenderer) Append(tiles []Tile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tiles = append(r.tiles, tiles...)
	for _, t := range tiles {
		r.selected[t.Item.Key()] = t.Selected
	}
}

func (r *fakeRenderer) SetSelected(key types.ItemKey, selected bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.selected[key] = selected
}

func (r *fakeRenderer) ClearSelected() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k := range r.selected {
		r.selected[k] = false
	}
}

func (r *fakeRenderer) SetLoading(loading bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loading = loading
}

func (r *fakeRenderer) ShowEmpty(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.empty = message
}

func (r *fakeRenderer) ShowError(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = message
}

func (r *fakeRenderer) ClearError() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = ""
}

func (r *fakeRenderer) Tiles() []Tile {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Tile(nil), r.tiles...)
}

func (r *fakeRenderer) Error() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func (r *fakeRenderer) Selected(key types.ItemKey) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.selected[key]
}

type fakeViewport struct {
	mu      sync.Mutex
	metrics ScrollMetrics
}

func (v *fakeViewport) Metrics() ScrollMetrics {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.metrics
}

func (v *fakeViewport) Set(m ScrollMetrics) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.metrics = m
}
