package sources

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/rs/zerolog"

	"github.com/modularwp/media-import/pkg/lib"
	"github.com/modularwp/media-import/pkg/sources/types"
)

// Registry holds the sources configured for this process.
// Sources are constructed explicitly and registered once at startup.
type Registry struct {
	mu      sync.RWMutex
	sources map[string]types.Source
	order   []string

	observer searchObserver
	logger   *zerolog.Logger
}

type searchObserver interface {
	ObserveSearch(sourceID string, err error, elapsed time.Duration)
}

func NewRegistry(logger *zerolog.Logger) *Registry {
	return &Registry{
		sources: make(map[string]types.Source),
		logger:  logger,
	}
}

// WithObserver reports every dispatched search to o.
func (r *Registry) WithObserver(o searchObserver) *Registry {
	r.observer = o
	return r
}

func (r *Registry) Register(source types.Source) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := source.ID()
	if id == "" {
		return errors.New("source id is empty")
	}
	if _, exists := r.sources[id]; exists {
		return fmt.Errorf("source '%s' already registered", id)
	}

	r.sources[id] = source
	r.order = append(r.order, id)

	r.logger.Info().
		Str("source", id).
		Str("label", source.Label()).
		Msg("Registered source")

	return nil
}

func (r *Registry) Get(id string) (types.Source, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	source, ok := r.sources[id]
	if !ok {
		return nil, types.ValidationError{Field: "source", Reason: "Invalid source"}
	}
	return source, nil
}

// List returns sources in registration order.
func (r *Registry) List() []types.Source {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]types.Source, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.sources[id])
	}
	return out
}

// Find returns sources whose id or label fuzzily matches query, best matches first.
// An empty query returns every source.
func (r *Registry) Find(query string) []types.Source {
	all := r.List()
	if query == "" {
		return all
	}

	targets := make([]string, 0, len(all)*2)
	owners := make([]int, 0, len(all)*2)
	for i, s := range all {
		targets = append(targets, s.ID(), s.Label())
		owners = append(owners, i, i)
	}

	ranks := fuzzy.RankFindNormalizedFold(query, targets)
	sort.Stable(ranks)

	seen := make(map[int]bool)
	out := make([]types.Source, 0, len(ranks))
	for _, rank := range ranks {
		owner := owners[rank.OriginalIndex]
		if seen[owner] {
			continue
		}
		seen[owner] = true
		out = append(out, all[owner])
	}
	return out
}

// Search validates req and dispatches it to the requested source.
func (r *Registry) Search(ctx context.Context, req types.SearchRequest) (*types.SearchResult, error) {
	if err := validateRequest(&req); err != nil {
		return nil, err
	}

	source, err := r.Get(req.SourceID)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result, err := source.Search(ctx, req)
	if r.observer != nil {
		r.observer.ObserveSearch(req.SourceID, err, time.Since(start))
	}
	if err != nil {
		r.logger.Warn().
			Err(err).
			Str("source", req.SourceID).
			Int("page", req.Page).
			Msg("Search failed")
		return nil, err
	}

	if result.Items == nil {
		result.Items = []*types.MediaItem{}
	}

	return result, nil
}

// Import resolves how to download an item. Sources without an import
// handler are downloaded from the item URL without extra headers.
func (r *Registry) Import(ctx context.Context, req types.ImportRequest) (*types.ImportResult, error) {
	if err := validateRequest(&req); err != nil {
		return nil, err
	}

	source, err := r.Get(req.SourceID)
	if err != nil {
		return nil, err
	}

	importer, ok := source.(types.Importer)
	if !ok {
		filename := req.CustomFilename
		if filename == "" {
			filename = types.FilenameFromURL(req.URL)
		}
		return &types.ImportResult{
			URL:      req.URL,
			Filename: types.SanitizeFilename(filename),
			Type:     req.MimeType,
			Headers:  map[string]string{},
		}, nil
	}

	out, err := importer.HandleImport(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("handle import: %w", err)
	}
	return out, nil
}

// ClientConfig returns browser configuration for a source, or an empty map.
func (r *Registry) ClientConfig(id string) (map[string]any, error) {
	source, err := r.Get(id)
	if err != nil {
		return nil, err
	}

	provider, ok := source.(types.ClientConfigProvider)
	if !ok {
		return map[string]any{"sourceId": id}, nil
	}
	return provider.ClientConfig()
}

func validateRequest(req any) error {
	err := lib.ValidateStruct(req)
	if err == nil {
		return nil
	}

	var ve lib.ValidationErrors
	if errors.As(err, &ve) && len(ve.Fields) > 0 {
		field := ve.Fields[0].Field
		return types.ValidationError{Field: field, Reason: "Invalid " + field}
	}
	return types.ValidationError{Reason: err.Error()}
}
