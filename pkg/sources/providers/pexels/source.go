package pexels

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/modularwp/media-import/pkg/settings"
	"github.com/modularwp/media-import/pkg/sources/types"
)

const (
	SourceID = "pexels"

	// SearchAction is the admin-ajax action that dispatches to this source.
	SearchAction = "media_import_pexels_search"
	// NonceAction scopes the authenticity token accepted by SearchAction.
	NonceAction = "media_import_pexels"

	CredentialAPIKey = "pexels_api_key"

	TypePhoto = "photo"
	TypeVideo = "video"

	DefaultPerPage = 30
)

type Source struct {
	client      *Client
	credentials types.Credentials
	perPage     int
	logger      *zerolog.Logger
}

var (
	_ types.Source               = (*Source)(nil)
	_ types.Importer             = (*Source)(nil)
	_ types.ClientConfigProvider = (*Source)(nil)
	_ settings.Provider          = (*Source)(nil)
)

func NewSource(client *Client, credentials types.Credentials, perPage int, logger *zerolog.Logger) *Source {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}

	return &Source{
		client:      client,
		credentials: credentials,
		perPage:     perPage,
		logger:      logger,
	}
}

func (s *Source) ID() string {
	return SourceID
}

func (s *Source) Label() string {
	return "Pexels"
}

func (s *Source) Search(ctx context.Context, req types.SearchRequest) (*types.SearchResult, error) {
	apiKey := s.credentials.Get(CredentialAPIKey)
	if apiKey == "" {
		return nil, types.ConfigurationError{
			Source:  SourceID,
			Message: "Please configure your Pexels API key in the settings.",
		}
	}

	kind := req.Type
	if kind == "" {
		kind = TypePhoto
	}

	page := req.Page
	if page < 1 {
		page = 1
	}

	params := listParams{Query: req.Query, Page: page, PerPage: s.perPage}

	switch kind {
	case TypePhoto:
		return s.searchPhotos(ctx, apiKey, params)
	case TypeVideo:
		return s.searchVideos(ctx, apiKey, params)
	default:
		return nil, types.ValidationError{Field: "type", Reason: "Invalid media type"}
	}
}

func (s *Source) searchPhotos(ctx context.Context, apiKey string, params listParams) (*types.SearchResult, error) {
	res, err := s.client.Photos(ctx, apiKey, params)
	if err != nil {
		return nil, fmt.Errorf("list photos: %w", err)
	}

	items := make([]*types.MediaItem, 0, len(*res.Photos))
	for _, p := range *res.Photos {
		items = append(items, normalizePhoto(p))
	}

	return s.result(items, res.Page, res.PerPage, res.TotalResults, params), nil
}

func (s *Source) searchVideos(ctx context.Context, apiKey string, params listParams) (*types.SearchResult, error) {
	res, err := s.client.Videos(ctx, apiKey, params)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}

	items := make([]*types.MediaItem, 0, len(*res.Videos))
	for _, v := range *res.Videos {
		item, ok := normalizeVideo(v)
		if !ok {
			s.logger.Warn().
				Int64("video_id", v.ID).
				Msg("Skipping pexels video without renditions")
			continue
		}
		items = append(items, item)
	}

	return s.result(items, res.Page, res.PerPage, res.TotalResults, params), nil
}

func (s *Source) result(items []*types.MediaItem, page, perPage int, total *int, params listParams) *types.SearchResult {
	// Older responses omit the echo of the paging parameters.
	if page == 0 {
		page = params.Page
	}
	if perPage == 0 {
		perPage = params.PerPage
	}

	out := &types.SearchResult{
		Items:   items,
		Total:   len(items),
		HasMore: hasMore(page, perPage, total, len(items)),
	}
	if total != nil {
		out.Total = *total
	}
	return out
}

// HandleImport resolves the download request for a picked Pexels asset.
// Pexels assets are public, so no credentials are forwarded.
func (s *Source) HandleImport(_ context.Context, req types.ImportRequest) (*types.ImportResult, error) {
	if req.URL == "" {
		return nil, types.ValidationError{Field: "url", Reason: "Missing required Pexels data"}
	}

	filename := req.CustomFilename
	if filename == "" {
		filename = req.Filename
	}
	if filename == "" {
		filename = types.FilenameFromURL(req.URL)
	}

	return &types.ImportResult{
		URL:      req.URL,
		Filename: types.SanitizeFilename(filename),
		Type:     req.MimeType,
		Headers: map[string]string{
			"Accept": "*/*",
		},
	}, nil
}

func (s *Source) ClientConfig() (map[string]any, error) {
	return map[string]any{
		"sourceId":   SourceID,
		"action":     SearchAction,
		"perPage":    s.perPage,
		"mediaTypes": []string{TypePhoto, TypeVideo},
		"i18n": map[string]string{
			"noResults": "No results found",
			"error":     types.MessageLoadingError,
		},
	}, nil
}

func (s *Source) SettingsSection() settings.Section {
	return settings.Section{
		ID:          SourceID,
		Title:       "Pexels Settings",
		Description: "Enter your Pexels API key. You can get one at https://www.pexels.com/api/",
		KeepEmpty:   true,
		Fields: []settings.Field{
			{Key: CredentialAPIKey, Label: "Pexels API Key", Kind: settings.FieldKindText},
		},
	}
}
