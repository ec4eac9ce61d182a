package types

import (
	"context"
)

type SearchRequest struct {
	SourceID string `json:"source" validate:"required"`
	Query    string `json:"query"`
	Page     int    `json:"page" validate:"gte=1"`
	// Type is source specific, e.g. "photo" or "video".
	Type string `json:"type"`
}

type ImportRequest struct {
	SourceID       string    `json:"source" validate:"required"`
	URL            string    `json:"url" validate:"required"`
	Filename       string    `json:"filename"`
	CustomFilename string    `json:"customFilename"`
	MimeType       string    `json:"mimeType"`
	FileInfo       *FileInfo `json:"file_info"`
}

// ImportResult tells the importer how to download the final binary.
type ImportResult struct {
	URL      string            `json:"url"`
	Filename string            `json:"filename"`
	Type     string            `json:"type,omitempty"`
	Headers  map[string]string `json:"headers"`
}

type Source interface {
	// ID is constant per source, e.g. "pexels".
	ID() string
	// Label is a short human-readable name shown as a tab title.
	Label() string
	// Search performs exactly one upstream call and never retries.
	Search(ctx context.Context, req SearchRequest) (*SearchResult, error)
}

// Importer is implemented by sources that need to shape the download request.
type Importer interface {
	HandleImport(ctx context.Context, req ImportRequest) (*ImportResult, error)
}

// ClientConfigProvider exposes the configuration a browser client needs for a source.
type ClientConfigProvider interface {
	ClientConfig() (map[string]any, error)
}
