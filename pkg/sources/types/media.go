package types

import (
	"strings"
)

type MediaType string

const (
	MediaTypeImage   MediaType = "image"
	MediaTypeVideo   MediaType = "video"
	MediaTypeAudio   MediaType = "audio"
	MediaTypeUnknown MediaType = "unknown"
)

// MediaTypeFromMIME maps a MIME type to its top-level media kind.
func MediaTypeFromMIME(mimeType string) MediaType {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return MediaTypeImage
	case strings.HasPrefix(mimeType, "video/"):
		return MediaTypeVideo
	case strings.HasPrefix(mimeType, "audio/"):
		return MediaTypeAudio
	default:
		return MediaTypeUnknown
	}
}

// ItemKey identifies an item across sources.
type ItemKey struct {
	SourceID     string `json:"sourceId"`
	SourceItemID string `json:"sourceItemId"`
}

func (k ItemKey) String() string {
	return k.SourceID + ":" + k.SourceItemID
}

// MediaItem is the normalized unit every source produces.
type MediaItem struct {
	ID             string    `json:"id"`
	SourceID       string    `json:"sourceId"`
	SourceItemID   string    `json:"sourceItemId"`
	Title          string    `json:"title"`
	Thumbnail      string    `json:"thumbnail"`
	VideoThumbnail string    `json:"videoThumbnail,omitempty"`
	URL            string    `json:"url"`
	Type           MediaType `json:"type"`
	MimeType       string    `json:"mimeType"`
	Width          int       `json:"width,omitempty"`
	Height         int       `json:"height,omitempty"`
	Duration       int       `json:"duration,omitempty"`
	FPS            float64   `json:"fps,omitempty"`
	Quality        string    `json:"quality,omitempty"`
	Attribution    string    `json:"attribution"`
	Filesize       string    `json:"filesize,omitempty"`
	CustomFilename string    `json:"customFilename,omitempty"`
	FileInfo       *FileInfo `json:"file_info,omitempty"`
}

func (m *MediaItem) Key() ItemKey {
	return ItemKey{SourceID: m.SourceID, SourceItemID: m.SourceItemID}
}

// PreviewURL is the image shown for the item in a results grid.
func (m *MediaItem) PreviewURL() string {
	if m.Type == MediaTypeVideo && m.VideoThumbnail != "" {
		return m.VideoThumbnail
	}
	return m.Thumbnail
}

// FileInfo carries what a source needs to later fetch the binary.
type FileInfo struct {
	Type           string            `json:"type,omitempty"`
	Filename       string            `json:"filename,omitempty"`
	MimeType       string            `json:"mimeType,omitempty"`
	CustomFilename string            `json:"customFilename,omitempty"`
	Headers        map[string]string `json:"headers,omitempty"`
	Authorization  string            `json:"authorization,omitempty"`
	AuthHeader     string            `json:"auth_header,omitempty"`
}

// SearchResult is one page of normalized items.
// Items is never nil so that it encodes as an empty JSON array.
type SearchResult struct {
	Items   []*MediaItem `json:"items"`
	Total   int          `json:"total"`
	HasMore bool         `json:"hasMore"`
}

func EmptySearchResult() *SearchResult {
	return &SearchResult{Items: []*MediaItem{}}
}
