package googledrive

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/alitto/pond/v2"
	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/modularwp/media-import/pkg/sources/types"
)

const (
	folderMimeType    = "application/vnd.google-apps.folder"
	googleAppsMarker  = "google-apps"
	metadataFields    = "id, name, mimeType, size, imageMediaMetadata"
	defaultFetchLimit = 8
)

// PickerMimeTypes are the document types offered in the picker.
var PickerMimeTypes = []string{
	"image/png",
	"image/jpeg",
	"image/gif",
	"video/mp4",
	"video/quicktime",
	"video/x-msvideo",
	"audio/mpeg",
	"audio/mp3",
	"audio/wav",
}

// PickedDocument is a document as reported by the picker widget.
type PickedDocument struct {
	ID       string `json:"id" validate:"required"`
	Name     string `json:"name"`
	MimeType string `json:"mimeType"`
}

func isImportable(mimeType string) bool {
	return mimeType != folderMimeType && !strings.Contains(mimeType, googleAppsMarker)
}

type metadataFetcher struct {
	apiBaseURL  string
	transport   http.RoundTripper
	concurrency int
	logger      *zerolog.Logger
}

// fetch loads metadata for every importable document and builds media items
// in the order the documents were picked. Failed documents are logged and skipped.
func (f *metadataFetcher) fetch(ctx context.Context, tok *oauth2.Token, apiKey string, docs []PickedDocument) ([]*types.MediaItem, error) {
	client := &http.Client{
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(tok),
			Base:   f.transport,
		},
	}

	svc, err := drive.NewService(ctx,
		option.WithHTTPClient(client),
		option.WithEndpoint(f.apiBaseURL),
	)
	if err != nil {
		return nil, err
	}

	results := make([]*types.MediaItem, len(docs))
	pool := pond.NewPool(f.concurrency)

	for i, doc := range docs {
		docLogger := f.logger.With().
			Str("file_id", doc.ID).
			Str("mime_type", doc.MimeType).
			Logger()

		if !isImportable(doc.MimeType) {
			docLogger.Debug().Msg("Skipping non-importable drive document")
			continue
		}

		pool.Submit(func() {
			file, err := svc.Files.Get(doc.ID).
				Fields(metadataFields).
				SupportsAllDrives(true).
				Context(ctx).
				Do()
			if err != nil {
				docLogger.Error().Err(err).Msg("Failed to load drive file metadata")
				return
			}

			if !isImportable(file.MimeType) {
				docLogger.Debug().Msg("Skipping non-importable drive file")
				return
			}

			results[i] = f.toMediaItem(file, tok.AccessToken, apiKey)
		})
	}

	pool.StopAndWait()

	items := make([]*types.MediaItem, 0, len(results))
	for _, item := range results {
		if item != nil {
			items = append(items, item)
		}
	}

	return items, nil
}

func (f *metadataFetcher) toMediaItem(file *drive.File, accessToken, apiKey string) *types.MediaItem {
	downloadURL := f.downloadURL(file.Id, apiKey)
	bearer := "Bearer " + accessToken

	item := &types.MediaItem{
		ID:             file.Id,
		SourceID:       SourceID,
		SourceItemID:   file.Id,
		Title:          file.Name,
		Thumbnail:      downloadURL,
		URL:            downloadURL,
		Type:           types.MediaTypeFromMIME(file.MimeType),
		MimeType:       file.MimeType,
		CustomFilename: file.Name,
		FileInfo: &types.FileInfo{
			Type:           file.MimeType,
			Filename:       file.Name,
			MimeType:       file.MimeType,
			CustomFilename: file.Name,
			Headers:        map[string]string{"Authorization": bearer},
			Authorization:  accessToken,
			AuthHeader:     bearer,
		},
	}

	if file.Size > 0 {
		item.Filesize = formatSize(file.Size)
	}
	if meta := file.ImageMediaMetadata; meta != nil {
		item.Width = int(meta.Width)
		item.Height = int(meta.Height)
	}

	return item
}

func (f *metadataFetcher) downloadURL(fileID, apiKey string) string {
	u, err := url.Parse(f.apiBaseURL)
	if err != nil {
		return ""
	}

	u = u.JoinPath("files", fileID)
	q := url.Values{}
	q.Set("alt", "media")
	q.Set("key", apiKey)
	u.RawQuery = q.Encode()

	return u.String()
}

// formatSize renders a byte count in binary steps with at most two decimals, e.g. "2.4 MB".
func formatSize(bytes int64) string {
	units := []string{"B", "KB", "MB", "GB"}

	size := float64(bytes)
	i := 0
	for size >= 1024 && i < len(units)-1 {
		size /= 1024
		i++
	}

	return humanize.FtoaWithDigits(size, 2) + " " + units[i]
}
