package pexels

import (
	"slices"
	"strconv"

	"github.com/modularwp/media-import/pkg/sources/types"
)

const mp4MimeType = "video/mp4"

// selectBestRendition returns the tallest MP4 rendition, or the tallest
// rendition of any container when no MP4 exists. The input is not reordered.
func selectBestRendition(files []videoFile) (videoFile, bool) {
	if len(files) == 0 {
		return videoFile{}, false
	}

	sorted := slices.Clone(files)
	slices.SortStableFunc(sorted, func(a, b videoFile) int {
		return b.Height - a.Height
	})

	for _, f := range sorted {
		if f.FileType == mp4MimeType {
			return f, true
		}
	}

	return sorted[0], true
}

func normalizePhoto(p photo) *types.MediaItem {
	id := strconv.FormatInt(p.ID, 10)

	title := p.Photographer
	if title == "" {
		title = "Pexels Photo"
	}

	return &types.MediaItem{
		ID:           id,
		SourceID:     SourceID,
		SourceItemID: id,
		Title:        title,
		Thumbnail:    p.Src.Medium,
		URL:          p.Src.Original,
		Type:         types.MediaTypeImage,
		MimeType:     "image/jpeg",
		Width:        p.Width,
		Height:       p.Height,
		Attribution:  attribution("Photo", p.Photographer),
	}
}

// normalizeVideo returns false for videos without any rendition.
func normalizeVideo(v video) (*types.MediaItem, bool) {
	file, ok := selectBestRendition(v.VideoFiles)
	if !ok {
		return nil, false
	}

	id := strconv.FormatInt(v.ID, 10)

	title := v.User.Name
	if title == "" {
		title = "Pexels Video"
	}

	quality := file.Quality
	if quality == "" {
		quality = "hd"
	}

	item := &types.MediaItem{
		ID:             id,
		SourceID:       SourceID,
		SourceItemID:   id,
		Title:          title,
		Thumbnail:      v.Image,
		VideoThumbnail: v.Image,
		URL:            file.Link,
		Type:           types.MediaTypeVideo,
		MimeType:       file.FileType,
		Width:          file.Width,
		Height:         file.Height,
		Duration:       v.Duration,
		Quality:        quality,
		Attribution:    attribution("Video", v.User.Name),
	}
	if file.FPS != nil {
		item.FPS = *file.FPS
	}

	return item, true
}

func attribution(kind, author string) string {
	if author == "" {
		return kind + " on Pexels"
	}
	return kind + " by " + author + " on Pexels"
}

// hasMore reports whether another page exists. Without a total it stays
// true until a page comes back empty.
func hasMore(page, perPage int, total *int, itemCount int) bool {
	if total == nil {
		return itemCount > 0
	}
	return page*perPage < *total
}
