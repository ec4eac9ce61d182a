package types

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestMediaTypeFromMIME(t *testing.T) {
	tests := map[string]MediaType{
		"image/png":       MediaTypeImage,
		"video/quicktime": MediaTypeVideo,
		"audio/mpeg":      MediaTypeAudio,
		"application/pdf": MediaTypeUnknown,
		"":                MediaTypeUnknown,
	}

	for mime, want := range tests {
		if got := MediaTypeFromMIME(mime); got != want {
			t.Errorf("MediaTypeFromMIME(%q) = %q, want %q", mime, got, want)
		}
	}
}

func TestMediaItem_PreviewURL(t *testing.T) {
	video := &MediaItem{Type: MediaTypeVideo, Thumbnail: "t", VideoThumbnail: "v"}
	if video.PreviewURL() != "v" {
		t.Errorf("expected video thumbnail, got %q", video.PreviewURL())
	}

	photo := &MediaItem{Type: MediaTypeImage, Thumbnail: "t", VideoThumbnail: "v"}
	if photo.PreviewURL() != "t" {
		t.Errorf("expected thumbnail, got %q", photo.PreviewURL())
	}
}

func TestEmptySearchResult_EncodesEmptyArray(t *testing.T) {
	out, err := json.Marshal(EmptySearchResult())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), `"items":[]`) {
		t.Errorf("expected empty items array, got %s", out)
	}
	if !strings.Contains(string(out), `"hasMore":false`) {
		t.Errorf("expected hasMore false, got %s", out)
	}
}
