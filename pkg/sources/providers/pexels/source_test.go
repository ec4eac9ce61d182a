package pexels

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"

	"github.com/modularwp/media-import/pkg/sources/types"
)

func newTestSource(t *testing.T, handler http.HandlerFunc, apiKey string) (*Source, *int32) {
	t.Helper()

	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	logger := zerolog.Nop()
	client, err := NewClient(server.Client(), server.URL+"/", &logger)
	if err != nil {
		t.Fatal(err)
	}

	creds := types.StaticCredentials{CredentialAPIKey: apiKey}
	return NewSource(client, creds, 30, &logger), &calls
}

func TestSource_SearchEndpoints(t *testing.T) {
	tests := []struct {
		name      string
		req       types.SearchRequest
		wantPath  string
		wantQuery string
		body      string
	}{
		{
			name:     "empty photo query lists curated",
			req:      types.SearchRequest{Page: 1},
			wantPath: "/v1/curated",
			body:     `{"page":1,"per_page":30,"photos":[]}`,
		},
		{
			name:      "photo search",
			req:       types.SearchRequest{Query: "cats", Page: 2, Type: TypePhoto},
			wantPath:  "/v1/search",
			wantQuery: "cats",
			body:      `{"page":2,"per_page":30,"total_results":100,"photos":[]}`,
		},
		{
			name:     "empty video query lists popular",
			req:      types.SearchRequest{Page: 1, Type: TypeVideo},
			wantPath: "/videos/popular",
			body:     `{"page":1,"per_page":30,"videos":[]}`,
		},
		{
			name:      "video search",
			req:       types.SearchRequest{Query: "ocean", Page: 1, Type: TypeVideo},
			wantPath:  "/videos/search",
			wantQuery: "ocean",
			body:      `{"page":1,"per_page":30,"total_results":5,"videos":[]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source, calls := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != tt.wantPath {
					t.Errorf("path = %q, want %q", r.URL.Path, tt.wantPath)
				}
				if got := r.URL.Query().Get("query"); got != tt.wantQuery {
					t.Errorf("query = %q, want %q", got, tt.wantQuery)
				}
				if got := r.URL.Query().Get("per_page"); got != "30" {
					t.Errorf("per_page = %q, want 30", got)
				}
				if got := r.Header.Get("Authorization"); got != "secret" {
					t.Errorf("authorization = %q, want raw key", got)
				}
				w.Write([]byte(tt.body))
			}, "secret")

			res, err := source.Search(context.Background(), tt.req)
			if err != nil {
				t.Fatalf("Search() error = %v", err)
			}
			if res.Items == nil {
				t.Error("expected non-nil items")
			}
			if *calls != 1 {
				t.Errorf("expected exactly one upstream call, got %d", *calls)
			}
		})
	}
}

func TestSource_SearchPhotosResult(t *testing.T) {
	source, _ := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"page": 1, "per_page": 30, "total_results": 31,
			"photos": [{"id": 7, "width": 10, "height": 20, "photographer": "Kim",
				"src": {"original": "https://p/7.jpeg", "medium": "https://p/7-m.jpeg"}}]
		}`))
	}, "secret")

	res, err := source.Search(context.Background(), types.SearchRequest{Query: "x", Page: 1})
	if err != nil {
		t.Fatal(err)
	}

	if res.Total != 31 || !res.HasMore {
		t.Errorf("unexpected paging total=%d hasMore=%v", res.Total, res.HasMore)
	}
	if len(res.Items) != 1 || res.Items[0].URL != "https://p/7.jpeg" {
		t.Errorf("unexpected items %+v", res.Items)
	}
}

func TestSource_SearchVideosSkipsEmptyRenditions(t *testing.T) {
	source, _ := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"page": 1, "per_page": 30, "total_results": 2,
			"videos": [
				{"id": 1, "image": "https://v/1.jpg", "user": {"name": "A"}, "video_files": []},
				{"id": 2, "image": "https://v/2.jpg", "user": {"name": "B"},
				 "video_files": [{"file_type": "video/mp4", "height": 720, "link": "https://v/2.mp4"}]}
			]
		}`))
	}, "secret")

	res, err := source.Search(context.Background(), types.SearchRequest{Page: 1, Type: TypeVideo})
	if err != nil {
		t.Fatal(err)
	}

	if len(res.Items) != 1 || res.Items[0].SourceItemID != "2" {
		t.Fatalf("expected only video 2, got %+v", res.Items)
	}
	if res.Total != 2 || res.HasMore {
		t.Errorf("unexpected paging total=%d hasMore=%v", res.Total, res.HasMore)
	}
}

func TestSource_SearchErrors(t *testing.T) {
	t.Run("missing api key makes no call", func(t *testing.T) {
		source, calls := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {}, "")

		_, err := source.Search(context.Background(), types.SearchRequest{Page: 1})

		var configErr types.ConfigurationError
		if !errors.As(err, &configErr) {
			t.Fatalf("expected ConfigurationError, got %v", err)
		}
		if *calls != 0 {
			t.Errorf("expected no upstream call, got %d", *calls)
		}
	})

	t.Run("rate limited", func(t *testing.T) {
		source, _ := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}, "secret")

		_, err := source.Search(context.Background(), types.SearchRequest{Page: 1})

		var upstream types.UpstreamError
		if !errors.As(err, &upstream) {
			t.Fatalf("expected UpstreamError, got %v", err)
		}
		if upstream.StatusCode != http.StatusTooManyRequests {
			t.Errorf("status = %d, want 429", upstream.StatusCode)
		}
		if types.UserMessage(err) != "Pexels API error (status 429)" {
			t.Errorf("unexpected message %q", types.UserMessage(err))
		}
	})

	t.Run("malformed json", func(t *testing.T) {
		source, _ := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{not json`))
		}, "secret")

		_, err := source.Search(context.Background(), types.SearchRequest{Page: 1})

		var invalid types.InvalidResponseError
		if !errors.As(err, &invalid) {
			t.Fatalf("expected InvalidResponseError, got %v", err)
		}
	})

	t.Run("missing top level key", func(t *testing.T) {
		source, _ := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"page":1,"videos":[]}`))
		}, "secret")

		_, err := source.Search(context.Background(), types.SearchRequest{Page: 1, Type: TypePhoto})

		var invalid types.InvalidResponseError
		if !errors.As(err, &invalid) {
			t.Fatalf("expected InvalidResponseError, got %v", err)
		}
	})

	t.Run("unknown type", func(t *testing.T) {
		source, calls := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {}, "secret")

		_, err := source.Search(context.Background(), types.SearchRequest{Page: 1, Type: "gif"})

		var validation types.ValidationError
		if !errors.As(err, &validation) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if *calls != 0 {
			t.Errorf("expected no upstream call, got %d", *calls)
		}
	})
}

func TestSource_HandleImport(t *testing.T) {
	source, _ := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {}, "secret")

	res, err := source.HandleImport(context.Background(), types.ImportRequest{
		SourceID: SourceID,
		URL:      "https://images.pexels.com/photos/7/pexels%20photo%207.jpeg?auto=compress",
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Filename != "pexels-photo-7.jpeg" {
		t.Errorf("filename = %q", res.Filename)
	}
	if res.Headers["Accept"] != "*/*" {
		t.Errorf("unexpected headers %v", res.Headers)
	}

	_, err = source.HandleImport(context.Background(), types.ImportRequest{SourceID: SourceID})
	var validation types.ValidationError
	if !errors.As(err, &validation) {
		t.Errorf("expected ValidationError for missing url, got %v", err)
	}
}
