package pexels

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/modularwp/media-import/pkg/sources/types"
)

const serviceName = "Pexels"

type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	logger     *zerolog.Logger
}

// NewClient creates a client for the Pexels REST API rooted at baseURL,
// e.g. "https://api.pexels.com/". A nil httpClient uses a client with a 30s timeout.
func NewClient(httpClient *http.Client, baseURL string, logger *zerolog.Logger) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    u,
		logger:     logger,
	}, nil
}

type listParams struct {
	Query   string
	Page    int
	PerPage int
}

// Photos lists curated photos, or searches photos when a query is set.
func (c *Client) Photos(ctx context.Context, apiKey string, params listParams) (*photosResponse, error) {
	endpoint := "v1/curated"
	if params.Query != "" {
		endpoint = "v1/search"
	}

	var out photosResponse
	if err := c.get(ctx, apiKey, endpoint, params, &out); err != nil {
		return nil, err
	}
	if out.Photos == nil {
		return nil, types.InvalidResponseError{Service: serviceName, Reason: "missing photos key"}
	}
	return &out, nil
}

// Videos lists popular videos, or searches videos when a query is set.
func (c *Client) Videos(ctx context.Context, apiKey string, params listParams) (*videosResponse, error) {
	endpoint := "videos/popular"
	if params.Query != "" {
		endpoint = "videos/search"
	}

	var out videosResponse
	if err := c.get(ctx, apiKey, endpoint, params, &out); err != nil {
		return nil, err
	}
	if out.Videos == nil {
		return nil, types.InvalidResponseError{Service: serviceName, Reason: "missing videos key"}
	}
	return &out, nil
}

func (c *Client) get(ctx context.Context, apiKey, endpoint string, params listParams, out any) error {
	u := c.baseURL.JoinPath(endpoint)

	q := url.Values{}
	q.Set("page", strconv.Itoa(params.Page))
	q.Set("per_page", strconv.Itoa(params.PerPage))
	if params.Query != "" {
		q.Set("query", params.Query)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	// Pexels expects the raw key, without a scheme.
	req.Header.Set("Authorization", apiKey)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().
		Str("endpoint", endpoint).
		Int("page", params.Page).
		Msg("Requesting pexels listing")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return types.UpstreamError{
			Service:    serviceName,
			StatusCode: resp.StatusCode,
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return types.InvalidResponseError{Service: serviceName, Reason: err.Error()}
	}

	return nil
}

type photosResponse struct {
	Page         int      `json:"page"`
	PerPage      int      `json:"per_page"`
	TotalResults *int     `json:"total_results"`
	NextPage     string   `json:"next_page"`
	Photos       *[]photo `json:"photos"`
}

type photo struct {
	ID              int64     `json:"id"`
	Width           int       `json:"width"`
	Height          int       `json:"height"`
	URL             string    `json:"url"`
	Photographer    string    `json:"photographer"`
	PhotographerURL string    `json:"photographer_url"`
	Alt             string    `json:"alt"`
	Src             photoSrcs `json:"src"`
}

type photoSrcs struct {
	Original  string `json:"original"`
	Large2x   string `json:"large2x"`
	Large     string `json:"large"`
	Medium    string `json:"medium"`
	Small     string `json:"small"`
	Portrait  string `json:"portrait"`
	Landscape string `json:"landscape"`
	Tiny      string `json:"tiny"`
}

type videosResponse struct {
	Page         int      `json:"page"`
	PerPage      int      `json:"per_page"`
	TotalResults *int     `json:"total_results"`
	NextPage     string   `json:"next_page"`
	Videos       *[]video `json:"videos"`
}

type video struct {
	ID         int64       `json:"id"`
	Width      int         `json:"width"`
	Height     int         `json:"height"`
	URL        string      `json:"url"`
	Image      string      `json:"image"`
	Duration   int         `json:"duration"`
	User       videoUser   `json:"user"`
	VideoFiles []videoFile `json:"video_files"`
}

type videoUser struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// videoFile is one rendition of a video.
type videoFile struct {
	ID       int64    `json:"id"`
	Quality  string   `json:"quality"`
	FileType string   `json:"file_type"`
	Width    int      `json:"width"`
	Height   int      `json:"height"`
	FPS      *float64 `json:"fps"`
	Link     string   `json:"link"`
}
