package browse

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/modularwp/media-import/pkg/sources/types"
)

// RemoteError is a failed {success: false} response from the proxy.
type RemoteError struct {
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.Status)
	}
	return e.Message
}

const messageInvalidNonce = "Invalid security token"

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

type clientConfig struct {
	SourceID string `json:"sourceId"`
	Action   string `json:"action"`
	Nonce    string `json:"nonce"`
}

// RemoteSearcher searches through a running proxy server, the same way the
// admin page script does: a form POST to the admin-ajax endpoint carrying the
// action and nonce handed out with the source's client config.
type RemoteSearcher struct {
	httpClient *http.Client
	baseURL    *url.URL
	apiKey     string
	logger     *zerolog.Logger

	mu      sync.Mutex
	configs map[string]clientConfig
}

func NewRemoteSearcher(httpClient *http.Client, baseURL, apiKey string, logger *zerolog.Logger) (*RemoteSearcher, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &RemoteSearcher{
		httpClient: httpClient,
		baseURL:    u,
		apiKey:     apiKey,
		logger:     logger,
		configs:    make(map[string]clientConfig),
	}, nil
}

func (r *RemoteSearcher) Search(ctx context.Context, req types.SearchRequest) (*types.SearchResult, error) {
	res, err := r.search(ctx, req)

	// Nonces expire, fetch a fresh one and try once more.
	var remote *RemoteError
	if errors.As(err, &remote) && remote.Message == messageInvalidNonce {
		r.forget(req.SourceID)
		res, err = r.search(ctx, req)
	}
	return res, err
}

func (r *RemoteSearcher) search(ctx context.Context, req types.SearchRequest) (*types.SearchResult, error) {
	cfg, err := r.clientConfig(ctx, req.SourceID)
	if err != nil {
		return nil, err
	}

	form := url.Values{}
	form.Set("action", cfg.Action)
	form.Set("_ajax_nonce", cfg.Nonce)
	form.Set("source", req.SourceID)
	form.Set("query", req.Query)
	form.Set("page", strconv.Itoa(req.Page))
	if req.Type != "" {
		form.Set("type", req.Type)
	}

	var out types.SearchResult
	err = r.do(ctx, http.MethodPost, "admin-ajax", "application/x-www-form-urlencoded",
		strings.NewReader(form.Encode()), &out)
	if err != nil {
		return nil, err
	}
	if out.Items == nil {
		out.Items = []*types.MediaItem{}
	}
	return &out, nil
}

// Import asks the proxy how to fetch item. The result carries any
// credentials the download needs.
func (r *RemoteSearcher) Import(ctx context.Context, item *types.MediaItem) (*types.ImportResult, error) {
	body, err := json.Marshal(types.ImportRequest{
		SourceID:       item.SourceID,
		URL:            item.URL,
		MimeType:       item.MimeType,
		CustomFilename: item.CustomFilename,
		FileInfo:       item.FileInfo,
	})
	if err != nil {
		return nil, fmt.Errorf("encode import request: %w", err)
	}

	var out types.ImportResult
	endpoint := "api/sources/" + url.PathEscape(item.SourceID) + "/import"
	if err := r.do(ctx, http.MethodPost, endpoint, "application/json", bytes.NewReader(body), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *RemoteSearcher) clientConfig(ctx context.Context, sourceID string) (clientConfig, error) {
	r.mu.Lock()
	cfg, ok := r.configs[sourceID]
	r.mu.Unlock()
	if ok {
		return cfg, nil
	}

	endpoint := "api/sources/" + url.PathEscape(sourceID) + "/client-config"
	if err := r.do(ctx, http.MethodGet, endpoint, "", nil, &cfg); err != nil {
		return clientConfig{}, fmt.Errorf("fetch client config: %w", err)
	}
	if cfg.Action == "" || cfg.Nonce == "" {
		return clientConfig{}, types.InvalidResponseError{Service: "proxy", Reason: "client config without action or nonce"}
	}

	r.mu.Lock()
	r.configs[sourceID] = cfg
	r.mu.Unlock()

	return cfg, nil
}

func (r *RemoteSearcher) forget(sourceID string) {
	r.mu.Lock()
	delete(r.configs, sourceID)
	r.mu.Unlock()
}

func (r *RemoteSearcher) do(ctx context.Context, method, endpoint, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, r.baseURL.JoinPath(endpoint).String(), body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		r.logger.Debug().Err(err).Int("status", resp.StatusCode).Str("endpoint", endpoint).Msg("Undecodable proxy response")
		return &RemoteError{Status: resp.StatusCode}
	}

	if !env.Success {
		var message string
		if err := json.Unmarshal(env.Data, &message); err != nil {
			r.logger.Debug().Err(err).Int("status", resp.StatusCode).Msg("Failure without message")
		}
		return &RemoteError{Status: resp.StatusCode, Message: message}
	}

	if err := json.Unmarshal(env.Data, out); err != nil {
		return types.InvalidResponseError{Service: "proxy", Reason: err.Error()}
	}
	return nil
}
