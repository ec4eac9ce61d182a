package googledrive

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"google.golang.org/api/drive/v3"

	"github.com/modularwp/media-import/pkg/settings"
	"github.com/modularwp/media-import/pkg/sources/types"
)

const (
	SourceID = "google-drive"

	SearchAction   = "media_import_google_drive_search"
	ExchangeAction = "media_import_google_drive_exchange_token"
	// NonceAction scopes the authenticity token for all drive actions.
	NonceAction = "media_import"

	CredentialClientID     = "google_drive_client_id"
	CredentialAPIKey       = "google_drive_api_key"
	CredentialClientSecret = "google_drive_client_secret"

	DefaultAPIBaseURL = "https://www.googleapis.com/drive/v3/"
)

type Config struct {
	APIBaseURL  string
	RedirectURL string
	// Concurrency bounds parallel metadata requests for one pick.
	Concurrency int
	// Transport is used for token exchange and drive requests. Nil uses the default transport.
	Transport http.RoundTripper
}

type Source struct {
	// apiHost is the only host imports may download from, since they carry the user's token.
	apiHost     string
	credentials types.Credentials
	tokens      *TokenStore
	exchanger   *exchanger
	metadata    *metadataFetcher
	logger      *zerolog.Logger
}

var (
	_ types.Source               = (*Source)(nil)
	_ types.Importer             = (*Source)(nil)
	_ types.ClientConfigProvider = (*Source)(nil)
	_ settings.Provider          = (*Source)(nil)
)

func NewSource(cfg Config, credentials types.Credentials, tokens *TokenStore, logger *zerolog.Logger) *Source {
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = DefaultAPIBaseURL
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultFetchLimit
	}

	var apiHost string
	if u, err := url.Parse(cfg.APIBaseURL); err == nil {
		apiHost = u.Host
	}

	return &Source{
		apiHost:     apiHost,
		credentials: credentials,
		tokens:      tokens,
		exchanger: &exchanger{
			endpoint:    defaultEndpoint(),
			redirectURL: cfg.RedirectURL,
			httpClient:  &http.Client{Transport: cfg.Transport},
		},
		metadata: &metadataFetcher{
			apiBaseURL:  cfg.APIBaseURL,
			transport:   cfg.Transport,
			concurrency: cfg.Concurrency,
			logger:      logger,
		},
		logger: logger,
	}
}

// WithTokenEndpoint points the code exchange at a different OAuth server.
func (s *Source) WithTokenEndpoint(endpoint oauth2.Endpoint) *Source {
	s.exchanger.endpoint = endpoint
	return s
}

func (s *Source) ID() string {
	return SourceID
}

func (s *Source) Label() string {
	return "Google Drive"
}

// Search is a no-op: discovery happens in the picker widget.
func (s *Source) Search(_ context.Context, _ types.SearchRequest) (*types.SearchResult, error) {
	return types.EmptySearchResult(), nil
}

// ExchangeToken trades an authorization code for an access token and binds
// it to the picker session, replacing any token the session held.
func (s *Source) ExchangeToken(ctx context.Context, session, code string) (*TokenPayload, error) {
	if code == "" {
		return nil, types.ValidationError{Field: "code", Reason: "No authorization code provided"}
	}

	clientID := s.credentials.Get(CredentialClientID)
	clientSecret := s.credentials.Get(CredentialClientSecret)
	if clientID == "" || clientSecret == "" {
		return nil, types.ConfigurationError{
			Source:  SourceID,
			Message: "Google Drive integration requires configuration.",
		}
	}

	tok, err := s.tokens.Exchange(ctx, session, code, func(ctx context.Context) (*oauth2.Token, error) {
		s.logger.Debug().Str("session", session).Msg("Exchanging drive authorization code")
		return s.exchanger.exchange(ctx, clientID, clientSecret, code)
	})
	if err != nil {
		return nil, err
	}

	return newTokenPayload(tok), nil
}

// RememberAccessToken stores a token the browser obtained through the
// implicit flow. A non-positive expiresIn falls back to the store default.
func (s *Source) RememberAccessToken(session, accessToken string, expiresIn time.Duration) {
	tok := &oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}
	if expiresIn > 0 {
		tok.Expiry = time.Now().Add(expiresIn)
	}
	s.tokens.Remember(session, tok)
}

// Picked builds media items for documents chosen in the picker.
func (s *Source) Picked(ctx context.Context, session string, docs []PickedDocument) ([]*types.MediaItem, error) {
	apiKey := s.credentials.Get(CredentialAPIKey)
	if apiKey == "" {
		return nil, types.ConfigurationError{
			Source:  SourceID,
			Message: "Google Drive integration requires configuration.",
		}
	}

	tok, ok := s.tokens.Get(session)
	if !ok {
		return nil, types.AuthorizationError{Reason: "Missing authorization token"}
	}

	items, err := s.metadata.fetch(ctx, tok, apiKey, docs)
	if err != nil {
		return nil, fmt.Errorf("fetch drive metadata: %w", err)
	}

	return items, nil
}

func (s *Source) HandleImport(_ context.Context, req types.ImportRequest) (*types.ImportResult, error) {
	if req.URL == "" {
		return nil, types.ValidationError{Field: "url", Reason: "Missing required Google Drive data"}
	}
	if u, err := url.Parse(req.URL); err != nil || u.Host != s.apiHost {
		return nil, types.ValidationError{Field: "url", Reason: "Invalid Google Drive URL"}
	}

	var info types.FileInfo
	if req.FileInfo != nil {
		info = *req.FileInfo
	}

	token := info.Authorization
	if token == "" {
		token = strings.TrimPrefix(info.AuthHeader, "Bearer ")
	}
	if token == "" {
		return nil, types.AuthorizationError{Reason: "Missing authorization token"}
	}

	filename := info.Filename
	if filename == "" {
		filename = req.CustomFilename
	}
	if filename == "" {
		filename = types.FilenameFromURL(req.URL)
	}

	mimeType := req.MimeType
	if mimeType == "" {
		mimeType = info.MimeType
	}

	return &types.ImportResult{
		URL:      req.URL,
		Filename: types.SanitizeFilename(filename),
		Type:     mimeType,
		Headers: map[string]string{
			"Authorization":   "Bearer " + token,
			"Accept":          "*/*",
			"Accept-Encoding": "gzip, deflate, br",
		},
	}, nil
}

// ClientConfig is what the browser needs to start the picker.
func (s *Source) ClientConfig() (map[string]any, error) {
	clientID := s.credentials.Get(CredentialClientID)
	apiKey := s.credentials.Get(CredentialAPIKey)
	if clientID == "" || apiKey == "" {
		return nil, types.ConfigurationError{
			Source:  SourceID,
			Message: "Google Drive integration requires configuration.",
		}
	}

	return map[string]any{
		"sourceId":       SourceID,
		"action":         SearchAction,
		"exchangeAction": ExchangeAction,
		"clientId":       clientID,
		"apiKey":         apiKey,
		"scope":          drive.DriveReadonlyScope,
		"mimeTypes":      strings.Join(PickerMimeTypes, ","),
	}, nil
}

func (s *Source) SettingsSection() settings.Section {
	return settings.Section{
		ID:          SourceID,
		Title:       "Google Drive Settings",
		Description: "Enter your Google Cloud OAuth client and API key with the Drive and Picker APIs enabled.",
		Fields: []settings.Field{
			{Key: CredentialClientID, Label: "Client ID", Kind: settings.FieldKindText},
			{Key: CredentialAPIKey, Label: "API Key", Kind: settings.FieldKindText},
			{Key: CredentialClientSecret, Label: "Client Secret", Kind: settings.FieldKindPassword},
		},
	}
}
