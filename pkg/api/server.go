package api

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	httpswagger "github.com/swaggo/http-swagger"

	"github.com/modularwp/media-import/pkg/api/auth"
	"github.com/modularwp/media-import/pkg/api/mcp"
	"github.com/modularwp/media-import/pkg/download"
	"github.com/modularwp/media-import/pkg/settings"
	"github.com/modularwp/media-import/pkg/sources/providers/googledrive"
	"github.com/modularwp/media-import/pkg/sources/types"
)

//go:embed openapi.yaml
var openapiSpecYaml string

type sourceRegistry interface {
	List() []types.Source
	Find(query string) []types.Source
	Search(ctx context.Context, req types.SearchRequest) (*types.SearchResult, error)
	Import(ctx context.Context, req types.ImportRequest) (*types.ImportResult, error)
	ClientConfig(id string) (map[string]any, error)
}

type driveSource interface {
	ExchangeToken(ctx context.Context, session, code string) (*googledrive.TokenPayload, error)
	RememberAccessToken(session, accessToken string, expiresIn time.Duration)
	Picked(ctx context.Context, session string, docs []googledrive.PickedDocument) ([]*types.MediaItem, error)
}

type settingsService interface {
	View() []settings.SectionView
	Update(submitted map[string]string) error
}

type nonceService interface {
	Issue(userID, action string) (string, error)
	Verify(token, userID, action string) error
}

type fetcher interface {
	Fetch(ctx context.Context, res *types.ImportResult) (*download.Result, error)
}

type metrics interface {
	Middleware(next http.Handler) http.Handler
	Handler() http.Handler
}

// Deps are the collaborators the server dispatches to. GoogleDrive,
// Fetcher and Metrics are optional.
type Deps struct {
	Registry     sourceRegistry
	GoogleDrive  driveSource
	Settings     settingsService
	Nonces       nonceService
	AuthProvider auth.Provider
	Fetcher      fetcher
	Metrics      metrics
}

type Server struct {
	deps   Deps
	logger *zerolog.Logger
	http   http.Server
}

func NewServer(logger *zerolog.Logger, config *Config, deps Deps) (*Server, error) {
	if deps.Registry == nil || deps.Settings == nil || deps.Nonces == nil || deps.AuthProvider == nil {
		return nil, errors.New("registry, settings, nonces and auth provider are required")
	}

	server := &Server{
		deps:   deps,
		logger: logger,
	}

	server.http = http.Server{
		Addr:              fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:           server.routes(config.CORSOrigin),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return server, nil
}

// Handler is the fully wired router.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

func (s *Server) routes(corsOrigin string) http.Handler {
	provider := s.deps.AuthProvider
	canUpload := auth.Policy{Provider: provider, Capability: auth.CapUploadFiles}
	canManage := auth.Policy{Provider: provider, Capability: auth.CapManageOptions}

	authMiddleware := auth.NewRouteAuthMiddleware(auth.Policy{Provider: provider, Required: true}, AuthErrorWriter(s.logger)).
		Public("/docs/").
		Route("GET /healthz", auth.Policy{}).
		Route("GET /metrics", auth.Policy{}).
		Route("POST /admin-ajax", canUpload).
		Route("* /api/settings", canManage).
		Route("* /api/*", canUpload)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.recoverer)
	if s.deps.Metrics != nil {
		r.Use(s.deps.Metrics.Middleware)
	}
	r.Use(func(next http.Handler) http.Handler { return corsMiddleware(next, corsOrigin) })
	r.Use(authMiddleware.Middleware)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.failure(w, r, types.ValidationError{Field: "path", Reason: "Not found"})
	})

	r.Get("/healthz", s.Health)
	if s.deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.deps.Metrics.Handler())
	}
	s.registerApiDocsHandlers(r)

	r.Post("/admin-ajax", s.AdminAjax)

	r.Route("/api", func(r chi.Router) {
		r.Get("/sources", s.ListSources)
		r.Get("/sources/{id}/client-config", s.GetClientConfig)
		r.Post("/sources/{id}/search", s.SearchSource)
		r.Post("/sources/{id}/import", s.ImportItem)
		r.Post("/sources/{id}/sideload", s.SideloadItem)
		r.Post("/google-drive/token", s.ExchangeDriveToken)
		r.Post("/google-drive/picked", s.DrivePicked)
		r.Handle("/mcp", mcp.NewHandler(s.deps.Registry, s.logger))
		r.Get("/settings", s.GetSettings)
		r.Post("/settings", s.UpdateSettings)
	})

	return r
}

func corsMiddleware(next http.Handler, originConfig string) http.Handler {
	origins := strings.Split(originConfig, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestOrigin := r.Header.Get("Origin")

		if len(origins) == 1 && origins[0] == "*" {
			// Allow all origins
			w.Header().Set("Access-Control-Allow-Origin", "*")
		} else if requestOrigin != "" && slices.Contains(origins, requestOrigin) {
			// CORS doesn't support multiple origins,
			// so we either set the origin in the header or not at all.
			w.Header().Set("Access-Control-Allow-Origin", requestOrigin)
			w.Header().Add("Vary", "Origin")
		}

		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerApiDocsHandlers(r chi.Router) {
	r.Get("/docs/openapi.yaml", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/x-yaml")

		if _, err := w.Write([]byte(openapiSpecYaml)); err != nil {
			s.logger.Error().Err(err).Msg("response write error")
		}
	})
	r.Get("/docs/*", httpswagger.Handler(
		httpswagger.URL("/docs/openapi.yaml"),
	))
}

func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.http.Addr).Msg("Starting server")

	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop waits for in-flight requests until ctx is done.
func (s *Server) Stop(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
