package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/modularwp/media-import/pkg/api/auth"
	"github.com/modularwp/media-import/pkg/lib"
	"github.com/modularwp/media-import/pkg/settings"
	"github.com/modularwp/media-import/pkg/sources/providers/googledrive"
	"github.com/modularwp/media-import/pkg/sources/providers/pexels"
	"github.com/modularwp/media-import/pkg/sources/types"
)

// SettingsNonceAction scopes the token required to save settings.
const SettingsNonceAction = "media_import_settings"

// defaultNonceAction is used for sources that do not declare their own.
const defaultNonceAction = "media_import"

// nonceActions maps a source to the action its client nonce is issued for.
var nonceActions = map[string]string{
	pexels.SourceID:      pexels.NonceAction,
	googledrive.SourceID: googledrive.NonceAction,
}

func nonceActionFor(sourceID string) string {
	if action, ok := nonceActions[sourceID]; ok {
		return action
	}
	return defaultNonceAction
}

type SourceInfo struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type SearchBody struct {
	Query string `json:"query"`
	Page  int    `json:"page"`
	Type  string `json:"type"`
}

type TokenBody struct {
	Code    string `json:"code"`
	Session string `json:"session"`
}

type PickedBody struct {
	Session string `json:"session"`
	// AccessToken and ExpiresIn carry a token obtained through the implicit flow.
	AccessToken string                       `json:"access_token"`
	ExpiresIn   int64                        `json:"expires_in"`
	Docs        []googledrive.PickedDocument `json:"docs" validate:"required,min=1,dive"`
}

type SettingsBody struct {
	Nonce  string            `json:"nonce"`
	Values map[string]string `json:"values"`
}

type SettingsView struct {
	Sections []settings.SectionView `json:"sections"`
	Nonce    string                 `json:"nonce"`
}

func (s *Server) Health(w http.ResponseWriter, _ *http.Request) {
	s.success(w, map[string]string{"status": "ok"})
}

func (s *Server) ListSources(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")

	var found []types.Source
	if query == "" {
		found = s.deps.Registry.List()
	} else {
		found = s.deps.Registry.Find(query)
	}

	out := make([]SourceInfo, 0, len(found))
	for _, src := range found {
		out = append(out, SourceInfo{ID: src.ID(), Label: src.Label()})
	}

	s.success(w, out)
}

// GetClientConfig returns what a browser view needs to talk to one source,
// including a nonce for that source's actions.
func (s *Server) GetClientConfig(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	user, err := auth.UserFromContext(r.Context())
	if err != nil {
		s.failure(w, r, auth.ErrUnauthenticated)
		return
	}

	cfg, err := s.deps.Registry.ClientConfig(id)
	if err != nil {
		s.failure(w, r, err)
		return
	}

	nonce, err := s.deps.Nonces.Issue(user.UserID, nonceActionFor(id))
	if err != nil {
		s.failure(w, r, err)
		return
	}

	out := make(map[string]any, len(cfg)+1)
	for k, v := range cfg {
		out[k] = v
	}
	out["nonce"] = nonce

	s.success(w, out)
}

func (s *Server) SearchSource(w http.ResponseWriter, r *http.Request) {
	var body SearchBody
	if err := deserializeReq(r, &body); err != nil {
		s.failure(w, r, err)
		return
	}

	s.search(w, r, types.SearchRequest{
		SourceID: chi.URLParam(r, "id"),
		Query:    settings.SanitizeText(body.Query),
		Page:     max(body.Page, 1),
		Type:     settings.SanitizeText(body.Type),
	})
}

func (s *Server) search(w http.ResponseWriter, r *http.Request, req types.SearchRequest) {
	res, err := s.deps.Registry.Search(r.Context(), req)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	s.success(w, res)
}

func (s *Server) ImportItem(w http.ResponseWriter, r *http.Request) {
	res, ok := s.resolveImport(w, r)
	if !ok {
		return
	}
	s.success(w, res)
}

// SideloadItem resolves an import and downloads the asset into the uploads directory.
func (s *Server) SideloadItem(w http.ResponseWriter, r *http.Request) {
	if s.deps.Fetcher == nil {
		s.failure(w, r, types.ConfigurationError{Source: "download", Message: "Downloads are not configured."})
		return
	}

	res, ok := s.resolveImport(w, r)
	if !ok {
		return
	}

	out, err := s.deps.Fetcher.Fetch(r.Context(), res)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	s.success(w, out)
}

func (s *Server) resolveImport(w http.ResponseWriter, r *http.Request) (*types.ImportResult, bool) {
	var req types.ImportRequest
	if err := deserializeReq(r, &req); err != nil {
		s.failure(w, r, err)
		return nil, false
	}
	req.SourceID = chi.URLParam(r, "id")

	res, err := s.deps.Registry.Import(r.Context(), req)
	if err != nil {
		s.failure(w, r, err)
		return nil, false
	}
	return res, true
}

func (s *Server) ExchangeDriveToken(w http.ResponseWriter, r *http.Request) {
	var body TokenBody
	if err := deserializeReq(r, &body); err != nil {
		s.failure(w, r, err)
		return
	}
	s.exchangeDriveToken(w, r, body.Session, body.Code)
}

func (s *Server) exchangeDriveToken(w http.ResponseWriter, r *http.Request, session, code string) {
	drive, key, ok := s.driveSession(w, r, session)
	if !ok {
		return
	}

	tok, err := drive.ExchangeToken(r.Context(), key, code)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	s.success(w, tok)
}

func (s *Server) DrivePicked(w http.ResponseWriter, r *http.Request) {
	var body PickedBody
	if err := deserializeReq(r, &body); err != nil {
		s.failure(w, r, err)
		return
	}
	if err := lib.ValidateStruct(&body); err != nil {
		s.failure(w, r, types.ValidationError{Field: "docs", Reason: "Invalid docs"})
		return
	}

	drive, key, ok := s.driveSession(w, r, body.Session)
	if !ok {
		return
	}

	if body.AccessToken != "" {
		drive.RememberAccessToken(key, body.AccessToken, time.Duration(body.ExpiresIn)*time.Second)
	}

	items, err := drive.Picked(r.Context(), key, body.Docs)
	if err != nil {
		s.failure(w, r, err)
		return
	}

	s.success(w, types.SearchResult{Items: items, Total: len(items), HasMore: false})
}

// driveSession scopes a picker session to the calling user.
func (s *Server) driveSession(w http.ResponseWriter, r *http.Request, session string) (driveSource, string, bool) {
	if s.deps.GoogleDrive == nil {
		s.failure(w, r, types.ValidationError{Field: "source", Reason: "Invalid source"})
		return nil, "", false
	}

	user, err := auth.UserFromContext(r.Context())
	if err != nil {
		s.failure(w, r, auth.ErrUnauthenticated)
		return nil, "", false
	}

	if session == "" {
		session = "default"
	}
	return s.deps.GoogleDrive, user.UserID + ":" + session, true
}

func (s *Server) GetSettings(w http.ResponseWriter, r *http.Request) {
	s.writeSettings(w, r)
}

func (s *Server) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var body SettingsBody
	if err := deserializeReq(r, &body); err != nil {
		s.failure(w, r, err)
		return
	}

	user, err := auth.UserFromContext(r.Context())
	if err != nil {
		s.failure(w, r, auth.ErrUnauthenticated)
		return
	}

	if err := s.deps.Nonces.Verify(body.Nonce, user.UserID, SettingsNonceAction); err != nil {
		s.failure(w, r, err)
		return
	}

	if err := s.deps.Settings.Update(body.Values); err != nil {
		s.failure(w, r, err)
		return
	}

	s.logger.Info().Str("user", user.UserID).Int("fields", len(body.Values)).Msg("Settings updated")

	s.writeSettings(w, r)
}

func (s *Server) writeSettings(w http.ResponseWriter, r *http.Request) {
	user, err := auth.UserFromContext(r.Context())
	if err != nil {
		s.failure(w, r, auth.ErrUnauthenticated)
		return
	}

	nonce, err := s.deps.Nonces.Issue(user.UserID, SettingsNonceAction)
	if err != nil {
		s.failure(w, r, err)
		return
	}

	s.success(w, SettingsView{Sections: s.deps.Settings.View(), Nonce: nonce})
}
