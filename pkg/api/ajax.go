package api

import (
	"net/http"
	"strconv"

	"github.com/modularwp/media-import/pkg/api/auth"
	"github.com/modularwp/media-import/pkg/settings"
	"github.com/modularwp/media-import/pkg/sources/providers/googledrive"
	"github.com/modularwp/media-import/pkg/sources/providers/pexels"
	"github.com/modularwp/media-import/pkg/sources/types"
)

type ajaxHandler func(s *Server, w http.ResponseWriter, r *http.Request)

type ajaxAction struct {
	sourceID    string
	nonceAction string
	// sourceOptional lets the form omit source. A present source must still match.
	sourceOptional bool
	handle         ajaxHandler
}

// ajaxActions are the form actions accepted by AdminAjax.
var ajaxActions = map[string]ajaxAction{
	pexels.SearchAction: {
		sourceID:    pexels.SourceID,
		nonceAction: pexels.NonceAction,
		handle:      ajaxSearch(pexels.SourceID),
	},
	googledrive.SearchAction: {
		sourceID:    googledrive.SourceID,
		nonceAction: googledrive.NonceAction,
		handle:      ajaxSearch(googledrive.SourceID),
	},
	googledrive.ExchangeAction: {
		sourceID:       googledrive.SourceID,
		nonceAction:    googledrive.NonceAction,
		sourceOptional: true,
		handle:         ajaxExchangeToken,
	},
}

// AdminAjax serves form posts from the browser views. The action, nonce
// and source are checked before anything is dispatched.
func (s *Server) AdminAjax(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.failure(w, r, types.ValidationError{Field: "body", Reason: "Invalid request body"})
		return
	}

	action, ok := ajaxActions[r.PostForm.Get("action")]
	if !ok {
		s.failure(w, r, types.ValidationError{Field: "action", Reason: "Invalid action"})
		return
	}

	user, err := auth.UserFromContext(r.Context())
	if err != nil {
		s.failure(w, r, auth.ErrUnauthenticated)
		return
	}

	nonce := r.PostForm.Get("_ajax_nonce")
	if nonce == "" {
		nonce = r.PostForm.Get("nonce")
	}
	if err := s.deps.Nonces.Verify(nonce, user.UserID, action.nonceAction); err != nil {
		s.failure(w, r, err)
		return
	}

	source := r.PostForm.Get("source")
	if source == "" && action.sourceOptional {
		source = action.sourceID
	}
	if source != action.sourceID {
		s.failure(w, r, types.ValidationError{Field: "source", Reason: "Invalid source"})
		return
	}

	action.handle(s, w, r)
}

func ajaxSearch(sourceID string) ajaxHandler {
	return func(s *Server, w http.ResponseWriter, r *http.Request) {
		page, err := strconv.Atoi(r.PostForm.Get("page"))
		if err != nil || page < 1 {
			page = 1
		}

		s.search(w, r, types.SearchRequest{
			SourceID: sourceID,
			Query:    settings.SanitizeText(r.PostForm.Get("query")),
			Page:     page,
			Type:     settings.SanitizeText(r.PostForm.Get("type")),
		})
	}
}

func ajaxExchangeToken(s *Server, w http.ResponseWriter, r *http.Request) {
	s.exchangeDriveToken(w, r, r.PostForm.Get("session"), r.PostForm.Get("code"))
}
