package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/modularwp/media-import/pkg/api/auth"
	"github.com/modularwp/media-import/pkg/sources/types"
)

// envelope is the shape of every response body.
type envelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

func statusFor(err error) int {
	if errors.Is(err, auth.ErrUnauthenticated) {
		return http.StatusUnauthorized
	}

	switch types.Kind(err) {
	case "validation":
		return http.StatusBadRequest
	case "authorization":
		return http.StatusForbidden
	case "configuration":
		return http.StatusPreconditionFailed
	case "upstream", "invalid_response":
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func messageFor(err error) string {
	if errors.Is(err, auth.ErrUnauthenticated) {
		return auth.ErrUnauthenticated.Error()
	}
	return types.UserMessage(err)
}

func (s *Server) success(w http.ResponseWriter, data any) {
	writeEnvelope(s.logger, w, http.StatusOK, envelope{Success: true, Data: data})
}

func (s *Server) failure(w http.ResponseWriter, r *http.Request, err error) {
	writeFailure(s.logger, w, r, err)
}

// AuthErrorWriter renders authentication failures as failure envelopes.
func AuthErrorWriter(logger *zerolog.Logger) auth.ErrorWriter {
	return func(w http.ResponseWriter, r *http.Request, err error) {
		writeFailure(logger, w, r, err)
	}
}

// writeFailure reports err to the client. Errors outside the taxonomy are
// logged and replaced by a generic message.
func writeFailure(logger *zerolog.Logger, w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)

	event := logger.Warn()
	if status == http.StatusInternalServerError {
		event = logger.Error()
	}
	event.Err(err).
		Str("request_id", middleware.GetReqID(r.Context())).
		Str("path", r.URL.Path).
		Int("status", status).
		Msg("Request failed")

	writeEnvelope(logger, w, status, envelope{Success: false, Data: messageFor(err)})
}

func writeEnvelope(logger *zerolog.Logger, w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error().Err(err).Msg("response write error")
	}
}

// recoverer turns a panic into a generic server error response.
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				s.failure(w, r, fmt.Errorf("panic: %v", rec))
			}
		}()

		next.ServeHTTP(w, r)
	})
}

func deserializeReq[Req any](r *http.Request, req *Req) error {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		return types.ValidationError{Field: "body", Reason: "Unsupported content type"}
	}

	reqBytes, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read request body: %w", err)
	}

	if err := json.Unmarshal(reqBytes, req); err != nil {
		return types.ValidationError{Field: "body", Reason: "Invalid request body"}
	}

	return nil
}
