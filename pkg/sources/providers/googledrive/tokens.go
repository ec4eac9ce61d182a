package googledrive

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"

	"github.com/modularwp/media-import/pkg/lib"
)

// Tokens without an expiry are kept for the lifetime Google issues by default.
const defaultTokenTTL = time.Hour

// TokenStore keeps one access token per picker session.
// Tokens are replaced on every exchange, kept until they expire and never refreshed.
type TokenStore struct {
	cache  *lib.Cache[*oauth2.Token]
	group  singleflight.Group
	logger *zerolog.Logger
}

func NewTokenStore(logger *zerolog.Logger) *TokenStore {
	return &TokenStore{
		cache:  lib.NewCache[*oauth2.Token](defaultTokenTTL, logger),
		logger: logger,
	}
}

// Exchange runs acquire for code and stores the token for session.
// Concurrent exchanges of the same code for the same session share one call.
// A failed exchange keeps the session's previous token.
func (s *TokenStore) Exchange(
	ctx context.Context,
	session, code string,
	acquire func(ctx context.Context) (*oauth2.Token, error),
) (*oauth2.Token, error) {
	v, err, shared := s.group.Do(session+"\x00"+code, func() (any, error) {
		tok, err := acquire(ctx)
		if err != nil {
			return nil, err
		}
		s.Remember(session, tok)
		return tok, nil
	})
	if err != nil {
		return nil, fmt.Errorf("acquire token: %w", err)
	}

	if shared {
		s.logger.Trace().Str("session", session).Msg("Shared in-flight token exchange")
	}

	return v.(*oauth2.Token), nil
}

func (s *TokenStore) Get(session string) (*oauth2.Token, bool) {
	tok, ok := s.cache.Get(session)
	if !ok || !tok.Valid() {
		return nil, false
	}
	return tok, true
}

func (s *TokenStore) Remember(session string, tok *oauth2.Token) {
	ttl := defaultTokenTTL
	if !tok.Expiry.IsZero() {
		ttl = time.Until(tok.Expiry)
	}
	s.cache.SetWithTTL(session, tok, ttl)
}
