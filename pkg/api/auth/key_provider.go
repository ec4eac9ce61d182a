package auth

import (
	"net/http"
	"strings"
)

type KeyAuthProvider struct {
	keyToUserID map[string]string
	roles       Roles
	writeError  ErrorWriter
}

func NewKeyAuthProvider(keyToUserID map[string]string, roles Roles, writeError ErrorWriter) *KeyAuthProvider {
	if writeError == nil {
		writeError = defaultErrorWriter
	}
	return &KeyAuthProvider{
		keyToUserID: keyToUserID,
		roles:       roles,
		writeError:  writeError,
	}
}

func (p *KeyAuthProvider) Authenticate(next http.Handler, required bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")

		if authHeader == "" && !required {
			next.ServeHTTP(w, r)
			return
		}

		authToken, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || authToken == "" {
			p.writeError(w, r, ErrUnauthenticated)
			return
		}

		userID, ok := p.keyToUserID[authToken]
		if !ok {
			p.writeError(w, r, ErrUnauthenticated)
			return
		}

		user := User{
			UserID:       userID,
			Email:        "",
			Capabilities: p.roles.CapabilitiesFor(userID),
		}

		next.ServeHTTP(w, withUser(r, user))
	})
}
