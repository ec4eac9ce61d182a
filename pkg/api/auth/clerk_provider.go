package auth

import (
	"context"
	"net/http"

	"github.com/clerk/clerk-sdk-go/v2"
	clerkhttp "github.com/clerk/clerk-sdk-go/v2/http"
)

type ClerkAuthProvider struct {
	customClaimsConstructor func(ctx context.Context) any
	roles                   Roles
	writeError              ErrorWriter
}

type customSessionClaims struct {
	PrimaryEmail string `json:"primaryEmail"`
}

// NewClerkAuthProviderWithSDK configures the global Clerk SDK with secretKey.
func NewClerkAuthProviderWithSDK(secretKey string, roles Roles, writeError ErrorWriter) *ClerkAuthProvider {
	clerk.SetKey(secretKey)

	if writeError == nil {
		writeError = defaultErrorWriter
	}

	return &ClerkAuthProvider{
		customClaimsConstructor: func(ctx context.Context) any {
			return &customSessionClaims{}
		},
		roles:      roles,
		writeError: writeError,
	}
}

func (p *ClerkAuthProvider) Authenticate(next http.Handler, required bool) http.Handler {
	authParams := func(params *clerkhttp.AuthorizationParams) error {
		params.VerifyParams.CustomClaimsConstructor = p.customClaimsConstructor
		return nil
	}

	return clerkhttp.WithHeaderAuthorization(authParams)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := clerk.SessionClaimsFromContext(r.Context())
		if !ok {
			if !required {
				next.ServeHTTP(w, r)
				return
			}
			p.writeError(w, r, ErrUnauthenticated)
			return
		}

		user := User{
			UserID:       claims.Subject,
			Capabilities: p.roles.CapabilitiesFor(claims.Subject),
		}

		if customClaims, ok := claims.Custom.(*customSessionClaims); ok {
			user.Email = customClaims.PrimaryEmail
		}

		next.ServeHTTP(w, withUser(r, user))
	}))
}
