package auth

import (
	"context"
	"errors"
	"net/http"
	"slices"

	"github.com/modularwp/media-import/pkg/sources/types"
)

// Capabilities gate what an authenticated user may do.
const (
	CapUploadFiles   = "upload_files"
	CapManageOptions = "manage_options"
)

// ErrUnauthenticated is returned when a request carries no valid credentials.
var ErrUnauthenticated = errors.New("Authentication required")

type UserContextKey string

const UserContextKey_ UserContextKey = "user"

type User struct {
	UserID string
	// Email can be empty (e.g. when using key provider)
	Email        string
	Capabilities []string
}

func (u User) Can(capability string) bool {
	return slices.Contains(u.Capabilities, capability)
}

func UserFromContext(ctx context.Context) (User, error) {
	user, ok := ctx.Value(UserContextKey_).(User)
	if !ok {
		return User{}, errors.New("user not found in context")
	}
	return user, nil
}

func withUser(r *http.Request, user User) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), UserContextKey_, user))
}

// Roles assigns capabilities to user IDs. Every authenticated user may
// upload. Admins may also manage settings.
type Roles struct {
	admins []string
}

func NewRoles(adminUserIDs []string) Roles {
	return Roles{admins: adminUserIDs}
}

func (r Roles) CapabilitiesFor(userID string) []string {
	caps := []string{CapUploadFiles}
	if slices.Contains(r.admins, userID) {
		caps = append(caps, CapManageOptions)
	}
	return caps
}

// ErrorWriter renders an authentication or authorization failure.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

func defaultErrorWriter(w http.ResponseWriter, _ *http.Request, err error) {
	status := http.StatusForbidden
	if errors.Is(err, ErrUnauthenticated) {
		status = http.StatusUnauthorized
	}
	http.Error(w, err.Error(), status)
}

// RequireCapability rejects requests whose user lacks capability.
func RequireCapability(capability string, writeError ErrorWriter) func(http.Handler) http.Handler {
	if writeError == nil {
		writeError = defaultErrorWriter
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := UserFromContext(r.Context())
			if err != nil {
				writeError(w, r, ErrUnauthenticated)
				return
			}
			if !user.Can(capability) {
				writeError(w, r, types.AuthorizationError{Reason: "You do not have permission to perform this action."})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
