package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/modularwp/media-import/pkg/sources/types"
)

var errInvalidNonce = types.AuthorizationError{Reason: "Invalid security token"}

// NonceClaims binds a nonce to one user and one action.
type NonceClaims struct {
	Action string `json:"act"`
	jwt.RegisteredClaims
}

// Nonces issues and verifies short-lived request tokens that tie a
// state-changing request to the user and action they were issued for.
type Nonces struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewNonces(secret string, ttl time.Duration) *Nonces {
	return &Nonces{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (n *Nonces) Issue(userID, action string) (string, error) {
	now := n.now()
	claims := NonceClaims{
		Action: action,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(n.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(n.secret)
}

// Verify fails with an AuthorizationError unless token was issued by n for
// userID and action and has not expired.
func (n *Nonces) Verify(token, userID, action string) error {
	if token == "" {
		return errInvalidNonce
	}

	parsed, err := jwt.ParseWithClaims(token, &NonceClaims{}, func(t *jwt.Token) (any, error) {
		return n.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(n.now),
	)
	if err != nil {
		return errInvalidNonce
	}

	claims, ok := parsed.Claims.(*NonceClaims)
	if !ok || !parsed.Valid {
		return errInvalidNonce
	}
	if claims.Subject != userID || claims.Action != action {
		return errInvalidNonce
	}

	return nil
}
