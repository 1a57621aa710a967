// Package auth resolves caller identity from HS256-signed bearer tokens.
package auth

import (
	"context"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/coregx/courier"
)

// Claims carries the identity fields the courier core expects: the subject is
// the account identifier, role is the closed role enumeration and channelScope
// is the staff-only operating channel.
type Claims struct {
	Role         string `json:"role"`
	ChannelScope string `json:"channelScope,omitempty"`
	jwt.RegisteredClaims
}

// Verifier implements courier.Authenticator over HS256 tokens.
type Verifier struct {
	secret []byte
}

// NewVerifier creates a Verifier with the given shared secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Authenticate validates the bearer token and maps its claims onto a courier
// identity. Missing, malformed, expired or wrongly-signed tokens all yield an
// AUTH_REQUIRED error.
func (v *Verifier) Authenticate(_ context.Context, token string) (courier.Identity, error) {
	if token == "" {
		return courier.Identity{}, courier.ErrAuthenticationRequired
	}

	t, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return courier.Identity{}, courier.NewErrorWithCause(courier.ErrCodeAuthentication, "invalid token", err)
	}

	claims, ok := t.Claims.(*Claims)
	if !ok || !t.Valid {
		return courier.Identity{}, courier.ErrAuthenticationRequired
	}

	ident := courier.Identity{
		AccountID:    claims.Subject,
		Role:         courier.Role(claims.Role),
		ChannelScope: claims.ChannelScope,
	}
	if ident.IsZero() || !ident.Role.Valid() {
		return courier.Identity{}, courier.NewError(courier.ErrCodeAuthentication, "token carries no usable identity")
	}
	return ident, nil
}

// CreateToken issues an HS256 token for the given identity. Used by tests and
// by deployments that mint their own sessions.
func CreateToken(secret string, ident courier.Identity, ttl time.Duration) (string, error) {
	claims := Claims{
		Role:         string(ident.Role),
		ChannelScope: ident.ChannelScope,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   ident.AccountID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
