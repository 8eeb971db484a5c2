// Package token provides unverified inspection of provider-issued bearer
// tokens. The identity provider signs its tokens with keys the panel never
// holds, so this package only decodes claims — it cannot and does not
// validate signatures. Callers must not use it for authentication
// decisions; its one job is reading expiry and identity hints out of a
// token the provider already vouched for.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrMalformed is returned when the raw string does not decode as a JWT.
var ErrMalformed = errors.New("malformed bearer token")

// Claims is the subset of token claims the panel reads.
type Claims struct {
	Subject string
	Email   string
	// ExpiresAt is zero when the token carries no exp claim.
	ExpiresAt time.Time
}

type providerClaims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Inspect decodes the claims of raw without verifying its signature.
func Inspect(raw string) (*Claims, error) {
	var pc providerClaims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &pc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	out := &Claims{
		Subject: pc.Subject,
		Email:   pc.Email,
	}
	if pc.ExpiresAt != nil {
		out.ExpiresAt = pc.ExpiresAt.Time
	}
	return out, nil
}

// Expired reports whether the token's exp claim is in the past. Tokens
// without an exp claim never expire from this method's point of view.
func (c *Claims) Expired(now time.Time) bool {
	if c == nil || c.ExpiresAt.IsZero() {
		return false
	}
	return now.After(c.ExpiresAt)
}
