// Package jwtx decodes the bearer tokens issued by the commerce backend.
//
// The client never holds verification keys; tokens are verified server-side
// on every request. Decoding here is purely for deriving the session identity
// (subject, roles) and expiry hints, so ParseUnverified is the correct tool.
package jwtx

import (
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token type values carried in the "token_type" claim.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Claims are the bearer token claims the storefront cares about. We only add
// fields here, never remove, to stay compatible with older backend releases.
type Claims struct {
	jwt.RegisteredClaims

	// TokenType distinguishes access tokens from refresh tokens.
	TokenType string `json:"token_type,omitempty"`

	// Authorities is the role list granted to the subject, e.g.
	// ["Customer"], ["Shop"] or ["Shop", "Admin"].
	Authorities []string `json:"authorities,omitempty"`
}

// DecodeUnverified decodes token without checking its signature and returns
// the embedded claims. It fails with ErrMalformed on anything that is not a
// structurally valid JWT.
func DecodeUnverified(token string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return claims, nil
}

// HasAuthority reports whether the token grants the named authority.
func (c *Claims) HasAuthority(name string) bool {
	return slices.Contains(c.Authorities, name)
}

// ValidateExpiry ensures the token hasn't expired (exp) and isn't before nbf.
func (c *Claims) ValidateExpiry() error {
	return c.ValidateExpiryWithLeeway(0)
}

// ValidateExpiryWithLeeway adds a small grace period for clock skew.
func (c *Claims) ValidateExpiryWithLeeway(leeway time.Duration) error {
	now := time.Now().UTC()

	if c.ExpiresAt != nil && now.After(c.ExpiresAt.Add(leeway)) {
		return ErrExpired
	}

	if c.NotBefore != nil && now.Before(c.NotBefore.Add(-leeway)) {
		return ErrNotYetValid
	}

	return nil
}
