// Package store defines the session store: the single source of truth for
// the current bearer token and the identity cached next to it.
//
// Only the session layer and the refresh path write here. Everything else
// reads. Clear is idempotent and always removes both the token and the
// cached profile so there is never a half-dead session on disk.
package store

import (
	"context"
	"errors"

	"github.com/shopworks/storefront/internal/storefront/domain"
)

// ErrNotFound is returned when no token (or profile) is currently stored,
// or when the stored token's persistence window has lapsed.
var ErrNotFound = errors.New("store: not found")

type Store interface {
	// Token returns the currently stored bearer token, or ErrNotFound.
	Token(ctx context.Context) (string, error)

	// SetToken persists token, overwriting any previous value. The token is
	// kept for the store's fixed persistence window regardless of the
	// token's own embedded expiry.
	SetToken(ctx context.Context, token string) error

	// Profile returns the cached identity, or ErrNotFound.
	Profile(ctx context.Context) (domain.Profile, error)

	// SetProfile caches the identity fetched for the current token.
	SetProfile(ctx context.Context, profile domain.Profile) error

	// Clear removes the token and any cached identity. Clearing an empty
	// store is a no-op.
	Clear(ctx context.Context) error

	Close() error
}
