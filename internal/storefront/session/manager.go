// Package session pairs the stored bearer token with the identity derived
// from it, and keeps the two in sync with the commerce backend.
//
// The manager never redirects or decides navigation. It reports: a missing
// token is ErrNotAuthenticated, a dead session surfaces as the client's
// ErrSessionEnded, everything else propagates through the normal error path
// for the routing/guard layer to interpret.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopworks/storefront/internal/storefront/domain"
	"github.com/shopworks/storefront/internal/storefront/store"
	"github.com/shopworks/storefront/pkg/apiclient"
	"github.com/shopworks/storefront/pkg/jwtx"
)

// ErrNotAuthenticated reports that no token is currently stored.
var ErrNotAuthenticated = errors.New("session: not authenticated")

// Commerce backend paths the manager talks to.
const (
	loginPath  = "/api/auth/login"
	logoutPath = "/api/auth/logout"
	mePath     = "/api/users/me"
)

// Session is the logical pairing of the current token and the identity
// derived from it.
type Session struct {
	Token   string
	Claims  *jwtx.Claims
	Profile domain.Profile
}

// HasAuthority reports whether the session's token grants the named role.
func (s *Session) HasAuthority(name string) bool {
	return s.Claims != nil && s.Claims.HasAuthority(name)
}

// Credentials are the login inputs forwarded to the commerce backend. All
// verification happens server-side.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type Manager struct {
	commerce *apiclient.Client
	tokens   store.Store
	log      *slog.Logger

	now func() time.Time
}

func NewManager(commerce *apiclient.Client, tokens store.Store, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{
		commerce: commerce,
		tokens:   tokens,
		log:      log,
		now:      time.Now,
	}
}

// Login exchanges credentials for a bearer token, persists it, and caches
// the fetched identity.
func (m *Manager) Login(ctx context.Context, creds Credentials) (*Session, error) {
	body, err := m.commerce.Do(ctx, http.MethodPost, loginPath, creds)
	if err != nil {
		return nil, err
	}

	var token string
	if err := apiclient.Unwrap(body, &token); err != nil {
		return nil, fmt.Errorf("login response: %w", err)
	}

	claims, err := jwtx.DecodeUnverified(token)
	if err != nil {
		return nil, fmt.Errorf("login token: %w", err)
	}

	if err := m.tokens.SetToken(ctx, token); err != nil {
		return nil, fmt.Errorf("failed to persist token: %w", err)
	}

	profile, err := m.fetchProfile(ctx)
	if err != nil {
		return nil, err
	}

	m.log.Info("logged in", "user_id", profile.UserID)
	return &Session{Token: token, Claims: claims, Profile: profile}, nil
}

// Sync re-validates the session, typically on every navigation: reads the
// store and fetches the current identity. A missing token is
// ErrNotAuthenticated; a fetch failure surfaces unchanged so the caller can
// decide whether the session is dead.
func (m *Manager) Sync(ctx context.Context) (*Session, error) {
	token, err := m.tokens.Token(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotAuthenticated
		}
		return nil, err
	}

	profile, err := m.fetchProfile(ctx)
	if err != nil {
		return nil, err
	}

	// The token may have been rotated by a refresh during the fetch.
	token, err = m.tokens.Token(ctx)
	if err != nil {
		return nil, ErrNotAuthenticated
	}

	claims, err := jwtx.DecodeUnverified(token)
	if err != nil {
		return nil, fmt.Errorf("stored token: %w", err)
	}

	return &Session{Token: token, Claims: claims, Profile: profile}, nil
}

// Current rebuilds the session from the store alone, without touching the
// network. Useful between navigations when the cached identity is fresh
// enough.
func (m *Manager) Current(ctx context.Context) (*Session, error) {
	token, err := m.tokens.Token(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotAuthenticated
		}
		return nil, err
	}

	claims, err := jwtx.DecodeUnverified(token)
	if err != nil {
		return nil, fmt.Errorf("stored token: %w", err)
	}

	profile, err := m.tokens.Profile(ctx)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	return &Session{Token: token, Claims: claims, Profile: profile}, nil
}

// Roles derives the role list by decoding the stored token. Roles are never
// cached separately; the token stays the single source of truth.
func (m *Manager) Roles(ctx context.Context) ([]string, error) {
	token, err := m.tokens.Token(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotAuthenticated
		}
		return nil, err
	}

	claims, err := jwtx.DecodeUnverified(token)
	if err != nil {
		return nil, err
	}
	return claims.Authorities, nil
}

// Logout notifies the backend best-effort and clears the store. Calling it
// without an active session is a no-op.
func (m *Manager) Logout(ctx context.Context) error {
	if _, err := m.tokens.Token(ctx); err == nil {
		if _, err := m.commerce.Do(ctx, http.MethodPost, logoutPath, nil); err != nil {
			// The local session dies regardless of what the backend thinks.
			m.log.Debug("logout notification failed", "error", err)
		}
	}

	if err := m.tokens.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}

	m.log.Info("logged out")
	return nil
}

func (m *Manager) fetchProfile(ctx context.Context) (domain.Profile, error) {
	body, err := m.commerce.Do(ctx, http.MethodGet, mePath, nil)
	if err != nil {
		return domain.Profile{}, err
	}

	var dto struct {
		UserID      string `json:"user_id"`
		Username    string `json:"username"`
		DisplayName string `json:"display_name"`
		Email       string `json:"email"`
		ShopID      string `json:"shop_id"`
	}
	if err := apiclient.Unwrap(body, &dto); err != nil {
		return domain.Profile{}, fmt.Errorf("identity response: %w", err)
	}

	profile := domain.Profile{
		UserID:      dto.UserID,
		Username:    dto.Username,
		DisplayName: dto.DisplayName,
		Email:       dto.Email,
		ShopID:      dto.ShopID,
		FetchedAt:   m.now().UTC(),
	}

	if err := m.tokens.SetProfile(ctx, profile); err != nil {
		return domain.Profile{}, fmt.Errorf("failed to cache profile: %w", err)
	}

	return profile, nil
}
