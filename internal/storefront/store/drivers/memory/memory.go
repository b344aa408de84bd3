// Package memory provides an in-process session store for tests and
// ephemeral runs where durability across restarts is not needed.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/shopworks/storefront/internal/storefront/domain"
	"github.com/shopworks/storefront/internal/storefront/store"
)

type Store struct {
	ttl time.Duration

	mu        sync.RWMutex
	token     string
	expiresAt time.Time
	profile   *domain.Profile
	now       func() time.Time
}

// NewStore creates a memory store keeping tokens for ttl. A zero ttl falls
// back to the default 7 day window.
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &Store{ttl: ttl, now: time.Now}
}

func (s *Store) Token(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Absent at the exact expiry instant, same boundary as the sqlite driver.
	if s.token == "" || !s.now().Before(s.expiresAt) {
		return "", store.ErrNotFound
	}
	return s.token, nil
}

func (s *Store) SetToken(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = token
	s.expiresAt = s.now().Add(s.ttl)
	return nil
}

func (s *Store) Profile(_ context.Context) (domain.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.profile == nil {
		return domain.Profile{}, store.ErrNotFound
	}
	return *s.profile, nil
}

func (s *Store) SetProfile(_ context.Context, profile domain.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.profile = &profile
	return nil
}

func (s *Store) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = ""
	s.expiresAt = time.Time{}
	s.profile = nil
	return nil
}

func (s *Store) Close() error { return nil }
