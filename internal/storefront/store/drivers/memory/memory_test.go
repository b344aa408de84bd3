package memory

import (
	"context"
	"testing"
	"time"

	"github.com/shopworks/storefront/internal/storefront/domain"
	"github.com/shopworks/storefront/internal/storefront/store"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := NewStore(0)

	_, err := s.Token(ctx)
	require.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.SetToken(ctx, "T1"))

	token, err := s.Token(ctx)
	require.NoError(t, err)
	require.Equal(t, "T1", token)

	// Overwrite wins immediately
	require.NoError(t, s.SetToken(ctx, "T2"))
	token, err = s.Token(ctx)
	require.NoError(t, err)
	require.Equal(t, "T2", token)
}

func TestTokenWindowLapse(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	current := time.Unix(1700000000, 0)
	s := NewStore(time.Hour)
	s.now = func() time.Time { return current }

	require.NoError(t, s.SetToken(ctx, "T1"))

	// One instant before the boundary the token is still there
	current = current.Add(time.Hour - time.Nanosecond)
	token, err := s.Token(ctx)
	require.NoError(t, err)
	require.Equal(t, "T1", token)

	// At the exact expiry instant it is already absent
	current = current.Add(time.Nanosecond)
	_, err = s.Token(ctx)
	require.ErrorIs(t, err, store.ErrNotFound)

	current = current.Add(time.Hour)
	_, err = s.Token(ctx)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestClearRemovesTokenAndProfile(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := NewStore(0)

	require.NoError(t, s.SetToken(ctx, "T1"))
	require.NoError(t, s.SetProfile(ctx, domain.Profile{UserID: "u1", Username: "alice"}))

	require.NoError(t, s.Clear(ctx))

	_, err := s.Token(ctx)
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.Profile(ctx)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestClearOnEmptyStoreIsNoop(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := NewStore(0)

	require.NoError(t, s.Clear(ctx))
	require.NoError(t, s.Clear(ctx))
}

func TestProfileRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := NewStore(0)

	_, err := s.Profile(ctx)
	require.ErrorIs(t, err, store.ErrNotFound)

	profile := domain.Profile{UserID: "u1", Username: "alice", ShopID: "shop-9"}
	require.NoError(t, s.SetProfile(ctx, profile))

	got, err := s.Profile(ctx)
	require.NoError(t, err)
	require.Equal(t, profile, got)
}
