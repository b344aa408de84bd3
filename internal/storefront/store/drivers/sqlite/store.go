// Package sqlite implements the durable session store on a local SQLite
// database. Tokens are sealed before they hit disk and kept for a fixed
// persistence window independent of the token's own expiry.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopworks/storefront/internal/storefront/domain"
	"github.com/shopworks/storefront/internal/storefront/store"
	"github.com/shopworks/storefront/pkg/cryptox"

	_ "modernc.org/sqlite"
)

// DefaultTokenTTL is the persistence window for a stored token. This is
// intentionally independent of the token's embedded expiry; a stale token is
// still presented to the backend, which answers 401 and drives a refresh.
const DefaultTokenTTL = 7 * 24 * time.Hour

type Store struct {
	db  *sql.DB
	ttl time.Duration

	now func() time.Time
}

func NewStore(dsn string, ttl time.Duration) (*Store, error) {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// Enforce FKs
	if _, err := db.ExecContext(context.Background(), `PRAGMA foreign_keys = ON;`); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{
		db:  db,
		ttl: ttl,
		now: time.Now,
	}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Token(ctx context.Context) (string, error) {
	var sealed []byte
	var expiresAt int64

	err := s.db.QueryRowContext(ctx,
		`SELECT token_sealed, expires_at FROM session_token WHERE id = 1`,
	).Scan(&sealed, &expiresAt)
	if err != nil {
		return "", mapNotFound(err)
	}

	if s.now().Unix() >= expiresAt {
		// The persistence window lapsed; treat as absent.
		return "", store.ErrNotFound
	}

	token, err := cryptox.OpenToken(sealed)
	if err != nil {
		return "", fmt.Errorf("failed to unseal token: %w", err)
	}

	return token, nil
}

func (s *Store) SetToken(ctx context.Context, token string) error {
	sealed, err := cryptox.SealToken(token)
	if err != nil {
		return fmt.Errorf("failed to seal token: %w", err)
	}

	now := s.now()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO session_token (id, token_sealed, expires_at, updated_at)
		 VALUES (1, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		   token_sealed = excluded.token_sealed,
		   expires_at   = excluded.expires_at,
		   updated_at   = excluded.updated_at`,
		sealed, now.Add(s.ttl).Unix(), now.Unix(),
	)
	return err
}

func (s *Store) Profile(ctx context.Context) (domain.Profile, error) {
	var payload string

	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM session_profile WHERE id = 1`,
	).Scan(&payload)
	if err != nil {
		return domain.Profile{}, mapNotFound(err)
	}

	var profile domain.Profile
	if err := json.Unmarshal([]byte(payload), &profile); err != nil {
		return domain.Profile{}, fmt.Errorf("failed to decode cached profile: %w", err)
	}

	return profile, nil
}

func (s *Store) SetProfile(ctx context.Context, profile domain.Profile) error {
	payload, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO session_profile (id, payload, updated_at)
		 VALUES (1, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		   payload    = excluded.payload,
		   updated_at = excluded.updated_at`,
		string(payload), s.now().Unix(),
	)
	return err
}

// Clear removes the token and cached profile in one transaction. Clearing an
// empty store succeeds without effect.
func (s *Store) Clear(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback() // safe to call even after commit
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM session_token`); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM session_profile`); err != nil {
		return err
	}

	return tx.Commit()
}

func mapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}
