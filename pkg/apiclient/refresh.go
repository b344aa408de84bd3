package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/shopworks/storefront/pkg/slogx"
)

// refreshCall is the shared handle for one in-flight refresh. The first 401
// handler becomes the leader and performs the network call; every handler
// that hits a 401 while it runs becomes a follower and waits on done, then
// adopts the leader's outcome. A bare boolean would not work here: followers
// need the result, not just the fact that a refresh happened.
type refreshCall struct {
	done  chan struct{}
	token string
	err   error
}

// refreshToken coordinates a single system-wide token refresh. On success
// the new token is already persisted when this returns. On failure the store
// has been cleared and the error wraps ErrSessionEnded.
func (c *Client) refreshToken(ctx context.Context) (string, error) {
	c.refreshMu.Lock()
	if call := c.refresh; call != nil {
		c.refreshMu.Unlock()

		select {
		case <-call.done:
			return call.token, call.err
		case <-ctx.Done():
			return "", netError(ctx.Err())
		}
	}

	call := &refreshCall{done: make(chan struct{})}
	c.refresh = call
	c.refreshMu.Unlock()

	// The refresh outcome matters to every follower, so it must not die
	// with the leader's caller. Detach from the leader's cancellation and
	// bound the call by the client timeout instead.
	refreshCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.Timeout)
	call.token, call.err = c.doRefresh(refreshCtx)
	cancel()

	c.refreshMu.Lock()
	c.refresh = nil
	c.refreshMu.Unlock()
	close(call.done)

	return call.token, call.err
}

// doRefresh exchanges the refresh credential for a new bearer token: a
// credentialed POST with no body against the refresh endpoint, answered with
// an {error, data} envelope where data is the new token. Any failure is
// terminal for the session.
func (c *Client) doRefresh(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(c.cfg.RefreshPath), nil)
	if err != nil {
		return "", c.endSession(ctx, fmt.Sprintf("failed to create refresh request: %v", err))
	}

	for key, value := range c.cfg.DefaultHeaders {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", c.endSession(ctx, fmt.Sprintf("refresh request failed: %v", err))
	}
	defer resp.Body.Close()

	var env Envelope
	if decodeErr := json.NewDecoder(resp.Body).Decode(&env); decodeErr != nil {
		return "", c.endSession(ctx, fmt.Sprintf("failed to decode refresh response: %v", decodeErr))
	}

	if resp.StatusCode != http.StatusOK {
		return "", c.endSession(ctx, fmt.Sprintf("refresh rejected with status %d", resp.StatusCode))
	}
	if envErr := env.Err(); envErr != nil {
		return "", c.endSession(ctx, fmt.Sprintf("refresh rejected: %v", envErr))
	}

	var token string
	if err := json.Unmarshal(env.Data, &token); err != nil || token == "" {
		return "", c.endSession(ctx, "refresh returned no token")
	}

	if c.tokens != nil {
		if err := c.tokens.SetToken(ctx, token); err != nil {
			return "", c.endSession(ctx, fmt.Sprintf("failed to persist refreshed token: %v", err))
		}
	}

	slogx.FromContext(ctx).Debug("token refreshed")
	return token, nil
}

// endSession clears the token store (and with it any cached identity) and
// builds the terminal error. This is the one error path with a mandatory
// side effect.
func (c *Client) endSession(ctx context.Context, reason string) error {
	log := slogx.FromContext(ctx)

	if c.tokens != nil {
		if err := c.tokens.Clear(ctx); err != nil {
			log.Warn("failed to clear token store", "error", err)
		}
	}

	log.Info("session ended", "reason", reason)
	return fmt.Errorf("%w: %s", ErrSessionEnded, reason)
}
