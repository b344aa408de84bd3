package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopworks/storefront/pkg/idx"
	"github.com/shopworks/storefront/pkg/slogx"
)

// Do issues a request and returns the response body unmodified on success.
// body is JSON-encoded when non-nil. Failures come back normalized:
// *APIError for transport/HTTP errors, ErrSessionEnded when a 401 could not
// be recovered by a token refresh.
func (c *Client) Do(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	// Stamp the request id into the context logger so the refresh path,
	// which detaches from this context, still logs under it.
	reqID := idx.New().String()
	ctx = slogx.WithRequestID(slogx.WithContext(ctx, c.log), reqID)
	log := slogx.FromContext(ctx).With("method", method, "path", path)

	token, _ := c.currentToken(ctx)

	status, respBody, err := c.send(ctx, method, path, payload, token, reqID, c.cfg.Timeout)
	if err != nil {
		log.Debug("request failed", "error", err)
		return nil, netError(err)
	}

	if status >= 200 && status < 300 {
		return respBody, nil
	}

	// A 401 on a refresh-capable client gets exactly one refresh-and-retry,
	// but only when the request actually carried a bearer token: a 401 on an
	// unauthenticated call (a rejected login) means the credentials were bad,
	// not that the session lapsed. The request cannot pass through here
	// twice: the retry result is returned below whatever it is.
	if status == http.StatusUnauthorized && c.cfg.RefreshPath != "" && token != "" {
		log.Debug("unauthorized, refreshing token")

		newToken, refreshErr := c.refreshToken(ctx)
		if refreshErr != nil {
			return nil, refreshErr
		}

		status, respBody, err = c.send(ctx, method, path, payload, newToken, reqID, c.cfg.Timeout)
		if err != nil {
			return nil, netError(err)
		}
		if status >= 200 && status < 300 {
			log.Debug("request succeeded after refresh")
			return respBody, nil
		}
		return nil, parseErrorResponse(status, respBody)
	}

	return nil, parseErrorResponse(status, respBody)
}

// send performs one HTTP exchange: default headers, bearer attachment,
// request ID, timeout, full body read. It reports transport errors raw;
// normalization is the caller's job.
func (c *Client) send(
	ctx context.Context,
	method, path string,
	payload []byte,
	token, reqID string,
	timeout time.Duration,
) (int, []byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return 0, nil, err
		}
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, value := range c.cfg.DefaultHeaders {
		req.Header.Set(key, value)
	}
	req.Header.Set("X-Request-Id", reqID)

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return resp.StatusCode, respBody, nil
}
