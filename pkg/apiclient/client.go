// Package apiclient is the authenticated HTTP façade over the storefront's
// two backends: the commerce API (token-aware, refresh-capable) and the shop
// management API (error normalization only).
//
// Every request attaches the stored bearer token when one exists. On the
// commerce client a 401 triggers a single coordinated token refresh shared
// by all concurrently failing requests, followed by exactly one retry of the
// original call. A rejected refresh clears the token store and surfaces
// ErrSessionEnded; all other failures come back as *APIError.
package apiclient

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Default timeouts per backend contract.
const (
	DefaultTimeout       = 30 * time.Second
	DefaultUploadTimeout = 60 * time.Second
)

// TokenStore is the slice of the session store the client needs: read the
// token before each request, persist it after a refresh, clear it when the
// session dies. The internal store implementation satisfies this.
type TokenStore interface {
	Token(ctx context.Context) (string, error)
	SetToken(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// Config describes one backend.
type Config struct {
	// BaseURL is the backend root, e.g. "https://api.example.com".
	BaseURL string

	// Timeout bounds each request. Defaults to DefaultTimeout.
	Timeout time.Duration

	// UploadTimeout bounds multipart uploads. Defaults to DefaultUploadTimeout.
	UploadTimeout time.Duration

	// DefaultHeaders are attached to every outgoing request.
	DefaultHeaders map[string]string

	// RefreshPath is the credentialed refresh endpoint. Empty disables the
	// refresh-and-retry path entirely (the shop backend has no refresh).
	RefreshPath string
}

// RateLimitConfig throttles outbound requests to a backend.
type RateLimitConfig struct {
	// RequestsPerWindow is the number of requests allowed in the time window
	RequestsPerWindow int
	// Window is the time window for rate limiting
	Window time.Duration
	// Burst allows for temporary bursts above the rate limit
	Burst int
}

// Client issues requests against a single backend with authentication and
// error normalization applied transparently.
type Client struct {
	cfg        Config
	httpClient *http.Client
	tokens     TokenStore
	log        *slog.Logger
	limiter    *rate.Limiter

	// refresh is the shared in-flight refresh handle. Concurrent 401
	// handlers attach to it instead of racing their own refresh calls.
	refreshMu sync.Mutex
	refresh   *refreshCall
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient swaps the underlying http.Client (custom transport,
// cookie jar for the refresh credential, etc).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRateLimit enables client-side outbound throttling.
func WithRateLimit(cfg RateLimitConfig) Option {
	return func(c *Client) {
		ratePerSecond := float64(cfg.RequestsPerWindow) / cfg.Window.Seconds()
		c.limiter = rate.NewLimiter(rate.Limit(ratePerSecond), cfg.Burst)
	}
}

// WithLogger attaches a structured logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// New creates a client for one backend. tokens may be nil for a client that
// never authenticates, but UploadForm requires it.
func New(cfg Config, tokens TokenStore, opts ...Option) *Client {
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.UploadTimeout <= 0 {
		cfg.UploadTimeout = DefaultUploadTimeout
	}

	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{},
		tokens:     tokens,
		log:        slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// NewCommerceClient creates the primary-backend client: JSON in and out,
// refresh-capable.
func NewCommerceClient(baseURL string, tokens TokenStore, opts ...Option) *Client {
	return New(Config{
		BaseURL: baseURL,
		DefaultHeaders: map[string]string{
			"Content-Type": "application/json",
			"Accept":       "application/json",
		},
		RefreshPath: "/api/auth/refresh",
	}, tokens, opts...)
}

// NewShopClient creates the secondary-backend client. The shop backend
// normalizes errors only: no refresh, no retry.
func NewShopClient(baseURL string, tokens TokenStore, opts ...Option) *Client {
	return New(Config{
		BaseURL: baseURL,
		DefaultHeaders: map[string]string{
			"Accept": "application/json",
		},
	}, tokens, opts...)
}

// url builds a complete URL by appending the path to the base URL.
func (c *Client) url(path string) string {
	return c.cfg.BaseURL + path
}

// currentToken reads the token store. Absent tokens (or a missing store)
// simply mean the request goes out unauthenticated.
func (c *Client) currentToken(ctx context.Context) (string, bool) {
	if c.tokens == nil {
		return "", false
	}

	token, err := c.tokens.Token(ctx)
	if err != nil || token == "" {
		return "", false
	}
	return token, true
}
