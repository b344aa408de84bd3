package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopworks/storefront/internal/storefront/session"
	"github.com/shopworks/storefront/internal/storefront/store"
	"github.com/shopworks/storefront/internal/storefront/store/drivers/sqlite"
	"github.com/shopworks/storefront/pkg/apiclient"
	"github.com/shopworks/storefront/pkg/cryptox"
	"github.com/shopworks/storefront/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application wires the storefront client core: the durable session store,
// one client per backend and the session manager on top.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db store.Store

	Commerce *apiclient.Client
	Shop     *apiclient.Client
	Sessions *session.Manager
}

// New creates an Application instance with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	if cfg.CommerceURL == "" {
		return nil, fmt.Errorf("commerce backend URL is required")
	}

	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "storefront",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	// Set sealing key path before the store touches it
	if cfg.MasterKeyPath != "" {
		cryptox.SetMasterKeyPath(cfg.MasterKeyPath)
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	app.initClients()
	app.Sessions = session.NewManager(app.Commerce, app.db, app.logger)

	return app, nil
}

// Logger exposes the application logger.
func (app *Application) Logger() *slog.Logger { return app.logger }

// Close releases the session store.
func (app *Application) Close() error {
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing session store", "error", err)
		return err
	}
	return nil
}

// initDatabase initializes the session database and applies migrations.
func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host, app.cfg.TokenTTL)
	if err != nil {
		return fmt.Errorf("failed to initialize session store: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply store migrations: %w", err)
	}

	if err := db.Ping(context.Background()); err != nil {
		_ = db.Close()
		return fmt.Errorf("session store not reachable: %w", err)
	}

	app.logger.Info("session store migrations applied successfully")
	return nil
}

// initClients builds the two per-backend client façades.
func (app *Application) initClients() {
	app.Commerce = apiclient.New(apiclient.Config{
		BaseURL:       app.cfg.CommerceURL,
		Timeout:       app.cfg.RequestTimeout,
		UploadTimeout: app.cfg.UploadTimeout,
		DefaultHeaders: map[string]string{
			"Content-Type": "application/json",
			"Accept":       "application/json",
		},
		RefreshPath: "/api/auth/refresh",
	}, app.db, app.clientOptions("commerce")...)

	app.Shop = apiclient.New(apiclient.Config{
		BaseURL:       app.cfg.ShopURL,
		Timeout:       app.cfg.RequestTimeout,
		UploadTimeout: app.cfg.UploadTimeout,
		DefaultHeaders: map[string]string{
			"Accept": "application/json",
		},
	}, app.db, app.clientOptions("shop")...)
}

// clientOptions builds the shared option set for one backend client. Each
// client gets its own limiter so one slow backend cannot starve the other.
func (app *Application) clientOptions(backend string) []apiclient.Option {
	opts := []apiclient.Option{
		apiclient.WithLogger(app.logger.With("backend", backend)),
	}

	if app.cfg.RateLimitRequests > 0 {
		opts = append(opts, apiclient.WithRateLimit(apiclient.RateLimitConfig{
			RequestsPerWindow: app.cfg.RateLimitRequests,
			Window:            app.cfg.RateLimitWindow,
			Burst:             app.cfg.RateLimitBurst,
		}))
	}

	return opts
}
