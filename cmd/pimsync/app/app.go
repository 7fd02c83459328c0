// Package app provides the application context and dependency management
// for the pimsync CLI. It centralizes configuration, logging and the
// lifecycle of the import engine.
package app

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agentstation/pimsync"
	"github.com/agentstation/pimsync/internal/shopify"
	"github.com/agentstation/pimsync/internal/sources/pimrpc"
	"github.com/agentstation/pimsync/pkg/constants"
	"github.com/agentstation/pimsync/pkg/errors"
	"github.com/agentstation/pimsync/pkg/runlog"
)

// App represents the pimsync application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	config *Config
	logger *zerolog.Logger
	out    io.Writer

	// Engine and its stores (lazy-initialized, singleton)
	mu      sync.RWMutex
	engine  pimsync.Engine
	runLog  *runlog.YAMLStore
	closeDB func()
}

// New creates a new App instance with the given version information.
// Configuration is loaded immediately; the engine is built on first use.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
		out:     os.Stdout,
	}

	config, err := LoadConfig()
	if err != nil {
		return nil, errors.WrapResource("load", "config", "", err)
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Commit returns the git commit hash.
func (a *App) Commit() string {
	return a.commit
}

// Date returns the build date.
func (a *App) Date() string {
	return a.date
}

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string {
	return a.builtBy
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// OutputFormat returns the --format value, which may be empty.
func (a *App) OutputFormat() string {
	return a.config.Format
}

// Out is where commands write their results.
func (a *App) Out() io.Writer {
	return a.out
}

// RunLog returns the YAML run log store for the configured directory.
func (a *App) RunLog() *runlog.YAMLStore {
	if a.config.RunLog.Dir == "" {
		return nil
	}
	return runlog.NewYAMLStore(a.config.RunLog.Dir)
}

// Engine returns the import engine, creating it lazily if needed.
// This is thread-safe and ensures only one instance is created.
func (a *App) Engine() (pimsync.Engine, error) {
	a.mu.RLock()
	if a.engine != nil {
		e := a.engine
		a.mu.RUnlock()
		return e, nil
	}
	a.mu.RUnlock()

	a.mu.Lock()
	defer a.mu.Unlock()

	// Double-check after acquiring write lock
	if a.engine != nil {
		return a.engine, nil
	}

	if err := a.config.Validate(); err != nil {
		return nil, err
	}
	opts, err := a.buildEngineOptions()
	if err != nil {
		return nil, err
	}
	e, err := pimsync.New(opts...)
	if err != nil {
		return nil, errors.WrapResource("create", "engine", "", err)
	}

	a.engine = e
	return e, nil
}

// Shutdown releases the run log database pool, if one was opened.
func (a *App) Shutdown(_ context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closeDB != nil {
		a.closeDB()
		a.closeDB = nil
	}
	return nil
}

// buildEngineOptions constructs engine options from the app configuration.
// Callers hold a.mu.
func (a *App) buildEngineOptions() ([]pimsync.Option, error) {
	cfg := a.config

	source, err := pimrpc.New(pimrpc.Config{
		URL:        cfg.PIM.URL,
		Partitions: cfg.PIM.Partitions,
		User:       cfg.PIM.User,
		Password:   cfg.PIM.Password,
		Language:   cfg.PIM.Language,
	})
	if err != nil {
		return nil, err
	}

	catalog, err := shopify.New(shopify.Config{
		Store:       cfg.Shopify.Store,
		AccessToken: cfg.Shopify.AccessToken,
		APIVersion:  cfg.Shopify.APIVersion,
	})
	if err != nil {
		return nil, err
	}

	store, err := a.openRunLog()
	if err != nil {
		return nil, err
	}

	return []pimsync.Option{
		pimsync.WithSource(source),
		pimsync.WithCatalog(catalog),
		pimsync.WithRunLog(store),
		pimsync.WithVendor(cfg.Sync.Vendor),
		pimsync.WithMutationDelay(cfg.Sync.MutationDelay),
		pimsync.WithSplitThreshold(cfg.Sync.SplitThreshold),
		pimsync.WithNamespace(cfg.Sync.Namespace),
		pimsync.WithCategories(cfg.Sync.Categories),
	}, nil
}

// openRunLog combines the YAML directory with the PostgreSQL store when a
// database URL is configured.
func (a *App) openRunLog() (runlog.Store, error) {
	var stores runlog.Multi
	if yaml := a.RunLog(); yaml != nil {
		stores = append(stores, yaml)
	}

	if url := a.config.RunLog.DatabaseURL; url != "" {
		ctx, cancel := context.WithTimeout(context.Background(), constants.DefaultHTTPTimeout)
		defer cancel()
		pg, closeDB, err := runlog.OpenPostgres(ctx, url)
		if err != nil {
			return nil, err
		}
		a.closeDB = closeDB
		stores = append(stores, pg)
	}

	if len(stores) == 0 {
		return runlog.Discard{}, nil
	}
	return stores, nil
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithOutput redirects command output.
func WithOutput(w io.Writer) Option {
	return func(a *App) error {
		if w == nil {
			return errors.NewValidationError("output", w, "writer is required")
		}
		a.out = w
		return nil
	}
}

// WithEngine sets a prebuilt engine (useful for testing).
func WithEngine(e pimsync.Engine) Option {
	return func(a *App) error {
		a.engine = e
		return nil
	}
}
