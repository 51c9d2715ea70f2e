// Package app provides the application context and dependency management
// for the visitlink CLI. It follows idiomatic Go patterns for CLI
// applications by centralizing configuration, dependency injection, and
// lifecycle management.
package app

import (
	"sync"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/clinicworks/visitlink/internal/masterlist"
	"github.com/clinicworks/visitlink/pkg/errors"
	"github.com/clinicworks/visitlink/pkg/identity"
)

// App represents the visitlink application with all its dependencies.
// It provides a centralized place for configuration, logging, and the
// master patient list, following the dependency injection pattern.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	// Configuration
	config *Config

	// Logger
	logger *zerolog.Logger

	// Master patient list (lazy-loaded, singleton)
	mu     sync.RWMutex
	master *identity.Master
}

// New creates a new App instance with the given version information.
// The app is initialized with default configuration that can be
// customized using functional options.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	config, err := LoadConfig()
	if err != nil {
		return nil, errors.WrapConfig("cli", err)
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

// Master returns the master patient list, loading it lazily from the
// configured path. This is thread-safe and ensures only one load happens.
// A missing file yields an empty list so first runs work without setup.
func (a *App) Master() (*identity.Master, error) {
	a.mu.RLock()
	if a.master != nil {
		m := a.master
		a.mu.RUnlock()
		return m, nil
	}
	a.mu.RUnlock()

	a.mu.Lock()
	defer a.mu.Unlock()

	// Double-check after acquiring write lock
	if a.master != nil {
		return a.master, nil
	}

	m, err := masterlist.LoadOrEmpty(a.config.MasterList)
	if err != nil {
		return nil, err
	}

	a.master = m
	return m, nil
}

// MasterPath returns the configured master patient list path.
func (a *App) MasterPath() string {
	return a.config.MasterList
}

// OutputFormat returns the configured output format.
func (a *App) OutputFormat() string {
	return a.config.Output
}

// OutputDir returns the configured artifact directory.
func (a *App) OutputDir() string {
	return a.config.OutputDir
}

// Threshold returns the configured name-similarity threshold.
func (a *App) Threshold() float64 {
	return a.config.Threshold
}

// Tolerance returns the configured monetary tolerance as a decimal amount.
func (a *App) Tolerance() decimal.Decimal {
	return decimal.New(a.config.ToleranceCents, -2)
}

// Interactive reports whether close-match review prompts are allowed.
func (a *App) Interactive() bool {
	return !a.config.NonInteractive
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

// WithMaster sets a custom master patient list (useful for testing).
func WithMaster(m *identity.Master) Option {
	return func(a *App) error {
		a.master = m
		return nil
	}
}
