// Package appcontext provides the shared application context interface
// used by all commands. This eliminates interface duplication across
// command packages and provides a single source of truth for app dependencies.
package appcontext

import (
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/clinicworks/visitlink/pkg/identity"
)

// Interface defines the application context interface that commands need.
// The App struct from cmd/visitlink/app automatically implements this
// interface, providing dependency injection for commands while keeping
// them testable with small fakes.
type Interface interface {
	// Master returns the master patient list, loading it lazily from the
	// configured path. An absent file yields an empty list, not an error.
	Master() (*identity.Master, error)

	// MasterPath returns the path the master patient list is read from
	// and saved back to.
	MasterPath() string

	// Logger returns the configured logger instance.
	// Commands should use this for all logging operations.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (json, yaml, table, csv).
	// Commands that support different output formats should use this.
	OutputFormat() string

	// OutputDir returns the directory reconciliation artifacts are written to.
	OutputDir() string

	// Threshold returns the configured name-similarity threshold.
	Threshold() float64

	// Tolerance returns the configured monetary comparison tolerance.
	Tolerance() decimal.Decimal

	// Interactive reports whether close matches may be escalated to the
	// operator on the terminal.
	Interactive() bool

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string

	// BuiltBy returns the build system identifier.
	BuiltBy() string
}
