package appcontext

import (
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/clinicworks/visitlink/pkg/constants"
	"github.com/clinicworks/visitlink/pkg/identity"
)

// Mock provides a mock implementation of Interface for testing.
// Each method can be customized by setting the corresponding function field.
// If a function field is nil, the method returns a default/zero value.
type Mock struct {
	MasterFunc       func() (*identity.Master, error)
	MasterPathFunc   func() string
	LoggerFunc       func() *zerolog.Logger
	OutputFormatFunc func() string
	OutputDirFunc    func() string
	ThresholdFunc    func() float64
	ToleranceFunc    func() decimal.Decimal
	InteractiveFunc  func() bool
	VersionFunc      func() string
	CommitFunc       func() string
	DateFunc         func() string
	BuiltByFunc      func() string
}

// Master returns a master list using the mock function or an empty list.
func (m *Mock) Master() (*identity.Master, error) {
	if m.MasterFunc != nil {
		return m.MasterFunc()
	}
	return identity.NewMaster(nil), nil
}

// MasterPath returns a path using the mock function or "".
func (m *Mock) MasterPath() string {
	if m.MasterPathFunc != nil {
		return m.MasterPathFunc()
	}
	return ""
}

// Logger returns a logger using the mock function or a no-op logger.
func (m *Mock) Logger() *zerolog.Logger {
	if m.LoggerFunc != nil {
		return m.LoggerFunc()
	}
	logger := zerolog.Nop()
	return &logger
}

// OutputFormat returns a format using the mock function or "".
func (m *Mock) OutputFormat() string {
	if m.OutputFormatFunc != nil {
		return m.OutputFormatFunc()
	}
	return ""
}

// OutputDir returns a directory using the mock function or ".".
func (m *Mock) OutputDir() string {
	if m.OutputDirFunc != nil {
		return m.OutputDirFunc()
	}
	return "."
}

// Threshold returns a threshold using the mock function or the default.
func (m *Mock) Threshold() float64 {
	if m.ThresholdFunc != nil {
		return m.ThresholdFunc()
	}
	return constants.DefaultSimilarityThreshold
}

// Tolerance returns a tolerance using the mock function or the default.
func (m *Mock) Tolerance() decimal.Decimal {
	if m.ToleranceFunc != nil {
		return m.ToleranceFunc()
	}
	return decimal.New(constants.DefaultToleranceCents, -2)
}

// Interactive reports interactivity using the mock function or false.
// Tests default to non-interactive so nothing ever blocks on stdin.
func (m *Mock) Interactive() bool {
	if m.InteractiveFunc != nil {
		return m.InteractiveFunc()
	}
	return false
}

// Version returns version using the mock function or "dev".
func (m *Mock) Version() string {
	if m.VersionFunc != nil {
		return m.VersionFunc()
	}
	return "dev"
}

// Commit returns commit using the mock function or "unknown".
func (m *Mock) Commit() string {
	if m.CommitFunc != nil {
		return m.CommitFunc()
	}
	return "unknown"
}

// Date returns date using the mock function or "unknown".
func (m *Mock) Date() string {
	if m.DateFunc != nil {
		return m.DateFunc()
	}
	return "unknown"
}

// BuiltBy returns builtBy using the mock function or "test".
func (m *Mock) BuiltBy() string {
	if m.BuiltByFunc != nil {
		return m.BuiltByFunc()
	}
	return "test"
}

// Ensure Mock implements Interface at compile time.
var _ Interface = (*Mock)(nil)
