// Package errors provides custom error types for the visitlink system.
// These errors enable programmatic error checking and keep the distinction
// between fatal configuration problems and recoverable per-row data-quality
// problems explicit throughout the pipeline.
package errors

import (
	"errors"
	"fmt"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Is, As, and Unwrap are aliases for the standard library equivalents so
// callers never need to import both packages.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
)

// Common sentinel errors for the visitlink system
var (
	// ErrNotFound indicates that a patient identity could not be resolved
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrCanceled indicates that an operation was canceled
	ErrCanceled = errors.New("operation canceled")
)

// ConfigError represents a configuration error. Configuration errors are
// fatal: the run aborts before any linkage begins.
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{
		Component: component,
		Message:   message,
		Err:       err,
	}
}

// MissingColumnError reports a dataset missing a required column.
// This is a configuration error, not a per-row failure.
type MissingColumnError struct {
	Dataset string
	Columns []string
}

// Error implements the error interface
func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("dataset %s missing required columns: %v", e.Dataset, e.Columns)
}

// Is implements errors.Is support
func (e *MissingColumnError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewMissingColumnError creates a new MissingColumnError
func NewMissingColumnError(dataset string, columns []string) *MissingColumnError {
	return &MissingColumnError{Dataset: dataset, Columns: columns}
}

// ResolutionError represents a failure to resolve an external identity to
// an internal patient identifier. It is recoverable at the record level:
// the record is routed to the unmatched partition with a reason code.
type ResolutionError struct {
	Name   string
	DOB    string
	Reason string // "not_found", "ambiguous", "rejected"
	Err    error
}

// Error implements the error interface
func (e *ResolutionError) Error() string {
	return fmt.Sprintf("identity %q (dob %s) unresolved: %s", e.Name, e.DOB, e.Reason)
}

// Unwrap implements errors.Unwrap
func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// NewResolutionError creates a new ResolutionError
func NewResolutionError(name, dob, reason string, err error) *ResolutionError {
	return &ResolutionError{Name: name, DOB: dob, Reason: reason, Err: err}
}

// KeyError represents a failure to build a visit join key for a record.
type KeyError struct {
	ID      string
	RawDate string
	Message string
	Err     error
}

// Error implements the error interface
func (e *KeyError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("cannot build visit key for %s (date %q): %s", e.ID, e.RawDate, e.Message)
	}
	return fmt.Sprintf("cannot build visit key (date %q): %s", e.RawDate, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *KeyError) Unwrap() error {
	return e.Err
}

// NewKeyError creates a new KeyError
func NewKeyError(id, rawDate, message string, err error) *KeyError {
	return &KeyError{ID: id, RawDate: rawDate, Message: message, Err: err}
}

// ValidationError represents a validation failure
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// ParseError represents an error when parsing data formats
type ParseError struct {
	Format  string // "csv", "json", "yaml", "date", "money"
	File    string
	Line    int
	Message string
	Err     error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.File != "" && e.Line > 0 {
		return fmt.Sprintf("parse error in %s at %s:%d: %s", e.Format, e.File, e.Line, e.Message)
	}
	if e.File != "" {
		return fmt.Sprintf("parse error in %s file %s: %s", e.Format, e.File, e.Message)
	}
	return fmt.Sprintf("%s parse error: %s", e.Format, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError creates a new ParseError
func NewParseError(format, file, message string, err error) *ParseError {
	return &ParseError{
		Format:  format,
		File:    file,
		Message: message,
		Err:     err,
	}
}

// IOError represents an error during I/O operations
type IOError struct {
	Operation string // "read", "write", "create", "open"
	Path      string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("IO error during %s of %s: %s", e.Operation, e.Path, e.Message)
	}
	return fmt.Sprintf("IO error during %s: %s", e.Operation, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *IOError) Unwrap() error {
	return e.Err
}

// NewIOError creates a new IOError
func NewIOError(operation, path string, err error) *IOError {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &IOError{
		Operation: operation,
		Path:      path,
		Message:   message,
		Err:       err,
	}
}

// Helper functions for error checking

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsCanceled checks if an error is a cancellation error
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled)
}

// Helper wrapping functions for common patterns

// WrapIO wraps an error as an IOError
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return NewIOError(operation, path, err)
}

// WrapParse wraps an error as a ParseError
func WrapParse(format, file string, err error) error {
	if err == nil {
		return nil
	}
	return NewParseError(format, file, err.Error(), err)
}

// WrapConfig wraps an error as a ConfigError
func WrapConfig(component string, err error) error {
	if err == nil {
		return nil
	}
	return NewConfigError(component, err.Error(), err)
}
