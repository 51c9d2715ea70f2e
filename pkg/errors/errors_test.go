package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestResolutionError(t *testing.T) {
	err := NewResolutionError("JANE DOE", "1/1/1990", "not_found", ErrNotFound)

	if !strings.Contains(err.Error(), "JANE DOE") {
		t.Errorf("error message should contain the name, got %q", err.Error())
	}
	if !stderrors.Is(err, ErrNotFound) {
		t.Error("ResolutionError wrapping ErrNotFound should match errors.Is(err, ErrNotFound)")
	}
	if !IsNotFound(err) {
		t.Error("IsNotFound should report true")
	}
}

func TestMissingColumnError(t *testing.T) {
	err := NewMissingColumnError("amd", []string{"Service Date", "Charges"})

	if !stderrors.Is(err, ErrInvalidInput) {
		t.Error("MissingColumnError should match ErrInvalidInput")
	}
	if !strings.Contains(err.Error(), "Service Date") {
		t.Errorf("error message should name the missing columns, got %q", err.Error())
	}
}

func TestConfigErrorUnwrap(t *testing.T) {
	inner := New("file not found")
	err := NewConfigError("masterlist", "cannot load master list", inner)

	if !stderrors.Is(err, inner) {
		t.Error("ConfigError should unwrap to the inner error")
	}
	if !strings.Contains(err.Error(), "masterlist") {
		t.Errorf("error message should name the component, got %q", err.Error())
	}
}

func TestKeyError(t *testing.T) {
	err := NewKeyError("A1", "13/45/2025", "unparseable date of service", nil)
	want := `cannot build visit key for A1 (date "13/45/2025"): unparseable date of service`
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}

func TestWrapHelpers(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"io", WrapIO("read", "data/amd.csv", New("permission denied")), "IO error during read of data/amd.csv"},
		{"parse", WrapParse("csv", "data/amd.csv", New("bad quoting")), "parse error in csv file data/amd.csv"},
		{"config", WrapConfig("ingest", New("missing file")), "configuration error in ingest"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err == nil {
				t.Fatal("expected non-nil error")
			}
			if !strings.Contains(tt.err.Error(), tt.want) {
				t.Errorf("got %q, want substring %q", tt.err.Error(), tt.want)
			}
		})
	}

	// Wrapping nil stays nil.
	if WrapIO("read", "x", nil) != nil {
		t.Error("WrapIO(nil) should be nil")
	}
}

func TestSentinelMatching(t *testing.T) {
	wrapped := fmt.Errorf("resolving row 7: %w", ErrCanceled)
	if !IsCanceled(wrapped) {
		t.Error("IsCanceled should see through fmt.Errorf wrapping")
	}
	if IsNotFound(wrapped) {
		t.Error("IsNotFound should not match ErrCanceled")
	}
}
