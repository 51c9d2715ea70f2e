// Package tables provides the row and dataset model shared by both source
// exports. A Dataset is an ordered set of column→value rows exactly as read
// from one source file; the core never mutates rows after ingestion, and
// required columns are validated once at the ingestion boundary instead of
// being checked ad hoc throughout the pipeline.
package tables

import (
	"strings"

	"github.com/clinicworks/visitlink/pkg/errors"
)

// Row is a single record from one source file, keyed by column name.
// Column order lives on the owning Dataset; a Row is read-only to the core.
type Row map[string]string

// Get returns the trimmed value of a column, or "" when the column is absent.
func (r Row) Get(column string) string {
	return strings.TrimSpace(r[column])
}

// Has reports whether the row carries a non-empty value for the column.
func (r Row) Has(column string) bool {
	return r.Get(column) != ""
}

// Clone returns a copy of the row. Used by boundary components that derive
// new datasets (de-identification) without touching the original.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Dataset is one tabular source export: a named, ordered column set plus its
// rows in input order.
type Dataset struct {
	Name    string
	Columns []string
	Rows    []Row
}

// New creates an empty dataset with the given name and column order.
func New(name string, columns []string) *Dataset {
	return &Dataset{
		Name:    name,
		Columns: append([]string(nil), columns...),
	}
}

// Append adds a row, dropping values for columns the dataset does not declare.
func (d *Dataset) Append(row Row) {
	clean := make(Row, len(d.Columns))
	for _, col := range d.Columns {
		if v, ok := row[col]; ok {
			clean[col] = v
		}
	}
	d.Rows = append(d.Rows, clean)
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	return len(d.Rows)
}

// HasColumn reports whether the dataset declares the column.
func (d *Dataset) HasColumn(column string) bool {
	for _, col := range d.Columns {
		if col == column {
			return true
		}
	}
	return false
}

// Require validates that every listed column is declared. A missing column is
// a configuration error: the run must abort before any linkage begins.
func (d *Dataset) Require(columns ...string) error {
	var missing []string
	for _, col := range columns {
		if !d.HasColumn(col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return errors.NewMissingColumnError(d.Name, missing)
	}
	return nil
}

// FindColumn returns the first declared column whose lowercased name contains
// every given fragment. The exports rename columns between versions ("Patient
// Name (First Last)" vs "Patient Name"), so boundary components locate PHI
// columns by fragment rather than exact name. Returns "" when nothing matches.
func (d *Dataset) FindColumn(fragments ...string) string {
	for _, col := range d.Columns {
		lower := strings.ToLower(col)
		all := true
		for _, frag := range fragments {
			if !strings.Contains(lower, strings.ToLower(frag)) {
				all = false
				break
			}
		}
		if all {
			return col
		}
	}
	return ""
}

// Select returns a new dataset keeping only the listed columns, in the given
// order, with every row reduced to that column set. Unknown columns are
// silently skipped.
func (d *Dataset) Select(columns ...string) *Dataset {
	kept := make([]string, 0, len(columns))
	for _, col := range columns {
		if d.HasColumn(col) {
			kept = append(kept, col)
		}
	}

	out := New(d.Name, kept)
	for _, row := range d.Rows {
		out.Append(row)
	}
	return out
}

// Drop returns a new dataset without the listed columns.
func (d *Dataset) Drop(columns ...string) *Dataset {
	dropped := make(map[string]bool, len(columns))
	for _, col := range columns {
		dropped[col] = true
	}

	kept := make([]string, 0, len(d.Columns))
	for _, col := range d.Columns {
		if !dropped[col] {
			kept = append(kept, col)
		}
	}
	return d.Select(kept...)
}

// RenameColumn returns a new dataset with one column renamed, preserving its
// position. Returns the dataset unchanged when the column is absent.
func (d *Dataset) RenameColumn(from, to string) *Dataset {
	if !d.HasColumn(from) {
		return d
	}

	columns := make([]string, len(d.Columns))
	for i, col := range d.Columns {
		if col == from {
			columns[i] = to
		} else {
			columns[i] = col
		}
	}

	out := New(d.Name, columns)
	for _, row := range d.Rows {
		clean := row.Clone()
		clean[to] = clean[from]
		delete(clean, from)
		out.Append(clean)
	}
	return out
}
