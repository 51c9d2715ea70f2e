// Package deidentify scrubs PHI columns from a matched billing export before
// it is shared downstream. The matched output keeps only the internal
// account number and service data; the unmatched split deliberately retains
// patient names, because unmatched records need manual follow-up research.
package deidentify

import (
	"strings"

	"github.com/clinicworks/visitlink/pkg/constants"
	"github.com/clinicworks/visitlink/pkg/errors"
	"github.com/clinicworks/visitlink/pkg/tables"
)

// phiPatterns are lowercase substrings identifying columns that must not
// survive de-identification.
var phiPatterns = []string{
	"patient name",
	"patient (first",
	"birth date",
	"dob",
	"office key",
	"practice name",
	"provider profile",
	"provider (first",
}

// keepPatterns always survive, even when a PHI pattern would match.
var keepPatterns = []string{
	"patient account number",
	"service date",
}

// Result is the output of one de-identification pass.
type Result struct {
	Deidentified   *tables.Dataset // matched rows, PHI columns removed
	Unmatched      *tables.Dataset // unmatched rows, names retained for follow-up
	RemovedColumns []string
}

// Split separates a matched billing export into resolved and unresolved rows
// by the account-number sentinels, then strips PHI columns from the resolved
// side. Requires the account-number column, already standardized.
func Split(ds *tables.Dataset) (*Result, error) {
	if err := ds.Require(constants.ColumnAccountNumber); err != nil {
		return nil, err
	}

	removed := phiColumns(ds.Columns)

	deidentified := ds.Drop(removed...)
	deidentified.Name = ds.Name + "_deidentified"
	deidentified.Rows = nil

	unmatched := tables.New(ds.Name+"_unmatched", ds.Columns)

	for _, row := range ds.Rows {
		if isUnresolved(row.Get(constants.ColumnAccountNumber)) {
			unmatched.Append(row.Clone())
			continue
		}
		deidentified.Append(row.Clone())
	}

	result := &Result{
		Deidentified:   deidentified,
		Unmatched:      unmatched,
		RemovedColumns: removed,
	}

	if err := Validate(deidentified); err != nil {
		return nil, err
	}
	return result, nil
}

// Standardize renames the external matcher's ID column to the canonical
// account-number column shared with the clinical export. No-op when the
// dataset already uses the canonical name.
func Standardize(ds *tables.Dataset, idColumn string) (*tables.Dataset, error) {
	if ds.HasColumn(constants.ColumnAccountNumber) {
		return ds, nil
	}
	if !ds.HasColumn(idColumn) {
		return nil, errors.NewMissingColumnError(ds.Name, []string{idColumn})
	}
	return ds.RenameColumn(idColumn, constants.ColumnAccountNumber), nil
}

// Validate confirms no PHI column survived the scrub and the account-number
// column is still present. Run after every de-identification pass; a failure
// here means the output must not leave the machine.
func Validate(ds *tables.Dataset) error {
	if !ds.HasColumn(constants.ColumnAccountNumber) {
		return errors.NewValidationError("columns", ds.Name, "account number column missing from de-identified output")
	}

	for _, col := range ds.Columns {
		lower := strings.ToLower(col)
		if keep(lower) {
			continue
		}
		if strings.Contains(lower, "patient") && strings.Contains(lower, "name") {
			return errors.NewValidationError("columns", col, "patient name column still present")
		}
		if strings.Contains(lower, "birth") || strings.Contains(lower, "dob") {
			return errors.NewValidationError("columns", col, "date of birth column still present")
		}
	}
	return nil
}

// phiColumns returns the columns matching a PHI pattern, in dataset order.
func phiColumns(columns []string) []string {
	var out []string
	for _, col := range columns {
		lower := strings.ToLower(col)
		if keep(lower) {
			continue
		}
		for _, pattern := range phiPatterns {
			if strings.Contains(lower, pattern) {
				out = append(out, col)
				break
			}
		}
	}
	return out
}

func keep(lowerCol string) bool {
	for _, pattern := range keepPatterns {
		if strings.Contains(lowerCol, pattern) {
			return true
		}
	}
	return false
}

// isUnresolved reports whether the account value is one of the matcher
// sentinels rather than a real internal ID.
func isUnresolved(account string) bool {
	return account == constants.UnmatchedID || account == constants.CloseMatchID || account == ""
}
