// Package masterlist loads, merges, and persists the master patient list:
// the reference mapping from (patient name, date of birth) to the internal
// account number. The list lives in a local JSON or YAML file and never
// leaves the machine.
package masterlist

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/clinicworks/visitlink/pkg/constants"
	"github.com/clinicworks/visitlink/pkg/errors"
	"github.com/clinicworks/visitlink/pkg/identity"
	"github.com/clinicworks/visitlink/pkg/tables"
)

// Roster columns required when merging new patients in.
const (
	ColumnRosterAccount = "Patient Account Number"
	ColumnRosterName    = "Patient"
	ColumnRosterDOB     = "Date of Birth"
)

// File is the on-disk master list document.
type File struct {
	LastUpdated   string              `json:"last_updated" yaml:"last_updated"`
	TotalPatients int                 `json:"total_patients" yaml:"total_patients"`
	Patients      []identity.Identity `json:"patients" yaml:"patients"`
}

// Load reads the master list at path. A missing file is a configuration
// error: reconciliation cannot run without reference identities.
func Load(path string) (*identity.Master, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewConfigError("masterlist", "master patient list not found: "+path, errors.ErrNotFound)
		}
		return nil, errors.WrapIO("read", path, err)
	}

	var doc File
	if isYAML(path) {
		err = yaml.Unmarshal(data, &doc)
	} else {
		err = json.Unmarshal(data, &doc)
	}
	if err != nil {
		return nil, errors.WrapParse(format(path), path, err)
	}

	return identity.NewMaster(doc.Patients), nil
}

// LoadOrEmpty reads the master list at path, treating a missing file as an
// empty list. Used by the update flow, which may be creating the file.
func LoadOrEmpty(path string) (*identity.Master, error) {
	master, err := Load(path)
	if err != nil {
		var cfgErr *errors.ConfigError
		if errors.As(err, &cfgErr) {
			return identity.NewMaster(nil), nil
		}
		return nil, err
	}
	return master, nil
}

// Save writes the master list to path, choosing JSON or YAML by extension.
// The file may carry PHI, so it is written owner-only.
func Save(path string, master *identity.Master) error {
	doc := File{
		LastUpdated:   time.Now().UTC().Format(time.RFC3339),
		TotalPatients: master.Len(),
		Patients:      master.Entries(),
	}

	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(doc)
	} else {
		data, err = json.MarshalIndent(doc, "", "  ")
	}
	if err != nil {
		return errors.WrapParse(format(path), path, err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
			return errors.WrapIO("mkdir", dir, err)
		}
	}
	if err := os.WriteFile(path, data, os.FileMode(constants.SecureFilePermissions)); err != nil {
		return errors.WrapIO("write", path, err)
	}
	return nil
}

// MergeStats reports what a roster merge did.
type MergeStats struct {
	Added             int
	DuplicatesSkipped int // duplicate (name, dob) rows within the roster batch
	ExistingSkipped   int // roster rows already present in the master list
	IncompleteSkipped int // roster rows missing account, name, or dob
}

// Merge folds a patient roster dataset into the master list in memory. One
// entry per unique (name, dob): duplicates within the batch and patients
// already on the list are skipped and counted. Call Save to persist.
func Merge(master *identity.Master, roster *tables.Dataset) (MergeStats, error) {
	var stats MergeStats

	if err := roster.Require(ColumnRosterAccount, ColumnRosterName, ColumnRosterDOB); err != nil {
		return stats, err
	}

	seen := make(map[string]bool, roster.Len())
	for _, row := range roster.Rows {
		id := row.Get(ColumnRosterAccount)
		name := row.Get(ColumnRosterName)
		dob := row.Get(ColumnRosterDOB)

		if id == "" || name == "" || dob == "" {
			stats.IncompleteSkipped++
			continue
		}

		key := identity.LookupKey(name, dob)
		if seen[key] {
			stats.DuplicatesSkipped++
			continue
		}
		seen[key] = true

		if master.Contains(name, dob) {
			stats.ExistingSkipped++
			continue
		}

		master.Append(identity.Identity{ID: id, Name: name, DOB: dob})
		stats.Added++
	}

	return stats, nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

func format(path string) string {
	if isYAML(path) {
		return "yaml"
	}
	return "json"
}
