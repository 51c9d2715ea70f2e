package masterlist

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicworks/visitlink/pkg/errors"
	"github.com/clinicworks/visitlink/pkg/identity"
	"github.com/clinicworks/visitlink/pkg/tables"
)

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)

	var cfgErr *errors.ConfigError
	assert.True(t, errors.As(err, &cfgErr))

	master, err := LoadOrEmpty(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.Zero(t, master.Len())
}

func TestSaveLoadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "master_patient_list.json")

	master := identity.NewMaster([]identity.Identity{
		{ID: "1001", Name: "Jane Doe", DOB: "3/7/1985"},
		{ID: "1002", Name: "John Smith", DOB: "6/1/1990"},
	})
	require.NoError(t, Save(path, master))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	back, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, back.Len())
	assert.True(t, back.Contains("JANE DOE", "03/07/1985"))
}

func TestSaveLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "master_patient_list.yaml")

	master := identity.NewMaster([]identity.Identity{
		{ID: "1001", Name: "Jane Doe", DOB: "3/7/1985"},
	})
	require.NoError(t, Save(path, master))

	back, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, back.Len())
	assert.True(t, back.Contains("Jane Doe", "3/7/1985"))
}

func TestLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	_, err := Load(path)
	require.Error(t, err)

	var parseErr *errors.ParseError
	assert.True(t, errors.As(err, &parseErr))
}

func rosterDataset(rows ...tables.Row) *tables.Dataset {
	ds := tables.New("roster", []string{ColumnRosterAccount, ColumnRosterName, ColumnRosterDOB})
	for _, row := range rows {
		ds.Append(row)
	}
	return ds
}

func TestMerge(t *testing.T) {
	master := identity.NewMaster([]identity.Identity{
		{ID: "1001", Name: "Jane Doe", DOB: "3/7/1985"},
	})

	roster := rosterDataset(
		// Already on the list, variant formatting.
		tables.Row{ColumnRosterAccount: "1001", ColumnRosterName: "JANE DOE", ColumnRosterDOB: "03/07/1985"},
		// New patient.
		tables.Row{ColumnRosterAccount: "1002", ColumnRosterName: "John Smith", ColumnRosterDOB: "6/1/1990"},
		// In-batch duplicate of the new patient.
		tables.Row{ColumnRosterAccount: "1002", ColumnRosterName: "John Smith", ColumnRosterDOB: "6/1/1990"},
		// Missing DOB.
		tables.Row{ColumnRosterAccount: "1003", ColumnRosterName: "No Birthday"},
	)

	stats, err := Merge(master, roster)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Added)
	assert.Equal(t, 1, stats.ExistingSkipped)
	assert.Equal(t, 1, stats.DuplicatesSkipped)
	assert.Equal(t, 1, stats.IncompleteSkipped)
	assert.Equal(t, 2, master.Len())
	assert.True(t, master.Contains("John Smith", "6/1/1990"))
}

func TestMergeMissingColumns(t *testing.T) {
	roster := tables.New("roster", []string{"Patient"})

	_, err := Merge(identity.NewMaster(nil), roster)
	require.Error(t, err)

	var colErr *errors.MissingColumnError
	assert.True(t, errors.As(err, &colErr))
}
