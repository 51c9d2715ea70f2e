package deidentify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicworks/visitlink/pkg/errors"
	"github.com/clinicworks/visitlink/pkg/tables"
)

func billingExport() *tables.Dataset {
	ds := tables.New("amd", []string{
		"Patient Account Number",
		"Patient Name",
		"Patient Birth Date",
		"Service Date",
		"Office Key",
		"Charges",
	})
	ds.Append(tables.Row{
		"Patient Account Number": "A1",
		"Patient Name":           "Jane Doe",
		"Patient Birth Date":     "3/7/1985",
		"Service Date":           "09/23/2025",
		"Office Key":             "77",
		"Charges":                "175.00",
	})
	ds.Append(tables.Row{
		"Patient Account Number": "UNMATCHED",
		"Patient Name":           "Mystery Person",
		"Patient Birth Date":     "1/1/1970",
		"Service Date":           "09/24/2025",
		"Office Key":             "77",
		"Charges":                "60.00",
	})
	ds.Append(tables.Row{
		"Patient Account Number": "CLOSE_MATCH",
		"Patient Name":           "Almost Jane",
		"Patient Birth Date":     "3/7/1985",
		"Service Date":           "09/25/2025",
		"Office Key":             "77",
		"Charges":                "20.00",
	})
	return ds
}

func TestSplit(t *testing.T) {
	result, err := Split(billingExport())
	require.NoError(t, err)

	// PHI columns are gone from the matched side.
	assert.Equal(t, []string{"Patient Account Number", "Service Date", "Charges"},
		result.Deidentified.Columns)
	assert.ElementsMatch(t, []string{"Patient Name", "Patient Birth Date", "Office Key"},
		result.RemovedColumns)

	require.Equal(t, 1, result.Deidentified.Len())
	assert.Equal(t, "A1", result.Deidentified.Rows[0].Get("Patient Account Number"))
	assert.Equal(t, "", result.Deidentified.Rows[0].Get("Patient Name"))

	// Both sentinel rows land on the unmatched side, names intact.
	require.Equal(t, 2, result.Unmatched.Len())
	assert.Equal(t, "Mystery Person", result.Unmatched.Rows[0].Get("Patient Name"))
	assert.Equal(t, "Almost Jane", result.Unmatched.Rows[1].Get("Patient Name"))
}

func TestSplitRequiresAccountColumn(t *testing.T) {
	ds := tables.New("amd", []string{"Patient Name"})

	_, err := Split(ds)
	require.Error(t, err)

	var colErr *errors.MissingColumnError
	assert.True(t, errors.As(err, &colErr))
}

func TestStandardize(t *testing.T) {
	ds := tables.New("amd", []string{"Prompt_ID", "Charges"})
	ds.Append(tables.Row{"Prompt_ID": "A1", "Charges": "10.00"})

	out, err := Standardize(ds, "Prompt_ID")
	require.NoError(t, err)
	assert.Equal(t, []string{"Patient Account Number", "Charges"}, out.Columns)
	assert.Equal(t, "A1", out.Rows[0].Get("Patient Account Number"))

	// Already canonical: returned unchanged.
	again, err := Standardize(out, "Prompt_ID")
	require.NoError(t, err)
	assert.Same(t, out, again)
}

func TestStandardizeMissingColumn(t *testing.T) {
	ds := tables.New("amd", []string{"Charges"})

	_, err := Standardize(ds, "Prompt_ID")
	require.Error(t, err)
}

func TestValidateCatchesSurvivingPHI(t *testing.T) {
	ds := tables.New("bad", []string{"Patient Account Number", "Patient Name"})
	err := Validate(ds)
	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))

	ds = tables.New("bad", []string{"Patient Account Number", "DOB"})
	require.Error(t, Validate(ds))

	ds = tables.New("ok", []string{"Patient Account Number", "Service Date", "Charges"})
	assert.NoError(t, Validate(ds))
}
