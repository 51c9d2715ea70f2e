package project

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicworks/visitlink/pkg/compare"
	"github.com/clinicworks/visitlink/pkg/linker"
	"github.com/clinicworks/visitlink/pkg/tables"
	"github.com/clinicworks/visitlink/pkg/visitkey"
)

func key(t *testing.T, id, dos string) visitkey.Key {
	t.Helper()
	k, err := visitkey.Build(id, dos)
	require.NoError(t, err)
	return k
}

func TestMatchedProjection(t *testing.T) {
	c, err := compare.New()
	require.NoError(t, err)

	result := c.Compare(linker.LinkedPair{
		Key: key(t, "A1", "09/23/2025"),
		AMD: tables.Row{"Charges": "175.00"},
		Prompt: tables.Row{
			"Primary Allowed":        "0.00",
			"Case Primary Insurance": "Acme Insurance",
		},
	})

	out := Matched([]compare.Result{result})

	assert.Equal(t, matchedColumns, out.Columns)
	require.Equal(t, 1, out.Len())

	row := out.Rows[0]
	assert.Equal(t, "A1", row.Get(ColAccount))
	assert.Equal(t, "09/23/2025", row.Get(ColDOS))
	assert.Equal(t, "Acme Insurance", row.Get(ColInsurance))
	assert.Equal(t, "0.00", row.Get(ColPromptAllowed))
	assert.Equal(t, "175.00", row.Get(ColAMDCharges))
	assert.Equal(t, "NO", row.Get(ColBilledMatch))
	assert.Equal(t, "YES", row.Get(ColInsuranceMatch))
	assert.Equal(t, "YES", row.Get(ColTotalPaidMatch))
	assert.Equal(t, "[billed_but_not_allowed]", row.Get(ColDiscrepancies))
}

func TestMatchedProjectionCleanPair(t *testing.T) {
	c, err := compare.New()
	require.NoError(t, err)

	result := c.Compare(linker.LinkedPair{
		Key:    key(t, "A2", "10/01/2025"),
		AMD:    tables.Row{"Charges": "80.00", "Insurance Payments": "80.00"},
		Prompt: tables.Row{"Primary Allowed": "80.00", "Primary Insurance Paid": "80.00", "Total Paid": "80.00"},
	})

	out := Matched([]compare.Result{result})
	require.Equal(t, 1, out.Len())
	assert.Equal(t, "None", out.Rows[0].Get(ColDiscrepancies))
	assert.Equal(t, "YES", out.Rows[0].Get(ColBilledMatch))
}

func TestInsuranceColumnDirectlyAfterDOS(t *testing.T) {
	for _, columns := range [][]string{matchedColumns, promptOnlyColumns, amdOnlyColumns} {
		dosAt := -1
		for i, col := range columns {
			if col == ColDOS {
				dosAt = i
			}
		}
		require.GreaterOrEqual(t, dosAt, 0)
		assert.Equal(t, ColInsurance, columns[dosAt+1])
	}
}

func TestPromptOnlyProjection(t *testing.T) {
	out := PromptOnly([]linker.Unmatched{{
		Key:    key(t, "B7", "9/25/2025"),
		Origin: linker.OriginPrompt,
		Row: tables.Row{
			"Case Primary Insurance": "Blue Shield",
			"Provider":               "Dr. Reyes",
			"Primary Allowed":        "45.00",
			"Total Paid":             "45.00",
			"Visit Stage":            "Complete",
		},
	}})

	assert.Equal(t, promptOnlyColumns, out.Columns)
	require.Equal(t, 1, out.Len())

	row := out.Rows[0]
	assert.Equal(t, "B7", row.Get(ColAccount))
	assert.Equal(t, "09/25/2025", row.Get(ColDOS))
	assert.Equal(t, "Blue Shield", row.Get(ColInsurance))
	assert.Equal(t, "Dr. Reyes", row.Get("Provider"))
	assert.Equal(t, NotePromptOnly, row.Get(ColNote))
}

func TestPromptOnlyExcludedRowKeepsRawFields(t *testing.T) {
	// A clinical row with an unparseable DOS never gets a key; the
	// projection must fall back to the raw export fields.
	out := PromptOnly([]linker.Unmatched{{
		Origin: linker.OriginPrompt,
		Reason: "invalid_key",
		Row: tables.Row{
			"Patient Account Number": "A1",
			"DOS":                    "not a date",
			"Case Primary Insurance": "Acme Insurance",
		},
	}})

	require.Equal(t, 1, out.Len())
	row := out.Rows[0]
	assert.Equal(t, "A1", row.Get(ColAccount))
	assert.Equal(t, "not a date", row.Get(ColDOS))
	assert.Equal(t, "Acme Insurance", row.Get(ColInsurance))
}

func TestAMDOnlyProjectionEmptyInsurance(t *testing.T) {
	out := AMDOnly([]linker.Unmatched{{
		Key:    key(t, "A9", "9/26/2025"),
		Origin: linker.OriginAMD,
		Row: tables.Row{
			"Charges":            "120.00",
			"Insurance Payments": "0.00",
			"Patient Payments":   "20.00",
			"Current Balance":    "100.00",
		},
	}})

	assert.Equal(t, amdOnlyColumns, out.Columns)
	require.Equal(t, 1, out.Len())

	row := out.Rows[0]
	assert.Equal(t, "A9", row.Get(ColAccount))
	// The billing export has no insurance attribute; the empty value is the
	// contract, not missing data.
	assert.True(t, row.Has(ColInsurance))
	assert.Equal(t, "", row.Get(ColInsurance))
	assert.Equal(t, "120.00", row.Get("Charges"))
	assert.Equal(t, NoteAMDOnly, row.Get(ColNote))
}

func TestAMDOnlyUnresolvedIdentity(t *testing.T) {
	out := AMDOnly([]linker.Unmatched{{
		Origin: linker.OriginAMD,
		Reason: "not_found",
		Row: tables.Row{
			"Service Date": "9/27/2025",
			"Charges":      "60.00",
		},
	}})

	require.Equal(t, 1, out.Len())
	row := out.Rows[0]
	assert.Equal(t, "UNMATCHED", row.Get(ColAccount))
	assert.Equal(t, "9/27/2025", row.Get(ColDOS))
}

func TestBillingMasterMergesProjections(t *testing.T) {
	c, err := compare.New()
	require.NoError(t, err)

	verdict := c.Compare(linker.LinkedPair{
		Key:    key(t, "A1", "09/23/2025"),
		AMD:    tables.Row{"Charges": "80.00", "Insurance Payments": "80.00"},
		Prompt: tables.Row{"Primary Allowed": "80.00", "Primary Insurance Paid": "80.00", "Total Paid": "80.00", "Case Primary Insurance": "Acme Insurance"},
	})
	matched := Matched([]compare.Result{verdict})

	promptOnly := PromptOnly([]linker.Unmatched{{
		Origin: linker.OriginPrompt,
		Key:    key(t, "B2", "10/01/2025"),
		Row: tables.Row{
			"Primary Allowed": "45.00",
			"Total Paid":      "45.00",
			"Provider":        "Dr. Reyes",
		},
	}})

	out := BillingMaster(matched, promptOnly)

	assert.Equal(t, billingMasterColumns, out.Columns)
	require.Equal(t, 2, out.Len())

	first := out.Rows[0]
	assert.Equal(t, "A1", first.Get(ColAccount))
	assert.Equal(t, SourceBoth, first.Get(ColSource))
	assert.Equal(t, StatusMatched, first.Get(ColMatchStatus))
	assert.Equal(t, "80.00", first.Get(ColPromptAllowed))
	assert.Equal(t, "None", first.Get(ColDiscrepancies))

	second := out.Rows[1]
	assert.Equal(t, "B2", second.Get(ColAccount))
	assert.Equal(t, SourcePromptOnly, second.Get(ColSource))
	assert.Equal(t, StatusUnmatchedAMD, second.Get(ColMatchStatus))
	assert.Equal(t, "45.00", second.Get(ColPromptAllowed))
	assert.Equal(t, "45.00", second.Get(ColPromptTotalPaid))
	assert.Equal(t, "Dr. Reyes", second.Get("Provider"))
	// Amount columns the billing side never produced stay empty.
	assert.Equal(t, "", second.Get(ColAMDCharges))
	assert.False(t, second.Has("Primary Allowed"))
}

func TestProjectionsEmptyInput(t *testing.T) {
	assert.Zero(t, Matched(nil).Len())
	assert.Zero(t, PromptOnly(nil).Len())
	assert.Zero(t, AMDOnly(nil).Len())
	assert.Zero(t, BillingMaster(Matched(nil), PromptOnly(nil)).Len())
}
