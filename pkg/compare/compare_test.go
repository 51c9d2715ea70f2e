package compare

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicworks/visitlink/pkg/linker"
	"github.com/clinicworks/visitlink/pkg/tables"
	"github.com/clinicworks/visitlink/pkg/visitkey"
)

func pair(t *testing.T, amd, prompt tables.Row) linker.LinkedPair {
	t.Helper()
	key, err := visitkey.Build("A1", "09/23/2025")
	require.NoError(t, err)
	return linker.LinkedPair{Key: key, AMD: amd, Prompt: prompt}
}

func TestParseMoney(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"175.00", "175"},
		{"$1,234.56", "1234.56"},
		{" $ 12 ", "12"},
		{"-5.25", "-5.25"},
		{"", "0"},
		{"N/A", "0"},
		{"pending", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.True(t, ParseMoney(tt.in).Equal(decimal.RequireFromString(tt.want)),
				"ParseMoney(%q)", tt.in)
		})
	}
}

func TestCompareCleanPair(t *testing.T) {
	c, err := New()
	require.NoError(t, err)

	r := c.Compare(pair(t,
		tables.Row{"Charges": "150.00", "Insurance Payments": "120.00", "Patient Payments": "30.00"},
		tables.Row{"Primary Allowed": "150.00", "Primary Insurance Paid": "120.00", "Total Paid": "150.00", "Case Primary Insurance": "Acme Insurance"},
	))

	assert.True(t, r.Clean())
	assert.Empty(t, r.Mismatches)
	assert.Equal(t, "Acme Insurance", r.Insurance)
	assert.Equal(t, "", r.FlagString())
}

func TestCompareBilledButNotAllowed(t *testing.T) {
	c, err := New()
	require.NoError(t, err)

	r := c.Compare(pair(t,
		tables.Row{"Charges": "175.00"},
		tables.Row{"Primary Allowed": "0.00", "Case Primary Insurance": "Acme Insurance"},
	))

	assert.Equal(t, []Flag{FlagBilledNotAllowed}, r.Flags)
	assert.Equal(t, "[billed_but_not_allowed]", r.FlagString())
	// The field detail is still recorded even though the flag explains it.
	require.Len(t, r.Mismatches, 1)
	assert.Equal(t, FieldAllowedVsCharges, r.Mismatches[0].Field)
}

func TestCompareCollectedButUnposted(t *testing.T) {
	c, err := New()
	require.NoError(t, err)

	r := c.Compare(pair(t,
		tables.Row{"Charges": "100.00", "Insurance Payments": "60.00", "Patient Payments": "20.00"},
		tables.Row{"Primary Allowed": "100.00", "Total Paid": "0.00"},
	))

	assert.True(t, r.HasFlag(FlagCollectedUnposted))
	assert.False(t, r.HasFlag(FlagBilledNotAllowed))
}

func TestCompareAmountsDiffer(t *testing.T) {
	c, err := New()
	require.NoError(t, err)

	r := c.Compare(pair(t,
		tables.Row{"Charges": "100.00", "Insurance Payments": "80.00"},
		tables.Row{"Primary Allowed": "100.00", "Primary Insurance Paid": "75.00", "Total Paid": "80.00"},
	))

	assert.Equal(t, []Flag{FlagAmountsDiffer}, r.Flags)
	require.Len(t, r.Mismatches, 1)
	assert.Equal(t, FieldInsurancePaid, r.Mismatches[0].Field)
	assert.True(t, r.Mismatches[0].Delta.Equal(decimal.NewFromInt(-5)))
}

func TestCompareWithinTolerance(t *testing.T) {
	c, err := New()
	require.NoError(t, err)

	// One cent apart is equal under the default tolerance.
	r := c.Compare(pair(t,
		tables.Row{"Charges": "100.01"},
		tables.Row{"Primary Allowed": "100.00"},
	))

	assert.True(t, r.Clean())
}

func TestCompareCustomTolerance(t *testing.T) {
	c, err := New(WithTolerance(decimal.NewFromInt(5)))
	require.NoError(t, err)

	r := c.Compare(pair(t,
		tables.Row{"Charges": "104.00"},
		tables.Row{"Primary Allowed": "100.00"},
	))
	assert.True(t, r.Clean())

	r = c.Compare(pair(t,
		tables.Row{"Charges": "106.00"},
		tables.Row{"Primary Allowed": "100.00"},
	))
	assert.True(t, r.HasFlag(FlagAmountsDiffer))
}

func TestCompareTotality(t *testing.T) {
	c, err := New()
	require.NoError(t, err)

	// Malformed and absent fields degrade to zero, never panic or error.
	rows := []linker.LinkedPair{
		pair(t, tables.Row{}, tables.Row{}),
		pair(t, tables.Row{"Charges": "garbage"}, tables.Row{"Primary Allowed": "also garbage"}),
		pair(t, nil, nil),
	}
	for _, p := range rows {
		r := c.Compare(p)
		assert.True(t, r.Charges.IsZero())
		assert.True(t, r.Allowed.IsZero())
		assert.True(t, r.Clean())
	}
}

func TestCompareFlagsCoOccur(t *testing.T) {
	c, err := New()
	require.NoError(t, err)

	// Billed with nothing allowed, collected with nothing posted, and a
	// genuine insurance-paid gap: three flags on one verdict.
	r := c.Compare(pair(t,
		tables.Row{"Charges": "200.00", "Insurance Payments": "50.00", "Patient Payments": "0.00"},
		tables.Row{"Primary Allowed": "0.00", "Primary Insurance Paid": "25.00", "Total Paid": "0.00"},
	))

	assert.True(t, r.HasFlag(FlagBilledNotAllowed))
	assert.True(t, r.HasFlag(FlagCollectedUnposted))
	assert.True(t, r.HasFlag(FlagAmountsDiffer))
}

func TestNegativeToleranceRejected(t *testing.T) {
	_, err := New(WithTolerance(decimal.NewFromInt(-1)))
	assert.Error(t, err)
}
