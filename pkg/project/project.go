// Package project renders the three reconciliation partitions into flat
// tabular outputs with fixed column contracts. Column names and order are a
// published compatibility surface: downstream spreadsheet filters address
// these columns positionally and by name, so changes here require a version
// bump, not a quiet edit. The insurance column always sits directly after
// the date of service so consumers can group by carrier without reordering.
package project

import (
	"github.com/clinicworks/visitlink/pkg/compare"
	"github.com/clinicworks/visitlink/pkg/constants"
	"github.com/clinicworks/visitlink/pkg/linker"
	"github.com/clinicworks/visitlink/pkg/tables"
)

// Output column names shared across projections.
const (
	ColAccount   = "Patient Account Number"
	ColDOS       = "DOS"
	ColInsurance = "Case_Primary_Insurance"
	ColNote      = "Note"
)

// Matched projection columns.
const (
	ColPromptAllowed      = "Prompt_Allowed"
	ColAMDCharges         = "AMD_Charges"
	ColBilledMatch        = "Billed_Match"
	ColPromptInsurancePd  = "Prompt_Insurance_Paid"
	ColAMDInsurancePd     = "AMD_Insurance_Paid"
	ColInsuranceMatch     = "Insurance_Match"
	ColPromptTotalPaid    = "Prompt_Total_Paid"
	ColAMDTotalPaid       = "AMD_Total_Paid"
	ColTotalPaidMatch     = "Total_Paid_Match"
	ColDiscrepancies      = "Discrepancies"
	discrepancyNoneMarker = "None"
)

// Billing master columns and indicator values. The master sheet merges the
// matched and clinical-only projections so billers work one file instead of
// two; Source and Match_Status say which projection each row came from.
const (
	ColSource      = "Source"
	ColMatchStatus = "Match_Status"

	SourceBoth       = "Both AMD & Prompt"
	SourcePromptOnly = "Prompt Only"

	StatusMatched      = "Matched"
	StatusUnmatchedAMD = "Unmatched in AMD"
)

// Follow-up notes carried on the unmatched projections.
const (
	NotePromptOnly = "In Prompt but NOT in AMD - possible billing delay or data entry issue"
	NoteAMDOnly    = "In AMD but NOT in Prompt - UNMATCHED patient or data discrepancy"
)

var (
	matchedColumns = []string{
		ColAccount, ColDOS, ColInsurance,
		ColPromptAllowed, ColAMDCharges, ColBilledMatch,
		ColPromptInsurancePd, ColAMDInsurancePd, ColInsuranceMatch,
		ColPromptTotalPaid, ColAMDTotalPaid, ColTotalPaidMatch,
		ColDiscrepancies,
	}
	promptOnlyColumns = []string{
		ColAccount, ColDOS, ColInsurance,
		"Provider", "Primary Allowed", "Total Paid", "Visit Stage",
		ColNote,
	}
	billingMasterColumns = []string{
		ColAccount, ColDOS, ColInsurance,
		ColSource, ColMatchStatus,
		"Provider", "Referral Source", "Visit Facility",
		ColPromptAllowed, ColAMDCharges, ColBilledMatch,
		ColPromptInsurancePd, ColAMDInsurancePd, ColInsuranceMatch,
		ColPromptTotalPaid, ColAMDTotalPaid, ColTotalPaidMatch,
		"Visit Stage", ColDiscrepancies, ColNote,
	}
	amdOnlyColumns = []string{
		ColAccount, ColDOS, ColInsurance,
		"Charges", "Insurance Payments", "Patient Payments", "Current Balance",
		ColNote,
	}
)

// Matched projects the comparison verdicts, one row per linked pair, in
// verdict order.
func Matched(results []compare.Result) *tables.Dataset {
	out := tables.New("matched", matchedColumns)
	for _, r := range results {
		out.Append(tables.Row{
			ColAccount:           r.Key.ID(),
			ColDOS:               r.Key.DOS(),
			ColInsurance:         r.Insurance,
			ColPromptAllowed:     r.Allowed.StringFixed(2),
			ColAMDCharges:        r.Charges.StringFixed(2),
			ColBilledMatch:       yesNo(!mismatched(r, compare.FieldAllowedVsCharges)),
			ColPromptInsurancePd: r.InsurancePaid.StringFixed(2),
			ColAMDInsurancePd:    r.InsurancePayments.StringFixed(2),
			ColInsuranceMatch:    yesNo(!mismatched(r, compare.FieldInsurancePaid)),
			ColPromptTotalPaid:   r.TotalPaid.StringFixed(2),
			ColAMDTotalPaid:      r.InsurancePayments.Add(r.PatientPayments).StringFixed(2),
			ColTotalPaidMatch:    yesNo(!mismatched(r, compare.FieldTotalPaid)),
			ColDiscrepancies:     discrepancies(r),
		})
	}
	return out
}

// PromptOnly projects visits seen clinically but never billed.
func PromptOnly(records []linker.Unmatched) *tables.Dataset {
	out := tables.New("prompt_only", promptOnlyColumns)
	for _, rec := range records {
		account, dos := rec.Key.ID(), rec.Key.DOS()
		if rec.Reason != "" && account == "" {
			// Row was excluded before a key was built (unparseable DOS);
			// the clinical export still carries both fields raw.
			account = rec.Row.Get(constants.ColumnAccountNumber)
			dos = rec.Row.Get(constants.ColumnDOS)
		}
		out.Append(tables.Row{
			ColAccount:        account,
			ColDOS:            dos,
			ColInsurance:      rec.Row.Get(constants.ColumnInsurance),
			"Provider":        rec.Row.Get("Provider"),
			"Primary Allowed": rec.Row.Get(constants.ColumnAllowed),
			"Total Paid":      rec.Row.Get(constants.ColumnTotalPaid),
			"Visit Stage":     rec.Row.Get("Visit Stage"),
			ColNote:           NotePromptOnly,
		})
	}
	return out
}

// BillingMaster merges the matched and prompt-only projections into one
// dataset over the union column set, matched rows first. Prompt-only amounts
// are remapped from the raw export headings into the master schema; columns
// a source projection never carries stay empty.
func BillingMaster(matched, promptOnly *tables.Dataset) *tables.Dataset {
	out := tables.New("billing_master", billingMasterColumns)
	for _, row := range matched.Rows {
		merged := row.Clone()
		merged[ColSource] = SourceBoth
		merged[ColMatchStatus] = StatusMatched
		out.Append(merged)
	}
	for _, row := range promptOnly.Rows {
		merged := row.Clone()
		merged[ColSource] = SourcePromptOnly
		merged[ColMatchStatus] = StatusUnmatchedAMD
		merged[ColPromptAllowed] = row.Get("Primary Allowed")
		merged[ColPromptTotalPaid] = row.Get("Total Paid")
		out.Append(merged)
	}
	return out
}

// AMDOnly projects charges billed with no matching clinical record. The
// billing export carries no insurance attribute; the empty insurance value
// is the contractual placeholder that keeps the column contract aligned
// across all three projections.
func AMDOnly(records []linker.Unmatched) *tables.Dataset {
	out := tables.New("amd_only", amdOnlyColumns)
	for _, rec := range records {
		account, dos := rec.Key.ID(), rec.Key.DOS()
		if rec.Reason != "" && account == "" {
			// Identity never resolved, so no key was built; surface the
			// sentinel and the raw service date for manual research.
			account = constants.UnmatchedID
			dos = rec.Row.Get(constants.ColumnServiceDate)
		}
		out.Append(tables.Row{
			ColAccount:           account,
			ColDOS:               dos,
			ColInsurance:         "",
			"Charges":            rec.Row.Get(constants.ColumnCharges),
			"Insurance Payments": rec.Row.Get(constants.ColumnInsurancePayments),
			"Patient Payments":   rec.Row.Get(constants.ColumnPatientPayments),
			"Current Balance":    rec.Row.Get("Current Balance"),
			ColNote:              NoteAMDOnly,
		})
	}
	return out
}

func mismatched(r compare.Result, field string) bool {
	for _, m := range r.Mismatches {
		if m.Field == field {
			return true
		}
	}
	return false
}

func yesNo(ok bool) string {
	if ok {
		return "YES"
	}
	return "NO"
}

func discrepancies(r compare.Result) string {
	if r.Clean() {
		return discrepancyNoneMarker
	}
	return r.FlagString()
}
