// Package report computes summary statistics for one reconciliation run and
// renders them as a markdown document for the billing team.
package report

import (
	"fmt"
	"io"
	"time"

	md "github.com/nao1215/markdown"

	"github.com/clinicworks/visitlink/pkg/compare"
	"github.com/clinicworks/visitlink/pkg/constants"
	"github.com/clinicworks/visitlink/pkg/linker"
)

// Stats summarizes one reconciliation run.
type Stats struct {
	PromptTotal int
	AMDTotal    int

	Matched    int
	PromptOnly int
	AMDOnly    int

	AMDCollisions    int
	PromptCollisions int

	Discrepancies  int // matched pairs carrying at least one flag
	PerfectMatches int

	BilledMismatches    int
	InsurancePdMismatch int
	TotalPaidMismatch   int

	FlagCounts map[compare.Flag]int
}

// Compute derives run statistics from the link partition and the comparison
// verdicts. promptTotal and amdTotal are the raw input row counts, before
// duplicate collapsing and resolution failures.
func Compute(promptTotal, amdTotal int, partition *linker.Result, verdicts []compare.Result) Stats {
	s := Stats{
		PromptTotal:      promptTotal,
		AMDTotal:         amdTotal,
		Matched:          len(partition.Matched),
		PromptOnly:       len(partition.PromptOnly),
		AMDOnly:          len(partition.AMDOnly),
		AMDCollisions:    partition.AMDCollisions,
		PromptCollisions: partition.PromptCollisions,
		FlagCounts:       make(map[compare.Flag]int),
	}

	for _, v := range verdicts {
		if v.Clean() {
			s.PerfectMatches++
		} else {
			s.Discrepancies++
		}
		for _, f := range v.Flags {
			s.FlagCounts[f]++
		}
		for _, m := range v.Mismatches {
			switch m.Field {
			case compare.FieldAllowedVsCharges:
				s.BilledMismatches++
			case compare.FieldInsurancePaid:
				s.InsurancePdMismatch++
			case compare.FieldTotalPaid:
				s.TotalPaidMismatch++
			}
		}
	}
	return s
}

// MatchRate is the matched share of AMD input rows, in percent.
func (s Stats) MatchRate() float64 {
	if s.AMDTotal == 0 {
		return 0
	}
	return float64(s.Matched) / float64(s.AMDTotal) * 100
}

// PerfectRate is the share of matched pairs with no discrepancy, in percent.
func (s Stats) PerfectRate() float64 {
	if s.Matched == 0 {
		return 0
	}
	return float64(s.PerfectMatches) / float64(s.Matched) * 100
}

// Write renders the reconciliation report as markdown. followUp lists the
// billing-side records needing manual research, typically the AMD-only
// partition.
func Write(w io.Writer, s Stats, generatedAt time.Time, followUp []linker.Unmatched) error {
	doc := md.NewMarkdown(w)

	doc.H1("AMD vs Prompt EHR Reconciliation Report").
		PlainTextf("Generated: %s", generatedAt.Format("2006-01-02 15:04:05")).
		LF()

	doc.H2("Summary Statistics").
		H3("Data Volumes").
		BulletList(
			fmt.Sprintf("%s: %d", md.Bold("Prompt EHR Records"), s.PromptTotal),
			fmt.Sprintf("%s: %d", md.Bold("AMD Records"), s.AMDTotal),
			fmt.Sprintf("%s: %d (%.1f%% of AMD)", md.Bold("Matched Records"), s.Matched, s.MatchRate()),
			fmt.Sprintf("%s: %d (in Prompt but not AMD)", md.Bold("Prompt-only Records"), s.PromptOnly),
			fmt.Sprintf("%s: %d (in AMD but not Prompt)", md.Bold("AMD-only Records"), s.AMDOnly),
		).LF()

	doc.H3("Data Quality").
		BulletList(
			fmt.Sprintf("%s: %d", md.Bold("Matched Records with Discrepancies"), s.Discrepancies),
			fmt.Sprintf("%s: %d", md.Bold("Perfect Matches"), s.PerfectMatches),
			fmt.Sprintf("%s: %.1f%% perfect match rate", md.Bold("Match Quality"), s.PerfectRate()),
			fmt.Sprintf("%s: %d AMD / %d Prompt", md.Bold("Duplicate Keys Collapsed"), s.AMDCollisions, s.PromptCollisions),
		).LF()

	doc.H2("Discrepancy Breakdown").
		Table(md.TableSet{
			Header: []string{"Flag", "Count", "Field Pair"},
			Rows: [][]string{
				{string(compare.FlagBilledNotAllowed), fmt.Sprintf("%d", s.FlagCounts[compare.FlagBilledNotAllowed]), `Prompt "Primary Allowed" vs AMD "Charges"`},
				{string(compare.FlagCollectedUnposted), fmt.Sprintf("%d", s.FlagCounts[compare.FlagCollectedUnposted]), `AMD payments vs Prompt "Total Paid"`},
				{string(compare.FlagAmountsDiffer), fmt.Sprintf("%d", s.FlagCounts[compare.FlagAmountsDiffer]), "any pair beyond tolerance"},
			},
		}).LF()

	doc.H3("Field Mismatch Counts").
		BulletList(
			fmt.Sprintf("Billed amount mismatches: %d", s.BilledMismatches),
			fmt.Sprintf("Insurance payment mismatches: %d", s.InsurancePdMismatch),
			fmt.Sprintf("Total paid mismatches: %d", s.TotalPaidMismatch),
		).LF()

	if len(followUp) > 0 {
		rows := make([][]string, 0, len(followUp))
		for _, rec := range followUp {
			account := rec.Key.ID()
			dos := rec.Key.DOS()
			if account == "" {
				account = constants.UnmatchedID
				dos = rec.Row.Get(constants.ColumnServiceDate)
			}
			reason := rec.Reason
			if reason == "" {
				reason = "no matching clinical record"
			}
			rows = append(rows, []string{account, dos, reason})
		}

		doc.H2("Records Requiring Investigation").
			PlainText("Billing records with no matching clinical visit. Research each account before resubmitting.").
			LF().
			Table(md.TableSet{
				Header: []string{"Patient Account Number", "DOS", "Reason"},
				Rows:   rows,
			}).LF()
	}

	return doc.Build()
}
