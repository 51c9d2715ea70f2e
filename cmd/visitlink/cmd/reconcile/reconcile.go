// Package reconcile implements the reconcile command, the full AMD vs
// Prompt reconciliation pipeline from two CSV exports to the three output
// datasets and the markdown summary report.
package reconcile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/clinicworks/visitlink"
	"github.com/clinicworks/visitlink/internal/appcontext"
	"github.com/clinicworks/visitlink/internal/cmd/output"
	"github.com/clinicworks/visitlink/internal/cmd/prompt"
	"github.com/clinicworks/visitlink/internal/ingest"
	"github.com/clinicworks/visitlink/internal/report"
	"github.com/clinicworks/visitlink/pkg/constants"
	"github.com/clinicworks/visitlink/pkg/errors"
	"github.com/clinicworks/visitlink/pkg/linker"
	"github.com/clinicworks/visitlink/pkg/logging"
)

// Flags holds the reconcile-specific command flags.
type Flags struct {
	AMD            string
	Prompt         string
	Out            string
	Report         string
	SaveMappings   bool
	NonInteractive bool
}

// NewCommand creates the reconcile command.
func NewCommand(appCtx appcontext.Interface) *cobra.Command {
	flags := &Flags{}

	cmd := &cobra.Command{
		Use:     "reconcile",
		GroupID: "core",
		Short:   "Reconcile the AMD billing export against the Prompt EHR export",
		Long: `Reconcile links visits between the AMD billing export and the Prompt
EHR export. Patient identities in the billing export are resolved against
the master patient list; ambiguous close matches are escalated to the
terminal for review unless --non-interactive is set.

The command writes three datasets plus a markdown report to the output
directory:

  matched.csv      visits present in both systems, with discrepancy flags
  prompt_only.csv  clinical visits with no billing record
  amd_only.csv     billing records with no clinical visit
  billing_master.csv  matched and prompt-only rows merged, with a source column
  report.md        run summary for the billing team`,
		Example: `  visitlink reconcile --amd amd.csv --prompt prompt.csv
  visitlink reconcile --amd amd.csv --prompt prompt.csv --out september
  visitlink reconcile --amd amd.csv --prompt prompt.csv --non-interactive`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return Execute(cmd.Context(), appCtx, flags)
		},
	}

	cmd.Flags().StringVar(&flags.AMD, "amd", "", "AMD billing export CSV (required)")
	cmd.Flags().StringVar(&flags.Prompt, "prompt", "", "Prompt EHR export CSV (required)")
	cmd.Flags().StringVar(&flags.Out, "out", "", "output directory (default from config)")
	cmd.Flags().StringVar(&flags.Report, "report", "report.md", "report filename within the output directory")
	cmd.Flags().BoolVar(&flags.SaveMappings, "save-mappings", true, "persist operator-confirmed identity mappings")
	cmd.Flags().BoolVar(&flags.NonInteractive, "non-interactive", false, "never prompt; leave close matches pending")
	_ = cmd.MarkFlagRequired("amd")
	_ = cmd.MarkFlagRequired("prompt")

	return cmd
}

// Execute runs the reconciliation pipeline.
func Execute(ctx context.Context, appCtx appcontext.Interface, flags *Flags) error {
	// One run ID per invocation; the pipeline tags every log line with it.
	ctx = logging.WithRunID(logging.WithLogger(ctx, appCtx.Logger()),
		time.Now().UTC().Format("20060102T150405"))
	logger := logging.Ctx(ctx)

	master, err := appCtx.Master()
	if err != nil {
		return err
	}
	if master.Len() == 0 {
		logger.Warn().Str("path", appCtx.MasterPath()).
			Msg("Master patient list is empty; no billing rows will resolve")
	}

	amd, err := ingest.ReadCSV(flags.AMD)
	if err != nil {
		return err
	}
	prpt, err := ingest.ReadCSV(flags.Prompt)
	if err != nil {
		return err
	}

	opts := []visitlink.Option{
		visitlink.WithThreshold(appCtx.Threshold()),
		visitlink.WithTolerance(appCtx.Tolerance()),
		visitlink.WithLogger(logger),
	}

	var console *prompt.ConsoleDecider
	if appCtx.Interactive() && !flags.NonInteractive {
		console = prompt.New(os.Stdin, os.Stdout)
		opts = append(opts, visitlink.WithDecider(console))
	}

	rec, err := visitlink.New(master, opts...)
	if err != nil {
		return err
	}

	outcome, err := rec.Run(ctx, amd, prpt)
	if err != nil {
		return err
	}
	if console != nil && console.Reviewed() > 0 {
		logger.Info().Int("reviewed", console.Reviewed()).Msg("Close matches reviewed")
	}

	outDir := flags.Out
	if outDir == "" {
		outDir = appCtx.OutputDir()
	}

	if err := ingest.WriteCSV(filepath.Join(outDir, "matched.csv"), outcome.Matched); err != nil {
		return err
	}
	if err := ingest.WriteCSV(filepath.Join(outDir, "prompt_only.csv"), outcome.PromptOnly); err != nil {
		return err
	}
	if err := ingest.WriteCSV(filepath.Join(outDir, "amd_only.csv"), outcome.AMDOnly); err != nil {
		return err
	}
	if err := ingest.WriteCSV(filepath.Join(outDir, "billing_master.csv"), outcome.BillingMaster); err != nil {
		return err
	}

	reportPath := filepath.Join(outDir, flags.Report)
	if err := writeReport(reportPath, outcome); err != nil {
		return err
	}

	if flags.SaveMappings {
		if err := saveMappings(filepath.Join(outDir, "confirmed_mappings.json"), outcome); err != nil {
			return err
		}
	}

	logger.Info().
		Str("dir", outDir).
		Int("matched", outcome.Stats.Matched).
		Int("prompt_only", outcome.Stats.PromptOnly).
		Int("amd_only", outcome.Stats.AMDOnly).
		Msg("Reconciliation artifacts written")

	return printSummary(appCtx, outcome)
}

// writeReport renders the markdown report. The follow-up section lists the
// billing-side records that need manual research.
func writeReport(path string, outcome *visitlink.Outcome) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, constants.SecureFilePermissions)
	if err != nil {
		return errors.WrapIO("create", path, err)
	}
	defer func() { _ = f.Close() }()

	followUp := make([]linker.Unmatched, 0, len(outcome.Partition.AMDOnly))
	for _, u := range outcome.Partition.AMDOnly {
		if u.Reason != "" {
			followUp = append(followUp, u)
		}
	}

	return report.Write(f, outcome.Stats, time.Now(), followUp)
}

// confirmedMapping is the persisted shape of one operator decision.
type confirmedMapping struct {
	SourceName string `json:"source_name"`
	SourceDOB  string `json:"source_dob"`
	ID         string `json:"prompt_id"`
}

// saveMappings persists operator-confirmed identity mappings so later runs
// can seed the master list without re-prompting.
func saveMappings(path string, outcome *visitlink.Outcome) error {
	var confirmed []confirmedMapping
	for _, m := range outcome.Mappings {
		if m.ByOperator && m.ID != "" {
			confirmed = append(confirmed, confirmedMapping{
				SourceName: m.SourceName,
				SourceDOB:  m.SourceDOB,
				ID:         m.ID,
			})
		}
	}
	if len(confirmed) == 0 {
		return nil
	}

	data, err := json.MarshalIndent(confirmed, "", "  ")
	if err != nil {
		return errors.WrapIO("encode", path, err)
	}
	if err := os.WriteFile(path, data, constants.SecureFilePermissions); err != nil {
		return errors.WrapIO("write", path, err)
	}
	return nil
}

// summary is the run overview printed to the terminal.
type summary struct {
	PromptVisits  int    `json:"prompt_visits"`
	AMDVisits     int    `json:"amd_visits"`
	Matched       int    `json:"matched"`
	PromptOnly    int    `json:"prompt_only"`
	AMDOnly       int    `json:"amd_only"`
	Discrepancies int    `json:"discrepancies"`
	MatchRate     string `json:"match_rate"`
	PerfectRate   string `json:"perfect_rate"`
}

func printSummary(appCtx appcontext.Interface, outcome *visitlink.Outcome) error {
	s := outcome.Stats
	formatter := output.NewFormatter(output.DetectFormat(appCtx.OutputFormat()))
	return formatter.Format(os.Stdout, summary{
		PromptVisits:  s.PromptTotal,
		AMDVisits:     s.AMDTotal,
		Matched:       s.Matched,
		PromptOnly:    s.PromptOnly,
		AMDOnly:       s.AMDOnly,
		Discrepancies: s.Discrepancies,
		MatchRate:     fmt.Sprintf("%.1f%%", s.MatchRate()),
		PerfectRate:   fmt.Sprintf("%.1f%%", s.PerfectRate()),
	})
}
