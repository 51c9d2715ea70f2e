// Package deidentify implements the deidentify command. It resolves patient
// identities in an AMD billing export against the master patient list, tags
// every row with an internal account number or an unresolved sentinel, and
// splits the export into a PHI-free dataset and a follow-up dataset.
package deidentify

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/clinicworks/visitlink/internal/appcontext"
	"github.com/clinicworks/visitlink/internal/cmd/prompt"
	"github.com/clinicworks/visitlink/internal/deidentify"
	"github.com/clinicworks/visitlink/internal/ingest"
	"github.com/clinicworks/visitlink/pkg/constants"
	"github.com/clinicworks/visitlink/pkg/errors"
	"github.com/clinicworks/visitlink/pkg/identity"
	"github.com/clinicworks/visitlink/pkg/logging"
	"github.com/clinicworks/visitlink/pkg/tables"
)

// Flags holds the deidentify-specific command flags.
type Flags struct {
	Input          string
	Out            string
	NonInteractive bool
}

// NewCommand creates the deidentify command.
func NewCommand(appCtx appcontext.Interface) *cobra.Command {
	flags := &Flags{}

	cmd := &cobra.Command{
		Use:     "deidentify",
		GroupID: "core",
		Short:   "Strip PHI from an AMD billing export",
		Long: `Deidentify resolves each patient in an AMD billing export to an internal
account number using the master patient list, then removes PHI columns
(patient name, date of birth, provider identifiers) from the rows that
resolved.

Rows that did not resolve keep their identifying columns and are written
to a separate follow-up file, since a human needs the name to research
them. Two files are produced in the output directory:

  <input>_deidentified.csv  resolved rows, PHI removed
  <input>_unmatched.csv     unresolved rows, PHI retained`,
		Example: `  visitlink deidentify --input amd_september.csv
  visitlink deidentify --input amd.csv --out scrubbed --non-interactive`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return Execute(cmd.Context(), appCtx, flags)
		},
	}

	cmd.Flags().StringVar(&flags.Input, "input", "", "AMD billing export CSV (required)")
	cmd.Flags().StringVar(&flags.Out, "out", "", "output directory (default from config)")
	cmd.Flags().BoolVar(&flags.NonInteractive, "non-interactive", false, "never prompt; leave close matches pending")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

// Execute runs the de-identification pipeline.
func Execute(ctx context.Context, appCtx appcontext.Interface, flags *Flags) error {
	ctx = logging.WithLogger(ctx, appCtx.Logger())
	ctx = logging.WithField(ctx, "export", filepath.Base(flags.Input))
	logger := logging.Ctx(ctx)

	master, err := appCtx.Master()
	if err != nil {
		return err
	}

	ds, err := ingest.ReadCSV(flags.Input)
	if err != nil {
		return err
	}

	opts := []identity.Option{
		identity.WithThreshold(appCtx.Threshold()),
		identity.WithLogger(logger),
	}
	if appCtx.Interactive() && !flags.NonInteractive {
		opts = append(opts, identity.WithDecider(prompt.New(os.Stdin, os.Stdout)))
	}
	resolver, err := identity.NewResolver(master, opts...)
	if err != nil {
		return err
	}

	tagged, err := tag(ctx, resolver, ds)
	if err != nil {
		return err
	}

	result, err := deidentify.Split(tagged)
	if err != nil {
		return err
	}

	outDir := flags.Out
	if outDir == "" {
		outDir = appCtx.OutputDir()
	}
	base := stem(flags.Input)

	if err := ingest.WriteCSV(filepath.Join(outDir, base+"_deidentified.csv"), result.Deidentified); err != nil {
		return err
	}
	if err := ingest.WriteCSV(filepath.Join(outDir, base+"_unmatched.csv"), result.Unmatched); err != nil {
		return err
	}

	logger.Info().
		Int("deidentified", result.Deidentified.Len()).
		Int("unmatched", result.Unmatched.Len()).
		Strs("removed_columns", result.RemovedColumns).
		Msg("De-identified export written")

	return nil
}

// tag resolves every row's patient and prepends the canonical account-number
// column. Unresolved rows carry a sentinel instead of an ID so Split can
// route them to the follow-up file.
func tag(ctx context.Context, resolver *identity.Resolver, ds *tables.Dataset) (*tables.Dataset, error) {
	nameCol := ds.FindColumn("patient", "name")
	dobCol := ds.FindColumn("birth")
	if nameCol == "" || dobCol == "" {
		return nil, errors.NewMissingColumnError(ds.Name, []string{"patient name", "birth date"})
	}

	columns := append([]string{constants.ColumnAccountNumber}, ds.Columns...)
	tagged := tables.New(ds.Name, columns)

	for _, row := range ds.Rows {
		resolution, err := resolver.Resolve(ctx, row.Get(nameCol), row.Get(dobCol))
		if err != nil {
			return nil, err
		}

		out := row.Clone()
		switch resolution.Status {
		case identity.StatusResolved:
			out[constants.ColumnAccountNumber] = resolution.ID
		case identity.StatusAmbiguous:
			out[constants.ColumnAccountNumber] = constants.CloseMatchID
		default:
			out[constants.ColumnAccountNumber] = constants.UnmatchedID
		}
		tagged.Append(out)
	}
	return tagged, nil
}

// stem returns the input filename without directory or extension.
func stem(path string) string {
	base := filepath.Base(path)
	return base[:len(base)-len(filepath.Ext(base))]
}
