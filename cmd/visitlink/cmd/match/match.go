// Package match implements the match command, an identity-resolution dry
// run: every patient in a billing export is resolved against the master
// list and the outcome is printed, without touching the visit pipeline.
package match

import (
	"context"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/clinicworks/visitlink/internal/appcontext"
	"github.com/clinicworks/visitlink/internal/cmd/output"
	"github.com/clinicworks/visitlink/internal/cmd/prompt"
	"github.com/clinicworks/visitlink/internal/ingest"
	"github.com/clinicworks/visitlink/pkg/errors"
	"github.com/clinicworks/visitlink/pkg/identity"
	"github.com/clinicworks/visitlink/pkg/tables"
)

// Flags holds the match-specific command flags.
type Flags struct {
	Input          string
	NonInteractive bool
}

// NewCommand creates the match command.
func NewCommand(appCtx appcontext.Interface) *cobra.Command {
	flags := &Flags{}

	cmd := &cobra.Command{
		Use:     "match",
		GroupID: "core",
		Short:   "Resolve billing-export identities against the master list",
		Long: `Match resolves each patient in an AMD billing export against the master
patient list and reports the outcome per unique (name, date of birth)
pair, without running the visit pipeline. Use it to gauge master list
coverage before a reconciliation, or to settle close matches interactively
ahead of a batch run.`,
		Example: `  visitlink match --input amd.csv
  visitlink match --input amd.csv --non-interactive -o json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return Execute(cmd.Context(), appCtx, flags)
		},
	}

	cmd.Flags().StringVar(&flags.Input, "input", "", "AMD billing export CSV (required)")
	cmd.Flags().BoolVar(&flags.NonInteractive, "non-interactive", false, "never prompt; leave close matches pending")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

// Execute runs the resolution dry run.
func Execute(ctx context.Context, appCtx appcontext.Interface, flags *Flags) error {
	master, err := appCtx.Master()
	if err != nil {
		return err
	}

	ds, err := ingest.ReadCSV(flags.Input)
	if err != nil {
		return err
	}

	nameCol := ds.FindColumn("patient", "name")
	dobCol := ds.FindColumn("birth")
	if nameCol == "" || dobCol == "" {
		return errors.NewMissingColumnError(ds.Name, []string{"patient name", "birth date"})
	}

	opts := []identity.Option{
		identity.WithThreshold(appCtx.Threshold()),
		identity.WithLogger(appCtx.Logger()),
	}
	if appCtx.Interactive() && !flags.NonInteractive {
		opts = append(opts, identity.WithDecider(prompt.New(os.Stdin, os.Stdout)))
	}
	resolver, err := identity.NewResolver(master, opts...)
	if err != nil {
		return err
	}

	results, err := resolve(ctx, resolver, ds, nameCol, dobCol)
	if err != nil {
		return err
	}

	appCtx.Logger().Info().
		Int("patients", results.Len()).
		Int("rows", ds.Len()).
		Msg("Resolution dry run complete")

	formatter := output.NewFormatter(output.DetectFormat(appCtx.OutputFormat()))
	return formatter.Format(os.Stdout, results)
}

// resolve walks the export once, resolving each unique (name, dob) pair and
// counting how many rows carry it. The resolver's cache keeps repeated pairs
// from re-prompting; dedup here keeps them off the printed output too.
func resolve(ctx context.Context, resolver *identity.Resolver, ds *tables.Dataset, nameCol, dobCol string) (*tables.Dataset, error) {
	results := tables.New("resolution", []string{
		"Patient", "Date of Birth", "Patient Account Number", "Status", "Reason", "Rows",
	})

	rowCounts := make(map[string]int, ds.Len())
	order := make([]tables.Row, 0, ds.Len())

	for _, row := range ds.Rows {
		name := row.Get(nameCol)
		dob := row.Get(dobCol)
		key := identity.LookupKey(name, dob)
		if _, seen := rowCounts[key]; !seen {
			order = append(order, row)
		}
		rowCounts[key]++
	}

	for _, row := range order {
		name := row.Get(nameCol)
		dob := row.Get(dobCol)

		resolution, err := resolver.Resolve(ctx, name, dob)
		if err != nil {
			return nil, err
		}

		results.Append(tables.Row{
			"Patient":                name,
			"Date of Birth":          dob,
			"Patient Account Number": resolution.ID,
			"Status":                 resolution.Status.String(),
			"Reason":                 resolution.Reason,
			"Rows":                   strconv.Itoa(rowCounts[identity.LookupKey(name, dob)]),
		})
	}

	return results, nil
}
