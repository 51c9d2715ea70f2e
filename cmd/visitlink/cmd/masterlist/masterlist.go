// Package masterlist implements the masterlist command group for maintaining
// the master patient list that identity resolution runs against.
package masterlist

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/clinicworks/visitlink/internal/appcontext"
	"github.com/clinicworks/visitlink/internal/cmd/output"
	"github.com/clinicworks/visitlink/internal/ingest"
	"github.com/clinicworks/visitlink/internal/masterlist"
	"github.com/clinicworks/visitlink/pkg/tables"
)

// NewCommand creates the masterlist command with its subcommands.
func NewCommand(appCtx appcontext.Interface) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "masterlist",
		GroupID: "management",
		Short:   "Maintain the master patient list",
		Long: `Masterlist maintains the master patient list: the mapping from patient
name and date of birth to the internal account number that links the two
exports. Resolution quality is bounded by this list, so keep it current.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newUpdateCommand(appCtx))
	cmd.AddCommand(newShowCommand(appCtx))

	return cmd
}

// newUpdateCommand creates the masterlist update subcommand.
func newUpdateCommand(appCtx appcontext.Interface) *cobra.Command {
	return &cobra.Command{
		Use:   "update <roster.csv>",
		Short: "Merge a patient roster export into the master list",
		Long: `Update folds a Prompt patient roster export into the master patient
list. Rows missing an account number, name, or date of birth are skipped,
as are patients already on the list. The merged list is saved back to the
configured master list path.`,
		Example: `  visitlink masterlist update roster.csv
  visitlink masterlist update roster.csv --master clinic_master.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeUpdate(appCtx, args[0])
		},
	}
}

func executeUpdate(appCtx appcontext.Interface, rosterPath string) error {
	master, err := appCtx.Master()
	if err != nil {
		return err
	}

	roster, err := ingest.ReadCSV(rosterPath)
	if err != nil {
		return err
	}

	stats, err := masterlist.Merge(master, roster)
	if err != nil {
		return err
	}

	if err := masterlist.Save(appCtx.MasterPath(), master); err != nil {
		return err
	}

	appCtx.Logger().Info().
		Str("path", appCtx.MasterPath()).
		Int("total", master.Len()).
		Msg("Master patient list saved")

	formatter := output.NewFormatter(output.DetectFormat(appCtx.OutputFormat()))
	return formatter.Format(os.Stdout, mergeSummary{
		Added:             stats.Added,
		DuplicatesSkipped: stats.DuplicatesSkipped,
		ExistingSkipped:   stats.ExistingSkipped,
		IncompleteSkipped: stats.IncompleteSkipped,
		Total:             master.Len(),
	})
}

// mergeSummary is the merge outcome printed to the terminal.
type mergeSummary struct {
	Added             int `json:"added"`
	DuplicatesSkipped int `json:"duplicates_skipped"`
	ExistingSkipped   int `json:"existing_skipped"`
	IncompleteSkipped int `json:"incomplete_skipped"`
	Total             int `json:"total"`
}

// newShowCommand creates the masterlist show subcommand.
func newShowCommand(appCtx appcontext.Interface) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the master patient list",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return executeShow(appCtx)
		},
	}
}

func executeShow(appCtx appcontext.Interface) error {
	master, err := appCtx.Master()
	if err != nil {
		return err
	}

	ds := tables.New("master_patient_list", []string{
		masterlist.ColumnRosterAccount,
		masterlist.ColumnRosterName,
		masterlist.ColumnRosterDOB,
	})
	for _, e := range master.Entries() {
		ds.Append(tables.Row{
			masterlist.ColumnRosterAccount: e.ID,
			masterlist.ColumnRosterName:    e.Name,
			masterlist.ColumnRosterDOB:     e.DOB,
		})
	}

	formatter := output.NewFormatter(output.DetectFormat(appCtx.OutputFormat()))
	return formatter.Format(os.Stdout, ds)
}
