// Package visitlink reconciles two independently maintained patient-visit
// exports for a clinic network: the Prompt clinical EHR export and the AMD
// billing export. The two systems share no primary key, so visits are linked
// by resolving each billing identity (patient name + date of birth) to the
// internal account number, building a canonical visit key from account
// number and date of service, and partitioning both sides by key. Matched
// pairs are compared financially and every partition is projected into a
// fixed-column tabular output.
package visitlink

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/clinicworks/visitlink/internal/report"
	"github.com/clinicworks/visitlink/pkg/compare"
	"github.com/clinicworks/visitlink/pkg/constants"
	"github.com/clinicworks/visitlink/pkg/errors"
	"github.com/clinicworks/visitlink/pkg/identity"
	"github.com/clinicworks/visitlink/pkg/linker"
	"github.com/clinicworks/visitlink/pkg/logging"
	"github.com/clinicworks/visitlink/pkg/project"
	"github.com/clinicworks/visitlink/pkg/tables"
	"github.com/clinicworks/visitlink/pkg/visitkey"
)

// Reconciler runs the full reconciliation pipeline: identity resolution,
// key building, linking, financial comparison, and projection. One
// Reconciler is one run; the confirmed-mapping cache it owns is discarded
// with it.
type Reconciler struct {
	resolver   *identity.Resolver
	comparator *compare.Comparator
	logger     *zerolog.Logger
}

// Outcome carries everything one run produced.
type Outcome struct {
	// Partition is the raw three-way split plus collision counts.
	Partition *linker.Result

	// Verdicts holds one financial comparison per matched pair, in
	// partition order.
	Verdicts []compare.Result

	// The three fixed-column projections.
	Matched    *tables.Dataset
	PromptOnly *tables.Dataset
	AMDOnly    *tables.Dataset

	// BillingMaster merges Matched and PromptOnly into one sheet with a
	// source indicator per row.
	BillingMaster *tables.Dataset

	// Stats summarizes the run for reporting.
	Stats report.Stats

	// Mappings are the identity decisions accumulated during the run,
	// including operator confirmations worth persisting to the master list.
	Mappings []identity.ConfirmedMapping
}

// New creates a Reconciler over the given master patient list.
func New(master *identity.Master, opts ...Option) (*Reconciler, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("applying options: %w", err)
		}
	}

	resolverOpts := []identity.Option{
		identity.WithThreshold(cfg.threshold),
		identity.WithLogger(cfg.logger),
	}
	if cfg.decider != nil {
		resolverOpts = append(resolverOpts, identity.WithDecider(cfg.decider))
	}

	resolver, err := identity.NewResolver(master, resolverOpts...)
	if err != nil {
		return nil, fmt.Errorf("building resolver: %w", err)
	}

	comparator, err := compare.New(compare.WithTolerance(cfg.tolerance))
	if err != nil {
		return nil, fmt.Errorf("building comparator: %w", err)
	}

	return &Reconciler{
		resolver:   resolver,
		comparator: comparator,
		logger:     cfg.logger,
	}, nil
}

// Run reconciles one AMD export against one Prompt export. Both datasets
// must carry their required columns; a missing column is a configuration
// error and nothing is partitioned. Per-row data-quality problems never
// abort the run: unresolvable identities and unparseable dates land in the
// unmatched partitions with a reason code.
func (r *Reconciler) Run(ctx context.Context, amd, prompt *tables.Dataset) (*Outcome, error) {
	amdNameCol, amdDOBCol, err := validateInputs(amd, prompt)
	if err != nil {
		return nil, err
	}

	// Every log line of one batch run carries the same run_id so runs can
	// be told apart in aggregated output. A caller-supplied run ID (the
	// CLI sets one per invocation) wins over a generated one.
	runID := logging.RunID(ctx)
	if runID == "" {
		runID = time.Now().UTC().Format("20060102T150405")
	}
	ctx = logging.WithRunID(logging.WithLogger(ctx, r.logger), runID)
	logger := logging.Ctx(ctx)

	logger.Info().
		Int("amd_rows", amd.Len()).
		Int("prompt_rows", prompt.Len()).
		Msg("Starting reconciliation")

	amdRecords, amdExcluded, err := r.keyAMD(ctx, amd, amdNameCol, amdDOBCol)
	if err != nil {
		return nil, err
	}
	promptRecords, promptExcluded := keyPrompt(prompt, logger)

	partition := linker.Link(amdRecords, promptRecords)
	partition.AMDOnly = append(partition.AMDOnly, amdExcluded...)
	partition.PromptOnly = append(partition.PromptOnly, promptExcluded...)

	verdicts := make([]compare.Result, 0, len(partition.Matched))
	for _, pair := range partition.Matched {
		verdicts = append(verdicts, r.comparator.Compare(pair))
	}

	matched := project.Matched(verdicts)
	promptOnly := project.PromptOnly(partition.PromptOnly)
	outcome := &Outcome{
		Partition:     partition,
		Verdicts:      verdicts,
		Matched:       matched,
		PromptOnly:    promptOnly,
		AMDOnly:       project.AMDOnly(partition.AMDOnly),
		BillingMaster: project.BillingMaster(matched, promptOnly),
		Stats:         report.Compute(prompt.Len(), amd.Len(), partition, verdicts),
		Mappings:      r.resolver.Mappings(),
	}

	logger.Info().
		Int("matched", len(partition.Matched)).
		Int("amd_only", len(partition.AMDOnly)).
		Int("prompt_only", len(partition.PromptOnly)).
		Int("discrepancies", outcome.Stats.Discrepancies).
		Msg("Reconciliation complete")

	return outcome, nil
}

// keyAMD resolves each billing row's identity and builds its visit key.
// Rows whose identity stays unresolved, or whose service date cannot be
// normalized, are excluded with a reason instead of entering the linker.
func (r *Reconciler) keyAMD(ctx context.Context, amd *tables.Dataset, nameCol, dobCol string) ([]linker.Record, []linker.Unmatched, error) {
	var (
		records  []linker.Record
		excluded []linker.Unmatched
	)

	for _, row := range amd.Rows {
		resolution, err := r.resolver.Resolve(ctx, row.Get(nameCol), row.Get(dobCol))
		if err != nil {
			return nil, nil, err
		}

		if resolution.Status != identity.StatusResolved {
			excluded = append(excluded, linker.Unmatched{
				Row:    row,
				Origin: linker.OriginAMD,
				Reason: resolution.Reason,
			})
			continue
		}

		key, err := visitkey.Build(resolution.ID, row.Get(constants.ColumnServiceDate))
		if err != nil {
			logging.Ctx(ctx).Warn().
				Str("account", resolution.ID).
				Str("service_date", row.Get(constants.ColumnServiceDate)).
				Msg("Billing row has unusable service date")
			excluded = append(excluded, linker.Unmatched{
				Row:    row,
				Origin: linker.OriginAMD,
				Reason: "invalid_service_date",
			})
			continue
		}

		records = append(records, linker.Record{Key: key, Row: row})
	}

	return records, excluded, nil
}

// keyPrompt builds visit keys for the clinical rows, which already carry the
// internal account number.
func keyPrompt(prompt *tables.Dataset, logger *zerolog.Logger) ([]linker.Record, []linker.Unmatched) {
	var (
		records  []linker.Record
		excluded []linker.Unmatched
	)

	for _, row := range prompt.Rows {
		key, err := visitkey.Build(row.Get(constants.ColumnAccountNumber), row.Get(constants.ColumnDOS))
		if err != nil {
			logger.Warn().
				Str("account", row.Get(constants.ColumnAccountNumber)).
				Str("dos", row.Get(constants.ColumnDOS)).
				Msg("Clinical row has unusable key fields")
			excluded = append(excluded, linker.Unmatched{
				Row:    row,
				Origin: linker.OriginPrompt,
				Reason: "invalid_key",
			})
			continue
		}
		records = append(records, linker.Record{Key: key, Row: row})
	}

	return records, excluded
}

// validateInputs checks the required columns on both sides and locates the
// billing export's name and DOB columns, which vary between export versions.
func validateInputs(amd, prompt *tables.Dataset) (nameCol, dobCol string, err error) {
	if err := prompt.Require(constants.ColumnAccountNumber, constants.ColumnDOS); err != nil {
		return "", "", err
	}
	if err := amd.Require(constants.ColumnServiceDate); err != nil {
		return "", "", err
	}

	nameCol = amd.FindColumn("patient", "name")
	if nameCol == "" {
		return "", "", errors.NewMissingColumnError(amd.Name, []string{"patient name"})
	}
	dobCol = amd.FindColumn("birth")
	if dobCol == "" {
		return "", "", errors.NewMissingColumnError(amd.Name, []string{"patient birth date"})
	}
	return nameCol, dobCol, nil
}

// Decisions returns the confirmed mappings so far. Callers persisting
// operator confirmations back to the master list use this after Run.
func (r *Reconciler) Decisions() []identity.ConfirmedMapping {
	return r.resolver.Mappings()
}
