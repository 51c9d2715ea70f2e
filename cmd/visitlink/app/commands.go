package app

import (
	"github.com/spf13/cobra"

	"github.com/clinicworks/visitlink/cmd/visitlink/cmd/deidentify"
	"github.com/clinicworks/visitlink/cmd/visitlink/cmd/masterlist"
	"github.com/clinicworks/visitlink/cmd/visitlink/cmd/match"
	"github.com/clinicworks/visitlink/cmd/visitlink/cmd/reconcile"
	"github.com/clinicworks/visitlink/cmd/visitlink/cmd/version"
)

// NewReconcileCommand creates the reconcile command with app dependencies.
func (a *App) NewReconcileCommand() *cobra.Command {
	return reconcile.NewCommand(a)
}

// NewMatchCommand creates the match command with app dependencies.
func (a *App) NewMatchCommand() *cobra.Command {
	return match.NewCommand(a)
}

// NewDeidentifyCommand creates the deidentify command with app dependencies.
func (a *App) NewDeidentifyCommand() *cobra.Command {
	return deidentify.NewCommand(a)
}

// NewMasterlistCommand creates the masterlist command with app dependencies.
func (a *App) NewMasterlistCommand() *cobra.Command {
	return masterlist.NewCommand(a)
}

// NewVersionCommand creates the version command.
func (a *App) NewVersionCommand() *cobra.Command {
	return version.NewCommand(a)
}
