// Package version implements the version command.
package version

import (
	"runtime"

	"github.com/spf13/cobra"

	"github.com/clinicworks/visitlink/internal/appcontext"
)

// NewCommand creates the version command.
func NewCommand(appCtx appcontext.Interface) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Show version information for the visitlink CLI.`,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("visitlink %s\n", appCtx.Version())
			cmd.Printf("  commit:     %s\n", appCtx.Commit())
			cmd.Printf("  built:      %s\n", appCtx.Date())
			cmd.Printf("  built by:   %s\n", appCtx.BuiltBy())
			cmd.Printf("  go version: %s\n", runtime.Version())
			cmd.Printf("  platform:   %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}
