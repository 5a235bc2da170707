package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"pump-alerts/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "pumpalerts %s\n", version.String())
	},
}
