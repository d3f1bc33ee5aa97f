package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	SnapsentryVersion, SnapsentryCommit, SnapsentryDate string
)

var versionCommand = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  "Display version, commit hash and build date",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "SnapSentry version: %s\n", SnapsentryVersion)
		fmt.Fprintf(cmd.OutOrStdout(), "Commit: %s\n", SnapsentryCommit)
		fmt.Fprintf(cmd.OutOrStdout(), "Built: %s\n", SnapsentryDate)
	},
}

func init() {
	rootCommand.AddCommand(versionCommand)
}
