package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var expireSnapshotCommand = &cobra.Command{
	Use:     "expire-snapshots",
	GroupID: "snapsentry",
	Short:   "Execute the snapshot expiry workflow",
	Long:    `Scans all managed snapshots in the project, compares their stored expiry dates against the current UTC time, and permanently deletes those that have exceeded their retention period.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(headerStyle.Render("Snapsentry - Expiry Workflow"))

		ctx, cancel := cfg.WithTimeout(cmd.Context())
		defer cancel()

		logger := newLogger()
		s, err := newScheduler(ctx, logger)
		if err != nil {
			return err
		}

		summary, err := s.RunExpiryPass(ctx)
		exportMetrics(s, logger)
		if err != nil {
			return err
		}

		fmt.Println(renderSummary(
			summaryItem{"Snapshots", len(summary.Snapshots)},
			summaryItem{"Deleted", summary.Deleted},
			summaryItem{"Retained", summary.Retained},
			summaryItem{"Errored", summary.Errored},
		))
		return nil
	},
}

func init() {
	rootCommand.AddCommand(expireSnapshotCommand)
}
