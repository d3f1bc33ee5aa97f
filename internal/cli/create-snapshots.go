package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

const createSnapshotLong = `Scans for volumes with enabled policies, evaluates their schedules against the current time, and creates snapshots if required.

Duplicate prevention relies on the snapshots already present in the cloud, so run at most one
invocation per project at a time (e.g. a single cron slot).`

var createSnapshotCommand = &cobra.Command{
	Use:     "create-snapshots",
	GroupID: "snapsentry",
	Short:   "Execute the snapshot creation workflow",
	Long:    createSnapshotLong,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(headerStyle.Render("Snapsentry - Creation Workflow"))

		ctx, cancel := cfg.WithTimeout(cmd.Context())
		defer cancel()

		logger := newLogger()
		s, err := newScheduler(ctx, logger)
		if err != nil {
			return err
		}

		summary, err := s.RunSnapshotPass(ctx)
		exportMetrics(s, logger)
		if err != nil {
			return err
		}

		fmt.Println(renderSummary(
			summaryItem{"Volumes", len(summary.Volumes)},
			summaryItem{"Created", summary.Created},
			summaryItem{"Skipped", summary.Skipped},
			summaryItem{"Errored", summary.Errored},
		))
		return nil
	},
}

func init() {
	rootCommand.AddCommand(createSnapshotCommand)
}
