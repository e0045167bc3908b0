package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lia-luong/catty-trans-sub000/internal/catcore/ids"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <project-id>",
	Short: "Check every persisted snapshot for a project against its checksum, project scope, and domain invariants",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app, cleanup, err := newAppContext(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		projectID := ids.ProjectID(args[0])
		report, err := app.Service.VerifyIntegrity(ctx, projectID, app.Service.Clock.NowEpochMs())
		if err != nil {
			return err
		}

		printResult(report, func() {
			status := "SAFE"
			if !report.IsSafe {
				status = "UNSAFE"
			}
			fmt.Printf("%s: %d snapshots checked, %d issues (%s)\n", status, report.TotalSnapshots, len(report.Issues), projectID)
			for _, issue := range report.Issues {
				fmt.Printf("  [%s] %s: %s (%s)\n", issue.Severity, issue.SnapshotID, issue.Message, issue.IssueType)
			}
		})

		if !report.IsSafe {
			cmd.SilenceUsage = true
			return fmt.Errorf("integrity verification failed for project %s", projectID)
		}
		return nil
	},
}
