package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lia-luong/catty-trans-sub000/internal/catcore/ids"
)

var rollbackCmd = &cobra.Command{
	Use:   "rollback <project-id> <snapshot-id>",
	Short: "Move a project's current pointer to a prior snapshot, preserving forward history",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app, cleanup, err := newAppContext(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		projectID := ids.ProjectID(args[0])
		snapshotID := ids.SnapshotID(args[1])

		next, err := app.Service.Rollback(ctx, projectID, snapshotID)
		if err != nil {
			return err
		}
		if _, ok := next.History.Snapshots[snapshotID]; !ok {
			return fmt.Errorf("snapshot %s not found in project %s's history", snapshotID, projectID)
		}

		printResult(next, func() {
			fmt.Printf("rolled back project %s to snapshot %s\n", projectID, snapshotID)
		})
		return nil
	},
}
