package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lia-luong/catty-trans-sub000/internal/catcore/ids"
	"github.com/lia-luong/catty-trans-sub000/internal/catcore/project"
)

var segmentSourceLang string
var segmentLocked bool

var segmentCmd = &cobra.Command{
	Use:   "add-segment <project-id> <segment-id> <source-text>",
	Short: "Add a new source segment to a project",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app, cleanup, err := newAppContext(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		projectID := ids.ProjectID(args[0])
		v, err := app.Service.Store.LoadVersionedState(ctx, projectID)
		if err != nil {
			return fmt.Errorf("loading project %s: %w", projectID, err)
		}

		seg := project.Segment{
			ID:                 ids.SegmentID(args[1]),
			ProjectID:          projectID,
			IndexWithinProject: len(v.CurrentState.Segments),
			SourceText:         args[2],
			SourceLanguage:     ids.LanguageCode(segmentSourceLang),
			IsLocked:           segmentLocked,
		}
		if seg.SourceLanguage == "" {
			seg.SourceLanguage = v.CurrentState.Project.SourceLanguage
		}

		next, err := app.Service.AddSegment(ctx, projectID, seg)
		if err != nil {
			return err
		}

		printResult(next, func() {
			fmt.Printf("added segment %s to project %s (snapshot %s)\n", seg.ID, projectID, next.CurrentSnapshotID)
		})
		return nil
	},
}

func init() {
	segmentCmd.Flags().StringVar(&segmentSourceLang, "lang", "", "source language of the segment (defaults to the project's)")
	segmentCmd.Flags().BoolVar(&segmentLocked, "locked", false, "mark the segment locked against translation")
}
