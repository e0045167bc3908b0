package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lia-luong/catty-trans-sub000/internal/catcore/ids"
	"github.com/lia-luong/catty-trans-sub000/internal/catcore/project"
)

var (
	translateLang   string
	translateStatus string
	translateLabel  string
	translateFromTM bool
)

var translateCmd = &cobra.Command{
	Use:   "translate <project-id> <segment-id> <text>",
	Short: "Apply a translation to a segment and commit the resulting snapshot",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app, cleanup, err := newAppContext(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		projectID := ids.ProjectID(args[0])
		segmentID := ids.SegmentID(args[1])
		text := args[2]

		status := project.TargetStatus(translateStatus)
		if status == "" {
			status = project.TargetStatusDraft
		}

		v, err := app.Service.Store.LoadVersionedState(ctx, projectID)
		if err != nil {
			return fmt.Errorf("loading project %s: %w", projectID, err)
		}

		targetSegID := app.Service.IDs.NewTargetSegmentID()
		for _, t := range v.CurrentState.TargetSegments {
			if t.SegmentID == segmentID && t.TargetLanguage == ids.LanguageCode(translateLang) {
				targetSegID = t.ID
				break
			}
		}

		change := project.TranslationChange{
			ProjectID:       projectID,
			SegmentID:       segmentID,
			TargetLanguage:  ids.LanguageCode(translateLang),
			NewText:         text,
			NewStatus:       status,
			TargetSegmentID: targetSegID,
		}
		if translateFromTM {
			change.TMProvenance = &project.TMProvenance{ProjectID: projectID, SnapshotID: v.CurrentSnapshotID}
		}

		snapshotID := app.Service.IDs.NewSnapshotID()
		label := translateLabel
		if label == "" {
			label = fmt.Sprintf("translate %s by %s", segmentID, actor())
		}

		next, err := app.Service.ApplyAndCommit(ctx, projectID, change, snapshotID, label)
		if err != nil {
			return err
		}

		if next.CurrentSnapshotID == v.CurrentSnapshotID && v.CurrentSnapshotID != "" {
			fmt.Fprintln(cmd.ErrOrStderr(), "note: change was rejected or a no-op; current snapshot unchanged")
		}

		printResult(next, func() {
			fmt.Printf("committed snapshot %s for project %s\n", next.CurrentSnapshotID, projectID)
		})
		return nil
	},
}

func init() {
	translateCmd.Flags().StringVar(&translateLang, "lang", "", "target language code")
	translateCmd.Flags().StringVar(&translateStatus, "status", "draft", "translation status: draft, translated, approved")
	translateCmd.Flags().StringVar(&translateLabel, "label", "", "snapshot label (defaults to a generated description)")
	translateCmd.Flags().BoolVar(&translateFromTM, "from-tm", false, "mark this text as populated from translation memory")
	_ = translateCmd.MarkFlagRequired("lang")
}
