package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lia-luong/catty-trans-sub000/internal/catcore/ids"
	"github.com/lia-luong/catty-trans-sub000/internal/catcore/project"
	"github.com/lia-luong/catty-trans-sub000/internal/catcore/tm"
)

var (
	promoteSnapshot    string
	promoteLang        string
	promoteClientScope string
	promoteAdHoc       bool
	promoteAll         bool
)

var promoteCmd = &cobra.Command{
	Use:   "promote <project-id> [segment-id]",
	Short: "Promote translated segments into the client's translation memory",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app, cleanup, err := newAppContext(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		projectID := ids.ProjectID(args[0])

		if promoteAll {
			if promoteLang == "" {
				return fmt.Errorf("--all requires --lang")
			}
			report, err := app.Service.BulkPromote(ctx, projectID, ids.LanguageCode(promoteLang), promoteAdHoc)
			if err != nil {
				return err
			}
			printResult(report, func() {
				fmt.Printf("inserted=%d skipped=%d failed=%d\n", report.Inserted, report.Skipped, report.Failed)
			})
			return nil
		}

		if len(args) != 2 {
			return fmt.Errorf("a segment ID is required unless --all is set")
		}
		segmentID := ids.SegmentID(args[1])

		v, err := app.Service.Store.LoadVersionedState(ctx, projectID)
		if err != nil {
			return fmt.Errorf("loading project %s: %w", projectID, err)
		}

		snapshotID := ids.SnapshotID(promoteSnapshot)
		if snapshotID == "" {
			snapshotID = v.CurrentSnapshotID
		}

		var source project.Segment
		found := false
		for _, s := range v.CurrentState.Segments {
			if s.ID == segmentID {
				source = s
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("segment %s not found in project %s", segmentID, projectID)
		}

		var target project.TargetSegment
		foundTarget := false
		for _, t := range v.CurrentState.TargetSegments {
			if t.SegmentID == segmentID && (promoteLang == "" || t.TargetLanguage == ids.LanguageCode(promoteLang)) {
				target = t
				foundTarget = true
				break
			}
		}
		if !foundTarget {
			return fmt.Errorf("no translation found for segment %s", segmentID)
		}

		existing, err := app.Service.Store.ExistingSourceTexts(ctx, v.CurrentState.Project.ClientID)
		if err != nil {
			return fmt.Errorf("loading existing TM entries: %w", err)
		}

		promoCtx := tm.PromotionContext{
			SnapshotID:          snapshotID,
			Project:             v.CurrentState.Project,
			SourceSegment:       source,
			TargetClientID:      ids.ClientID(promoteClientScope),
			ExistingSourceTexts: existing,
			IsAdHoc:             promoteAdHoc,
		}

		decision, err := app.Service.PromoteToTM(ctx, target, promoCtx, target.TranslatedText)
		if err != nil {
			return err
		}

		printResult(decision, func() {
			if decision.Allowed {
				fmt.Printf("promoted %s -> %s into translation memory\n", source.SourceText, target.TranslatedText)
				return
			}
			override := ""
			if decision.RequiresExplicitOverride {
				override = " (overridable)"
			}
			fmt.Printf("promotion denied: %s%s\n", decision.Reason, override)
		})
		return nil
	},
}

func init() {
	promoteCmd.Flags().StringVar(&promoteSnapshot, "snapshot", "", "provenance snapshot (defaults to the project's current snapshot)")
	promoteCmd.Flags().StringVar(&promoteLang, "lang", "", "target language to promote (defaults to the first match)")
	promoteCmd.Flags().StringVar(&promoteClientScope, "client-scope", "", "restrict promotion to this client; denied if it differs from the project's client")
	promoteCmd.Flags().BoolVar(&promoteAdHoc, "ad-hoc", false, "mark this segment as belonging to an ad-hoc project (quarantines unless overridden)")
	promoteCmd.Flags().BoolVar(&promoteAll, "all", false, "promote every translated segment in --lang instead of a single segment")
}
