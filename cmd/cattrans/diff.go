package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lia-luong/catty-trans-sub000/internal/catcore/diff"
	"github.com/lia-luong/catty-trans-sub000/internal/catcore/ids"
	"github.com/lia-luong/catty-trans-sub000/internal/reporttemplate"
)

var diffTemplate string

var diffCmd = &cobra.Command{
	Use:   "diff <project-id> <from-snapshot> <to-snapshot>",
	Short: "Show the linguistic diff between two snapshots",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app, cleanup, err := newAppContext(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		projectID := ids.ProjectID(args[0])
		fromID := ids.SnapshotID(args[1])
		toID := ids.SnapshotID(args[2])

		result, err := app.Service.Diff(ctx, projectID, fromID, toID)
		if err != nil {
			return err
		}

		if diffTemplate != "" {
			tmpl, err := reporttemplate.NewParser().LoadByName(diffTemplate)
			if err != nil {
				return err
			}
			return tmpl.Render(os.Stdout, diffRows(result), result.Summary)
		}

		printResult(result, func() {
			width := terminalWidth()
			if result.Completeness.Kind != diff.CompletenessComplete {
				fmt.Printf("(%s: %s)\n", result.Completeness.Kind, result.Completeness.Reason)
			}
			for _, c := range result.Changes {
				if c.Segment == nil {
					continue
				}
				sd := c.Segment
				sourceText := truncateForDisplay(sd.SourceText, width-24)
				line := fmt.Sprintf("%-10s %-12s %s", sd.ChangeType, sd.SegmentID, sourceText)
				if sd.Cause == diff.CauseTMInsert && sd.TMAttribution != nil {
					line += fmt.Sprintf("  [tm_insert <- %s@%s]", sd.TMAttribution.SourceProjectID, sd.TMAttribution.SourceSnapshotID)
				}
				fmt.Println(line)
			}
			fmt.Printf("\ncreated=%d modified=%d deleted=%d unchanged=%d\n",
				result.Summary.Created, result.Summary.Modified, result.Summary.Deleted, result.Summary.Unchanged)
		})
		return nil
	},
}

// diffRows flattens a DiffResult's segment changes into the generic row
// shape reporttemplate.Render expects.
func diffRows(result diff.DiffResult) []map[string]any {
	rows := make([]map[string]any, 0, len(result.Changes))
	for _, c := range result.Changes {
		if c.Segment == nil {
			continue
		}
		sd := c.Segment
		rows = append(rows, map[string]any{
			"SegmentID":  string(sd.SegmentID),
			"ChangeType": string(sd.ChangeType),
			"Cause":      string(sd.Cause),
			"SourceText": sd.SourceText,
		})
	}
	return rows
}

func init() {
	diffCmd.Flags().StringVar(&diffTemplate, "template", "", "render with a named client report template instead of the default text output")
}
