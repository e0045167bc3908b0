package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"github.com/spf13/cobra"

	"github.com/lia-luong/catty-trans-sub000/internal/catcore/ids"
	"github.com/lia-luong/catty-trans-sub000/internal/catcore/version"
)

var historySince string

var historyCmd = &cobra.Command{
	Use:   "history <project-id>",
	Short: "List a project's committed snapshots",
	Args:  cobra.ExactArgs(1),
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

		var cutoffMs int64 = -1
		if historySince != "" {
			w := when.New(nil)
			w.Add(en.All...)
			w.Add(common.All...)
			result, err := w.Parse(historySince, time.Now())
			if err != nil || result == nil {
				return fmt.Errorf("could not understand --since %q", historySince)
			}
			cutoffMs = result.Time.UnixMilli()
		}

		snapshots := make([]version.Snapshot, 0, len(v.History.Snapshots))
		for _, s := range v.History.Snapshots {
			if cutoffMs >= 0 && s.CreatedAtEpochMs < cutoffMs {
				continue
			}
			snapshots = append(snapshots, s)
		}
		sort.Slice(snapshots, func(i, j int) bool { return snapshots[i].CreatedAtEpochMs < snapshots[j].CreatedAtEpochMs })

		printResult(snapshots, func() {
			for _, s := range snapshots {
				marker := "  "
				if s.ID == v.CurrentSnapshotID {
					marker = "* "
				}
				parent, hasParent := v.History.ParentMap[s.ID]
				parentNote := "(root)"
				if hasParent {
					parentNote = fmt.Sprintf("<- %s", parent)
				}
				fmt.Printf("%s%s  %s  %-20s %s\n", marker, s.ID, time.UnixMilli(s.CreatedAtEpochMs).Format(time.RFC3339), s.Label, parentNote)
			}
		})
		return nil
	},
}

func init() {
	historyCmd.Flags().StringVar(&historySince, "since", "", "only show snapshots created after this relative or natural-language time")
}
