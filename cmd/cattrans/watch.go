package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/lia-luong/catty-trans-sub000/internal/catcore/ids"
)

var watchCmd = &cobra.Command{
	Use:   "watch <project-id>",
	Short: "Watch the workspace database for external writes and re-verify integrity on change",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagInMem {
			return fmt.Errorf("watch requires a SQLite workspace; --memory has nothing to watch")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		app, cleanup, err := newAppContext(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		projectID := ids.ProjectID(args[0])

		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("starting file watcher: %w", err)
		}
		defer watcher.Close()

		dbDir := filepath.Dir(app.DBPath)
		if err := watcher.Add(dbDir); err != nil {
			return fmt.Errorf("watching %s: %w", dbDir, err)
		}

		app.Logger.Info("watching workspace for changes", "project", projectID, "dir", dbDir)

		runVerify := func() {
			report, err := app.Service.VerifyIntegrity(ctx, projectID, time.Now().UnixMilli())
			if err != nil {
				app.Logger.Error("verification failed to run", "error", err)
				return
			}
			app.Logger.Info("integrity check complete", "safe", report.IsSafe, "issues", len(report.Issues), "snapshots", report.TotalSnapshots)
		}

		runVerify()

		debounce := time.NewTimer(0)
		if !debounce.Stop() {
			<-debounce.C
		}

		for {
			select {
			case <-ctx.Done():
				return nil
			case event, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				debounce.Reset(250 * time.Millisecond)
			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				app.Logger.Warn("watcher error", "error", err)
			case <-debounce.C:
				runVerify()
			}
		}
	},
}
