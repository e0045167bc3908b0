package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lia-luong/catty-trans-sub000/internal/catcore/ids"
	"github.com/lia-luong/catty-trans-sub000/internal/catcore/project"
	"github.com/lia-luong/catty-trans-sub000/internal/config"
)

var (
	initClientID string
	initName     string
	initSource   string
	initTargets  string
)

var initCmd = &cobra.Command{
	Use:   "init <project-id>",
	Short: "Create a brand-new translation project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app, cleanup, err := newAppContext(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		var targets []ids.LanguageCode
		for _, t := range strings.Split(initTargets, ",") {
			if t = strings.TrimSpace(t); t != "" {
				targets = append(targets, ids.LanguageCode(t))
			}
		}
		if len(targets) == 0 {
			return fmt.Errorf("at least one --target language is required")
		}

		p := project.Project{
			ID:              ids.ProjectID(args[0]),
			ClientID:        ids.ClientID(initClientID),
			Name:            initName,
			SourceLanguage:  ids.LanguageCode(initSource),
			TargetLanguages: targets,
			Status:          project.StatusInProgress,
		}

		v, err := app.Service.InitProject(ctx, p)
		if err != nil {
			return err
		}

		if !flagInMem {
			cfgPath := filepath.Join(filepath.Dir(app.DBPath), "config.yaml")
			if err := config.WriteDefaultConfig(cfgPath, config.Settings{Actor: actor()}); err != nil {
				app.Logger.Warn("could not write starter config", "error", err)
			}
		}

		printResult(v, func() {
			fmt.Printf("initialized project %s (snapshot %s)\n", p.ID, v.CurrentSnapshotID)
		})
		return nil
	},
}

func init() {
	initCmd.Flags().StringVar(&initClientID, "client", "", "owning client identifier")
	initCmd.Flags().StringVar(&initName, "name", "", "human-readable project name")
	initCmd.Flags().StringVar(&initSource, "source", "en", "source language code")
	initCmd.Flags().StringVar(&initTargets, "target", "", "comma-separated target language codes")
	_ = initCmd.MarkFlagRequired("client")
	_ = initCmd.MarkFlagRequired("target")
}
