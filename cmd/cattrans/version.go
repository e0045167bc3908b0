package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// buildVersion is overridable at link time via -ldflags "-X main.buildVersion=...".
var buildVersion = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the cattrans build version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		printResult(map[string]string{"version": buildVersion}, func() {
			fmt.Println("cattrans " + buildVersion)
		})
		return nil
	},
}
