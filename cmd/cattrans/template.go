package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lia-luong/catty-trans-sub000/internal/reporttemplate"
)

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Manage client report templates",
	Long: `Manage report templates - TOML-defined layouts the "diff" command
can render through with --template instead of its built-in text output.

Search paths (in order):
  1. .cattrans/templates/ (project)
  2. <user config dir>/cattrans/templates/
  3. ~/.cattrans/templates/ (home)`,
}

var templateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available report templates",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		templates, err := reporttemplate.NewParser().List()
		if err != nil {
			return err
		}
		printResult(templates, func() {
			if len(templates) == 0 {
				fmt.Println("No report templates found.")
				for _, p := range reporttemplate.DefaultSearchPaths() {
					fmt.Printf("  %s\n", p)
				}
				return
			}
			for _, t := range templates {
				fmt.Printf("%-20s %-8s %s\n", t.Name, t.Kind, t.Description)
			}
		})
		return nil
	},
}

var templateShowCmd = &cobra.Command{
	Use:   "show <template-name>",
	Short: "Show a report template's source",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := reporttemplate.NewParser().LoadByName(args[0])
		if err != nil {
			return err
		}
		printResult(t, func() {
			fmt.Printf("%s (%s)\n  source: %s\n  header: %q\n  line:   %q\n  footer: %q\n",
				t.Name, t.Kind, t.Source, t.Header, t.Line, t.Footer)
		})
		return nil
	},
}

func init() {
	templateCmd.AddCommand(templateListCmd, templateShowCmd)
}
