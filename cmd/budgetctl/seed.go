package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"budgetbot/internal/cli"
	"budgetbot/internal/core"
)

var seedCmd = &cobra.Command{
	Use:   "seed <file.json>",
	Short: "Replace the stored plan document with a JSON file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read seed file: %w", err)
		}
		doc, err := core.ParseDocument(data)
		if err != nil {
			return fmt.Errorf("parse seed file: %w", err)
		}
		return withRuntime(cmd.Context(), func(rt *cli.Runtime) error {
			saved, err := rt.Budget.ReplaceDocument(cmd.Context(), doc)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d categories, total %s\n",
				len(saved.Plan.Categories), core.FormatRupees(saved.Plan.TotalBudget))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
