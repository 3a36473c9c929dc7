package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"budgetbot/internal/cli"
)

var applyCmd = &cobra.Command{
	Use:     "apply <text>",
	Short:   "Apply one or more budget changes without confirmation",
	Example: `  budgetctl apply "increase electronics by 2000 and reduce books by 500"`,
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRuntime(cmd.Context(), func(rt *cli.Runtime) error {
			res := rt.Engine.ApplyText(cmd.Context(), strings.Join(args, " "))
			fmt.Fprintln(cmd.OutOrStdout(), res.Message)
			if !res.Success {
				return errors.New("no update applied")
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(applyCmd)
}
