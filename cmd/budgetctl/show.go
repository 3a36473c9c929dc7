package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"budgetbot/internal/cli"
	"budgetbot/internal/core"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current budget plan",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withRuntime(cmd.Context(), func(rt *cli.Runtime) error {
			doc, err := rt.Plans.Get(cmd.Context(), true)
			if err != nil {
				return err
			}
			return renderPlan(cmd.OutOrStdout(), doc.Plan)
		})
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func renderPlan(out io.Writer, p *core.Plan) error {
	summary := core.Summarize(p)
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	for _, c := range summary.ByCategory {
		fmt.Fprintf(tw, "%s\t%s\t\n", c.Name, core.FormatRupees(c.Amount))
	}
	fmt.Fprintf(tw, "Total\t%s\t\n", core.FormatRupees(summary.Total))
	if err := tw.Flush(); err != nil {
		return err
	}
	for _, r := range p.Recommendations {
		fmt.Fprintf(out, "• %s\n", r)
	}
	return nil
}
