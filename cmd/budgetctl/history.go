package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"budgetbot/internal/core"
	"budgetbot/internal/storage"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent budget changes recorded by the worker",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		repo, err := storage.NewSQLiteRepository(appConfig.SQLiteDBPath)
		if err != nil {
			return err
		}
		defer repo.Close()

		events, err := repo.ListPlanEvents(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(events) == 0 {
			fmt.Fprintln(out, "No budget changes recorded.")
			return nil
		}

		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "WHEN\tCATEGORY\tFROM\tTO\tTOTAL\tACTION\tSOURCE")
		for _, e := range events {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				e.OccurredAt.Local().Format(time.DateTime), e.Category,
				core.FormatRupees(e.PreviousAmount), core.FormatRupees(e.Amount),
				core.FormatRupees(e.TotalBudget), e.Action, e.Source)
		}
		return tw.Flush()
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 20, "Number of events to show")
	rootCmd.AddCommand(historyCmd)
}
