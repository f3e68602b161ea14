package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"craftbrowser.ai/internal/persistence/indexdb"
)

func newStatsCmd(_ *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Per-recipe plan and executor report counts from the server index",
		Args:  cobra.NoArgs,
	}
	db := cmd.Flags().String("db", "./data/index/browser.sqlite", "path to the server's sqlite index")

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		if _, err := os.Stat(*db); err != nil {
			return fmt.Errorf("index: %w", err)
		}
		stats, err := indexdb.QueryPlanStats(cmd.Context(), *db)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "RECIPE\tPLANS\tREPORTED\tSLOTS_OK\tSLOTS_FAILED")
		for _, s := range stats {
			fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\n", s.RecipeID, s.Plans, s.Reported, s.SlotsOK, s.SlotsFailed)
		}
		return tw.Flush()
	}
	return cmd
}
