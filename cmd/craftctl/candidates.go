package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"craftbrowser.ai/internal/craft/candidates"
)

func newCandidatesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "candidates",
		Short: "List recipes the inventory can craft, in browser order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cats, err := a.catalogs()
			if err != nil {
				return err
			}
			snap, err := a.snapshot(cmd, cats.Items.Registry)
			if err != nil {
				return err
			}
			list := candidates.Compute(cats.Built, snap, a.depth())

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "#\tRECIPE\tOUTPUT\tCOUNT\tNAME")
			for i, r := range list {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\n", i, r.ID, r.Output, r.OutputCount, cats.Items.Registry.DisplayName(r.Output.Item))
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d candidate(s) at depth %d\n", len(list), a.depth())
			return nil
		},
	}
}
