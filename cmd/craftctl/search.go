package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"craftbrowser.ai/internal/craft/candidates"
	"craftbrowser.ai/internal/craft/recipe"
)

func newSearchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Fuzzy search recipe outputs by id or display name",
		Args:  cobra.MinimumNArgs(1),
	}
	all := cmd.Flags().Bool("all", false, "search the whole catalog instead of the inventory's candidates")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cats, err := a.catalogs()
		if err != nil {
			return err
		}
		var list []*recipe.Recipe
		if *all {
			list = cats.Built.Recipes()
		} else {
			snap, err := a.snapshot(cmd, cats.Items.Registry)
			if err != nil {
				return err
			}
			list = candidates.Compute(cats.Built, snap, a.depth())
		}

		matches := candidates.Search(list, cats.Items.Registry, strings.Join(args, " "))
		if len(matches) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no matches")
			return nil
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "SCORE\tRECIPE\tOUTPUT\tNAME")
		for _, m := range matches {
			fmt.Fprintf(tw, "%.2f\t%s\t%s\t%s\n", m.Score, m.Recipe.ID, m.Recipe.Output, cats.Items.Registry.DisplayName(m.Recipe.Output.Item))
		}
		return tw.Flush()
	}
	return cmd
}
