package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"craftbrowser.ai/internal/craft/grid"
	"craftbrowser.ai/internal/craft/resolver"
)

func newPlanCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan <recipe-id>",
		Short: "Lay a recipe out on the crafting grid for the inventory",
		Args:  cobra.ExactArgs(1),
	}
	side := cmd.Flags().Int("grid", grid.MaxSide, "crafting grid side (2 or 3)")
	asJSON := cmd.Flags().Bool("json", false, "print the plan as JSON")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cats, err := a.catalogs()
		if err != nil {
			return err
		}
		rec, ok := cats.Built.ByID(args[0])
		if !ok {
			return fmt.Errorf("unknown recipe %q", args[0])
		}
		snap, err := a.snapshot(cmd, cats.Items.Registry)
		if err != nil {
			return err
		}
		if !resolver.New(cats.Built).Feasible(rec, snap, a.depth()) {
			return fmt.Errorf("recipe %q is not craftable from this inventory at depth %d", rec.ID, a.depth())
		}
		plan, err := grid.Build(rec, *side, snap, cats.Built.Tags())
		if err != nil {
			if grid.IsTooSmall(err) && *side < grid.MaxSide {
				return fmt.Errorf("%w (try --grid %d)", err, grid.MaxSide)
			}
			return err
		}

		out := cmd.OutOrStdout()
		if *asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(plan)
		}
		cells := plan.Cells()
		for row := 0; row < plan.GridSide; row++ {
			parts := make([]string, plan.GridSide)
			for col := range parts {
				if k := cells[row*plan.GridSide+col]; k != nil {
					parts[col] = k.String()
				} else {
					parts[col] = "."
				}
			}
			fmt.Fprintln(out, strings.Join(parts, " | "))
		}
		return nil
	}
	return cmd
}
