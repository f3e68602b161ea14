// Package candidates builds the list of recipes the current inventory can
// satisfy.
package candidates

import (
	"craftbrowser.ai/internal/craft/inventory"
	"craftbrowser.ai/internal/craft/recipe"
	"craftbrowser.ai/internal/craft/resolver"
)

// Compute runs the resolver for every recipe in catalog order, each against
// its own fresh trial, and returns the feasible ones.
func Compute(cat *recipe.Catalog, snap inventory.Snapshot, maxDepth int) []*recipe.Recipe {
	if cat == nil {
		return nil
	}
	res := resolver.New(cat)
	var out []*recipe.Recipe
	for _, r := range cat.Recipes() {
		if r.Output.Item == "" || r.OutputCount <= 0 {
			continue
		}
		if res.Feasible(r, snap, maxDepth) {
			out = append(out, r)
		}
	}
	return out
}

// IDs flattens a candidate list for logging and comparison.
func IDs(list []*recipe.Recipe) []string {
	out := make([]string, 0, len(list))
	for _, r := range list {
		out = append(out, r.ID)
	}
	return out
}
