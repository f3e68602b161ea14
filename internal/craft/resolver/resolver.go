// Package resolver decides whether a recipe can be crafted from an
// inventory snapshot, optionally through nested sub-crafting.
package resolver

import (
	"craftbrowser.ai/internal/craft/inventory"
	"craftbrowser.ai/internal/craft/item"
	"craftbrowser.ai/internal/craft/recipe"
)

// Resolver is stateless between calls and safe to share across goroutines;
// all working state lives in the trial multiset of a single call.
type Resolver struct {
	cat *recipe.Catalog
}

func New(cat *recipe.Catalog) *Resolver { return &Resolver{cat: cat} }

// Result is the outcome of one resolution attempt. Remaining is nil when
// the recipe is infeasible; otherwise it holds the inventory after every
// consumed ingredient, with sub-craft surplus added back.
type Result struct {
	Feasible  bool
	Remaining *inventory.Multiset
}

// Resolve tries to satisfy rec from snap using at most maxDepth levels of
// sub-crafting (0 means ingredients must already be owned). The search is
// bounded by maxDepth alone.
func (r *Resolver) Resolve(rec *recipe.Recipe, snap inventory.Snapshot, maxDepth int) Result {
	if rec == nil || maxDepth < 0 {
		return Result{}
	}
	trial := snap.Trial()
	st := &search{cat: r.cat, producing: map[item.Key]struct{}{}}
	if !st.consumeRecipe(rec, trial, maxDepth) {
		return Result{}
	}
	return Result{Feasible: true, Remaining: trial}
}

// Feasible is Resolve without the remaining inventory.
func (r *Resolver) Feasible(rec *recipe.Recipe, snap inventory.Snapshot, maxDepth int) bool {
	return r.Resolve(rec, snap, maxDepth).Feasible
}

type search struct {
	cat *recipe.Catalog
	// Wildcard keys currently being produced somewhere up the call chain.
	producing map[item.Key]struct{}
}

func (s *search) consumeRecipe(rec *recipe.Recipe, trial *inventory.Multiset, depth int) bool {
	for _, req := range rec.Requirements() {
		if !s.consumeRequirement(req, trial, depth) {
			return false
		}
	}
	return true
}

// consumeRequirement prefers owned items over sub-crafting: every option is
// tried directly before any option is crafted.
func (s *search) consumeRequirement(req *recipe.Requirement, trial *inventory.Multiset, depth int) bool {
	opts := req.Options(s.cat.Tags())
	items := s.cat.Items()
	for _, opt := range opts {
		if trial.Take(items, opt) {
			return true
		}
	}
	if depth <= 0 {
		return false
	}
	for _, opt := range opts {
		if s.produce(opt, trial, depth) {
			return true
		}
	}
	return false
}

// produce crafts one unit of need and consumes it, committing to trial only
// on success. Producers are tried in index order, each from a fresh copy.
func (s *search) produce(need item.Key, trial *inventory.Multiset, depth int) bool {
	producers := s.cat.FindProducers(need)
	if len(producers) == 0 {
		return false
	}
	items := s.cat.Items()
	wk := items.WildcardKey(need)
	if _, busy := s.producing[wk]; busy {
		return false
	}
	s.producing[wk] = struct{}{}
	defer delete(s.producing, wk)

	for _, cand := range producers {
		attempt := trial.Clone()
		if !s.consumeRecipe(cand, attempt, depth-1) {
			continue
		}
		attempt.Add(items.ExactKey(cand.Output), cand.OutputCount)
		if !attempt.Take(items, need) {
			continue
		}
		trial.Commit(attempt)
		return true
	}
	return false
}
