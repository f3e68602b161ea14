// Package browser is the recipe browser state machine: it builds the
// candidate list on open, tracks selection and scrolling, and turns a
// confirmed selection into a fulfillment plan.
package browser

import (
	"errors"

	"craftbrowser.ai/internal/craft/candidates"
	"craftbrowser.ai/internal/craft/grid"
	"craftbrowser.ai/internal/craft/inventory"
	"craftbrowser.ai/internal/craft/recipe"
	"craftbrowser.ai/internal/craft/resolver"
)

const (
	DefaultVisibleRows = 8
	DefaultMaxDepth    = 1
)

var (
	ErrClosed          = errors.New("browser is closed")
	ErrNoCandidates    = errors.New("no craftable recipes")
	ErrIndexOutOfRange = errors.New("candidate index out of range")
	// ErrInfeasible means the live inventory no longer satisfies the
	// selected candidate.
	ErrInfeasible = errors.New("recipe no longer craftable")
)

type Config struct {
	MaxDepth    int
	VisibleRows int
}

func (c Config) withDefaults() Config {
	if c.MaxDepth < 0 {
		c.MaxDepth = 0
	}
	if c.VisibleRows <= 0 {
		c.VisibleRows = DefaultVisibleRows
	}
	return c
}

// Browser is owned by a single caller; it is not safe for concurrent use.
type Browser struct {
	cfg Config

	open     bool
	cat      *recipe.Catalog
	snap     inventory.Snapshot
	list     []*recipe.Recipe
	selected int
	scroll   int
}

func New(cfg Config) *Browser { return &Browser{cfg: cfg.withDefaults()} }

func (b *Browser) Config() Config { return b.cfg }

// Open captures snap, rebuilds the candidate list against cat and resets
// selection. Nothing from a previous open survives.
func (b *Browser) Open(cat *recipe.Catalog, snap inventory.Snapshot) []*recipe.Recipe {
	b.cat = cat
	b.snap = snap
	b.list = candidates.Compute(cat, snap, b.cfg.MaxDepth)
	b.selected = 0
	b.scroll = 0
	b.open = true
	return b.list
}

func (b *Browser) Close() { b.open = false }

func (b *Browser) IsOpen() bool { return b.open }

func (b *Browser) Candidates() []*recipe.Recipe { return b.list }

func (b *Browser) Selected() int { return b.selected }

func (b *Browser) ScrollOffset() int { return b.scroll }

// Snapshot is the inventory captured at open.
func (b *Browser) Snapshot() inventory.Snapshot { return b.snap }

// Visible returns the rows currently inside the scroll window.
func (b *Browser) Visible() []*recipe.Recipe {
	if b.scroll >= len(b.list) {
		return nil
	}
	end := b.scroll + b.cfg.VisibleRows
	if end > len(b.list) {
		end = len(b.list)
	}
	return b.list[b.scroll:end]
}

// Scroll moves the selection by dir rows, clamped to the list, and keeps it
// inside the visible window.
func (b *Browser) Scroll(dir int) {
	if !b.open || len(b.list) == 0 {
		return
	}
	b.selected = clamp(b.selected+dir, 0, len(b.list)-1)
	if b.selected < b.scroll {
		b.scroll = b.selected
	}
	if b.selected >= b.scroll+b.cfg.VisibleRows {
		b.scroll = b.selected - b.cfg.VisibleRows + 1
	}
}

// Select re-validates candidate index against live and builds its plan.
// The candidate list came from the snapshot taken at open; if live no
// longer satisfies the recipe, ErrInfeasible is returned and no plan is
// produced.
func (b *Browser) Select(index int, live inventory.Snapshot, gridSide int) (grid.Plan, error) {
	if !b.open {
		return grid.Plan{}, ErrClosed
	}
	if len(b.list) == 0 {
		return grid.Plan{}, ErrNoCandidates
	}
	if index < 0 || index >= len(b.list) {
		return grid.Plan{}, ErrIndexOutOfRange
	}
	b.selected = index
	b.Scroll(0)

	rec := b.list[index]
	if !resolver.New(b.cat).Feasible(rec, live, b.cfg.MaxDepth) {
		return grid.Plan{}, ErrInfeasible
	}
	return grid.Build(rec, gridSide, live, b.cat.Tags())
}

// Confirm selects the highlighted candidate and closes the browser when a
// plan was produced.
func (b *Browser) Confirm(live inventory.Snapshot, gridSide int) (grid.Plan, error) {
	plan, err := b.Select(b.selected, live, gridSide)
	if err != nil {
		return grid.Plan{}, err
	}
	b.open = false
	return plan, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
