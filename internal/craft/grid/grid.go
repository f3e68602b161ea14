// Package grid turns a chosen recipe into a concrete slot-by-slot
// placement for a square crafting grid.
package grid

import (
	"errors"
	"fmt"

	"craftbrowser.ai/internal/craft/inventory"
	"craftbrowser.ai/internal/craft/item"
	"craftbrowser.ai/internal/craft/recipe"
)

const (
	MinSide = 2
	MaxSide = 3
)

var (
	ErrInvalidGridSide = errors.New("invalid grid side")
	ErrUnresolvable    = errors.New("ingredient has no concrete alternative")
)

// TooSmallError reports a recipe that cannot fit the open grid. It is an
// expected outcome, e.g. a 3x3 recipe with only the 2x2 inventory grid open.
type TooSmallError struct {
	RecipeID  string
	NeedW     int
	NeedH     int
	NeedSlots int
	GridSide  int
}

func (e *TooSmallError) Error() string {
	if e.NeedSlots > 0 {
		return fmt.Sprintf("recipe %s needs %d slots, grid %dx%d has %d", e.RecipeID, e.NeedSlots, e.GridSide, e.GridSide, e.GridSide*e.GridSide)
	}
	return fmt.Sprintf("recipe %s is %dx%d, grid is %dx%d", e.RecipeID, e.NeedW, e.NeedH, e.GridSide, e.GridSide)
}

func IsTooSmall(err error) bool {
	var e *TooSmallError
	return errors.As(err, &e)
}

// Placement puts one concrete item into one grid slot (row-major index).
type Placement struct {
	Slot int      `json:"slot"`
	Item item.Key `json:"item"`
}

// Plan is the fulfillment plan handed to the inventory transfer executor.
// Placements are ordered by slot and cover every non-empty slot.
type Plan struct {
	RecipeID   string      `json:"recipe_id"`
	GridSide   int         `json:"grid_side"`
	Placements []Placement `json:"placements"`
}

// Cells expands the plan to a GridSide*GridSide slice; empty slots are nil.
func (p Plan) Cells() []*item.Key {
	cells := make([]*item.Key, p.GridSide*p.GridSide)
	for i := range p.Placements {
		pl := p.Placements[i]
		if pl.Slot >= 0 && pl.Slot < len(cells) {
			k := pl.Item
			cells[pl.Slot] = &k
		}
	}
	return cells
}

// Build lays rec out on a gridSide x gridSide grid. Shaped recipes are
// centered; shapeless recipes fill slots in row-major order. Ambiguous
// ingredients resolve to an alternative the player owns in live, else the
// first listed alternative.
func Build(rec *recipe.Recipe, gridSide int, live inventory.Snapshot, tags recipe.TagResolver) (Plan, error) {
	if gridSide < MinSide || gridSide > MaxSide {
		return Plan{}, fmt.Errorf("%w: %d", ErrInvalidGridSide, gridSide)
	}
	if rec == nil {
		return Plan{}, fmt.Errorf("%w: nil recipe", recipe.ErrNoIngredients)
	}
	plan := Plan{RecipeID: rec.ID, GridSide: gridSide}

	if rec.Shaped {
		if rec.Width <= 0 || rec.Height <= 0 {
			return Plan{}, fmt.Errorf("%w: recipe %s is %dx%d", recipe.ErrBadShape, rec.ID, rec.Width, rec.Height)
		}
		if rec.Width > gridSide || rec.Height > gridSide {
			return Plan{}, &TooSmallError{RecipeID: rec.ID, NeedW: rec.Width, NeedH: rec.Height, GridSide: gridSide}
		}
		offX := (gridSide - rec.Width) / 2
		offY := (gridSide - rec.Height) / 2
		for row := 0; row < rec.Height; row++ {
			for col := 0; col < rec.Width; col++ {
				src := row*rec.Width + col
				if src >= len(rec.Slots) || rec.Slots[src] == nil {
					continue
				}
				k, err := choose(rec.Slots[src], live, tags)
				if err != nil {
					return Plan{}, fmt.Errorf("recipe %s cell %d,%d: %w", rec.ID, row, col, err)
				}
				dst := (row+offY)*gridSide + (col + offX)
				plan.Placements = append(plan.Placements, Placement{Slot: dst, Item: k})
			}
		}
		return plan, nil
	}

	if len(rec.Slots) > gridSide*gridSide {
		return Plan{}, &TooSmallError{RecipeID: rec.ID, NeedSlots: len(rec.Slots), GridSide: gridSide}
	}
	for i, req := range rec.Slots {
		if req == nil {
			continue
		}
		k, err := choose(req, live, tags)
		if err != nil {
			return Plan{}, fmt.Errorf("recipe %s ingredient %d: %w", rec.ID, i, err)
		}
		plan.Placements = append(plan.Placements, Placement{Slot: i, Item: k})
	}
	return plan, nil
}

// choose picks the concrete key for one requirement. An owned alternative
// wins over list order; a wildcard pick narrows to the owned variant.
func choose(req *recipe.Requirement, live inventory.Snapshot, tags recipe.TagResolver) (item.Key, error) {
	opts := req.Options(tags)
	if len(opts) == 0 {
		return item.Key{}, ErrUnresolvable
	}
	for _, opt := range opts {
		if owned, ok := live.FirstMatch(opt); ok {
			return owned, nil
		}
	}
	return opts[0], nil
}
