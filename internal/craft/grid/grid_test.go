package grid

import (
	"errors"
	"testing"

	"craftbrowser.ai/internal/craft/inventory"
	"craftbrowser.ai/internal/craft/item"
	"craftbrowser.ai/internal/craft/recipe"
)

var (
	plank  = item.Key{Item: "PLANK"}
	stick  = item.Key{Item: "STICK"}
	cobble = item.Key{Item: "COBBLESTONE"}
)

func testItems() *item.Registry {
	return item.NewRegistry([]item.Def{
		{ID: "PLANK", HasSubtypes: true}, {ID: "STICK"}, {ID: "COBBLESTONE"}, {ID: "BUTTON"},
	})
}

func shaped(id string, w, h int, cells ...*recipe.Requirement) *recipe.Recipe {
	return &recipe.Recipe{ID: id, Shaped: true, Width: w, Height: h, Slots: cells, Output: item.Key{Item: "OUT"}, OutputCount: 1}
}

func slots(p Plan) []int {
	out := make([]int, 0, len(p.Placements))
	for _, pl := range p.Placements {
		out = append(out, pl.Slot)
	}
	return out
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestBuild_ShapedCentering(t *testing.T) {
	live := inventory.NewSnapshot(testItems(), nil)
	p := recipe.Exact(plank)
	cases := []struct {
		name string
		rec  *recipe.Recipe
		side int
		want []int
	}{
		{"1x1 in 3x3", shaped("button", 1, 1, p), 3, []int{4}},
		{"1x1 in 2x2", shaped("button", 1, 1, p), 2, []int{0}},
		{"2x2 in 3x3", shaped("bench", 2, 2, p, p, p, p), 3, []int{0, 1, 3, 4}},
		{"2x2 in 2x2", shaped("bench", 2, 2, p, p, p, p), 2, []int{0, 1, 2, 3}},
		{"3x3 in 3x3", shaped("chest", 3, 3, p, p, p, p, nil, p, p, p, p), 3, []int{0, 1, 2, 3, 5, 6, 7, 8}},
		{"1x2 in 3x3", shaped("sticks", 1, 2, p, p), 3, []int{1, 4}},
		{"3x1 in 3x3", shaped("slab", 3, 1, p, p, p), 3, []int{3, 4, 5}},
	}
	for _, c := range cases {
		plan, err := Build(c.rec, c.side, live, nil)
		if err != nil {
			t.Fatalf("%s: %v", c.name, err)
		}
		if got := slots(plan); !equalInts(got, c.want) {
			t.Fatalf("%s: slots=%v want %v", c.name, got, c.want)
		}
		if plan.GridSide != c.side || plan.RecipeID != c.rec.ID {
			t.Fatalf("%s: bad header %+v", c.name, plan)
		}
	}
}

func TestBuild_GridTooSmall(t *testing.T) {
	live := inventory.NewSnapshot(testItems(), nil)
	p := recipe.Exact(plank)
	_, err := Build(shaped("chest", 3, 3, p, p, p, p, nil, p, p, p, p), 2, live, nil)
	if !IsTooSmall(err) {
		t.Fatalf("expected TooSmallError, got %v", err)
	}
	var tse *TooSmallError
	if !errors.As(err, &tse) || tse.NeedW != 3 || tse.NeedH != 3 || tse.GridSide != 2 {
		t.Fatalf("unexpected error detail: %+v", tse)
	}

	shapeless := &recipe.Recipe{ID: "mix", Slots: []*recipe.Requirement{p, p, p, p, p}, Output: stick, OutputCount: 1}
	if _, err := Build(shapeless, 2, live, nil); !IsTooSmall(err) {
		t.Fatalf("5 shapeless ingredients on 2x2: expected TooSmallError, got %v", err)
	}
}

func TestBuild_InvalidSide(t *testing.T) {
	live := inventory.NewSnapshot(testItems(), nil)
	for _, side := range []int{0, 1, 4} {
		if _, err := Build(shaped("b", 1, 1, recipe.Exact(plank)), side, live, nil); !errors.Is(err, ErrInvalidGridSide) {
			t.Fatalf("side %d: got %v", side, err)
		}
	}
}

func TestBuild_ShapelessRowMajor(t *testing.T) {
	items := testItems()
	live := inventory.NewSnapshot(items, []item.Stack{{Item: "PLANK", Count: 2}})
	rec := &recipe.Recipe{ID: "sticks", Slots: []*recipe.Requirement{recipe.Exact(plank), recipe.Exact(plank)}, Output: stick, OutputCount: 4}

	plan, err := Build(rec, 2, live, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got := slots(plan); !equalInts(got, []int{0, 1}) {
		t.Fatalf("slots=%v", got)
	}
	cells := plan.Cells()
	if len(cells) != 4 || cells[0] == nil || *cells[0] != plank || cells[2] != nil || cells[3] != nil {
		t.Fatalf("unexpected cells: %v", cells)
	}
}

func TestBuild_PrefersOwnedAlternative(t *testing.T) {
	items := testItems()
	birch := item.Key{Item: "PLANK", Variant: 2}
	tags := recipe.Tags{"planks": {plank, {Item: "PLANK", Variant: 1}, birch}}
	live := inventory.NewSnapshot(items, []item.Stack{{Item: "PLANK", Variant: 2, Count: 4}})

	rec := &recipe.Recipe{ID: "button", Slots: []*recipe.Requirement{
		recipe.Tagged("planks"),
		recipe.AnyOf(cobble, birch),
		recipe.Exact(item.Key{Item: "PLANK", Variant: item.AnyVariant}),
		recipe.AnyOf(cobble, stick),
	}, Output: item.Key{Item: "BUTTON"}, OutputCount: 1}

	plan, err := Build(rec, 2, live, tags)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	want := []item.Key{birch, birch, birch, cobble}
	for i, w := range want {
		if plan.Placements[i].Item != w {
			t.Fatalf("placement %d: got %v want %v", i, plan.Placements[i].Item, w)
		}
	}
}

func TestBuild_UnresolvableTag(t *testing.T) {
	live := inventory.NewSnapshot(testItems(), nil)
	rec := &recipe.Recipe{ID: "x", Slots: []*recipe.Requirement{recipe.Tagged("missing")}, Output: stick, OutputCount: 1}
	if _, err := Build(rec, 3, live, recipe.Tags{}); !errors.Is(err, ErrUnresolvable) {
		t.Fatalf("expected ErrUnresolvable, got %v", err)
	}
}
