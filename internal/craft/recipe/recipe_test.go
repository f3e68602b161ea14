package recipe

import (
	"errors"
	"testing"

	"craftbrowser.ai/internal/craft/item"
)

var (
	plank = item.Key{Item: "PLANK"}
	stick = item.Key{Item: "STICK"}
	wool  = item.Key{Item: "WOOL", Variant: item.AnyVariant}
)

func testItems() *item.Registry {
	return item.NewRegistry([]item.Def{
		{ID: "PLANK"}, {ID: "STICK"}, {ID: "LOG"},
		{ID: "WOOL", HasSubtypes: true},
		{ID: "BED"},
	})
}

func TestNormalize_InfersShapedDims(t *testing.T) {
	cases := []struct {
		n    int
		w, h int
	}{
		{1, 1, 1}, {2, 1, 2}, {3, 3, 1}, {4, 2, 2}, {6, 3, 2}, {9, 3, 3},
	}
	for _, c := range cases {
		r := Recipe{ID: "x", Shaped: true, Output: stick, OutputCount: 1}
		for i := 0; i < c.n; i++ {
			r.Slots = append(r.Slots, Exact(plank))
		}
		if err := r.Normalize(); err != nil {
			t.Fatalf("n=%d: %v", c.n, err)
		}
		if r.Width != c.w || r.Height != c.h {
			t.Fatalf("n=%d: got %dx%d want %dx%d", c.n, r.Width, r.Height, c.w, c.h)
		}
	}
}

func TestNormalize_Malformed(t *testing.T) {
	cases := []struct {
		name string
		r    Recipe
		want error
	}{
		{"shaped all empty", Recipe{Shaped: true, Width: 2, Height: 1, Slots: []*Requirement{nil, nil}, Output: stick, OutputCount: 1}, ErrNoIngredients},
		{"dims mismatch", Recipe{Shaped: true, Width: 2, Height: 2, Slots: []*Requirement{Exact(plank)}, Output: stick, OutputCount: 1}, ErrBadShape},
		{"too wide", Recipe{Shaped: true, Width: 4, Height: 1, Slots: []*Requirement{Exact(plank), nil, nil, nil}, Output: stick, OutputCount: 1}, ErrBadShape},
		{"uninferable", Recipe{Shaped: true, Slots: []*Requirement{Exact(plank), nil, nil, nil, nil}, Output: stick, OutputCount: 1}, ErrBadShape},
		{"shapeless empty", Recipe{Output: stick, OutputCount: 1}, ErrNoIngredients},
		{"shapeless ten", Recipe{Slots: make10(), Output: stick, OutputCount: 1}, ErrBadShape},
		{"zero output", Recipe{Slots: []*Requirement{Exact(plank)}, Output: stick}, ErrBadOutput},
		{"no output item", Recipe{Slots: []*Requirement{Exact(plank)}, OutputCount: 1}, ErrBadOutput},
		{"empty any_of", Recipe{Slots: []*Requirement{AnyOf()}, Output: stick, OutputCount: 1}, ErrBadRequirement},
		{"empty tag", Recipe{Slots: []*Requirement{Tagged("")}, Output: stick, OutputCount: 1}, ErrBadRequirement},
	}
	for _, c := range cases {
		r := c.r
		if err := r.Normalize(); !errors.Is(err, c.want) {
			t.Fatalf("%s: got %v want %v", c.name, err, c.want)
		}
	}
}

func make10() []*Requirement {
	out := make([]*Requirement, 10)
	for i := range out {
		out[i] = Exact(plank)
	}
	return out
}

func TestBuild_SkipsMalformedAndKeepsOrder(t *testing.T) {
	cat := Build([]Recipe{
		{ID: "sticks", Slots: []*Requirement{Exact(plank), Exact(plank)}, Output: stick, OutputCount: 4},
		{ID: "broken", Shaped: true, Width: 2, Height: 2, Output: stick, OutputCount: 1},
		{ID: "planks", Slots: []*Requirement{Exact(item.Key{Item: "LOG"})}, Output: plank, OutputCount: 4},
		{ID: "sticks_alt", Shaped: true, Slots: []*Requirement{Exact(plank), Exact(plank)}, Output: stick, OutputCount: 2},
	}, testItems(), nil)

	if cat.Len() != 3 {
		t.Fatalf("expected 3 recipes, got %d", cat.Len())
	}
	if len(cat.Skipped()) != 1 || cat.Skipped()[0].ID != "broken" {
		t.Fatalf("unexpected skipped: %+v", cat.Skipped())
	}
	for i, r := range cat.Recipes() {
		if r.Index() != i {
			t.Fatalf("recipe %s index=%d want %d", r.ID, r.Index(), i)
		}
	}
	prods := cat.FindProducers(stick)
	if len(prods) != 2 || prods[0].ID != "sticks" || prods[1].ID != "sticks_alt" {
		t.Fatalf("bucket order wrong: %v", ids(prods))
	}
}

func TestFindProducers_VariantOutputsGroupedAndFallback(t *testing.T) {
	red := item.Key{Item: "WOOL", Variant: 14}
	blue := item.Key{Item: "WOOL", Variant: 11}
	cat := Build([]Recipe{
		{ID: "red_wool", Slots: []*Requirement{Exact(item.Key{Item: "WOOL"}), Exact(item.Key{Item: "ROSE"})}, Output: red, OutputCount: 1},
		{ID: "blue_wool", Slots: []*Requirement{Exact(item.Key{Item: "WOOL"}), Exact(item.Key{Item: "LAPIS"})}, Output: blue, OutputCount: 1},
	}, testItems(), nil)

	if got := ids(cat.FindProducers(red)); len(got) != 1 || got[0] != "red_wool" {
		t.Fatalf("exact variant bucket: %v", got)
	}
	// No recipe outputs WOOL:* directly; the scan finds every variant.
	if got := ids(cat.FindProducers(wool)); len(got) != 2 || got[0] != "red_wool" || got[1] != "blue_wool" {
		t.Fatalf("wildcard fallback: %v", got)
	}
	if got := cat.FindProducers(item.Key{Item: "BED"}); len(got) != 0 {
		t.Fatalf("expected no producers, got %v", ids(got))
	}
}

func TestRequirement_Options(t *testing.T) {
	tags := Tags{"planks": {plank, {Item: "PLANK", Variant: 1}}}
	if got := Tagged("planks").Options(tags); len(got) != 2 {
		t.Fatalf("tag options: %v", got)
	}
	if got := Tagged("planks").Options(nil); got != nil {
		t.Fatalf("nil resolver should yield no options: %v", got)
	}
	if got := Exact(plank).Options(nil); len(got) != 1 || got[0] != plank {
		t.Fatalf("exact options: %v", got)
	}
}

func ids(rs []*Recipe) []string {
	out := make([]string, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.ID)
	}
	return out
}
