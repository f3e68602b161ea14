package browser

import (
	"errors"
	"fmt"
	"testing"

	"craftbrowser.ai/internal/craft/grid"
	"craftbrowser.ai/internal/craft/inventory"
	"craftbrowser.ai/internal/craft/item"
	"craftbrowser.ai/internal/craft/recipe"
)

var (
	plank = item.Key{Item: "PLANK"}
	stick = item.Key{Item: "STICK"}
)

func testItems() *item.Registry {
	return item.NewRegistry([]item.Def{{ID: "PLANK"}, {ID: "STICK"}, {ID: "CHEST"}})
}

func stickCatalog(items *item.Registry) *recipe.Catalog {
	return recipe.Build([]recipe.Recipe{
		{ID: "R1", Slots: []*recipe.Requirement{recipe.Exact(plank), recipe.Exact(plank)}, Output: stick, OutputCount: 4},
	}, items, nil)
}

func TestBrowser_EndToEndSticks(t *testing.T) {
	items := testItems()
	cat := stickCatalog(items)
	snap := inventory.NewSnapshot(items, []item.Stack{{Item: "PLANK", Count: 2}})

	b := New(Config{MaxDepth: 0})
	list := b.Open(cat, snap)
	if len(list) != 1 || list[0].ID != "R1" {
		t.Fatalf("candidates: %+v", list)
	}

	plan, err := b.Select(0, snap, 2)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if plan.GridSide != 2 || len(plan.Placements) != 2 {
		t.Fatalf("plan: %+v", plan)
	}
	for i, pl := range plan.Placements {
		if pl.Slot != i || pl.Item != plank {
			t.Fatalf("placement %d: %+v", i, pl)
		}
	}
	cells := plan.Cells()
	if cells[2] != nil || cells[3] != nil {
		t.Fatalf("slots 2 and 3 must stay empty: %v", cells)
	}
}

func TestBrowser_GridTooSmall(t *testing.T) {
	items := testItems()
	p := recipe.Exact(plank)
	cat := recipe.Build([]recipe.Recipe{
		{ID: "chest", Shaped: true, Width: 3, Height: 3, Slots: []*recipe.Requirement{p, p, p, p, nil, p, p, p, p}, Output: item.Key{Item: "CHEST"}, OutputCount: 1},
	}, items, nil)
	snap := inventory.NewSnapshot(items, []item.Stack{{Item: "PLANK", Count: 8}})

	b := New(Config{})
	b.Open(cat, snap)
	if _, err := b.Confirm(snap, 2); !grid.IsTooSmall(err) {
		t.Fatalf("expected grid too small, got %v", err)
	}
	if !b.IsOpen() {
		t.Fatalf("browser must stay open after a failed confirm")
	}
	if _, err := b.Confirm(snap, 3); err != nil {
		t.Fatalf("Confirm on 3x3: %v", err)
	}
	if b.IsOpen() {
		t.Fatalf("browser should close after a successful confirm")
	}
}

func TestBrowser_DivergenceIsInfeasible(t *testing.T) {
	items := testItems()
	cat := stickCatalog(items)
	b := New(Config{})
	b.Open(cat, inventory.NewSnapshot(items, []item.Stack{{Item: "PLANK", Count: 2}}))

	live := inventory.NewSnapshot(items, []item.Stack{{Item: "PLANK", Count: 1}})
	if _, err := b.Select(0, live, 3); !errors.Is(err, ErrInfeasible) {
		t.Fatalf("expected ErrInfeasible, got %v", err)
	}
}

func TestBrowser_SelectErrors(t *testing.T) {
	items := testItems()
	cat := stickCatalog(items)
	empty := inventory.NewSnapshot(items, nil)

	b := New(Config{})
	if _, err := b.Select(0, empty, 3); !errors.Is(err, ErrClosed) {
		t.Fatalf("closed: got %v", err)
	}
	b.Open(cat, empty)
	if _, err := b.Select(0, empty, 3); !errors.Is(err, ErrNoCandidates) {
		t.Fatalf("empty: got %v", err)
	}
	snap := inventory.NewSnapshot(items, []item.Stack{{Item: "PLANK", Count: 2}})
	b.Open(cat, snap)
	if _, err := b.Select(1, snap, 3); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("range: got %v", err)
	}
	b.Close()
	if _, err := b.Confirm(snap, 3); !errors.Is(err, ErrClosed) {
		t.Fatalf("after close: got %v", err)
	}
}

func TestBrowser_ScrollWindow(t *testing.T) {
	items := testItems()
	var src []recipe.Recipe
	for i := 0; i < 12; i++ {
		src = append(src, recipe.Recipe{
			ID:          fmt.Sprintf("r%d", i),
			Slots:       []*recipe.Requirement{recipe.Exact(plank)},
			Output:      stick,
			OutputCount: 1,
		})
	}
	cat := recipe.Build(src, items, nil)
	b := New(Config{VisibleRows: 4})
	b.Open(cat, inventory.NewSnapshot(items, []item.Stack{{Item: "PLANK", Count: 1}}))
	if len(b.Candidates()) != 12 {
		t.Fatalf("expected 12 candidates, got %d", len(b.Candidates()))
	}

	b.Scroll(-1)
	if b.Selected() != 0 || b.ScrollOffset() != 0 {
		t.Fatalf("scroll up at top: sel=%d off=%d", b.Selected(), b.ScrollOffset())
	}
	for i := 0; i < 5; i++ {
		b.Scroll(1)
	}
	if b.Selected() != 5 || b.ScrollOffset() != 2 {
		t.Fatalf("after 5 down: sel=%d off=%d", b.Selected(), b.ScrollOffset())
	}
	if v := b.Visible(); len(v) != 4 || v[0].ID != "r2" {
		t.Fatalf("visible window: %v", v)
	}
	b.Scroll(100)
	if b.Selected() != 11 || b.ScrollOffset() != 8 {
		t.Fatalf("after jump: sel=%d off=%d", b.Selected(), b.ScrollOffset())
	}
	b.Scroll(-10)
	if b.Selected() != 1 || b.ScrollOffset() != 1 {
		t.Fatalf("after back up: sel=%d off=%d", b.Selected(), b.ScrollOffset())
	}

	// Reopening resets the state.
	b.Open(cat, inventory.NewSnapshot(items, []item.Stack{{Item: "PLANK", Count: 1}}))
	if b.Selected() != 0 || b.ScrollOffset() != 0 {
		t.Fatalf("open must reset selection")
	}
}
