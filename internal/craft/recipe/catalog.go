package recipe

import "craftbrowser.ai/internal/craft/item"

// Skipped records a recipe dropped from the catalog as malformed.
type Skipped struct {
	ID     string
	Reason string
}

// Catalog is a read-only snapshot of every well-formed recipe plus the
// production index. It is safe for concurrent readers.
type Catalog struct {
	items   *item.Registry
	tags    TagResolver
	recipes []*Recipe
	index   map[item.Key][]*Recipe
	skipped []Skipped
}

// Build validates src, drops malformed recipes and indexes the rest by the
// wildcard key of their output. Bucket order is source order.
func Build(src []Recipe, items *item.Registry, tags TagResolver) *Catalog {
	c := &Catalog{
		items:   items,
		tags:    tags,
		recipes: make([]*Recipe, 0, len(src)),
		index:   map[item.Key][]*Recipe{},
	}
	for i := range src {
		r := src[i]
		r.Slots = append([]*Requirement(nil), src[i].Slots...)
		if err := r.Normalize(); err != nil {
			c.skipped = append(c.skipped, Skipped{ID: r.ID, Reason: err.Error()})
			continue
		}
		r.index = len(c.recipes)
		rp := &r
		c.recipes = append(c.recipes, rp)
		k := items.WildcardKey(r.Output)
		c.index[k] = append(c.index[k], rp)
	}
	return c
}

func (c *Catalog) Items() *item.Registry { return c.items }
func (c *Catalog) Tags() TagResolver     { return c.tags }

// Recipes returns the catalog in source order. Callers must not modify it.
func (c *Catalog) Recipes() []*Recipe { return c.recipes }

func (c *Catalog) Len() int { return len(c.recipes) }

func (c *Catalog) Skipped() []Skipped { return c.skipped }

// ByID is a linear lookup; ids are not required to be unique.
func (c *Catalog) ByID(id string) (*Recipe, bool) {
	for _, r := range c.recipes {
		if r.ID == id {
			return r, true
		}
	}
	return nil, false
}

// FindProducers returns the recipes whose output can satisfy need. The index
// bucket wins; when it is empty every recipe is scanned, which catches
// outputs grouped under a different key than need's (tag alternatives,
// wildcard needs against variant outputs).
func (c *Catalog) FindProducers(need item.Key) []*Recipe {
	if need.Item == "" {
		return nil
	}
	if direct := c.index[c.items.WildcardKey(need)]; len(direct) > 0 {
		return direct
	}
	var out []*Recipe
	for _, r := range c.recipes {
		if item.Matches(r.Output, need) {
			out = append(out, r)
		}
	}
	return out
}
