// Package recipe holds the immutable recipe model and the production index.
package recipe

import (
	"errors"
	"fmt"

	"craftbrowser.ai/internal/craft/item"
)

type ReqKind int

const (
	ReqExact ReqKind = iota + 1
	ReqAnyOf
	ReqTagged
)

func (k ReqKind) String() string {
	switch k {
	case ReqExact:
		return "EXACT"
	case ReqAnyOf:
		return "ANY_OF"
	case ReqTagged:
		return "TAGGED"
	default:
		return "UNKNOWN"
	}
}

// Requirement is what one ingredient slot demands. Each slot consumes a
// single item; multiplicity comes from repeated slots.
type Requirement struct {
	Kind         ReqKind
	Item         item.Key   // ReqExact
	Alternatives []item.Key // ReqAnyOf, in preference order
	Tag          string     // ReqTagged
}

func Exact(k item.Key) *Requirement { return &Requirement{Kind: ReqExact, Item: k} }

func AnyOf(alts ...item.Key) *Requirement {
	return &Requirement{Kind: ReqAnyOf, Alternatives: alts}
}

func Tagged(tag string) *Requirement { return &Requirement{Kind: ReqTagged, Tag: tag} }

// TagResolver expands a tag name to its ordered alternatives.
type TagResolver interface {
	Resolve(tag string) []item.Key
}

// Tags is a static TagResolver.
type Tags map[string][]item.Key

func (t Tags) Resolve(tag string) []item.Key { return t[tag] }

// Options lists the concrete keys that satisfy r, in preference order.
func (r *Requirement) Options(tags TagResolver) []item.Key {
	if r == nil {
		return nil
	}
	switch r.Kind {
	case ReqExact:
		return []item.Key{r.Item}
	case ReqAnyOf:
		return r.Alternatives
	case ReqTagged:
		if tags == nil {
			return nil
		}
		return tags.Resolve(r.Tag)
	}
	return nil
}

// Recipe is immutable once built into a Catalog.
type Recipe struct {
	ID     string
	Shaped bool

	// Shaped: Width*Height cells in row-major order; nil cells are empty.
	// Shapeless: one entry per ingredient.
	Width  int
	Height int
	Slots  []*Requirement

	Output      item.Key
	OutputCount int

	index int
}

// Index is the recipe's position in catalog order.
func (r *Recipe) Index() int { return r.index }

// Requirements returns the non-empty slots in slot order.
func (r *Recipe) Requirements() []*Requirement {
	out := make([]*Requirement, 0, len(r.Slots))
	for _, s := range r.Slots {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

var (
	ErrBadShape       = errors.New("bad shape")
	ErrNoIngredients  = errors.New("no ingredients")
	ErrBadOutput      = errors.New("bad output")
	ErrBadRequirement = errors.New("bad requirement")
)

const (
	MaxSide      = 3
	MaxShapeless = MaxSide * MaxSide
)

// inferDims guesses a shaped recipe's dimensions from its cell count.
func inferDims(n int) (w, h int) {
	switch n {
	case 1:
		return 1, 1
	case 2:
		return 1, 2
	case 3:
		return 3, 1
	case 4:
		return 2, 2
	case 6:
		return 3, 2
	case 9:
		return 3, 3
	}
	return 0, 0
}

// Normalize fills in missing shaped dimensions and validates r.
func (r *Recipe) Normalize() error {
	if r.Output.Item == "" || r.OutputCount <= 0 {
		return fmt.Errorf("%w: %s x%d", ErrBadOutput, r.Output, r.OutputCount)
	}
	if r.Shaped {
		if r.Width <= 0 || r.Height <= 0 {
			r.Width, r.Height = inferDims(len(r.Slots))
		}
		if r.Width < 1 || r.Width > MaxSide || r.Height < 1 || r.Height > MaxSide {
			return fmt.Errorf("%w: %dx%d", ErrBadShape, r.Width, r.Height)
		}
		if len(r.Slots) != r.Width*r.Height {
			return fmt.Errorf("%w: %dx%d with %d cells", ErrBadShape, r.Width, r.Height, len(r.Slots))
		}
		if len(r.Requirements()) == 0 {
			return ErrNoIngredients
		}
	} else {
		if len(r.Slots) == 0 {
			return ErrNoIngredients
		}
		if len(r.Slots) > MaxShapeless {
			return fmt.Errorf("%w: %d shapeless ingredients", ErrBadShape, len(r.Slots))
		}
		for i, s := range r.Slots {
			if s == nil {
				return fmt.Errorf("%w: empty shapeless entry %d", ErrBadRequirement, i)
			}
		}
	}
	for i, s := range r.Slots {
		if s == nil {
			continue
		}
		if err := s.validate(); err != nil {
			return fmt.Errorf("slot %d: %w", i, err)
		}
	}
	return nil
}

func (r *Requirement) validate() error {
	switch r.Kind {
	case ReqExact:
		if r.Item.Item == "" {
			return fmt.Errorf("%w: empty item", ErrBadRequirement)
		}
	case ReqAnyOf:
		if len(r.Alternatives) == 0 {
			return fmt.Errorf("%w: no alternatives", ErrBadRequirement)
		}
		for _, a := range r.Alternatives {
			if a.Item == "" {
				return fmt.Errorf("%w: empty alternative", ErrBadRequirement)
			}
		}
	case ReqTagged:
		if r.Tag == "" {
			return fmt.Errorf("%w: empty tag", ErrBadRequirement)
		}
	default:
		return fmt.Errorf("%w: kind %d", ErrBadRequirement, r.Kind)
	}
	return nil
}
