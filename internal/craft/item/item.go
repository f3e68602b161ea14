// Package item defines how item stacks are compared for crafting.
package item

import "fmt"

// AnyVariant marks a requirement that accepts every variant of an item.
const AnyVariant = 32767

// Key identifies an item for stacking and matching: item id plus variant.
type Key struct {
	Item    string `json:"item"`
	Variant int    `json:"variant"`
}

func (k Key) String() string {
	if k.Variant == 0 {
		return k.Item
	}
	if k.Variant == AnyVariant {
		return k.Item + ":*"
	}
	return fmt.Sprintf("%s:%d", k.Item, k.Variant)
}

// IsWildcard reports whether k matches any variant of its item.
func (k Key) IsWildcard() bool { return k.Variant == AnyVariant }

// Less orders keys by item id, then variant.
func (k Key) Less(o Key) bool {
	if k.Item != o.Item {
		return k.Item < o.Item
	}
	return k.Variant < o.Variant
}

// Stack is a concrete pile of items as the host reports it.
type Stack struct {
	Item    string `json:"item"`
	Variant int    `json:"variant,omitempty"`
	Count   int    `json:"count"`
}

func (s Stack) Key() Key { return Key{Item: s.Item, Variant: s.Variant} }

type Def struct {
	ID          string `json:"id"`
	Name        string `json:"name,omitempty"`
	Kind        string `json:"kind,omitempty"` // "BLOCK","TOOL","MATERIAL","FOOD"
	HasSubtypes bool   `json:"has_subtypes,omitempty"`
}

// Registry knows which items carry meaningful variants. The zero value is
// usable and treats every item as having subtypes.
type Registry struct {
	defs map[string]Def
}

func NewRegistry(defs []Def) *Registry {
	r := &Registry{defs: make(map[string]Def, len(defs))}
	for _, d := range defs {
		r.defs[d.ID] = d
	}
	return r
}

func (r *Registry) Def(id string) (Def, bool) {
	if r == nil {
		return Def{}, false
	}
	d, ok := r.defs[id]
	return d, ok
}

// DisplayName falls back to the item id when no name is configured.
func (r *Registry) DisplayName(id string) string {
	if d, ok := r.Def(id); ok && d.Name != "" {
		return d.Name
	}
	return id
}

func (r *Registry) hasSubtypes(id string) bool {
	d, ok := r.Def(id)
	if !ok {
		return true
	}
	return d.HasSubtypes
}

func normalizeVariant(v int) int {
	if v < 0 || v == AnyVariant {
		return AnyVariant
	}
	return v
}

// ExactKey is the identity used for inventory consumption. Items without
// subtypes fold every variant to 0; the wildcard marker is preserved.
func (r *Registry) ExactKey(k Key) Key {
	v := normalizeVariant(k.Variant)
	if v != AnyVariant && !r.hasSubtypes(k.Item) {
		v = 0
	}
	return Key{Item: k.Item, Variant: v}
}

// WildcardKey is the identity used to group recipe outputs.
func (r *Registry) WildcardKey(k Key) Key {
	v := normalizeVariant(k.Variant)
	if v == AnyVariant {
		return Key{Item: k.Item, Variant: AnyVariant}
	}
	if !r.hasSubtypes(k.Item) {
		v = 0
	}
	return Key{Item: k.Item, Variant: v}
}

// Matches reports whether candidate satisfies need: same item and either a
// wildcard need or an equal variant.
func Matches(candidate, need Key) bool {
	if candidate.Item != need.Item || candidate.Item == "" {
		return false
	}
	nv := normalizeVariant(need.Variant)
	if nv == AnyVariant {
		return true
	}
	return normalizeVariant(candidate.Variant) == nv
}
