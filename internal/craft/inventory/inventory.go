// Package inventory holds the immutable inventory snapshot and the mutable
// trial multiset the resolver works on.
package inventory

import (
	"sort"

	"craftbrowser.ai/internal/craft/item"
)

// Snapshot is an immutable count of items by exact key, captured once per
// browser open.
type Snapshot struct {
	items  *item.Registry
	counts map[item.Key]int
	stacks []item.Stack
}

// NewSnapshot folds stacks into exact-key counts. Empty and non-positive
// stacks are ignored.
func NewSnapshot(items *item.Registry, stacks []item.Stack) Snapshot {
	s := Snapshot{items: items, counts: map[item.Key]int{}}
	for _, st := range stacks {
		if st.Item == "" || st.Count <= 0 {
			continue
		}
		s.stacks = append(s.stacks, st)
		s.counts[items.ExactKey(st.Key())] += st.Count
	}
	return s
}

func (s Snapshot) Count(k item.Key) int { return s.counts[k] }

// Stacks returns the stacks the snapshot was built from, in host order.
func (s Snapshot) Stacks() []item.Stack { return s.stacks }

// Has reports whether any owned stack matches need.
func (s Snapshot) Has(need item.Key) bool {
	_, ok := s.FirstMatch(need)
	return ok
}

// FirstMatch returns the exact key of the first owned stack (host order)
// matching need.
func (s Snapshot) FirstMatch(need item.Key) (item.Key, bool) {
	want := s.items.ExactKey(need)
	for _, st := range s.stacks {
		k := s.items.ExactKey(st.Key())
		if item.Matches(k, want) {
			return k, true
		}
	}
	return item.Key{}, false
}

// Trial returns a fresh working copy.
func (s Snapshot) Trial() *Multiset {
	m := &Multiset{counts: make(map[item.Key]int, len(s.counts))}
	for k, c := range s.counts {
		m.counts[k] = c
	}
	return m
}

// Multiset is a disposable working copy of item counts.
type Multiset struct {
	counts map[item.Key]int
}

func NewMultiset() *Multiset { return &Multiset{counts: map[item.Key]int{}} }

func (m *Multiset) Clone() *Multiset {
	out := &Multiset{counts: make(map[item.Key]int, len(m.counts))}
	for k, c := range m.counts {
		out.counts[k] = c
	}
	return out
}

// Commit replaces m's contents with other's.
func (m *Multiset) Commit(other *Multiset) {
	m.counts = other.counts
	other.counts = nil
}

func (m *Multiset) Count(k item.Key) int { return m.counts[k] }

func (m *Multiset) Add(k item.Key, n int) {
	if n <= 0 {
		return
	}
	m.counts[k] += n
}

// Take removes one item satisfying need. An exact key is tried first; a
// wildcard need then falls back to the lowest-ordered owned variant so the
// choice is deterministic.
func (m *Multiset) Take(items *item.Registry, need item.Key) bool {
	exact := items.ExactKey(need)
	if m.counts[exact] > 0 {
		m.dec(exact)
		return true
	}
	if !exact.IsWildcard() {
		return false
	}
	for _, k := range m.Keys() {
		if k.Item == exact.Item && m.counts[k] > 0 {
			m.dec(k)
			return true
		}
	}
	return false
}

func (m *Multiset) dec(k item.Key) {
	m.counts[k]--
	if m.counts[k] <= 0 {
		delete(m.counts, k)
	}
}

// Keys returns the keys with a positive count in sorted order.
func (m *Multiset) Keys() []item.Key {
	out := make([]item.Key, 0, len(m.counts))
	for k, c := range m.counts {
		if c > 0 {
			out = append(out, k)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// Stacks flattens m into sorted stacks.
func (m *Multiset) Stacks() []item.Stack {
	keys := m.Keys()
	out := make([]item.Stack, 0, len(keys))
	for _, k := range keys {
		out = append(out, item.Stack{Item: k.Item, Variant: k.Variant, Count: m.counts[k]})
	}
	return out
}

// Equal compares two multisets by content.
func (m *Multiset) Equal(o *Multiset) bool {
	a, b := m.Keys(), o.Keys()
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] || m.counts[a[i]] != o.counts[b[i]] {
			return false
		}
	}
	return true
}
