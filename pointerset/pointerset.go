// Package pointerset implements the grow-only bit-set representation used
// to store points-to sets: each abstract object (or context-sensitive
// object) is assigned a small integer index by its owning solver, and
// membership is tracked in a word-indexed bitmap. This keeps set union,
// the solver's hottest operation, to a handful of word ORs instead of a
// hash-set walk.
package pointerset

import "math/bits"

const wordBits = 64

// Set is a sparse-ish, grow-only set of non-negative integers.
type Set struct {
	words []uint64
}

// New returns an empty set.
func New() *Set {
	return &Set{}
}

func wordIndex(i int) int { return i / wordBits }
func bitMask(i int) uint64 { return uint64(1) << uint(i%wordBits) }

func (s *Set) grow(words int) {
	if words >= len(s.words) {
		next := make([]uint64, words+1)
		copy(next, s.words)
		s.words = next
	}
}

// Add inserts i into the set, reporting whether the set changed.
func (s *Set) Add(i int) bool {
	w := wordIndex(i)
	s.grow(w)
	mask := bitMask(i)
	if s.words[w]&mask != 0 {
		return false
	}
	s.words[w] |= mask
	return true
}

// Contains reports whether i is a member of the set.
func (s *Set) Contains(i int) bool {
	w := wordIndex(i)
	if w >= len(s.words) {
		return false
	}
	return s.words[w]&bitMask(i) != 0
}

// Len reports the number of elements in the set.
func (s *Set) Len() int {
	n := 0
	for _, w := range s.words {
		n += bits.OnesCount64(w)
	}
	return n
}

// IsEmpty reports whether the set has no elements.
func (s *Set) IsEmpty() bool {
	for _, w := range s.words {
		if w != 0 {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of s.
func (s *Set) Clone() *Set {
	words := make([]uint64, len(s.words))
	copy(words, s.words)
	return &Set{words: words}
}

// UnionWith merges other into s in place, reporting whether s changed.
func (s *Set) UnionWith(other *Set) bool {
	if other == nil {
		return false
	}
	s.grow(len(other.words) - 1)
	changed := false
	for i, w := range other.words {
		if w&^s.words[i] != 0 {
			s.words[i] |= w
			changed = true
		}
	}
	return changed
}

// Diff returns the elements present in s but absent from other, as a new
// set; it does not mutate either operand. Used to compute propagation
// deltas (new points-to facts not already present at the target).
func (s *Set) Diff(other *Set) *Set {
	out := New()
	s.ForEach(func(i int) {
		if other == nil || !other.Contains(i) {
			out.Add(i)
		}
	})
	return out
}

// ForEach calls f once for every member of the set, in ascending order.
func (s *Set) ForEach(f func(int)) {
	for wi, w := range s.words {
		for w != 0 {
			b := bits.TrailingZeros64(w)
			f(wi*wordBits + b)
			w &= w - 1
		}
	}
}

// ToSlice materializes the set's members in ascending order.
func (s *Set) ToSlice() []int {
	out := make([]int, 0, s.Len())
	s.ForEach(func(i int) { out = append(out, i) })
	return out
}
