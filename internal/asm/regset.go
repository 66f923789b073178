package asm

import "sort"

// RegSet is an unordered set of registers. The zero value is the empty set.
type RegSet map[Reg]struct{}

// NewRegSet builds a set from the given registers.
func NewRegSet(regs ...Reg) RegSet {
	s := make(RegSet, len(regs))
	for _, r := range regs {
		s[r] = struct{}{}
	}
	return s
}

// Has reports whether r is a member.
func (s RegSet) Has(r Reg) bool {
	_, ok := s[r]
	return ok
}

// Add inserts r, returning s for chaining.
func (s RegSet) Add(r Reg) RegSet {
	s[r] = struct{}{}
	return s
}

// AddAll inserts every member of other into s.
func (s RegSet) AddAll(other RegSet) RegSet {
	for r := range other {
		s[r] = struct{}{}
	}
	return s
}

// Remove deletes r from s if present.
func (s RegSet) Remove(r Reg) {
	delete(s, r)
}

// Clone returns an independent copy.
func (s RegSet) Clone() RegSet {
	out := make(RegSet, len(s))
	for r := range s {
		out[r] = struct{}{}
	}
	return out
}

// Union returns a new set containing every member of s and other.
func (s RegSet) Union(other RegSet) RegSet {
	out := s.Clone()
	out.AddAll(other)
	return out
}

// Intersect returns a new set containing the members s and other share.
func (s RegSet) Intersect(other RegSet) RegSet {
	out := make(RegSet)
	small, big := s, other
	if len(other) < len(s) {
		small, big = other, s
	}
	for r := range small {
		if big.Has(r) {
			out[r] = struct{}{}
		}
	}
	return out
}

// Equal reports whether s and other contain exactly the same registers.
func (s RegSet) Equal(other RegSet) bool {
	if len(s) != len(other) {
		return false
	}
	for r := range s {
		if !other.Has(r) {
			return false
		}
	}
	return true
}

// Sorted returns the members in a stable, deterministic order (by register
// name), used wherever output must be reproducible byte-for-byte (§8.6).
func (s RegSet) Sorted() []Reg {
	out := make([]Reg, 0, len(s))
	for r := range s {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}
