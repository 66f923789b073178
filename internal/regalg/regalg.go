// Package regalg implements the register aliasing algebra (§4.1) shared by
// the write, function-discovery and liveness analyses: sub/super-register
// decomposition, alias expansion and the "covering" recognition rule that
// lets a fully-covered GPR stand in for its two byte halves.
package regalg

import "github.com/jamlift/asm86lift/internal/asm"

// ExpandSubRegisters returns s plus every sub-field of every member,
// transitively (a register's sub-fields never have sub-fields of their own
// in this register file, but the closure is computed generally rather than
// assuming a fixed depth).
func ExpandSubRegisters(s asm.RegSet) asm.RegSet {
	out := s.Clone()
	worklist := s.Sorted()
	for len(worklist) > 0 {
		r := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		for _, sub := range asm.SubRegisters(r) {
			if !out.Has(sub) {
				out.Add(sub)
				worklist = append(worklist, sub)
			}
		}
	}
	return out
}

// ExpandAliases first expands sub-registers, then adds every super-register
// of any member of the expanded set. Used to compute which names become
// uncertain after a write to a particular register: writing ah invalidates
// ax; writing ax invalidates ah and al.
func ExpandAliases(s asm.RegSet) asm.RegSet {
	out := ExpandSubRegisters(s)
	for _, r := range out.Sorted() {
		for _, super := range asm.SuperRegisters(r) {
			out.Add(super)
		}
	}
	return out
}

// ExpandCoverings expands sub-registers, then adds a GPR super-register
// whenever its entire covering (both byte halves) is present. Used only by
// liveness, so that live {ah,al} is recognised as live ax too.
func ExpandCoverings(s asm.RegSet) asm.RegSet {
	out := ExpandSubRegisters(s)
	for _, whole := range []asm.Reg{asm.AX, asm.BX, asm.CX, asm.DX} {
		hi, lo, ok := asm.Covering(whole)
		if ok && out.Has(hi) && out.Has(lo) {
			out.Add(whole)
		}
	}
	return out
}

// DecomposeCoverings replaces any whole-covering GPR in s by its two byte
// halves. This is the canonical storage form for liveness sets (§4.1,
// §8.5): no `ax` when both `ah`,`al` would do.
func DecomposeCoverings(s asm.RegSet) asm.RegSet {
	out := s.Clone()
	for _, whole := range []asm.Reg{asm.AX, asm.BX, asm.CX, asm.DX} {
		if out.Has(whole) {
			out.Remove(whole)
			hi, lo, _ := asm.Covering(whole)
			out.Add(hi)
			out.Add(lo)
		}
	}
	return out
}
