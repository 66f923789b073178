// Package writeanalysis computes, for every instruction index, the write
// summary of the suffix beginning there (§4.3): a backward fixpoint over a
// three-level lattice (absent < Reg/Stack < Any) with explicit stack-slot
// aliasing across push/pop.
package writeanalysis

import "github.com/jamlift/asm86lift/internal/asm"

// ValueKind discriminates the three abstract values a write can hold on
// entry to the suffix.
type ValueKind int

const (
	// KindReg: destination holds whatever register Reg held on entry.
	KindReg ValueKind = iota
	// KindStack: destination holds the bytes at stack offset idx (size
	// bytes) as they were on entry.
	KindStack
	// KindAny: clobbered to an unknown value.
	KindAny
)

// Value is one binding in a write summary's Writes map.
type Value struct {
	Kind      ValueKind
	Reg       asm.Reg
	StackIdx  int
	StackSize int
}

// AnyValue is the top of the three-level lattice.
var AnyValue = Value{Kind: KindAny}

// RegValue builds a Reg(r) value.
func RegValue(r asm.Reg) Value { return Value{Kind: KindReg, Reg: r} }

// StackValue builds a Stack(idx,size) value.
func StackValue(idx, size int) Value { return Value{Kind: KindStack, StackIdx: idx, StackSize: size} }

func (v Value) equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindReg:
		return v.Reg == o.Reg
	case KindStack:
		return v.StackIdx == o.StackIdx && v.StackSize == o.StackSize
	default:
		return true
	}
}

// SP is the abstract stack-pointer delta from entry: either a known
// integer offset or Any when it cannot be proven constant across paths.
type SP struct {
	Any   bool
	Delta int
}

// ConcreteSP builds a known SP delta.
func ConcreteSP(delta int) SP { return SP{Delta: delta} }

// AnySP is the unknown stack-pointer delta.
var AnySP = SP{Any: true}

func (s SP) add(delta int) SP {
	if s.Any {
		return AnySP
	}
	return ConcreteSP(s.Delta + delta)
}

func (s SP) equal(o SP) bool {
	if s.Any != o.Any {
		return false
	}
	return s.Any || s.Delta == o.Delta
}

func mergeSP(a, b SP) SP {
	if a.Any || b.Any || a.Delta != b.Delta {
		return AnySP
	}
	return a
}

// Summary is the write summary W of a suffix (§3): what the suffix does to
// registers if reached, the indices at which it eventually executes a
// ret, and its net stack-pointer delta.
type Summary struct {
	Writes    map[asm.Reg]Value
	ReturnsAt map[int]struct{}
	SP        SP
}

// NoReturn is the canonical "this suffix never returns" summary: per
// invariant 1, an empty ReturnsAt implies an empty Writes map.
func NoReturn() *Summary {
	return &Summary{Writes: map[asm.Reg]Value{}, ReturnsAt: map[int]struct{}{}}
}

// DoesReturn reports whether the suffix ever reaches a ret.
func (s *Summary) DoesReturn() bool { return len(s.ReturnsAt) > 0 }

// Equal reports whether two summaries are identical, used to detect
// fixpoint convergence.
func (s *Summary) Equal(o *Summary) bool {
	if len(s.Writes) != len(o.Writes) || len(s.ReturnsAt) != len(o.ReturnsAt) || !s.SP.equal(o.SP) {
		return false
	}
	for k, v := range s.Writes {
		ov, ok := o.Writes[k]
		if !ok || !v.equal(ov) {
			return false
		}
	}
	for i := range s.ReturnsAt {
		if _, ok := o.ReturnsAt[i]; !ok {
			return false
		}
	}
	return true
}

func cloneReturnsAt(s map[int]struct{}) map[int]struct{} {
	out := make(map[int]struct{}, len(s))
	for i := range s {
		out[i] = struct{}{}
	}
	return out
}

func unionReturnsAt(a, b map[int]struct{}) map[int]struct{} {
	out := cloneReturnsAt(a)
	for i := range b {
		out[i] = struct{}{}
	}
	return out
}

// removeSelfMappings deletes any key that would map to Reg(itself) — a
// binding a key never legally holds (invariant 2).
func removeSelfMappings(m map[asm.Reg]Value) {
	for k, v := range m {
		if v.Kind == KindReg && v.Reg == k {
			delete(m, k)
		}
	}
}
