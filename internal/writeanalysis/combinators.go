package writeanalysis

import "github.com/jamlift/asm86lift/internal/asm"

// pushThrough models "execute an instruction that adds delta to sp, then
// next" — the combinator underlying `pop reg` (§4.3): after a pop the
// real stack pointer has moved away from the popped slot, so offsets in
// next's frame must grow by delta to be expressed relative to entry here.
func pushThrough(next *Summary, delta int) *Summary {
	if !next.DoesReturn() {
		return NoReturn()
	}
	out := &Summary{Writes: map[asm.Reg]Value{}, ReturnsAt: cloneReturnsAt(next.ReturnsAt), SP: next.SP.add(delta)}
	for k, v := range next.Writes {
		switch v.Kind {
		case KindStack:
			out.Writes[k] = StackValue(v.StackIdx+delta, v.StackSize)
		default:
			out.Writes[k] = v
		}
	}
	removeSelfMappings(out.Writes)
	return out
}

// popThrough models a read-from-top-of-stack — the combinator underlying
// `push reg` (§4.3): a Stack(0,delta) binding that exactly covers the slot
// just pushed is restored to Reg(resultReg) (and its GPR sub-halves, so
// popping/pushing ax also threads ah/al), anything else within the pushed
// slot becomes Any, and everything below it shifts down by delta.
func popThrough(next *Summary, delta int, resultReg *asm.Reg) *Summary {
	if !next.DoesReturn() {
		return NoReturn()
	}
	out := &Summary{Writes: map[asm.Reg]Value{}, ReturnsAt: cloneReturnsAt(next.ReturnsAt), SP: next.SP.add(-delta)}
	for k, v := range next.Writes {
		switch v.Kind {
		case KindStack:
			switch {
			case v.StackIdx == 0 && v.StackSize == delta && resultReg != nil:
				out.Writes[k] = RegValue(*resultReg)
				addCoveringAliases(out.Writes, k, *resultReg)
			case v.StackIdx < delta:
				out.Writes[k] = AnyValue
			default:
				out.Writes[k] = StackValue(v.StackIdx-delta, v.StackSize)
			}
		default:
			out.Writes[k] = v
		}
	}
	removeSelfMappings(out.Writes)
	return out
}

// addCoveringAliases records that dst's byte halves now alias src's byte
// halves, when both are GPRs with a covering (mov/pop-restore ax<-bx also
// threads ah<-bh, al<-bl).
func addCoveringAliases(m map[asm.Reg]Value, dst, src asm.Reg) {
	dhi, dlo, ok := asm.Covering(dst)
	if !ok {
		return
	}
	shi, slo, ok := asm.Covering(src)
	if !ok {
		return
	}
	m[dhi] = RegValue(shi)
	m[dlo] = RegValue(slo)
}

// seq sequences a single-instruction write map delta before next: this is
// composition of "this key holds register r afterwards" (from next) with
// "this instruction just defined r" (from delta).
func seq(next *Summary, delta map[asm.Reg]Value) *Summary {
	if !next.DoesReturn() {
		return NoReturn()
	}
	out := &Summary{Writes: map[asm.Reg]Value{}, ReturnsAt: cloneReturnsAt(next.ReturnsAt), SP: next.SP}
	for k, v := range next.Writes {
		if v.Kind == KindReg {
			if dv, ok := delta[v.Reg]; ok {
				out.Writes[k] = dv
				continue
			}
		}
		out.Writes[k] = v
	}
	for k, v := range delta {
		if _, covered := next.Writes[k]; !covered {
			out.Writes[k] = v
		}
	}
	removeSelfMappings(out.Writes)
	return out
}

// merge combines two successor suffixes reaching the same instruction
// (conditional-jump target vs. fall-through, or two predecessors of a
// labelled instruction). Elementwise over Writes: identical bindings
// agree, everything else raises to Any; ReturnsAt is union; SP agrees or
// becomes Any; a no-return side is discarded.
func merge(a, b *Summary) *Summary {
	if !a.DoesReturn() {
		return b
	}
	if !b.DoesReturn() {
		return a
	}
	out := &Summary{Writes: map[asm.Reg]Value{}, ReturnsAt: unionReturnsAt(a.ReturnsAt, b.ReturnsAt), SP: mergeSP(a.SP, b.SP)}
	seen := make(map[asm.Reg]struct{}, len(a.Writes)+len(b.Writes))
	for k := range a.Writes {
		seen[k] = struct{}{}
	}
	for k := range b.Writes {
		seen[k] = struct{}{}
	}
	for k := range seen {
		av, aok := a.Writes[k]
		bv, bok := b.Writes[k]
		if aok && bok && av.equal(bv) {
			out.Writes[k] = av
			continue
		}
		out.Writes[k] = AnyValue
	}
	return out
}
