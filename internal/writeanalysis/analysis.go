package writeanalysis

import (
	"strings"

	"github.com/jamlift/asm86lift/internal/asm"
	"github.com/jamlift/asm86lift/internal/ioeffect"
	"github.com/jamlift/asm86lift/internal/log"
	"github.com/jamlift/asm86lift/internal/regalg"
)

// Result is the frozen output of Run: one Summary per instruction index.
type Result struct {
	summaries []*Summary
}

// At returns the write summary of the suffix starting at i.
func (r *Result) At(i int) *Summary { return r.summaries[i] }

// Len returns the number of instructions covered.
func (r *Result) Len() int { return len(r.summaries) }

// Run computes write summaries for every instruction in prog by iterating
// the transfer function to a fixpoint (§4.3). Iteration sweeps in reverse
// instruction index, which converges straight-line code in a single pass;
// backward jumps and loops still need repeated sweeps, so the outer loop
// runs until no cell changes.
func Run(prog *asm.Program) *Result {
	n := prog.Len()
	summaries := make([]*Summary, n)
	for i := range summaries {
		summaries[i] = NoReturn()
	}

	for pass := 0; ; pass++ {
		changed := false
		for i := n - 1; i >= 0; i-- {
			next := transfer(prog, summaries, i)
			if !next.Equal(summaries[i]) {
				summaries[i] = next
				changed = true
			}
		}
		if !changed {
			log.Debug(log.WriteAnalysis, "write analysis converged", "passes", pass+1, "instructions", n)
			break
		}
	}

	return &Result{summaries: summaries}
}

func successor(summaries []*Summary, i int) *Summary {
	if i < 0 || i >= len(summaries) {
		return NoReturn()
	}
	return summaries[i]
}

func transfer(prog *asm.Program, summaries []*Summary, i int) *Summary {
	in := prog.At(i)
	next := successor(summaries, i+1)

	switch {
	case in.Kind == asm.KindDataMove || in.Mnemonic == "mov":
		return movTransfer(prog, in, next)
	case in.Mnemonic == "push":
		if r, ok := regOperand(in.Op(0)); ok {
			return popThrough(next, 2, &r)
		}
		return popThrough(next, 2, nil)
	case in.Mnemonic == "pop":
		out := pushThrough(next, 2)
		if r, ok := regOperand(in.Op(0)); ok {
			if !out.DoesReturn() {
				return out
			}
			out.Writes[r] = StackValue(0, 2)
			removeSelfMappings(out.Writes)
		}
		return out
	case in.IsRet():
		return &Summary{
			Writes:    map[asm.Reg]Value{},
			ReturnsAt: map[int]struct{}{i: {}},
			SP:        ConcreteSP(0),
		}
	case in.Kind == asm.KindJump:
		return jumpTransfer(prog, in, summaries)
	case in.Kind == asm.KindCondJump:
		return condJumpTransfer(prog, in, next, summaries)
	case in.Mnemonic == "call", in.Mnemonic == "int":
		// Fully unknown; fall through as if they defined nothing (§4.3, a
		// known under-approximation — see §9).
		return seq(next, map[asm.Reg]Value{})
	default:
		_, defines := ioeffect.IO(in)
		delta := map[asm.Reg]Value{}
		for _, r := range regalg.ExpandAliases(defines).Sorted() {
			delta[r] = AnyValue
		}
		return seq(next, delta)
	}
}

func regOperand(o asm.Operand) (asm.Reg, bool) {
	if o.Kind == asm.OperandRegister {
		return o.Reg, true
	}
	return asm.RegNone, false
}

func movTransfer(prog *asm.Program, in *asm.Instruction, next *Summary) *Summary {
	dst := in.Op(0)
	src := in.Op(1)
	if in.Kind == asm.KindDataMove {
		if in.Dst != nil {
			dst = *in.Dst
		}
		if in.Src != nil {
			src = *in.Src
		}
	}

	if dstReg, ok := regOperand(dst); ok && dstReg == asm.SP {
		return spResetTransfer(next)
	}

	dstReg, dstIsReg := regOperand(dst)
	srcReg, srcIsReg := regOperand(src)

	if dstIsReg && srcIsReg {
		delta := map[asm.Reg]Value{}
		for _, r := range regalg.ExpandAliases(asm.NewRegSet(dstReg)).Sorted() {
			delta[r] = AnyValue
		}
		delta[dstReg] = RegValue(srcReg)
		if dhi, dlo, ok := asm.Covering(dstReg); ok {
			if shi, slo, ok2 := asm.Covering(srcReg); ok2 {
				delta[dhi] = RegValue(shi)
				delta[dlo] = RegValue(slo)
			}
		}
		return seq(next, delta)
	}

	delta := map[asm.Reg]Value{}
	if dstIsReg {
		for _, r := range regalg.ExpandAliases(asm.NewRegSet(dstReg)).Sorted() {
			delta[r] = AnyValue
		}
	}
	return seq(next, delta)
}

// spResetTransfer implements "mov sp, src": stack-pointer reset
// invalidates all stack aliasing tracked so far. Every register the
// downstream suffix binds (widened by alias) becomes Any, and the
// stack-pointer delta itself becomes unknowable past this point.
func spResetTransfer(next *Summary) *Summary {
	if !next.DoesReturn() {
		return NoReturn()
	}
	keys := asm.RegSet{}
	for k := range next.Writes {
		keys.Add(k)
	}
	out := &Summary{Writes: map[asm.Reg]Value{}, ReturnsAt: cloneReturnsAt(next.ReturnsAt), SP: AnySP}
	for _, r := range regalg.ExpandAliases(keys).Sorted() {
		out.Writes[r] = AnyValue
	}
	return out
}

func jumpTransfer(prog *asm.Program, in *asm.Instruction, summaries []*Summary) *Summary {
	target := in.Target
	if target == nil && len(in.Operands) > 0 {
		target = &in.Operands[0]
	}
	if idx, ok := prog.LabelTarget(target); ok {
		return successor(summaries, idx)
	}
	log.Warn(log.WriteAnalysis, "unresolved jump target", "index", in.Index)
	return NoReturn()
}

func condJumpTransfer(prog *asm.Program, in *asm.Instruction, fallthroughSummary *Summary, summaries []*Summary) *Summary {
	target := in.Target
	if target == nil && len(in.Operands) > 0 {
		target = &in.Operands[len(in.Operands)-1]
	}
	// A conditional jump whose operand is the bare literal `ret` (not a
	// declared label) is a historic idiom for "if taken, return": model it
	// as if this instruction were itself a ret when the branch fires.
	if target != nil && target.Kind == asm.OperandSymbol && strings.EqualFold(target.Text, "ret") {
		retSummary := &Summary{Writes: map[asm.Reg]Value{}, ReturnsAt: map[int]struct{}{in.Index: {}}, SP: ConcreteSP(0)}
		return merge(retSummary, fallthroughSummary)
	}
	if idx, ok := prog.LabelTarget(target); ok {
		return merge(successor(summaries, idx), fallthroughSummary)
	}
	return fallthroughSummary
}
