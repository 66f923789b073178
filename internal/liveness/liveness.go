// Package liveness computes, per instruction, the set of register names
// live on entry (§4.5): a backward fixpoint that runs after write analysis
// and function discovery, and that must reconverge functionReturns on every
// outer pass since call/return wiring feeds back into the very liveBefore
// sets it is derived from.
package liveness

import (
	"strings"

	"github.com/jamlift/asm86lift/internal/asm"
	"github.com/jamlift/asm86lift/internal/funcdiscovery"
	"github.com/jamlift/asm86lift/internal/ioeffect"
	"github.com/jamlift/asm86lift/internal/log"
	"github.com/jamlift/asm86lift/internal/regalg"
	"github.com/jamlift/asm86lift/internal/writeanalysis"
)

// Result is the frozen output of Run.
type Result struct {
	liveBefore      []asm.RegSet
	functionReturns map[int]asm.RegSet
}

// LiveBefore returns the registers live on entry to instruction i.
func (r *Result) LiveBefore(i int) asm.RegSet { return r.liveBefore[i] }

// FunctionReturns returns the registers a call to entry e might return
// through, per the converged functionReturns[e] set.
func (r *Result) FunctionReturns(e int) asm.RegSet {
	if s, ok := r.functionReturns[e]; ok {
		return s
	}
	return asm.RegSet{}
}

// Run computes liveBefore for every instruction in prog, given its write
// summaries wr and its discovered function entries fd.
func Run(prog *asm.Program, wr *writeanalysis.Result, fd *funcdiscovery.Result) *Result {
	n := prog.Len()
	liveBefore := make([]asm.RegSet, n)
	for i := range liveBefore {
		liveBefore[i] = asm.RegSet{}
	}

	entries := fd.SortedEntries()

	// returnOwners[i] lists every entry e for which i is one of e's return
	// points (writesFrom[e].returnsAt contains i) — true both for an actual
	// `ret` at i and for a conditional jump at i targeting the bare literal
	// `ret` (write analysis records the latter the same way, §4.5).
	returnOwners := map[int][]int{}
	domWrites := map[int]asm.RegSet{}
	for _, e := range entries {
		dom := asm.RegSet{}
		for k := range wr.At(e).Writes {
			dom.Add(k)
		}
		domWrites[e] = dom
		for idx := range wr.At(e).ReturnsAt {
			returnOwners[idx] = append(returnOwners[idx], e)
		}
	}

	var functionReturns map[int]asm.RegSet

	for pass := 0; ; pass++ {
		functionReturns = map[int]asm.RegSet{}
		for _, e := range entries {
			fr := asm.RegSet{}
			for _, c := range fd.CallOrigins[e] {
				if c+1 < n {
					fr.AddAll(liveBefore[c+1].Intersect(domWrites[e]))
				}
			}
			functionReturns[e] = fr
		}

		changed := false
		for i := n - 1; i >= 0; i-- {
			next := transfer(prog, wr, liveBefore, functionReturns, returnOwners, i)
			next = regalg.DecomposeCoverings(next)
			if !next.Equal(liveBefore[i]) {
				liveBefore[i] = next
				changed = true
			}
		}
		if !changed {
			log.Debug(log.Liveness, "liveness converged", "passes", pass+1, "instructions", n)
			break
		}
	}

	return &Result{liveBefore: liveBefore, functionReturns: functionReturns}
}

func liveBeforeOf(liveBefore []asm.RegSet, i int) asm.RegSet {
	if i < 0 || i >= len(liveBefore) {
		return asm.RegSet{}
	}
	return liveBefore[i]
}

// returnEdgeLive unions functionReturns[e] over every entry e that claims i
// as one of its return points.
func returnEdgeLive(functionReturns map[int]asm.RegSet, returnOwners map[int][]int, i int) asm.RegSet {
	out := asm.RegSet{}
	for _, e := range returnOwners[i] {
		out.AddAll(functionReturns[e])
	}
	return out
}

func transfer(prog *asm.Program, wr *writeanalysis.Result, liveBefore []asm.RegSet, functionReturns map[int]asm.RegSet, returnOwners map[int][]int, i int) asm.RegSet {
	in := prog.At(i)

	switch {
	case in.IsRet():
		return returnEdgeLive(functionReturns, returnOwners, i)

	case in.Mnemonic == "call":
		target, ok := callTarget(prog, in)
		if !ok {
			log.Warn(log.Liveness, "unresolved call target", "index", i)
			return asm.RegSet{}
		}
		out := liveBeforeOf(liveBefore, target).Clone()
		rest := liveBeforeOf(liveBefore, i+1).Clone()
		dom := asm.RegSet{}
		for k := range wr.At(target).Writes {
			dom.Add(k)
		}
		for _, r := range rest.Sorted() {
			if !dom.Has(r) {
				out.Add(r)
			}
		}
		return out

	case in.Kind == asm.KindJump:
		target, ok := jumpTargetIndex(prog, in)
		if !ok {
			log.Warn(log.Liveness, "unresolved jump target", "index", i)
			return asm.RegSet{}
		}
		return liveBeforeOf(liveBefore, target).Clone()

	case in.Kind == asm.KindCondJump:
		out := liveBeforeOf(liveBefore, i+1).Clone()
		uses, _ := ioeffect.IO(in)
		out.AddAll(uses)
		if isLiteralRetTarget(in) {
			out.AddAll(returnEdgeLive(functionReturns, returnOwners, i))
			return out
		}
		if target, ok := condJumpTargetIndex(prog, in); ok {
			out.AddAll(liveBeforeOf(liveBefore, target))
		}
		return out

	default:
		uses, defines := ioeffect.IO(in)
		out := regalg.DecomposeCoverings(liveBeforeOf(liveBefore, i+1).Clone())
		for _, r := range regalg.ExpandAliases(defines).Sorted() {
			out.Remove(r)
		}
		out.AddAll(uses)
		return out
	}
}

func isLiteralRetTarget(in *asm.Instruction) bool {
	target := in.Target
	if target == nil && len(in.Operands) > 0 {
		target = &in.Operands[len(in.Operands)-1]
	}
	return target != nil && target.Kind == asm.OperandSymbol && strings.EqualFold(target.Text, "ret")
}

func callTarget(prog *asm.Program, in *asm.Instruction) (int, bool) {
	op := in.Target
	if op == nil && len(in.Operands) > 0 {
		op = &in.Operands[0]
	}
	return prog.LabelTarget(op)
}

func jumpTargetIndex(prog *asm.Program, in *asm.Instruction) (int, bool) {
	op := in.Target
	if op == nil && len(in.Operands) > 0 {
		op = &in.Operands[0]
	}
	return prog.LabelTarget(op)
}

func condJumpTargetIndex(prog *asm.Program, in *asm.Instruction) (int, bool) {
	op := in.Target
	if op == nil && len(in.Operands) > 0 {
		op = &in.Operands[len(in.Operands)-1]
	}
	return prog.LabelTarget(op)
}
