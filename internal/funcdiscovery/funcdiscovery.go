// Package funcdiscovery identifies instruction indices that behave as
// function entries (§4.4): seeded from call targets, then grown by
// traversing a label-adjacency graph and promoting contested nodes whose
// abstract stack pointer is consistent with an entry.
package funcdiscovery

import (
	"sort"

	"github.com/jamlift/asm86lift/internal/asm"
	"github.com/jamlift/asm86lift/internal/log"
	"github.com/jamlift/asm86lift/internal/writeanalysis"
)

// Result is the frozen output of Run.
type Result struct {
	Entries map[int]struct{}
	// Owner maps every labelled index to the entry that claimed it during
	// growth (§4.4); an entry index owns itself.
	Owner map[int]int
	// CallOrigins maps an entry index to every call instruction index
	// that targets it (consumed by liveness, §4.5).
	CallOrigins map[int][]int
}

// IsEntry reports whether idx was discovered to be a function entry.
func (r *Result) IsEntry(idx int) bool {
	_, ok := r.Entries[idx]
	return ok
}

// SortedEntries returns the discovered entries in ascending order.
func (r *Result) SortedEntries() []int {
	out := make([]int, 0, len(r.Entries))
	for e := range r.Entries {
		out = append(out, e)
	}
	sort.Ints(out)
	return out
}

// Owned returns the labelled indices owned by entry e, sorted, e included.
func (r *Result) Owned(e int) []int {
	var out []int
	for idx, owner := range r.Owner {
		if owner == e {
			out = append(out, idx)
		}
	}
	sort.Ints(out)
	return out
}

// Run performs function discovery over prog using the write summaries wr
// already computed for it (§4.3's sp field decides eligibility).
func Run(prog *asm.Program, wr *writeanalysis.Result) *Result {
	graph := buildLabelGraph(prog)
	entries := seedFromCalls(prog)

	var owner map[int]int
	for {
		var promoted []int
		owner, promoted = growOnce(prog, graph, entries, wr)
		if len(promoted) == 0 {
			break
		}
		for _, p := range promoted {
			entries[p] = struct{}{}
		}
	}

	callOrigins := map[int][]int{}
	for i := range prog.Instructions {
		in := prog.At(i)
		if !in.IsCall() {
			continue
		}
		if idx, ok := resolveCallTarget(prog, in); ok {
			if _, isEntry := entries[idx]; isEntry {
				callOrigins[idx] = append(callOrigins[idx], i)
			}
		}
	}

	log.Debug(log.FuncDiscovery, "function discovery complete", "entries", len(entries))
	return &Result{Entries: entries, Owner: owner, CallOrigins: callOrigins}
}

func resolveCallTarget(prog *asm.Program, in *asm.Instruction) (int, bool) {
	op := in.Target
	if op == nil && len(in.Operands) > 0 {
		op = &in.Operands[0]
	}
	return prog.LabelTarget(op)
}

func seedFromCalls(prog *asm.Program) map[int]struct{} {
	entries := map[int]struct{}{}
	for i := range prog.Instructions {
		in := prog.At(i)
		if !in.IsCall() {
			continue
		}
		if idx, ok := resolveCallTarget(prog, in); ok {
			entries[idx] = struct{}{}
		}
	}
	return entries
}

// buildLabelGraph builds the adjacency lists described in §4.4 and §9:
// nodes are labelled indices, edges are fall-through to the next labelled
// index (unless broken by a ret or unconditional jump) and explicit jump
// targets (conditional and unconditional) resolved anywhere within a
// label's block.
func buildLabelGraph(prog *asm.Program) map[int][]int {
	var labelled []int
	for i := range prog.Instructions {
		if len(prog.LabelsAt(i)) > 0 {
			labelled = append(labelled, i)
		}
	}
	sort.Ints(labelled)

	edges := map[int][]int{}
	for pos, a := range labelled {
		end := prog.Len()
		if pos+1 < len(labelled) {
			end = labelled[pos+1]
		}
		broken := false
		for j := a; j < end; j++ {
			in := prog.At(j)
			switch in.Kind {
			case asm.KindJump:
				if idx, ok := jumpTarget(prog, in); ok {
					edges[a] = append(edges[a], idx)
				}
				broken = true
			case asm.KindCondJump:
				if idx, ok := condJumpTarget(prog, in); ok {
					edges[a] = append(edges[a], idx)
				}
			default:
				if in.IsRet() {
					broken = true
				}
			}
			if broken {
				break
			}
		}
		if !broken && end < prog.Len() {
			edges[a] = append(edges[a], end)
		}
	}
	return edges
}

func jumpTarget(prog *asm.Program, in *asm.Instruction) (int, bool) {
	op := in.Target
	if op == nil && len(in.Operands) > 0 {
		op = &in.Operands[0]
	}
	return prog.LabelTarget(op)
}

func condJumpTarget(prog *asm.Program, in *asm.Instruction) (int, bool) {
	op := in.Target
	if op == nil && len(in.Operands) > 0 {
		op = &in.Operands[len(in.Operands)-1]
	}
	return prog.LabelTarget(op)
}

func eligible(wr *writeanalysis.Result, idx int) bool {
	sp := wr.At(idx).SP
	return sp.Any || sp.Delta == 0
}

// growOnce performs one simultaneous multi-source traversal from every
// current entry, never crossing another entry's node, and returns both the
// resulting ownership map and any nodes that must be promoted to new
// entries because two entries' territories collided on an eligible node.
func growOnce(prog *asm.Program, graph map[int][]int, entries map[int]struct{}, wr *writeanalysis.Result) (map[int]int, []int) {
	owner := map[int]int{}
	var order []int
	for e := range entries {
		order = append(order, e)
	}
	sort.Ints(order)
	for _, e := range order {
		owner[e] = e
	}

	type work struct{ node, entry int }
	var queue []work
	for _, e := range order {
		queue = append(queue, work{e, e})
	}

	promotedSet := map[int]struct{}{}
	var promoted []int

	for len(queue) > 0 {
		w := queue[0]
		queue = queue[1:]
		for _, succ := range graph[w.node] {
			if _, isEntry := entries[succ]; isEntry && succ != w.entry {
				continue // never cross another entry
			}
			if existing, ok := owner[succ]; ok {
				if existing != w.entry {
					if _, already := entries[succ]; !already && !contains(promotedSet, succ) && eligible(wr, succ) {
						promotedSet[succ] = struct{}{}
						promoted = append(promoted, succ)
					}
				}
				continue
			}
			owner[succ] = w.entry
			queue = append(queue, work{succ, w.entry})
		}
	}

	sort.Ints(promoted)
	return owner, promoted
}

func contains(m map[int]struct{}, k int) bool {
	_, ok := m[k]
	return ok
}
