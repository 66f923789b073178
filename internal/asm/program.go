package asm

// Constant is a `NAME EQU value` pair hoisted out of the line stream by
// constant extraction (§4.6).
type Constant struct {
	Name    string
	Value   Operand
	Comment string
}

// Program is the frozen, once-constructed input every analysis pass reads:
// an instruction array plus index-keyed side tables for labels, never graph
// edges embedded in the instruction record itself (§9).
type Program struct {
	Instructions []Instruction

	// LabelIndex maps a label name to the index of the next following
	// instruction; IndexLabels is its inverse multi-mapping.
	LabelIndex  map[string]int
	IndexLabels map[int][]string

	Constants []Constant
}

// Len returns the number of instructions.
func (p *Program) Len() int { return len(p.Instructions) }

// At returns a pointer to the instruction at i, or nil if i is out of
// range.
func (p *Program) At(i int) *Instruction {
	if i < 0 || i >= len(p.Instructions) {
		return nil
	}
	return &p.Instructions[i]
}

// LabelTarget resolves an operand to the instruction index it names, if the
// operand is a plain symbol referring to a known label.
func (p *Program) LabelTarget(o *Operand) (int, bool) {
	if o == nil || o.Kind != OperandSymbol {
		return 0, false
	}
	idx, ok := p.LabelIndex[o.Text]
	return idx, ok
}

// LabelsAt returns the labels attached to instruction index i, if any.
func (p *Program) LabelsAt(i int) []string {
	return p.IndexLabels[i]
}
