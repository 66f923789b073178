package parser

import (
	"strings"

	"github.com/jamlift/asm86lift/internal/asm"
)

// jccConditions maps every recognised conditional-jump mnemonic (including
// jcxz) to its condition-code suffix, used by the structured-instruction
// post-pass (§6) to populate Instruction.Cond.
var jccConditions = map[string]string{
	"jz": "z", "je": "e", "jnz": "nz", "jne": "ne",
	"js": "s", "jns": "ns",
	"jo": "o", "jno": "no",
	"jp": "p", "jpe": "pe", "jnp": "np", "jpo": "po",
	"jc": "c", "jb": "b", "jnae": "nae", "jnc": "nc", "jnb": "nb", "jae": "ae",
	"jbe": "be", "jna": "na", "ja": "a", "jnbe": "nbe",
	"jl": "l", "jnge": "nge", "jge": "ge", "jnl": "nl",
	"jle": "le", "jng": "ng", "jg": "g", "jnle": "nle",
	"jcxz": "cxz",
}

// recognizeStructured converts specific mnemonics to their typed variants
// (§6): mov becomes KindDataMove, and any j* jump becomes KindJump or
// KindCondJump. On any operand-count mismatch the generic form is retained
// silently (§7).
func recognizeStructured(in *asm.Instruction) {
	switch {
	case in.Mnemonic == "mov":
		if len(in.Operands) == 2 {
			dst, src := in.Operands[0], in.Operands[1]
			in.Kind = asm.KindDataMove
			in.Dst = &dst
			in.Src = &src
			classifyMemOperand(in.Dst)
			classifyMemOperand(in.Src)
		}
	case in.Mnemonic == "jmp":
		if len(in.Operands) == 1 {
			target := in.Operands[0]
			in.Kind = asm.KindJump
			in.Target = &target
			classifyMemOperand(in.Target)
		}
	default:
		if cond, ok := jccConditions[in.Mnemonic]; ok && len(in.Operands) == 1 {
			target := in.Operands[0]
			in.Kind = asm.KindCondJump
			in.Target = &target
			in.Cond = cond
			classifyMemOperand(in.Target)
		}
	}
}

// classifyMemOperand populates a structured instruction's memory operand
// with its (base-reg?, index-reg?, displacement?) classification (§3): base
// restricted to bx|bp, index to si|di, anything else in the address
// expression treated as displacement. A no-op for non-memory operands.
func classifyMemOperand(o *asm.Operand) {
	if o == nil || o.Kind != asm.OperandMemory || o.Inner == nil {
		return
	}
	o.Mem = classifyMemShape(*o.Inner)
}

func classifyMemShape(addr asm.Operand) *asm.MemShape {
	var regs []asm.Reg
	var disps []*asm.Operand
	collectMemTerms(addr, &regs, &disps)

	shape := &asm.MemShape{}
	for _, r := range regs {
		switch r {
		case asm.BX, asm.BP:
			if shape.Base == nil {
				reg := r
				shape.Base = &reg
			}
		case asm.SI, asm.DI:
			if shape.Index == nil {
				reg := r
				shape.Index = &reg
			}
		}
	}

	switch len(disps) {
	case 0:
		// no displacement term
	case 1:
		shape.Disp = disps[0]
	default:
		combined := disps[0]
		for _, d := range disps[1:] {
			l, r := *combined, *d
			combined = &asm.Operand{Kind: asm.OperandBinary, BinOp: '+', Left: &l, Right: &r}
		}
		shape.Disp = combined
	}
	return shape
}

// collectMemTerms walks an address expression's +/- tree, splitting
// register leaves (base/index candidates) from everything else
// (displacement candidates: numbers, symbols, program-counter references).
func collectMemTerms(addr asm.Operand, regs *[]asm.Reg, disps *[]*asm.Operand) {
	switch addr.Kind {
	case asm.OperandRegister:
		*regs = append(*regs, addr.Reg)
	case asm.OperandBinary:
		if addr.Left != nil {
			collectMemTerms(*addr.Left, regs, disps)
		}
		if addr.Right != nil {
			collectMemTerms(*addr.Right, regs, disps)
		}
	case asm.OperandUnary:
		if addr.Inner != nil {
			collectMemTerms(*addr.Inner, regs, disps)
		}
	default:
		term := addr
		*disps = append(*disps, &term)
	}
}

// LookupJcc reports whether mnemonic is one of the conditional jump forms
// recognised by the structured post-pass, and its condition-code suffix.
func LookupJcc(mnemonic string) (string, bool) {
	cond, ok := jccConditions[strings.ToLower(mnemonic)]
	return cond, ok
}
