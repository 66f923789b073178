// Package emit renders the analysed program as an annotated pseudo-C
// transcription (§6): one const declaration per extracted constant, then a
// main() body of asm("...") lines with write-summary and function/returns
// annotations as leading comments.
package emit

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jamlift/asm86lift/internal/asm"
	"github.com/jamlift/asm86lift/internal/funcdiscovery"
	"github.com/jamlift/asm86lift/internal/liveness"
	"github.com/jamlift/asm86lift/internal/writeanalysis"
)

// Emit renders the full pseudo-C output for prog given its converged
// analysis results. The rendering is a pure function of its inputs, so two
// runs over the same program produce byte-identical output (§8 invariant 6).
func Emit(prog *asm.Program, wr *writeanalysis.Result, fd *funcdiscovery.Result, lv *liveness.Result) string {
	var b strings.Builder

	for _, c := range prog.Constants {
		if c.Comment != "" {
			fmt.Fprintf(&b, "// %s\n", c.Comment)
		}
		fmt.Fprintf(&b, "const int %s = %s;\n", c.Name, operandLiteral(c.Value))
	}
	if len(prog.Constants) > 0 {
		b.WriteString("\n")
	}

	b.WriteString("int main(){\n")
	for i := 0; i < prog.Len(); i++ {
		emitLabelAnnotations(&b, prog, fd, lv, i)
		emitInstruction(&b, prog, wr, i)
	}
	b.WriteString("}\n")

	return b.String()
}

func emitLabelAnnotations(b *strings.Builder, prog *asm.Program, fd *funcdiscovery.Result, lv *liveness.Result, i int) {
	labels := prog.LabelsAt(i)
	if len(labels) == 0 {
		return
	}
	if fd.IsEntry(i) {
		b.WriteString("// function\n")
		fmt.Fprintf(b, "// returns: %s\n", formatRegList(fd, lv, i))
	}
	for _, name := range labels {
		fmt.Fprintf(b, "%s:\n", name)
	}
}

// formatRegList renders entry i's converged functionReturns set in sorted
// order, or "none" if it returns nothing observable.
func formatRegList(fd *funcdiscovery.Result, lv *liveness.Result, i int) string {
	regs := lv.FunctionReturns(i).Sorted()
	if len(regs) == 0 {
		return "none"
	}
	names := make([]string, len(regs))
	for i, r := range regs {
		names[i] = r.String()
	}
	return strings.Join(names, ", ")
}

func emitInstruction(b *strings.Builder, prog *asm.Program, wr *writeanalysis.Result, i int) {
	in := prog.At(i)
	for _, c := range in.LeadingComments {
		fmt.Fprintf(b, "// %s\n", c)
	}
	fmt.Fprintf(b, "// writes: %s\n", formatWrites(wr.At(i)))
	line := fmt.Sprintf("asm(\"%s\");", renderInstructionText(in))
	if in.TrailingComment != "" {
		line += " // " + in.TrailingComment
	}
	b.WriteString(line)
	b.WriteString("\n")
}

// formatWrites renders a write summary's Writes map in sorted key order
// using the reg / reg=otherReg / reg=[sp+idx] formats (§6), or the literal
// "no return" when the suffix never reaches a ret.
func formatWrites(s *writeanalysis.Summary) string {
	if !s.DoesReturn() {
		return "no return"
	}
	keys := make([]asm.Reg, 0, len(s.Writes))
	for k := range s.Writes {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		v := s.Writes[k]
		switch v.Kind {
		case writeanalysis.KindReg:
			parts = append(parts, fmt.Sprintf("%s=%s", k, v.Reg))
		case writeanalysis.KindStack:
			parts = append(parts, fmt.Sprintf("%s=[sp+%d]", k, v.StackIdx))
		default:
			parts = append(parts, k.String())
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ", ")
}

func operandLiteral(o asm.Operand) string {
	switch o.Kind {
	case asm.OperandNumber:
		if o.Hex {
			return fmt.Sprintf("0x%x", o.Number)
		}
		return fmt.Sprintf("%d", o.Number)
	case asm.OperandString:
		return fmt.Sprintf("%q", o.Text)
	case asm.OperandSymbol:
		return o.Text
	default:
		return renderOperand(o)
	}
}

func renderInstructionText(in *asm.Instruction) string {
	parts := make([]string, 0, len(in.Operands)+1)
	parts = append(parts, in.Mnemonic)
	operands := make([]string, len(in.Operands))
	for i, o := range in.Operands {
		operands[i] = renderOperand(o)
	}
	if len(operands) > 0 {
		return parts[0] + " " + strings.Join(operands, ", ")
	}
	return parts[0]
}

func renderOperand(o asm.Operand) string {
	switch o.Kind {
	case asm.OperandRegister:
		return o.Reg.String()
	case asm.OperandNumber:
		if o.Hex {
			return fmt.Sprintf("%xh", o.Number)
		}
		return fmt.Sprintf("%d", o.Number)
	case asm.OperandString:
		return "'" + o.Text + "'"
	case asm.OperandSymbol:
		return o.Text
	case asm.OperandProgramCounter:
		return "$"
	case asm.OperandMemory:
		return "[" + renderOperand(*o.Inner) + "]"
	case asm.OperandUnary:
		return string(o.UnOp) + renderOperand(*o.Inner)
	case asm.OperandBinary:
		return renderOperand(*o.Left) + string(o.BinOp) + renderOperand(*o.Right)
	case asm.OperandGarbage:
		return "/* " + o.Text + " */"
	default:
		return "?"
	}
}
