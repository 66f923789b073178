package emit

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamlift/asm86lift/internal/asm"
	"github.com/jamlift/asm86lift/internal/funcdiscovery"
	"github.com/jamlift/asm86lift/internal/liveness"
	"github.com/jamlift/asm86lift/internal/writeanalysis"
)

func reg(r asm.Reg) asm.Operand { return asm.Operand{Kind: asm.OperandRegister, Reg: r} }
func sym(s string) asm.Operand  { return asm.Operand{Kind: asm.OperandSymbol, Text: s} }

func build(instructions []asm.Instruction, labelIndex map[string]int, indexLabels map[int][]string, constants []asm.Constant) *asm.Program {
	for i := range instructions {
		instructions[i].Index = i
	}
	return &asm.Program{
		Instructions: instructions,
		LabelIndex:   labelIndex,
		IndexLabels:  indexLabels,
		Constants:    constants,
	}
}

func TestFormatWritesShapes(t *testing.T) {
	t.Run("no return", func(t *testing.T) {
		assert.Equal(t, "no return", formatWrites(writeanalysis.NoReturn()))
	})
	t.Run("register copy", func(t *testing.T) {
		s := &writeanalysis.Summary{
			Writes:    map[asm.Reg]writeanalysis.Value{asm.AX: writeanalysis.RegValue(asm.BX)},
			ReturnsAt: map[int]struct{}{0: {}},
			SP:        writeanalysis.ConcreteSP(0),
		}
		assert.Equal(t, "ax=bx", formatWrites(s))
	})
	t.Run("stack slot", func(t *testing.T) {
		s := &writeanalysis.Summary{
			Writes:    map[asm.Reg]writeanalysis.Value{asm.AX: writeanalysis.StackValue(0, 2)},
			ReturnsAt: map[int]struct{}{0: {}},
			SP:        writeanalysis.ConcreteSP(0),
		}
		assert.Equal(t, "ax=[sp+0]", formatWrites(s))
	})
	t.Run("any clobber", func(t *testing.T) {
		s := &writeanalysis.Summary{
			Writes:    map[asm.Reg]writeanalysis.Value{asm.AX: writeanalysis.AnyValue},
			ReturnsAt: map[int]struct{}{0: {}},
			SP:        writeanalysis.AnySP,
		}
		assert.Equal(t, "ax", formatWrites(s))
	})
}

func TestEmitEndToEnd(t *testing.T) {
	prog := build(
		[]asm.Instruction{
			{Mnemonic: "mov", Kind: asm.KindDataMove, Operands: []asm.Operand{reg(asm.AX), reg(asm.BX)},
				Dst: ptr(reg(asm.AX)), Src: ptr(reg(asm.BX))},
			{Mnemonic: "ret"},
		},
		map[string]int{},
		map[int][]string{},
		[]asm.Constant{{Name: "COUNT", Value: asm.Operand{Kind: asm.OperandNumber, Number: 5}, Comment: "iteration bound"}},
	)
	wr := writeanalysis.Run(prog)
	fd := funcdiscovery.Run(prog, wr)
	lv := liveness.Run(prog, wr, fd)

	out := Emit(prog, wr, fd, lv)

	require.True(t, strings.Contains(out, "const int COUNT = 5;"))
	require.True(t, strings.Contains(out, "// iteration bound"))
	require.True(t, strings.Contains(out, "int main(){"))
	require.True(t, strings.Contains(out, `asm("mov ax, bx");`))
	require.True(t, strings.Contains(out, `asm("ret");`))
	require.True(t, strings.Contains(out, "// writes: ah=bh, al=bl, ax=bx"))
}

func TestEmitFunctionLabelAnnotations(t *testing.T) {
	prog := build(
		[]asm.Instruction{
			{Mnemonic: "call", Operands: []asm.Operand{sym("F")}},
			{Mnemonic: "ret"},
			{Mnemonic: "ret"},
		},
		map[string]int{"F": 2},
		map[int][]string{2: {"F"}},
		nil,
	)
	wr := writeanalysis.Run(prog)
	fd := funcdiscovery.Run(prog, wr)
	lv := liveness.Run(prog, wr, fd)

	out := Emit(prog, wr, fd, lv)
	require.True(t, strings.Contains(out, "// function"))
	require.True(t, strings.Contains(out, "// returns: none"))
	require.True(t, strings.Contains(out, "F:"))
}

func ptr(o asm.Operand) *asm.Operand { return &o }
