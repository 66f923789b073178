package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamlift/asm86lift/internal/asm"
	"github.com/jamlift/asm86lift/internal/lexer"
)

func toks(src string) []lexer.Token { return lexer.Lex([]byte(src)) }

func TestLabelWithColonAttachesToNextInstruction(t *testing.T) {
	prog := Parse(toks("start: mov ax, bx\n"))
	require.Equal(t, 1, prog.Len())
	assert.Equal(t, []string{"start"}, prog.LabelsAt(0))
	assert.Equal(t, 0, prog.LabelIndex["start"])
}

func TestBareLabelLineAttachesToFollowingInstruction(t *testing.T) {
	prog := Parse(toks("skip:\nmov ax, bx\n"))
	require.Equal(t, 1, prog.Len())
	assert.Equal(t, []string{"skip"}, prog.LabelsAt(0))
}

func TestColonlessLabelWithDirectiveIsHoisted(t *testing.T) {
	prog := Parse(toks("COUNT EQU 5\nmov ax, COUNT\n"))
	require.Len(t, prog.Constants, 1)
	assert.Equal(t, "COUNT", prog.Constants[0].Name)
	assert.Equal(t, int64(5), prog.Constants[0].Value.Number)
	require.Equal(t, 1, prog.Len())
}

func TestOperandAdditionIsLeftAssociative(t *testing.T) {
	prog := Parse(toks("mov ax, 1 + 2 - 3\n"))
	require.Equal(t, 1, prog.Len())
	op := prog.At(0).Op(1)
	require.Equal(t, asm.OperandBinary, op.Kind)
	assert.Equal(t, byte('-'), op.BinOp)
	// left branch of the outer '-' must be the inner '1 + 2'
	require.Equal(t, asm.OperandBinary, op.Left.Kind)
	assert.Equal(t, byte('+'), op.Left.BinOp)
	assert.Equal(t, int64(3), op.Right.Number)
}

func TestMemoryOperandBrackets(t *testing.T) {
	prog := Parse(toks("mov ax, [bx+2]\n"))
	op := prog.At(0).Op(1)
	require.Equal(t, asm.OperandMemory, op.Kind)
	require.Equal(t, asm.OperandBinary, op.Inner.Kind)
	assert.Equal(t, asm.OperandRegister, op.Inner.Left.Kind)
	assert.Equal(t, asm.BX, op.Inner.Left.Reg)
}

func TestMovMemoryOperandClassifiesBaseAndDisplacement(t *testing.T) {
	prog := Parse(toks("mov ax, [bx+2]\n"))
	in := prog.At(0)
	require.NotNil(t, in.Src)
	require.Equal(t, asm.OperandMemory, in.Src.Kind)
	require.NotNil(t, in.Src.Mem)
	require.NotNil(t, in.Src.Mem.Base)
	assert.Equal(t, asm.BX, *in.Src.Mem.Base)
	assert.Nil(t, in.Src.Mem.Index)
	require.NotNil(t, in.Src.Mem.Disp)
	assert.Equal(t, int64(2), in.Src.Mem.Disp.Number)
}

func TestMovMemoryOperandClassifiesBaseAndIndex(t *testing.T) {
	prog := Parse(toks("mov ax, [bx+si]\n"))
	in := prog.At(0)
	require.NotNil(t, in.Src.Mem)
	require.NotNil(t, in.Src.Mem.Base)
	assert.Equal(t, asm.BX, *in.Src.Mem.Base)
	require.NotNil(t, in.Src.Mem.Index)
	assert.Equal(t, asm.SI, *in.Src.Mem.Index)
	assert.Nil(t, in.Src.Mem.Disp)
}

func TestJmpMemoryOperandTargetClassified(t *testing.T) {
	prog := Parse(toks("jmp [bp+4]\n"))
	in := prog.At(0)
	require.Equal(t, asm.KindJump, in.Kind)
	require.NotNil(t, in.Target.Mem)
	require.NotNil(t, in.Target.Mem.Base)
	assert.Equal(t, asm.BP, *in.Target.Mem.Base)
}

func TestUnterminatedMemoryOperandIsGarbage(t *testing.T) {
	prog := Parse(toks("mov ax, [bx+2\n"))
	op := prog.At(0).Op(1)
	assert.Equal(t, asm.OperandGarbage, op.Kind)
}

func TestUnrecognisedOperandFallsBackToGarbage(t *testing.T) {
	prog := Parse(toks("mov ax, ,\n"))
	op := prog.At(0).Op(1)
	assert.Equal(t, asm.OperandGarbage, op.Kind)
}

func TestMovRecognisedAsStructured(t *testing.T) {
	prog := Parse(toks("mov ax, bx\n"))
	in := prog.At(0)
	require.Equal(t, asm.KindDataMove, in.Kind)
	require.NotNil(t, in.Dst)
	require.NotNil(t, in.Src)
	assert.Equal(t, asm.AX, in.Dst.Reg)
	assert.Equal(t, asm.BX, in.Src.Reg)
}

func TestMovWithWrongOperandCountStaysGeneric(t *testing.T) {
	prog := Parse(toks("mov ax\n"))
	in := prog.At(0)
	assert.Equal(t, asm.KindGeneric, in.Kind)
	assert.Nil(t, in.Dst)
}

func TestConditionalJumpRecognisedAsStructured(t *testing.T) {
	prog := Parse(toks("jle done\n"))
	in := prog.At(0)
	require.Equal(t, asm.KindCondJump, in.Kind)
	assert.Equal(t, "le", in.Cond)
	require.NotNil(t, in.Target)
	assert.Equal(t, "done", in.Target.Text)
}

func TestUnconditionalJumpRecognisedAsStructured(t *testing.T) {
	prog := Parse(toks("jmp done\n"))
	in := prog.At(0)
	require.Equal(t, asm.KindJump, in.Kind)
	require.NotNil(t, in.Target)
	assert.Equal(t, "done", in.Target.Text)
}

func TestCommaSeparatedOperandsParseInOrder(t *testing.T) {
	prog := Parse(toks("add ax, bx\n"))
	in := prog.At(0)
	require.Len(t, in.Operands, 2)
	assert.Equal(t, asm.AX, in.Operands[0].Reg)
	assert.Equal(t, asm.BX, in.Operands[1].Reg)
}
