package asm

// OperandKind discriminates the recursive operand expression grammar of §3.
type OperandKind int

const (
	OperandRegister OperandKind = iota
	OperandNumber
	OperandString
	OperandSymbol
	OperandMemory
	OperandBinary
	OperandUnary
	OperandProgramCounter // the `$` token
	OperandGarbage
)

// Operand is a recursive expression: register reference, numeric or string
// literal, named variable, memory indirection, binary +/-, unary +/-, or a
// diagnostic-carrying garbage placeholder (§3, §7).
type Operand struct {
	Kind OperandKind

	Reg    Reg    // OperandRegister
	Number int64  // OperandNumber
	Hex    bool   // OperandNumber: literal had a trailing H
	Text   string // OperandString value, OperandSymbol name, OperandGarbage diagnostic

	Inner *Operand // OperandUnary operand; OperandMemory address expression
	UnOp  byte     // OperandUnary: '+' or '-'

	Left, Right *Operand // OperandBinary
	BinOp       byte     // OperandBinary: '+' or '-'

	Mem *MemShape // populated for structured-instruction memory operands (§3)
}

// MemShape classifies a memory operand's addressing mode once a structured
// instruction has been recognised: base restricted to bx|bp, index to
// si|di, and an optional displacement expression.
type MemShape struct {
	Base  *Reg
	Index *Reg
	Disp  *Operand
}

// IsRegister reports whether the operand is a bare register reference,
// which several of the §4.3 transfer rules require distinguishing from a
// memory or immediate operand.
func (o Operand) IsRegister() bool { return o.Kind == OperandRegister }

// Garbage builds a garbage operand carrying a diagnostic (§7).
func Garbage(diagnostic string) Operand {
	return Operand{Kind: OperandGarbage, Text: diagnostic}
}
